// Package plans загружает версионируемую таблицу тарифов: отображение
// внешнего идентификатора цены в валюту и количество начисляемых кредитов.
// Таблица конфигурируется снаружи и для ядра доступна только на чтение.
package plans

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/magabrotheeeer/lead-marketplace/internal/models"
)

// Plan одна позиция тарифной таблицы.
type Plan struct {
	PriceID string `yaml:"price_id"`
	Name    string `yaml:"name"`
	Credits int    `yaml:"credits"`
}

// Table тарифная таблица: планы подписок, фиксированные разовые продукты
// и два специальных продукта с переменным количеством.
type Table struct {
	Version       string `yaml:"version"`
	Subscriptions []Plan `yaml:"subscriptions"`
	OneTime       []Plan `yaml:"one_time"`
	// VariableLeadPackPriceID продукт "пакет лидов произвольного объёма":
	// начисляется quantity лид-кредитов из события.
	VariableLeadPackPriceID string `yaml:"variable_lead_pack_price_id"`
	// AISearchPackPriceID продукт AI-поиска: начисляется quantity
	// AI-кредитов из события.
	AISearchPackPriceID string `yaml:"ai_search_pack_price_id"`

	subscriptionsByID map[string]Plan
	oneTimeByID       map[string]Plan
}

// Load читает тарифную таблицу из YAML-файла.
func Load(path string) (*Table, error) {
	const op = "plans.Load"

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var t Table
	if err := cleanenv.ReadConfig(path, &t); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	t.index()
	return &t, nil
}

func (t *Table) index() {
	t.subscriptionsByID = make(map[string]Plan, len(t.Subscriptions))
	for _, p := range t.Subscriptions {
		t.subscriptionsByID[p.PriceID] = p
	}
	t.oneTimeByID = make(map[string]Plan, len(t.OneTime))
	for _, p := range t.OneTime {
		t.oneTimeByID[p.PriceID] = p
	}
}

// Subscription возвращает план подписки по идентификатору цены.
func (t *Table) Subscription(priceID string) (Plan, bool) {
	p, ok := t.subscriptionsByID[priceID]
	return p, ok
}

// Grant результат разрешения идентификатора цены в начисление.
type Grant struct {
	Currency models.Currency
	Amount   int
	PlanName string
}

// ResolveOneTime переводит идентификатор цены разовой покупки в начисление.
// Для пакета переменного объёма и продукта AI-поиска количество берётся из
// события; иначе используется фиксированная таблица. Второй результат false
// означает неизвестный идентификатор цены.
func (t *Table) ResolveOneTime(priceID string, quantity int) (Grant, bool) {
	if quantity <= 0 {
		quantity = 1
	}
	switch priceID {
	case t.VariableLeadPackPriceID:
		return Grant{Currency: models.CurrencyLead, Amount: quantity, PlanName: "lead-pack"}, true
	case t.AISearchPackPriceID:
		return Grant{Currency: models.CurrencyAISearch, Amount: quantity, PlanName: "ai-search-pack"}, true
	}
	if p, ok := t.oneTimeByID[priceID]; ok {
		return Grant{Currency: models.CurrencyLead, Amount: p.Credits, PlanName: p.Name}, true
	}
	return Grant{}, false
}

// Default возвращает таблицу с тарифами по умолчанию. Используется в тестах
// и как запасной вариант, когда путь к таблице не задан.
func Default() *Table {
	t := &Table{
		Version: "v1",
		Subscriptions: []Plan{
			{PriceID: "price_starter_monthly", Name: "Starter", Credits: 10},
			{PriceID: "price_pro_monthly", Name: "Pro", Credits: 50},
			{PriceID: "price_pro_superior_monthly", Name: "Pro Superior", Credits: 80},
		},
		OneTime: []Plan{
			{PriceID: "price_lead_pack_1", Name: "Lead Pack 1", Credits: 1},
			{PriceID: "price_lead_pack_10", Name: "Lead Pack 10", Credits: 10},
		},
		VariableLeadPackPriceID: "price_lead_pack_variable",
		AISearchPackPriceID:     "price_ai_search_pack",
	}
	t.index()
	return t
}
