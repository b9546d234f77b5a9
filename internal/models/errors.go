package models

import "errors"

// Бизнес-ошибки ядра. Инфраструктурные ошибки хранилища оборачиваются
// отдельно и не совпадают ни с одной из них по errors.Is.
var (
	// ErrAccountNotFound счёт кредитора не существует.
	ErrAccountNotFound = errors.New("lender account not found")
	// ErrLeadNotFound лид не существует.
	ErrLeadNotFound = errors.New("lead not found")
	// ErrInsufficientCredits баланс меньше суммы списания.
	ErrInsufficientCredits = errors.New("insufficient credits")
	// ErrAlreadyPurchased пара (кредитор, лид) уже выкуплена; списание,
	// сделанное в той же транзакции, откатывается.
	ErrAlreadyPurchased = errors.New("lead already purchased")
	// ErrInvalidTransition запрошен недопустимый переход статуса лида.
	ErrInvalidTransition = errors.New("invalid lead status transition")
	// ErrPurchaseRequired операция требует существующей покупки лида.
	ErrPurchaseRequired = errors.New("lead purchase required")
	// ErrBorrowerNotFound заёмщик или его скоринговый профиль не существует.
	ErrBorrowerNotFound = errors.New("borrower not found")
	// ErrUnknownPlan идентификатор цены не найден в таблице планов.
	ErrUnknownPlan = errors.New("unknown plan price id")
)
