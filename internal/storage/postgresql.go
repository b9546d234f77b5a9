// Package storage реализует хранилище маркетплейса на PostgreSQL.
// Все инвариантные операции — начисления и списания кредитов, применение
// платёжных событий, покупка лида — выполняются одной транзакцией;
// гарантии "не более одного раза" подкреплены уникальными ограничениями,
// а не проверками на уровне приложения.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/lead-marketplace/internal/models"
)

// Storage инкапсулирует соединение с PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL и проверяет его.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{DB: db}, nil
}

// creditColumn возвращает имя колонки баланса для валюты. Валюты
// независимы: операция над одной не затрагивает другую.
func creditColumn(c models.Currency) (string, error) {
	switch c {
	case models.CurrencyLead:
		return "lead_credits", nil
	case models.CurrencyAISearch:
		return "ai_search_credits", nil
	}
	return "", fmt.Errorf("unknown currency: %q", c)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// ===== LENDER ACCOUNTS =====

// CreateLenderAccount заводит счёт кредитора с нулевыми балансами.
// Повторный вызов для существующего uid — no-op.
func (s *Storage) CreateLenderAccount(ctx context.Context, uid, customerRef string) error {
	const op = "storage.CreateLenderAccount"

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO lender_accounts (uid, customer_ref)
		VALUES ($1, $2)
		ON CONFLICT (uid) DO NOTHING`,
		uid, customerRef)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetLenderAccount возвращает счёт кредитора по uid.
func (s *Storage) GetLenderAccount(ctx context.Context, uid string) (*models.LenderAccount, error) {
	const op = "storage.GetLenderAccount"

	query := `SELECT uid, lead_credits, ai_search_credits, subscription_status,
				subscription_ref, current_plan, created_at, updated_at
			  FROM lender_accounts WHERE uid = $1`
	var acc models.LenderAccount
	err := s.DB.QueryRowContext(ctx, query, uid).Scan(
		&acc.UID, &acc.LeadCredits, &acc.AISearchCredits, &acc.SubscriptionStatus,
		&acc.SubscriptionRef, &acc.CurrentPlan, &acc.CreatedAt, &acc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &acc, nil
}

// GetAccountUIDByCustomerRef находит счёт по внешнему идентификатору
// клиента платёжного провайдера.
func (s *Storage) GetAccountUIDByCustomerRef(ctx context.Context, customerRef string) (string, error) {
	const op = "storage.GetAccountUIDByCustomerRef"

	var uid string
	err := s.DB.QueryRowContext(ctx,
		`SELECT uid FROM lender_accounts WHERE customer_ref = $1`, customerRef).Scan(&uid)
	if errors.Is(err, sql.ErrNoRows) {
		return "", models.ErrAccountNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return uid, nil
}

// GrantCredits атомарно увеличивает баланс счёта и возвращает новый баланс.
func (s *Storage) GrantCredits(ctx context.Context, uid string, currency models.Currency, amount int) (int, error) {
	const op = "storage.GrantCredits"

	col, err := creditColumn(currency)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	query := fmt.Sprintf(`UPDATE lender_accounts
		SET %s = %s + $1, updated_at = NOW()
		WHERE uid = $2
		RETURNING %s`, col, col, col)

	var balance int
	err = s.DB.QueryRowContext(ctx, query, amount, uid).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, models.ErrAccountNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return balance, nil
}

// DebitCredits атомарно уменьшает баланс счёта. Условие balance >= amount
// входит в сам UPDATE, поэтому баланс не может стать отрицательным ни при
// каком чередовании конкурентных списаний.
func (s *Storage) DebitCredits(ctx context.Context, uid string, currency models.Currency, amount int) (int, error) {
	const op = "storage.DebitCredits"

	col, err := creditColumn(currency)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	query := fmt.Sprintf(`UPDATE lender_accounts
		SET %s = %s - $1, updated_at = NOW()
		WHERE uid = $2 AND %s >= $1
		RETURNING %s`, col, col, col, col)

	var balance int
	err = s.DB.QueryRowContext(ctx, query, amount, uid).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if err := s.DB.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM lender_accounts WHERE uid = $1)`, uid).Scan(&exists); err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		if !exists {
			return 0, models.ErrAccountNotFound
		}
		return 0, models.ErrInsufficientCredits
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return balance, nil
}

// ActivateSubscription переводит подписку счёта в active и начисляет
// кредиты плана одной транзакцией. Повторный вызов с тем же
// subscriptionRef ничего не изменяет и не начисляет (идемпотентность
// по внешнему идентификатору подписки). Возвращает true, если
// активация применена.
func (s *Storage) ActivateSubscription(ctx context.Context, uid, planName, subscriptionRef string, allotment int) (bool, error) {
	const op = "storage.ActivateSubscription"

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `UPDATE lender_accounts
		SET subscription_status = $1,
			subscription_ref = $2,
			current_plan = $3,
			lead_credits = lead_credits + $4,
			updated_at = NOW()
		WHERE uid = $5 AND subscription_ref IS DISTINCT FROM $2`,
		models.SubscriptionActive, subscriptionRef, planName, allotment, uid)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM lender_accounts WHERE uid = $1)`, uid).Scan(&exists); err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
		if !exists {
			return false, models.ErrAccountNotFound
		}
		// подписка с этим ref уже активирована
		return false, tx.Commit()
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// ===== PAYMENT EVENTS =====

// SubscriptionUpdate изменение подписочных полей счёта, применяемое
// вместе с платёжным событием.
type SubscriptionUpdate struct {
	Status   models.SubscriptionStatus
	Ref      string
	PlanName string
}

// EventEffects эффекты платёжного события, применяемые в одной транзакции
// с его фиксацией в таблице дедупликации.
type EventEffects struct {
	AccountUID   string
	Currency     models.Currency
	Amount       int
	Subscription *SubscriptionUpdate
}

// ApplyPaymentEvent фиксирует событие и применяет его эффекты атомарно.
// Вставка в payment_events идёт по первичному ключу external_id с
// ON CONFLICT DO NOTHING: ноль затронутых строк означает, что событие уже
// обработано, и транзакция завершается без побочных эффектов (false, nil).
// Начисление и пометка processed коммитятся вместе — падение между ними
// невозможно, повторная доставка не приводит к двойному начислению.
func (s *Storage) ApplyPaymentEvent(ctx context.Context, event models.PaymentEvent, effects EventEffects) (bool, error) {
	const op = "storage.ApplyPaymentEvent"

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO payment_events
			(external_id, event_type, price_id, quantity, customer_ref, subscription_ref, processed, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, NOW())
		ON CONFLICT (external_id) DO NOTHING`,
		event.ExternalID, event.Type, event.PriceID, event.Quantity,
		event.CustomerRef, event.SubscriptionRef)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if inserted == 0 {
		return false, nil
	}

	if effects.Amount > 0 {
		col, err := creditColumn(effects.Currency)
		if err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
		query := fmt.Sprintf(`UPDATE lender_accounts
			SET %s = %s + $1, updated_at = NOW()
			WHERE uid = $2`, col, col)
		res, err := tx.ExecContext(ctx, query, effects.Amount, effects.AccountUID)
		if err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
		if rows, err := res.RowsAffected(); err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		} else if rows == 0 {
			return false, models.ErrAccountNotFound
		}
	}

	if sub := effects.Subscription; sub != nil {
		res, err := tx.ExecContext(ctx, `UPDATE lender_accounts
			SET subscription_status = $1, subscription_ref = $2, current_plan = $3, updated_at = NOW()
			WHERE uid = $4`,
			sub.Status, sub.Ref, sub.PlanName, effects.AccountUID)
		if err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
		if rows, err := res.RowsAffected(); err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		} else if rows == 0 {
			return false, models.ErrAccountNotFound
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// ===== PURCHASES =====

// PurchaseLead выполняет покупку лида одной транзакцией: списание одного
// лид-кредита и вставка строки покупки. Предварительных проверок
// недостаточно при конкурентных запросах, поэтому авторитетной защитой
// служит уникальное ограничение (lender_uid, lead_id): его нарушение
// откатывает транзакцию вместе со списанием и отдаётся как
// ErrAlreadyPurchased.
func (s *Storage) PurchaseLead(ctx context.Context, lenderUID string, leadID int) (*models.Purchase, error) {
	const op = "storage.PurchaseLead"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	var leadExists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM leads WHERE id = $1)`, leadID).Scan(&leadExists); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !leadExists {
		return nil, models.ErrLeadNotFound
	}

	res, err := tx.ExecContext(ctx, `UPDATE lender_accounts
		SET lead_credits = lead_credits - 1, updated_at = NOW()
		WHERE uid = $1 AND lead_credits >= 1`, lenderUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM lender_accounts WHERE uid = $1)`, lenderUID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !exists {
			return nil, models.ErrAccountNotFound
		}
		return nil, models.ErrInsufficientCredits
	}

	purchase := models.Purchase{
		ID:        uuid.NewString(),
		LenderUID: lenderUID,
		LeadID:    leadID,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO purchases (id, lender_uid, lead_id, purchased_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING purchased_at`,
		purchase.ID, purchase.LenderUID, purchase.LeadID).Scan(&purchase.PurchasedAt)
	if isUniqueViolation(err) {
		return nil, models.ErrAlreadyPurchased
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return nil, models.ErrAlreadyPurchased
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &purchase, nil
}

// HasPurchase сообщает, существует ли покупка пары (кредитор, лид).
func (s *Storage) HasPurchase(ctx context.Context, lenderUID string, leadID int) (bool, error) {
	const op = "storage.HasPurchase"

	var exists bool
	err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM purchases WHERE lender_uid = $1 AND lead_id = $2)`,
		lenderUID, leadID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// ===== LEADS =====

// CreateLead вставляет новый лид и возвращает его ID. Лиды создаёт внешний
// продюсер при публикации заявки на финансирование.
func (s *Storage) CreateLead(ctx context.Context, lead models.Lead) (int, error) {
	const op = "storage.CreateLead"

	var id int
	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO leads (loan_request_id, borrower_uid, status, list_price, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		lead.LoanRequestID, lead.BorrowerUID, models.LeadStatusNew, lead.ListPrice, lead.Notes).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// GetLead возвращает лид по ID.
func (s *Storage) GetLead(ctx context.Context, leadID int) (*models.Lead, error) {
	const op = "storage.GetLead"

	query := `SELECT id, loan_request_id, borrower_uid, status, list_price,
				contact_made, contact_date, notes, created_at, updated_at
			  FROM leads WHERE id = $1`
	var lead models.Lead
	err := s.DB.QueryRowContext(ctx, query, leadID).Scan(
		&lead.ID, &lead.LoanRequestID, &lead.BorrowerUID, &lead.Status, &lead.ListPrice,
		&lead.ContactMade, &lead.ContactDate, &lead.Notes, &lead.CreatedAt, &lead.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrLeadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &lead, nil
}

// GetLeadForLender возвращает лид глазами конкретного кредитора:
// со скоринговым сигналом, флагом покупки и контактами заёмщика,
// если пара (кредитор, лид) выкуплена.
func (s *Storage) GetLeadForLender(ctx context.Context, leadID int, lenderUID string) (*models.LeadListing, error) {
	const op = "storage.GetLeadForLender"

	query := `
		SELECT l.id, l.loan_request_id, l.borrower_uid, l.status, l.list_price,
			l.contact_made, l.contact_date, l.created_at, l.updated_at,
			sp.final_score,
			p.id IS NOT NULL AS is_purchased,
			CASE WHEN p.id IS NOT NULL THEN b.full_name END,
			CASE WHEN p.id IS NOT NULL THEN b.email END,
			CASE WHEN p.id IS NOT NULL THEN b.phone END
		FROM leads l
		LEFT JOIN score_profiles sp ON sp.borrower_uid = l.borrower_uid
		LEFT JOIN purchases p ON p.lead_id = l.id AND p.lender_uid = $2
		LEFT JOIN borrowers b ON b.uid = l.borrower_uid
		WHERE l.id = $1`

	var item models.LeadListing
	var fullName, email, phone sql.NullString
	err := s.DB.QueryRowContext(ctx, query, leadID, lenderUID).Scan(
		&item.Lead.ID, &item.Lead.LoanRequestID, &item.Lead.BorrowerUID,
		&item.Lead.Status, &item.Lead.ListPrice,
		&item.Lead.ContactMade, &item.Lead.ContactDate,
		&item.Lead.CreatedAt, &item.Lead.UpdatedAt,
		&item.FinalScore, &item.IsPurchased,
		&fullName, &email, &phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrLeadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if item.IsPurchased {
		item.Contact = &models.LeadContact{
			FullName: fullName.String,
			Email:    email.String,
			Phone:    phone.String,
		}
	}
	return &item, nil
}

// MarkLeadViewed переводит лид new -> viewed. Идемпотентна: лид, уже
// ушедший дальше new, не трогается.
func (s *Storage) MarkLeadViewed(ctx context.Context, leadID int) error {
	const op = "storage.MarkLeadViewed"

	res, err := s.DB.ExecContext(ctx, `UPDATE leads
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3`,
		models.LeadStatusViewed, leadID, models.LeadStatusNew)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		var exists bool
		if err := s.DB.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM leads WHERE id = $1)`, leadID).Scan(&exists); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if !exists {
			return models.ErrLeadNotFound
		}
	}
	return nil
}

// MarkLeadContacted переводит лид в contacted и фиксирует время контакта.
// Из closed переход запрещён.
func (s *Storage) MarkLeadContacted(ctx context.Context, leadID int) error {
	const op = "storage.MarkLeadContacted"

	res, err := s.DB.ExecContext(ctx, `UPDATE leads
		SET status = $1, contact_made = TRUE, contact_date = NOW(), updated_at = NOW()
		WHERE id = $2 AND status <> $3`,
		models.LeadStatusContacted, leadID, models.LeadStatusClosed)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		var exists bool
		if err := s.DB.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM leads WHERE id = $1)`, leadID).Scan(&exists); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if !exists {
			return models.ErrLeadNotFound
		}
		return models.ErrInvalidTransition
	}
	return nil
}

// ListLeads возвращает страницу листинга для кредитора: лиды со скоринговым
// сигналом, флагом покупки и контактами заёмщика. Контакты выбираются
// только для выкупленных лидов — видимость обрезается на границе чтения.
func (s *Storage) ListLeads(ctx context.Context, lenderUID string, limit, offset int) ([]*models.LeadListing, error) {
	const op = "storage.ListLeads"

	query := `
		SELECT l.id, l.loan_request_id, l.borrower_uid, l.status, l.list_price,
			l.contact_made, l.contact_date, l.created_at, l.updated_at,
			sp.final_score,
			p.id IS NOT NULL AS is_purchased,
			CASE WHEN p.id IS NOT NULL THEN b.full_name END,
			CASE WHEN p.id IS NOT NULL THEN b.email END,
			CASE WHEN p.id IS NOT NULL THEN b.phone END
		FROM leads l
		LEFT JOIN score_profiles sp ON sp.borrower_uid = l.borrower_uid
		LEFT JOIN purchases p ON p.lead_id = l.id AND p.lender_uid = $1
		LEFT JOIN borrowers b ON b.uid = l.borrower_uid
		WHERE l.status <> $2
		ORDER BY sp.final_score DESC NULLS LAST, l.created_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := s.DB.QueryContext(ctx, query, lenderUID, models.LeadStatusClosed, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	return scanListings(rows, op)
}

// ListPurchasedLeads возвращает все выкупленные кредитором лиды,
// свежие покупки первыми. Контакты заёмщика включены всегда.
func (s *Storage) ListPurchasedLeads(ctx context.Context, lenderUID string) ([]*models.LeadListing, error) {
	const op = "storage.ListPurchasedLeads"

	query := `
		SELECT l.id, l.loan_request_id, l.borrower_uid, l.status, l.list_price,
			l.contact_made, l.contact_date, l.created_at, l.updated_at,
			sp.final_score,
			TRUE AS is_purchased,
			b.full_name, b.email, b.phone
		FROM purchases p
		JOIN leads l ON l.id = p.lead_id
		LEFT JOIN score_profiles sp ON sp.borrower_uid = l.borrower_uid
		LEFT JOIN borrowers b ON b.uid = l.borrower_uid
		WHERE p.lender_uid = $1
		ORDER BY p.purchased_at DESC`

	rows, err := s.DB.QueryContext(ctx, query, lenderUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	return scanListings(rows, op)
}

func scanListings(rows *sql.Rows, op string) ([]*models.LeadListing, error) {
	var listings []*models.LeadListing
	for rows.Next() {
		var item models.LeadListing
		var fullName, email, phone sql.NullString
		err := rows.Scan(
			&item.Lead.ID, &item.Lead.LoanRequestID, &item.Lead.BorrowerUID,
			&item.Lead.Status, &item.Lead.ListPrice,
			&item.Lead.ContactMade, &item.Lead.ContactDate,
			&item.Lead.CreatedAt, &item.Lead.UpdatedAt,
			&item.FinalScore, &item.IsPurchased,
			&fullName, &email, &phone)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if item.IsPurchased {
			item.Contact = &models.LeadContact{
				FullName: fullName.String,
				Email:    email.String,
				Phone:    phone.String,
			}
		}
		listings = append(listings, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return listings, nil
}

// ===== SCORING =====

// GetBorrowerFinancials возвращает финансовый профиль заёмщика.
func (s *Storage) GetBorrowerFinancials(ctx context.Context, borrowerUID string) (*models.BorrowerFinancials, error) {
	const op = "storage.GetBorrowerFinancials"

	query := `SELECT borrower_uid, monthly_income, monthly_expenses, debt_to_income_ratio,
				employment_status, job_title, employer,
				total_loans, successful_payments, late_payments
			  FROM borrower_financials WHERE borrower_uid = $1`
	var f models.BorrowerFinancials
	err := s.DB.QueryRowContext(ctx, query, borrowerUID).Scan(
		&f.BorrowerUID, &f.MonthlyIncome, &f.MonthlyExpenses, &f.DebtToIncomeRatio,
		&f.EmploymentStatus, &f.JobTitle, &f.Employer,
		&f.TotalLoans, &f.SuccessfulPayments, &f.LatePayments)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrBorrowerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &f, nil
}

// GetLinguisticAnalysis возвращает лингвистический анализ заёмщика,
// nil без ошибки, если анализ ещё не поступал.
func (s *Storage) GetLinguisticAnalysis(ctx context.Context, borrowerUID string) (*models.LinguisticAnalysis, error) {
	const op = "storage.GetLinguisticAnalysis"

	query := `SELECT borrower_uid, score, indicators, updated_at
			  FROM linguistic_analyses WHERE borrower_uid = $1`
	var la models.LinguisticAnalysis
	var rawIndicators []byte
	err := s.DB.QueryRowContext(ctx, query, borrowerUID).Scan(
		&la.BorrowerUID, &la.Score, &rawIndicators, &la.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(rawIndicators) > 0 {
		if err := json.Unmarshal(rawIndicators, &la.Indicators); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return &la, nil
}

// UpsertLinguisticAnalysis сохраняет результат внешнего лингвистического
// анализа (приходит асинхронно, может перезаписываться).
func (s *Storage) UpsertLinguisticAnalysis(ctx context.Context, la models.LinguisticAnalysis) error {
	const op = "storage.UpsertLinguisticAnalysis"

	rawIndicators, err := json.Marshal(la.Indicators)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO linguistic_analyses (borrower_uid, score, indicators, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (borrower_uid) DO UPDATE
		SET score = EXCLUDED.score, indicators = EXCLUDED.indicators, updated_at = NOW()`,
		la.BorrowerUID, la.Score, rawIndicators)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpsertScoreProfile перезаписывает скоринговый профиль заёмщика.
// Профиль — производное кэшируемое значение, не источник истины.
func (s *Storage) UpsertScoreProfile(ctx context.Context, p models.ScoreProfile) error {
	const op = "storage.UpsertScoreProfile"

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO score_profiles
			(borrower_uid, financial_score, linguistic_score, indicator_bonus, final_score, computed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (borrower_uid) DO UPDATE
		SET financial_score = EXCLUDED.financial_score,
			linguistic_score = EXCLUDED.linguistic_score,
			indicator_bonus = EXCLUDED.indicator_bonus,
			final_score = EXCLUDED.final_score,
			computed_at = EXCLUDED.computed_at`,
		p.BorrowerUID, p.FinancialScore, p.LinguisticScore,
		p.IndicatorBonus, p.FinalScore, p.ComputedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetScoreProfile возвращает сохранённый скоринговый профиль.
func (s *Storage) GetScoreProfile(ctx context.Context, borrowerUID string) (*models.ScoreProfile, error) {
	const op = "storage.GetScoreProfile"

	query := `SELECT borrower_uid, financial_score, linguistic_score,
				indicator_bonus, final_score, computed_at
			  FROM score_profiles WHERE borrower_uid = $1`
	var p models.ScoreProfile
	err := s.DB.QueryRowContext(ctx, query, borrowerUID).Scan(
		&p.BorrowerUID, &p.FinancialScore, &p.LinguisticScore,
		&p.IndicatorBonus, &p.FinalScore, &p.ComputedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrBorrowerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}
