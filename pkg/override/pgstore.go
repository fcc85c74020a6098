package override

import (
	"context"
	"fmt"
	"time"

	"BudgetHero/pkg/merchant"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is the Postgres-backed Store.
//
// Tables:
//
//	user_merchant_overrides  (id, user_id, merchant_key, category_id, confidence, created_at, updated_at)
//	user_recurring_overrides (id, user_id, merchant_key, recurring, scope, use_count, active, created_at, updated_at)
//	override_audit           (id, user_id, merchant_key, field, old_value, new_value, changed_by, changed_at)
//
// Both override tables are unique on (user_id, merchant_key).
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// CategoryExists checks the category reference table, so a PgStore can serve
// as its own CategoryChecker.
func (s *PgStore) CategoryExists(ctx context.Context, categoryID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM categories WHERE category_id = $1)`, categoryID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking category %s: %w", categoryID, err)
	}
	return exists, nil
}

func (s *PgStore) RecordCategoryOverride(ctx context.Context, userID, rawMerchant, categoryID, changedBy string) (CategoryOverride, error) {
	key := merchant.Key(rawMerchant)
	if key == "" {
		return CategoryOverride{}, fmt.Errorf("merchant %q normalizes to an empty key", rawMerchant)
	}
	exists, err := s.CategoryExists(ctx, categoryID)
	if err != nil {
		return CategoryOverride{}, err
	}
	if !exists {
		return CategoryOverride{}, fmt.Errorf("category %s: %w", categoryID, ErrUnknownCategory)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return CategoryOverride{}, fmt.Errorf("begin override write: %w", err)
	}
	defer tx.Rollback(ctx)

	var oldValue string
	err = tx.QueryRow(ctx,
		`SELECT category_id FROM user_merchant_overrides WHERE user_id = $1 AND merchant_key = $2`,
		userID, key).Scan(&oldValue)
	if err != nil && err != pgx.ErrNoRows {
		return CategoryOverride{}, fmt.Errorf("reading existing category override: %w", err)
	}

	now := time.Now()
	ov := CategoryOverride{
		ID:          uuid.NewString(),
		UserID:      userID,
		MerchantKey: key,
		CategoryID:  categoryID,
		Confidence:  1.0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO user_merchant_overrides (id, user_id, merchant_key, category_id, confidence, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (user_id, merchant_key) DO UPDATE
			SET category_id = EXCLUDED.category_id,
			    updated_at  = EXCLUDED.updated_at
		RETURNING id, created_at`,
		ov.ID, userID, key, categoryID, ov.Confidence, now).Scan(&ov.ID, &ov.CreatedAt)
	if err != nil {
		return CategoryOverride{}, fmt.Errorf("upserting category override: %w", err)
	}

	if err := insertAudit(ctx, tx, userID, key, "category", oldValue, categoryID, changedBy, now); err != nil {
		return CategoryOverride{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return CategoryOverride{}, fmt.Errorf("commit override write: %w", err)
	}
	return ov, nil
}

func (s *PgStore) RecordRecurringOverride(ctx context.Context, userID, rawMerchant string, recurring bool, scope Scope, changedBy string) (RecurringOverride, error) {
	key := merchant.Key(rawMerchant)
	if key == "" {
		return RecurringOverride{}, fmt.Errorf("merchant %q normalizes to an empty key", rawMerchant)
	}
	if scope == "" {
		scope = ScopeThisInstance
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return RecurringOverride{}, fmt.Errorf("begin override write: %w", err)
	}
	defer tx.Rollback(ctx)

	oldValue := ""
	var oldRecurring bool
	var oldScope Scope
	err = tx.QueryRow(ctx,
		`SELECT recurring, scope FROM user_recurring_overrides WHERE user_id = $1 AND merchant_key = $2`,
		userID, key).Scan(&oldRecurring, &oldScope)
	switch err {
	case nil:
		oldValue = formatRecurring(oldRecurring, oldScope)
	case pgx.ErrNoRows:
	default:
		return RecurringOverride{}, fmt.Errorf("reading existing recurring override: %w", err)
	}

	now := time.Now()
	ov := RecurringOverride{
		ID:          uuid.NewString(),
		UserID:      userID,
		MerchantKey: key,
		Recurring:   recurring,
		Scope:       scope,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO user_recurring_overrides (id, user_id, merchant_key, recurring, scope, use_count, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, true, $6, $6)
		ON CONFLICT (user_id, merchant_key) DO UPDATE
			SET recurring  = EXCLUDED.recurring,
			    scope      = EXCLUDED.scope,
			    active     = true,
			    updated_at = EXCLUDED.updated_at
		RETURNING id, use_count, created_at`,
		ov.ID, userID, key, recurring, scope, now).Scan(&ov.ID, &ov.UseCount, &ov.CreatedAt)
	if err != nil {
		return RecurringOverride{}, fmt.Errorf("upserting recurring override: %w", err)
	}

	if err := insertAudit(ctx, tx, userID, key, "recurring", oldValue, formatRecurring(recurring, scope), changedBy, now); err != nil {
		return RecurringOverride{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return RecurringOverride{}, fmt.Errorf("commit override write: %w", err)
	}
	return ov, nil
}

func (s *PgStore) DeactivateRecurringOverride(ctx context.Context, userID, rawMerchant, changedBy string) error {
	key := merchant.Key(rawMerchant)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin override deactivate: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	var oldRecurring bool
	var oldScope Scope
	err = tx.QueryRow(ctx, `
		UPDATE user_recurring_overrides
		SET active = false, updated_at = $3
		WHERE user_id = $1 AND merchant_key = $2 AND active = true
		RETURNING recurring, scope`,
		userID, key, now).Scan(&oldRecurring, &oldScope)
	if err == pgx.ErrNoRows {
		return nil // nothing active to deactivate
	}
	if err != nil {
		return fmt.Errorf("deactivating recurring override: %w", err)
	}

	if err := insertAudit(ctx, tx, userID, key, "recurring", formatRecurring(oldRecurring, oldScope), "deactivated", changedBy, now); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit override deactivate: %w", err)
	}
	return nil
}

func (s *PgStore) IncrementRecurringUse(ctx context.Context, userID, merchantKey string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE user_recurring_overrides
		SET use_count = use_count + 1
		WHERE user_id = $1 AND merchant_key = $2`,
		userID, merchantKey)
	if err != nil {
		return fmt.Errorf("incrementing recurring override use: %w", err)
	}
	return nil
}

func (s *PgStore) LoadUserOverrides(ctx context.Context, userID string) (*UserOverrides, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, merchant_key, category_id, confidence, created_at, updated_at
		FROM user_merchant_overrides
		WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("loading category overrides: %w", err)
	}
	defer rows.Close()

	var cats []CategoryOverride
	for rows.Next() {
		var c CategoryOverride
		if err := rows.Scan(&c.ID, &c.UserID, &c.MerchantKey, &c.CategoryID, &c.Confidence, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning category override: %w", err)
		}
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating category overrides: %w", err)
	}
	rows.Close()

	recRows, err := s.pool.Query(ctx, `
		SELECT id, user_id, merchant_key, recurring, scope, use_count, active, created_at, updated_at
		FROM user_recurring_overrides
		WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("loading recurring overrides: %w", err)
	}
	defer recRows.Close()

	var recs []RecurringOverride
	for recRows.Next() {
		var r RecurringOverride
		if err := recRows.Scan(&r.ID, &r.UserID, &r.MerchantKey, &r.Recurring, &r.Scope, &r.UseCount, &r.Active, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning recurring override: %w", err)
		}
		recs = append(recs, r)
	}
	if err := recRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating recurring overrides: %w", err)
	}

	return NewUserOverrides(cats, recs), nil
}

func (s *PgStore) AuditTrail(ctx context.Context, userID string) ([]AuditEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, merchant_key, field, old_value, new_value, changed_by, changed_at
		FROM override_audit
		WHERE user_id = $1
		ORDER BY changed_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("loading override audit trail: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.MerchantKey, &e.Field, &e.OldValue, &e.NewValue, &e.ChangedBy, &e.ChangedAt); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit entries: %w", err)
	}
	return entries, nil
}

func insertAudit(ctx context.Context, tx pgx.Tx, userID, merchantKey, field, oldValue, newValue, changedBy string, at time.Time) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO override_audit (id, user_id, merchant_key, field, old_value, new_value, changed_by, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.NewString(), userID, merchantKey, field, oldValue, newValue, changedBy, at)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}
