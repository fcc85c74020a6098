package override

import "context"

// CategoryChecker reports whether a target category exists in the reference
// table. Override writes that reference a non-existent category are rejected
// before persistence.
type CategoryChecker interface {
	CategoryExists(ctx context.Context, categoryID string) (bool, error)
}

// Store persists user overrides and their audit trail. Writes must be visible
// to the next LoadUserOverrides call for the same user (read-after-write).
type Store interface {
	// RecordCategoryOverride upserts the user's category decision for a
	// merchant. The merchant string is normalized before storage.
	RecordCategoryOverride(ctx context.Context, userID, rawMerchant, categoryID, changedBy string) (CategoryOverride, error)

	// RecordRecurringOverride upserts the user's recurring decision for a
	// merchant, reactivating a previously deactivated row if necessary.
	RecordRecurringOverride(ctx context.Context, userID, rawMerchant string, recurring bool, scope Scope, changedBy string) (RecurringOverride, error)

	// DeactivateRecurringOverride flips the active flag off. Rows are never
	// hard-deleted.
	DeactivateRecurringOverride(ctx context.Context, userID, rawMerchant, changedBy string) error

	// IncrementRecurringUse bumps the usage counter after a detection run
	// applied the override.
	IncrementRecurringUse(ctx context.Context, userID, merchantKey string) error

	// LoadUserOverrides returns the user's full override snapshot.
	LoadUserOverrides(ctx context.Context, userID string) (*UserOverrides, error)

	// AuditTrail returns the user's override history, newest first.
	AuditTrail(ctx context.Context, userID string) ([]AuditEntry, error)
}
