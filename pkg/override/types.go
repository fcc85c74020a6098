// Package override stores explicit user corrections keyed by normalized
// merchant. An override always outranks automated inference: the classifier
// consults it before the cascade and the recurring detector treats an explicit
// non-recurring decision as a hard exclusion.
package override

import (
	"errors"
	"time"
)

// Scope controls how far a recurring decision reaches.
type Scope string

const (
	// ScopeAllTransactions applies the decision to every current and future
	// transaction of the merchant. Replaying it is idempotent.
	ScopeAllTransactions Scope = "ALL_TRANSACTIONS"
	// ScopeThisInstance is a narrow one-off correction.
	ScopeThisInstance Scope = "THIS_INSTANCE"
)

// ErrUnknownCategory is returned when a category override references a
// category that does not exist in the reference table. The write must be
// rejected before persistence.
var ErrUnknownCategory = errors.New("override references unknown category")

// CategoryOverride is a user's category decision for one merchant. Confidence
// is always 1.0 for direct user action. Created on first correction, updated
// on later corrections, never deleted.
type CategoryOverride struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	MerchantKey string    `json:"merchant_key"`
	CategoryID  string    `json:"category_id"`
	Confidence  float64   `json:"confidence"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RecurringOverride is a user's recurring / non-recurring declaration for one
// merchant. Soft-deactivated via Active, never hard-deleted, so the audit
// history survives.
type RecurringOverride struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	MerchantKey string    `json:"merchant_key"`
	Recurring   bool      `json:"recurring"`
	Scope       Scope     `json:"scope"`
	UseCount    int       `json:"use_count"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AuditEntry records one override write: who changed what, old vs new.
type AuditEntry struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	MerchantKey string    `json:"merchant_key"`
	Field       string    `json:"field"` // "category" or "recurring"
	OldValue    string    `json:"old_value"`
	NewValue    string    `json:"new_value"`
	ChangedBy   string    `json:"changed_by"`
	ChangedAt   time.Time `json:"changed_at"`
}

// UserOverrides is an in-memory snapshot of one user's overrides, pre-loaded
// by the caller so the classification and detection cores never block on I/O.
// A nil *UserOverrides behaves as an empty snapshot.
type UserOverrides struct {
	categories map[string]CategoryOverride
	recurring  map[string]RecurringOverride
}

// NewUserOverrides builds a snapshot from stored rows. Inactive recurring
// overrides are kept out of the lookup maps.
func NewUserOverrides(categories []CategoryOverride, recurring []RecurringOverride) *UserOverrides {
	u := &UserOverrides{
		categories: make(map[string]CategoryOverride, len(categories)),
		recurring:  make(map[string]RecurringOverride, len(recurring)),
	}
	for _, c := range categories {
		u.categories[c.MerchantKey] = c
	}
	for _, r := range recurring {
		if r.Active {
			u.recurring[r.MerchantKey] = r
		}
	}
	return u
}

// Category resolves a category override by exact normalized-merchant match.
func (u *UserOverrides) Category(merchantKey string) (CategoryOverride, bool) {
	if u == nil {
		return CategoryOverride{}, false
	}
	c, ok := u.categories[merchantKey]
	return c, ok
}

// Recurring resolves an active recurring override by exact normalized-merchant
// match.
func (u *UserOverrides) Recurring(merchantKey string) (RecurringOverride, bool) {
	if u == nil {
		return RecurringOverride{}, false
	}
	r, ok := u.recurring[merchantKey]
	return r, ok
}
