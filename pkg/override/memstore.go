package override

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"BudgetHero/pkg/merchant"

	"github.com/google/uuid"
)

// MemStore is an in-memory Store. Engine tests and single-process runs use it
// in place of the Postgres store.
type MemStore struct {
	mu         sync.RWMutex
	checker    CategoryChecker
	categories map[string]CategoryOverride  // userID|merchantKey
	recurring  map[string]RecurringOverride // userID|merchantKey
	audit      []AuditEntry
	now        func() time.Time
}

func NewMemStore(checker CategoryChecker) *MemStore {
	return &MemStore{
		checker:    checker,
		categories: make(map[string]CategoryOverride),
		recurring:  make(map[string]RecurringOverride),
		now:        time.Now,
	}
}

func memKey(userID, merchantKey string) string {
	return userID + "|" + merchantKey
}

func (s *MemStore) RecordCategoryOverride(ctx context.Context, userID, rawMerchant, categoryID, changedBy string) (CategoryOverride, error) {
	key := merchant.Key(rawMerchant)
	if key == "" {
		return CategoryOverride{}, fmt.Errorf("merchant %q normalizes to an empty key", rawMerchant)
	}
	exists, err := s.checker.CategoryExists(ctx, categoryID)
	if err != nil {
		return CategoryOverride{}, fmt.Errorf("checking category %s: %w", categoryID, err)
	}
	if !exists {
		return CategoryOverride{}, fmt.Errorf("category %s: %w", categoryID, ErrUnknownCategory)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	oldValue := ""
	ov, found := s.categories[memKey(userID, key)]
	if found {
		oldValue = ov.CategoryID
		ov.CategoryID = categoryID
		ov.UpdatedAt = now
	} else {
		ov = CategoryOverride{
			ID:          uuid.NewString(),
			UserID:      userID,
			MerchantKey: key,
			CategoryID:  categoryID,
			Confidence:  1.0,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}
	s.categories[memKey(userID, key)] = ov
	s.appendAudit(userID, key, "category", oldValue, categoryID, changedBy, now)
	return ov, nil
}

func (s *MemStore) RecordRecurringOverride(ctx context.Context, userID, rawMerchant string, recurring bool, scope Scope, changedBy string) (RecurringOverride, error) {
	key := merchant.Key(rawMerchant)
	if key == "" {
		return RecurringOverride{}, fmt.Errorf("merchant %q normalizes to an empty key", rawMerchant)
	}
	if scope == "" {
		scope = ScopeThisInstance
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	oldValue := ""
	ov, found := s.recurring[memKey(userID, key)]
	if found {
		oldValue = formatRecurring(ov.Recurring, ov.Scope)
		ov.Recurring = recurring
		ov.Scope = scope
		ov.Active = true
		ov.UpdatedAt = now
	} else {
		ov = RecurringOverride{
			ID:          uuid.NewString(),
			UserID:      userID,
			MerchantKey: key,
			Recurring:   recurring,
			Scope:       scope,
			Active:      true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}
	s.recurring[memKey(userID, key)] = ov
	s.appendAudit(userID, key, "recurring", oldValue, formatRecurring(recurring, scope), changedBy, now)
	return ov, nil
}

func (s *MemStore) DeactivateRecurringOverride(ctx context.Context, userID, rawMerchant, changedBy string) error {
	key := merchant.Key(rawMerchant)

	s.mu.Lock()
	defer s.mu.Unlock()

	ov, found := s.recurring[memKey(userID, key)]
	if !found || !ov.Active {
		return nil
	}
	now := s.now()
	ov.Active = false
	ov.UpdatedAt = now
	s.recurring[memKey(userID, key)] = ov
	s.appendAudit(userID, key, "recurring", formatRecurring(ov.Recurring, ov.Scope), "deactivated", changedBy, now)
	return nil
}

func (s *MemStore) IncrementRecurringUse(ctx context.Context, userID, merchantKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ov, found := s.recurring[memKey(userID, merchantKey)]
	if !found {
		return nil
	}
	ov.UseCount++
	s.recurring[memKey(userID, merchantKey)] = ov
	return nil
}

func (s *MemStore) LoadUserOverrides(ctx context.Context, userID string) (*UserOverrides, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cats []CategoryOverride
	for _, c := range s.categories {
		if c.UserID == userID {
			cats = append(cats, c)
		}
	}
	var recs []RecurringOverride
	for _, r := range s.recurring {
		if r.UserID == userID {
			recs = append(recs, r)
		}
	}
	return NewUserOverrides(cats, recs), nil
}

func (s *MemStore) AuditTrail(ctx context.Context, userID string) ([]AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []AuditEntry
	for _, e := range s.audit {
		if e.UserID == userID {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ChangedAt.After(entries[j].ChangedAt)
	})
	return entries, nil
}

func (s *MemStore) appendAudit(userID, merchantKey, field, oldValue, newValue, changedBy string, at time.Time) {
	s.audit = append(s.audit, AuditEntry{
		ID:          uuid.NewString(),
		UserID:      userID,
		MerchantKey: merchantKey,
		Field:       field,
		OldValue:    oldValue,
		NewValue:    newValue,
		ChangedBy:   changedBy,
		ChangedAt:   at,
	})
}

func formatRecurring(recurring bool, scope Scope) string {
	if recurring {
		return fmt.Sprintf("recurring/%s", scope)
	}
	return fmt.Sprintf("non-recurring/%s", scope)
}
