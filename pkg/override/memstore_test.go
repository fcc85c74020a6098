package override

import (
	"context"
	"errors"
	"testing"
)

type staticChecker map[string]bool

func (c staticChecker) CategoryExists(ctx context.Context, categoryID string) (bool, error) {
	return c[categoryID], nil
}

func newTestStore() *MemStore {
	return NewMemStore(staticChecker{
		"cat-food":      true,
		"cat-streaming": true,
		"cat-other":     true,
	})
}

func TestRecordCategoryOverride(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	ov, err := store.RecordCategoryOverride(ctx, "u1", "NETFLIX.COM 4498", "cat-streaming", "u1")
	if err != nil {
		t.Fatalf("RecordCategoryOverride failed: %v", err)
	}
	if ov.MerchantKey != "netflix" {
		t.Errorf("merchant key = %q, want %q", ov.MerchantKey, "netflix")
	}
	if ov.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", ov.Confidence)
	}

	// A later correction for a different textual variant of the same biller
	// must update the same row, not create a second one.
	updated, err := store.RecordCategoryOverride(ctx, "u1", "NETFLIX 8831", "cat-other", "u1")
	if err != nil {
		t.Fatalf("second RecordCategoryOverride failed: %v", err)
	}
	if updated.ID != ov.ID {
		t.Errorf("update created a new override row: %s != %s", updated.ID, ov.ID)
	}
	if updated.CategoryID != "cat-other" {
		t.Errorf("category = %q, want cat-other", updated.CategoryID)
	}

	snapshot, err := store.LoadUserOverrides(ctx, "u1")
	if err != nil {
		t.Fatalf("LoadUserOverrides failed: %v", err)
	}
	resolved, ok := snapshot.Category("netflix")
	if !ok {
		t.Fatal("expected category override for netflix")
	}
	if resolved.CategoryID != "cat-other" {
		t.Errorf("resolved category = %q, want cat-other", resolved.CategoryID)
	}
}

func TestRecordCategoryOverrideRejectsUnknownCategory(t *testing.T) {
	store := newTestStore()
	_, err := store.RecordCategoryOverride(context.Background(), "u1", "NETFLIX", "cat-nope", "u1")
	if !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("err = %v, want ErrUnknownCategory", err)
	}
	// Rejected writes must leave no trace.
	snapshot, _ := store.LoadUserOverrides(context.Background(), "u1")
	if _, ok := snapshot.Category("netflix"); ok {
		t.Error("rejected override was persisted")
	}
}

func TestRecurringOverrideLifecycle(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	ov, err := store.RecordRecurringOverride(ctx, "u1", "gym-membership", false, ScopeAllTransactions, "u1")
	if err != nil {
		t.Fatalf("RecordRecurringOverride failed: %v", err)
	}
	if ov.Recurring {
		t.Error("expected non-recurring override")
	}
	if !ov.Active {
		t.Error("new override should be active")
	}

	snapshot, _ := store.LoadUserOverrides(ctx, "u1")
	if _, ok := snapshot.Recurring("gym membership"); !ok {
		t.Fatal("expected recurring override for gym membership")
	}

	// Soft deactivation: gone from the snapshot, row still audited.
	if err := store.DeactivateRecurringOverride(ctx, "u1", "gym-membership", "u1"); err != nil {
		t.Fatalf("DeactivateRecurringOverride failed: %v", err)
	}
	snapshot, _ = store.LoadUserOverrides(ctx, "u1")
	if _, ok := snapshot.Recurring("gym membership"); ok {
		t.Error("deactivated override still resolves")
	}

	// Re-recording reactivates the same row.
	re, err := store.RecordRecurringOverride(ctx, "u1", "gym-membership", true, ScopeThisInstance, "u1")
	if err != nil {
		t.Fatalf("re-record failed: %v", err)
	}
	if re.ID != ov.ID {
		t.Errorf("re-record created a new row: %s != %s", re.ID, ov.ID)
	}
	snapshot, _ = store.LoadUserOverrides(ctx, "u1")
	resolved, ok := snapshot.Recurring("gym membership")
	if !ok || !resolved.Recurring {
		t.Error("reactivated override not resolved as recurring")
	}
}

func TestIncrementRecurringUse(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	if _, err := store.RecordRecurringOverride(ctx, "u1", "netflix", true, ScopeAllTransactions, "u1"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := store.IncrementRecurringUse(ctx, "u1", "netflix"); err != nil {
			t.Fatal(err)
		}
	}
	snapshot, _ := store.LoadUserOverrides(ctx, "u1")
	ov, _ := snapshot.Recurring("netflix")
	if ov.UseCount != 3 {
		t.Errorf("use count = %d, want 3", ov.UseCount)
	}
}

func TestAuditTrail(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	store.RecordCategoryOverride(ctx, "u1", "NETFLIX", "cat-streaming", "u1")
	store.RecordCategoryOverride(ctx, "u1", "NETFLIX", "cat-other", "u1")
	store.RecordRecurringOverride(ctx, "u1", "NETFLIX", true, ScopeAllTransactions, "u1")
	store.RecordCategoryOverride(ctx, "u2", "UBER", "cat-food", "u2")

	entries, err := store.AuditTrail(ctx, "u1")
	if err != nil {
		t.Fatalf("AuditTrail failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("audit entries = %d, want 3", len(entries))
	}
	for _, e := range entries {
		if e.UserID != "u1" {
			t.Errorf("audit entry for wrong user: %s", e.UserID)
		}
	}

	// The second category write must carry old vs new classification.
	var sawUpdate bool
	for _, e := range entries {
		if e.Field == "category" && e.OldValue == "cat-streaming" && e.NewValue == "cat-other" {
			sawUpdate = true
		}
	}
	if !sawUpdate {
		t.Error("audit trail missing old->new category transition")
	}
}

func TestNilSnapshotIsEmpty(t *testing.T) {
	var snapshot *UserOverrides
	if _, ok := snapshot.Category("netflix"); ok {
		t.Error("nil snapshot resolved a category override")
	}
	if _, ok := snapshot.Recurring("netflix"); ok {
		t.Error("nil snapshot resolved a recurring override")
	}
}
