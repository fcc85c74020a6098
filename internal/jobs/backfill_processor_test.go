package jobs

import (
	"context"
	"testing"
	"time"

	"BudgetHero/pkg/ledger"
	"BudgetHero/pkg/override"

	"github.com/shopspring/decimal"
)

type categoryTable map[string]bool

func (c categoryTable) CategoryExists(ctx context.Context, categoryID string) (bool, error) {
	return c[categoryID], nil
}

func backfillTx(id, merchant, description, categoryID string, confidence float64) ledger.Transaction {
	return ledger.Transaction{
		ID:                 id,
		UserID:             "user-1",
		Date:               time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC),
		Merchant:           merchant,
		Description:        description,
		Amount:             decimal.NewFromFloat(-15.99),
		CategoryID:         categoryID,
		CategoryConfidence: confidence,
	}
}

func TestBackfillTargetIDsMatchesRawMerchantText(t *testing.T) {
	txs := []ledger.Transaction{
		// Raw descriptor in the merchant column, as imports leave it.
		backfillTx("t1", "NETFLIX.COM 4498", "", "cat-shopping", 0.8),
		// Merchant column empty, only the description carries the biller.
		backfillTx("t2", "", "POS DEBIT NETFLIX.COM", "", 0),
		// Already normalized by an earlier sweep.
		backfillTx("t3", "netflix", "", "cat-shopping", 0.45),
		// Different biller, must not be touched.
		backfillTx("t4", "WALMART #1234", "", "cat-shopping", 0.8),
	}

	ids := backfillTargetIDs(txs, "netflix", "cat-entertainment")
	want := []string{"t1", "t2", "t3"}
	if len(ids) != len(want) {
		t.Fatalf("target ids = %v, want %v", ids, want)
	}
	for i, id := range want {
		if ids[i] != id {
			t.Errorf("target ids[%d] = %s, want %s", i, ids[i], id)
		}
	}
}

func TestBackfillTargetIDsIsFixedPoint(t *testing.T) {
	txs := []ledger.Transaction{
		backfillTx("t1", "NETFLIX.COM 4498", "", "cat-entertainment", 1.0),
		backfillTx("t2", "NETFLIX.COM 4498", "", "cat-entertainment", 0.9),
	}

	// t1 already carries the override at full confidence; only t2 remains.
	ids := backfillTargetIDs(txs, "netflix", "cat-entertainment")
	if len(ids) != 1 || ids[0] != "t2" {
		t.Fatalf("target ids = %v, want [t2]", ids)
	}
}

func TestRecordedOverrideReclassifiesExistingTransactions(t *testing.T) {
	ctx := context.Background()
	store := override.NewMemStore(categoryTable{"cat-entertainment": true})

	// History imported long before the user corrects anything.
	txs := []ledger.Transaction{
		backfillTx("t1", "NETFLIX.COM 4498", "", "cat-shopping", 0.8),
		backfillTx("t2", "", "NETFLIX.COM 4498", "", 0),
		backfillTx("t3", "WALMART #1234", "", "cat-shopping", 0.8),
	}

	ov, err := store.RecordCategoryOverride(ctx, "user-1", "NETFLIX.COM 4498", "cat-entertainment", "user-1")
	if err != nil {
		t.Fatalf("record override: %v", err)
	}
	if ov.MerchantKey != "netflix" {
		t.Fatalf("override key = %q, want netflix", ov.MerchantKey)
	}

	ids := backfillTargetIDs(txs, ov.MerchantKey, ov.CategoryID)
	if len(ids) != 2 {
		t.Fatalf("backfill reached %d transactions, want 2: %v", len(ids), ids)
	}

	updated := make(map[string]bool, len(ids))
	for _, id := range ids {
		updated[id] = true
	}
	for i := range txs {
		if updated[txs[i].ID] {
			txs[i].CategoryID = ov.CategoryID
			txs[i].CategoryConfidence = 1.0
		}
	}
	if txs[0].CategoryID != "cat-entertainment" || txs[1].CategoryID != "cat-entertainment" {
		t.Errorf("netflix rows not reclassified: %s / %s", txs[0].CategoryID, txs[1].CategoryID)
	}
	if txs[2].CategoryID != "cat-shopping" {
		t.Errorf("unrelated row reclassified to %s", txs[2].CategoryID)
	}

	// Replaying the same override changes nothing.
	if ids := backfillTargetIDs(txs, ov.MerchantKey, ov.CategoryID); len(ids) != 0 {
		t.Errorf("replay reached %d transactions, want 0", len(ids))
	}
}
