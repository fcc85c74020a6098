package categorize

import (
	"context"
	"fmt"

	"BudgetHero/pkg/ledger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgRuleSource loads the administrative category table from Postgres.
//
// Tables:
//
//	categories     (category_id, name, ledger_type, sort_order)
//	category_rules (rule_id, priority, category_id, aggregator_code, keywords text[], confidence)
type PgRuleSource struct {
	pool *pgxpool.Pool
}

func NewPgRuleSource(pool *pgxpool.Pool) *PgRuleSource {
	return &PgRuleSource{pool: pool}
}

func (s *PgRuleSource) LoadCategories(ctx context.Context) ([]ledger.Category, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT category_id, name, ledger_type, sort_order
		FROM categories
		ORDER BY sort_order ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	var categories []ledger.Category
	for rows.Next() {
		var c ledger.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.LedgerType, &c.SortOrder); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating categories: %w", err)
	}
	return categories, nil
}

func (s *PgRuleSource) LoadRules(ctx context.Context) ([]ledger.CategoryRule, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.rule_id, r.priority, r.category_id, c.name, c.ledger_type,
		       COALESCE(r.aggregator_code, ''), COALESCE(r.keywords, '{}'), r.confidence
		FROM category_rules r
		JOIN categories c ON r.category_id = c.category_id
		ORDER BY r.priority ASC, r.rule_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying category rules: %w", err)
	}
	defer rows.Close()

	var rules []ledger.CategoryRule
	for rows.Next() {
		var r ledger.CategoryRule
		if err := rows.Scan(&r.ID, &r.Priority, &r.CategoryID, &r.CategoryName, &r.LedgerType, &r.AggregatorCode, &r.Keywords, &r.Confidence); err != nil {
			return nil, fmt.Errorf("scanning category rule: %w", err)
		}
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating category rules: %w", err)
	}
	return rules, nil
}
