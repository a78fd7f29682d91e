package repository

import (
	"context"
	"database/sql"
)

// StatsRepo answers the admin dashboard's aggregate questions. All
// queries are read-only GROUP BY rollups over products and orders.
type StatsRepo struct {
	db *sql.DB
}

// NewStatsRepo returns a new StatsRepo bound to the given database.
func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{db: db} }

// DailyCount is one bucket of a per-day rollup.
type DailyCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int64  `json:"count"`
}

// CategoryCount is one bucket of the category sales rollup.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

func (r *StatsRepo) dailyCounts(ctx context.Context, query string) ([]DailyCount, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]DailyCount, 0)
	for rows.Next() {
		var d DailyCount
		if err := rows.Scan(&d.Date, &d.Count); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DailyPosts counts published listings per day, ascending by date.
func (r *StatsRepo) DailyPosts(ctx context.Context) ([]DailyCount, error) {
	return r.dailyCounts(ctx,
		`SELECT DATE_FORMAT(created_at, '%Y-%m-%d') AS day, COUNT(*)
		 FROM products GROUP BY day ORDER BY day ASC`)
}

// DailyTransactions counts completed sales per day, ascending by date.
func (r *StatsRepo) DailyTransactions(ctx context.Context) ([]DailyCount, error) {
	return r.dailyCounts(ctx,
		`SELECT DATE_FORMAT(transaction_date, '%Y-%m-%d') AS day, COUNT(*)
		 FROM orders GROUP BY day ORDER BY day ASC`)
}

// HotCategories counts sales per product category, best-selling
// first. The join replaces the original's lookup/unwind pipeline.
func (r *StatsRepo) HotCategories(ctx context.Context) ([]CategoryCount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.category, COUNT(*) AS sales
		 FROM orders o
		 JOIN products p ON p.id = o.product_id
		 GROUP BY p.category
		 ORDER BY sales DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]CategoryCount, 0)
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
