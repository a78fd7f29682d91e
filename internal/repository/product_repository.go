package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/unitrade/campus-market/internal/model"
)

// ProductRepo owns the product lifecycle: creation, editing, browse
// queries, and every mutation tied to viewing or buying a listing.
// Mutations that touch two tables (mark-sold writes products+orders,
// evaluate writes product_evaluations+users) run inside a single SQL
// transaction so concurrent callers never observe a half-applied
// transition. Preconditions are always re-checked under the row lock
// taken by the transaction, never trusted from an earlier read.
type ProductRepo struct {
	db *sql.DB
}

// NewProductRepo returns a new ProductRepo bound to the given database.
func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{db: db} }

// DB exposes the underlying handle for callers that need their own
// transaction scope.
func (r *ProductRepo) DB() *sql.DB { return r.db }

// ProductRow is the browse/list projection of a product. The image
// payload is never part of it; clients fetch images through the
// dedicated image endpoint. Price carries the cent amount as a
// float for display alongside the exact integer value.
type ProductRow struct {
	ID            uint64    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	PriceCents    uint32    `json:"price_cents"`
	Price         float64   `json:"price"`
	Category      string    `json:"category"`
	Campus        string    `json:"campus"`
	Condition     string    `json:"condition"`
	Status        string    `json:"status"`
	ViewCount     uint64    `json:"view_count"`
	OwnerID       uint64    `json:"owner_id"`
	OwnerNickname string    `json:"owner_nickname"`
	CreatedAt     time.Time `json:"created_at"`
}

// productRowColumns are the SELECT columns matching scanProductRow.
const productRowColumns = `p.id, p.title, p.description, p.price_cents, p.category,
		p.campus, p.cond, p.status, p.view_count, p.owner_id, u.nickname, p.created_at`

func scanProductRow(s interface{ Scan(...any) error }) (ProductRow, error) {
	var row ProductRow
	err := s.Scan(&row.ID, &row.Title, &row.Description, &row.PriceCents, &row.Category,
		&row.Campus, &row.Condition, &row.Status, &row.ViewCount, &row.OwnerID,
		&row.OwnerNickname, &row.CreatedAt)
	if err != nil {
		return row, err
	}
	row.Price = float64(row.PriceCents) / 100
	return row, nil
}

// Create inserts a new listing in the 'selling' state and returns its
// ID. The image payload is stored in the same row; validation of the
// inputs happens in the handler before this point.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product, image []byte) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO products (owner_id, title, description, price_cents, category, campus, cond, status, image, image_type)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		p.OwnerID, p.Title, p.Description, p.PriceCents, p.Category, p.Campus, p.Condition,
		model.StatusSelling, image, p.ImageType)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ownerOf returns the owner of a product, or ErrNotFound.
func (r *ProductRepo) ownerOf(ctx context.Context, productID uint64) (uint64, error) {
	var ownerID uint64
	err := r.db.QueryRowContext(ctx,
		"SELECT owner_id FROM products WHERE id=?", productID).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	return ownerID, err
}

// Update replaces the editable fields of a listing. Only the owner may
// edit; callers that are not the owner get ErrForbidden and nothing
// changes. When image is non-nil the stored image object (bytes and
// MIME type) is replaced wholesale; metadata-only edits leave it
// untouched. Ownership is part of the UPDATE's WHERE clause so the
// check and the write are one statement.
func (r *ProductRepo) Update(ctx context.Context, productID, callerID uint64, p *model.Product, image []byte) error {
	ownerID, err := r.ownerOf(ctx, productID)
	if err != nil {
		return err
	}
	if ownerID != callerID {
		return ErrForbidden
	}
	if image != nil {
		_, err = r.db.ExecContext(ctx,
			`UPDATE products SET title=?, description=?, price_cents=?, category=?, campus=?, cond=?, image=?, image_type=?
			 WHERE id=? AND owner_id=?`,
			p.Title, p.Description, p.PriceCents, p.Category, p.Campus, p.Condition,
			image, p.ImageType, productID, callerID)
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE products SET title=?, description=?, price_cents=?, category=?, campus=?, cond=?
		 WHERE id=? AND owner_id=?`,
		p.Title, p.Description, p.PriceCents, p.Category, p.Campus, p.Condition,
		productID, callerID)
	return err
}

// GetRow returns the list projection of a single product.
func (r *ProductRepo) GetRow(ctx context.Context, productID uint64) (ProductRow, error) {
	row, err := scanProductRow(r.db.QueryRowContext(ctx,
		`SELECT `+productRowColumns+`
		 FROM products p JOIN users u ON u.id = p.owner_id
		 WHERE p.id=?`, productID))
	if err == sql.ErrNoRows {
		return row, ErrNotFound
	}
	return row, err
}

// Image returns the stored image bytes and MIME type for a product.
// ErrNotFound covers both a missing product and a product without an
// image payload.
func (r *ProductRepo) Image(ctx context.Context, productID uint64) ([]byte, string, error) {
	var data []byte
	var mime sql.NullString
	err := r.db.QueryRowContext(ctx,
		"SELECT image, image_type FROM products WHERE id=?", productID).Scan(&data, &mime)
	if err == sql.ErrNoRows {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", ErrNotFound
	}
	return data, mime.String, nil
}

// SearchQuery defines filters, sorting and pagination for browsing
// selling products.
type SearchQuery struct {
	Category  string
	Campus    string
	Condition string
	Search    string // case-insensitive substring on the title
	PriceMin  int64  // cents; negative means unset
	PriceMax  int64  // cents; negative means unset
	SortBy    string // created_at | price | view_count
	SortDesc  bool
	Page      int
	PageSize  int
}

// Search returns selling products matching the query plus the total
// match count for pagination. Filters are ANDed; absent filters are
// skipped. The sort column is whitelisted, never interpolated from
// user input.
func (r *ProductRepo) Search(ctx context.Context, q SearchQuery) ([]ProductRow, int64, error) {
	where := []string{"p.status = ?"}
	args := []any{model.StatusSelling}

	if q.Category != "" {
		where = append(where, "p.category = ?")
		args = append(args, q.Category)
	}
	if q.Campus != "" {
		where = append(where, "p.campus = ?")
		args = append(args, q.Campus)
	}
	if q.Condition != "" {
		where = append(where, "p.cond = ?")
		args = append(args, q.Condition)
	}
	if q.Search != "" {
		where = append(where, "LOWER(p.title) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Search)+"%")
	}
	if q.PriceMin >= 0 {
		where = append(where, "p.price_cents >= ?")
		args = append(args, q.PriceMin)
	}
	if q.PriceMax >= 0 {
		where = append(where, "p.price_cents <= ?")
		args = append(args, q.PriceMax)
	}
	cond := strings.Join(where, " AND ")

	var total int64
	countSQL := `SELECT COUNT(*) FROM products p WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sortCol := "p.created_at"
	switch q.SortBy {
	case "price":
		sortCol = "p.price_cents"
	case "view_count":
		sortCol = "p.view_count"
	}
	dir := "ASC"
	if q.SortDesc {
		dir = "DESC"
	}

	limit := q.PageSize
	offset := (q.Page - 1) * q.PageSize

	dataSQL := `SELECT ` + productRowColumns + `
		FROM products p
		JOIN users u ON u.id = p.owner_id
		WHERE ` + cond + `
		ORDER BY ` + sortCol + ` ` + dir + `
		LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]ProductRow, 0, limit)
	for rows.Next() {
		row, err := scanProductRow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, row)
	}
	return out, total, rows.Err()
}

// MarkSold flips a selling product to sold and appends the matching
// order in one transaction. The status flip is a conditional UPDATE
// on status='selling': under concurrent sells exactly one statement
// reports an affected row, so exactly one order is ever written (a
// UNIQUE index on orders.product_id backstops this). The order's
// price snapshots the product's price as read under the row lock.
func (r *ProductRepo) MarkSold(ctx context.Context, productID, callerID uint64) (model.Order, error) {
	var order model.Order
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return order, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var ownerID uint64
	var status string
	var priceCents uint32
	err = tx.QueryRowContext(ctx,
		"SELECT owner_id, status, price_cents FROM products WHERE id=? FOR UPDATE",
		productID).Scan(&ownerID, &status, &priceCents)
	if err == sql.ErrNoRows {
		return order, ErrNotFound
	}
	if err != nil {
		return order, err
	}
	if ownerID != callerID {
		return order, ErrForbidden
	}
	if status == model.StatusSold {
		return order, ErrAlreadySold
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE products SET status=? WHERE id=? AND status=?",
		model.StatusSold, productID, model.StatusSelling)
	if err != nil {
		return order, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return order, err
	} else if n == 0 {
		// Lost the race after all; the row lock normally prevents this
		// but the guard keeps the invariant even without it.
		return order, ErrAlreadySold
	}

	now := time.Now().UTC()
	ins, err := tx.ExecContext(ctx,
		"INSERT INTO orders (product_id, seller_id, price_cents, transaction_date) VALUES (?,?,?,?)",
		productID, ownerID, priceCents, now)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return order, ErrAlreadySold
		}
		return order, err
	}
	oid, err := ins.LastInsertId()
	if err != nil {
		return order, err
	}
	if err := tx.Commit(); err != nil {
		return order, err
	}
	committed = true

	order = model.Order{
		ID:              uint64(oid),
		ProductID:       productID,
		SellerID:        ownerID,
		PriceCents:      priceCents,
		TransactionDate: now,
	}
	return order, nil
}

// RecordView bumps a product's view counter and refreshes the
// viewer's history in one transaction. The counter is a pure atomic
// add in SQL, so N concurrent views land as exactly N. The history
// upsert keeps one row per (user, product) and refreshes its
// timestamp, which is what makes the history deduplicated and
// most-recent-first on read.
func (r *ProductRepo) RecordView(ctx context.Context, productID, userID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		"UPDATE products SET view_count = view_count + 1 WHERE id=?", productID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO view_history (user_id, product_id, viewed_at) VALUES (?,?,NOW())
		 ON DUPLICATE KEY UPDATE viewed_at=NOW()`,
		userID, productID)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ToggleFavorite adds the user to the product's favorite set when
// absent and removes them when present, returning the resulting
// count and whether the product is now favorited by the caller.
// Toggling twice restores the original state.
func (r *ProductRepo) ToggleFavorite(ctx context.Context, productID, userID uint64) (int64, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var exists uint64
	err = tx.QueryRowContext(ctx, "SELECT id FROM products WHERE id=?", productID).Scan(&exists)
	if err == sql.ErrNoRows {
		return 0, false, ErrNotFound
	}
	if err != nil {
		return 0, false, err
	}

	res, err := tx.ExecContext(ctx,
		"DELETE FROM product_favorites WHERE product_id=? AND user_id=?", productID, userID)
	if err != nil {
		return 0, false, err
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, false, err
	}
	favorited := false
	if removed == 0 {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO product_favorites (product_id, user_id) VALUES (?,?)", productID, userID); err != nil {
			// A concurrent toggle by the same user may have inserted the
			// row first; either way it now exists.
			if !strings.Contains(strings.ToLower(err.Error()), "1062") {
				return 0, false, err
			}
		}
		favorited = true
	}

	var count int64
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM product_favorites WHERE product_id=?", productID).Scan(&count); err != nil {
		return 0, false, err
	}
	if err := tx.Commit(); err != nil {
		return 0, false, err
	}
	committed = true
	return count, favorited, nil
}

// AddComment appends a comment carrying the author's nickname as a
// write-time snapshot and returns the refreshed thread. The stored
// nickname is deliberately not re-resolved on later reads.
func (r *ProductRepo) AddComment(ctx context.Context, productID, userID uint64, nickname, content string) ([]model.Comment, error) {
	if _, err := r.ownerOf(ctx, productID); err != nil {
		return nil, err
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO product_comments (product_id, user_id, nickname, content) VALUES (?,?,?,?)",
		productID, userID, nickname, content)
	if err != nil {
		return nil, err
	}
	return r.ListComments(ctx, productID)
}

// ListComments returns a product's comment thread oldest-first.
func (r *ProductRepo) ListComments(ctx context.Context, productID uint64) ([]model.Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, product_id, user_id, nickname, content, created_at
		 FROM product_comments WHERE product_id=? ORDER BY created_at ASC, id ASC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Comment, 0)
	for rows.Next() {
		var cm model.Comment
		if err := rows.Scan(&cm.ID, &cm.ProductID, &cm.UserID, &cm.Nickname, &cm.Content, &cm.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, cm)
	}
	return out, rows.Err()
}

// reputationColumn maps an evaluation kind to its users column. The
// map doubles as the injection guard for the dynamic column name.
var reputationColumn = map[string]string{
	model.EvalGood:    "reputation_good",
	model.EvalNeutral: "reputation_neutral",
	model.EvalBad:     "reputation_bad",
}

// Evaluate records a post-sale evaluation of a product's seller.
// Guards run in order under the product's row lock: the product must
// exist, must be sold, and the evaluator must not be the owner. The
// write-once rule is enforced by the (product_id, user_id) primary
// key on product_evaluations; a duplicate insert surfaces as
// ErrAlreadyEvaluated without touching reputation. Both the
// evaluation row and the seller's counter commit together or not at
// all.
func (r *ProductRepo) Evaluate(ctx context.Context, productID, evaluatorID uint64, kind string) error {
	col, ok := reputationColumn[kind]
	if !ok {
		return ErrNotFound // callers validate the kind first; treat as programmer error fallback
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var ownerID uint64
	var status string
	err = tx.QueryRowContext(ctx,
		"SELECT owner_id, status FROM products WHERE id=? FOR UPDATE", productID).Scan(&ownerID, &status)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if status != model.StatusSold {
		return ErrNotSold
	}
	if ownerID == evaluatorID {
		return ErrForbidden
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO product_evaluations (product_id, user_id, kind) VALUES (?,?,?)",
		productID, evaluatorID, kind); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrAlreadyEvaluated
		}
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE users SET "+col+" = "+col+" + 1 WHERE id=?", ownerID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Evaluators returns the IDs of users who have already evaluated the
// sale of this product.
func (r *ProductRepo) Evaluators(ctx context.Context, productID uint64) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT user_id FROM product_evaluations WHERE product_id=? ORDER BY created_at ASC", productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]uint64, 0)
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// FavoriteCount returns how many users currently favorite a product.
func (r *ProductRepo) FavoriteCount(ctx context.Context, productID uint64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM product_favorites WHERE product_id=?", productID).Scan(&count)
	return count, err
}

// ListByOwner returns every listing published by a user, newest first.
func (r *ProductRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]ProductRow, error) {
	return r.listRows(ctx,
		`SELECT `+productRowColumns+`
		 FROM products p JOIN users u ON u.id = p.owner_id
		 WHERE p.owner_id=? ORDER BY p.created_at DESC`, ownerID)
}

// ListFavoritedBy returns every product in the user's favorite set.
func (r *ProductRepo) ListFavoritedBy(ctx context.Context, userID uint64) ([]ProductRow, error) {
	return r.listRows(ctx,
		`SELECT `+productRowColumns+`
		 FROM product_favorites f
		 JOIN products p ON p.id = f.product_id
		 JOIN users u ON u.id = p.owner_id
		 WHERE f.user_id=? ORDER BY f.created_at DESC`, userID)
}

// ViewedRow is one entry of a user's view history: the product's list
// projection plus when the user last viewed it.
type ViewedRow struct {
	ProductRow
	ViewedAt time.Time `json:"viewed_at"`
}

// ViewHistory returns the user's view history most-recent-first,
// bounded by pagination.
func (r *ProductRepo) ViewHistory(ctx context.Context, userID uint64, page, pageSize int) ([]ViewedRow, error) {
	limit := pageSize
	offset := (page - 1) * pageSize
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productRowColumns+`, v.viewed_at
		 FROM view_history v
		 JOIN products p ON p.id = v.product_id
		 JOIN users u ON u.id = p.owner_id
		 WHERE v.user_id=?
		 ORDER BY v.viewed_at DESC
		 LIMIT ? OFFSET ?`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ViewedRow, 0, limit)
	for rows.Next() {
		var vr ViewedRow
		err := rows.Scan(&vr.ID, &vr.Title, &vr.Description, &vr.PriceCents, &vr.Category,
			&vr.Campus, &vr.Condition, &vr.Status, &vr.ViewCount, &vr.OwnerID,
			&vr.OwnerNickname, &vr.CreatedAt, &vr.ViewedAt)
		if err != nil {
			return nil, err
		}
		vr.Price = float64(vr.PriceCents) / 100
		out = append(out, vr)
	}
	return out, rows.Err()
}

// ListAll returns every product regardless of status for the admin
// CSV export.
func (r *ProductRepo) ListAll(ctx context.Context) ([]ProductRow, error) {
	return r.listRows(ctx,
		`SELECT `+productRowColumns+`
		 FROM products p JOIN users u ON u.id = p.owner_id
		 ORDER BY p.created_at DESC`)
}

func (r *ProductRepo) listRows(ctx context.Context, query string, args ...any) ([]ProductRow, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ProductRow, 0)
	for rows.Next() {
		row, err := scanProductRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
