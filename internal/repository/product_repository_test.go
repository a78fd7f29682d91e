package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/unitrade/campus-market/internal/model"
)

func newMockRepo(t *testing.T) (*ProductRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewProductRepo(db), mock
}

const (
	forUpdateSellQuery = "SELECT owner_id, status, price_cents FROM products WHERE id=? FOR UPDATE"
	forUpdateEvalQuery = "SELECT owner_id, status FROM products WHERE id=? FOR UPDATE"
)

func TestUpdateByOwner(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT owner_id FROM products WHERE id=?")).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(7))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE products SET title=?, description=?, price_cents=?, category=?, campus=?, cond=?")).
		WithArgs("Calculus vol.2", "new edition", uint32(3500), "books", "north", model.ConditionNew, uint64(10), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	p := &model.Product{
		Title:       "Calculus vol.2",
		Description: "new edition",
		PriceCents:  3500,
		Category:    "books",
		Campus:      "north",
		Condition:   model.ConditionNew,
	}
	if err := repo.Update(context.Background(), 10, 7, p, nil); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

// A non-owner edit is rejected before any UPDATE runs; sqlmock
// verifies nothing beyond the ownership read ever hit the database.
func TestUpdateNotOwner(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT owner_id FROM products WHERE id=?")).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(7))

	p := &model.Product{Title: "hijacked", PriceCents: 100, Category: "books", Campus: "north", Condition: model.ConditionNew}
	if err := repo.Update(context.Background(), 10, 99, p, nil); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpdateMissingProduct(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT owner_id FROM products WHERE id=?")).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}))

	p := &model.Product{Title: "x", Category: "books", Campus: "north", Condition: model.ConditionNew}
	if err := repo.Update(context.Background(), 10, 7, p, nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestMarkSold(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(forUpdateSellQuery)).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id", "status", "price_cents"}).
			AddRow(7, model.StatusSelling, 1500))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE products SET status=? WHERE id=? AND status=?")).
		WithArgs(model.StatusSold, uint64(10), model.StatusSelling).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders")).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectCommit()

	order, err := repo.MarkSold(context.Background(), 10, 7)
	if err != nil {
		t.Fatalf("MarkSold: %v", err)
	}
	if order.ID != 42 || order.ProductID != 10 || order.SellerID != 7 {
		t.Errorf("order = %+v, want id=42 product=10 seller=7", order)
	}
	if order.PriceCents != 1500 {
		t.Errorf("order.PriceCents = %d, want snapshot 1500", order.PriceCents)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestMarkSoldNotOwner(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(forUpdateSellQuery)).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id", "status", "price_cents"}).
			AddRow(7, model.StatusSelling, 1500))
	mock.ExpectRollback()

	if _, err := repo.MarkSold(context.Background(), 10, 99); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestMarkSoldAlreadySold(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(forUpdateSellQuery)).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id", "status", "price_cents"}).
			AddRow(7, model.StatusSold, 1500))
	mock.ExpectRollback()

	if _, err := repo.MarkSold(context.Background(), 10, 7); !errors.Is(err, ErrAlreadySold) {
		t.Fatalf("err = %v, want ErrAlreadySold", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestMarkSoldMissingProduct(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(forUpdateSellQuery)).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id", "status", "price_cents"}))
	mock.ExpectRollback()

	if _, err := repo.MarkSold(context.Background(), 10, 7); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

// A racing seller that loses the conditional UPDATE must see the same
// conflict error as one that read a sold row.
func TestMarkSoldLostRace(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(forUpdateSellQuery)).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id", "status", "price_cents"}).
			AddRow(7, model.StatusSelling, 1500))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE products SET status=?")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	if _, err := repo.MarkSold(context.Background(), 10, 7); !errors.Is(err, ErrAlreadySold) {
		t.Fatalf("err = %v, want ErrAlreadySold", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestEvaluate(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(forUpdateEvalQuery)).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id", "status"}).AddRow(7, model.StatusSold))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO product_evaluations")).
		WithArgs(uint64(10), uint64(3), model.EvalGood).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET reputation_good = reputation_good + 1 WHERE id=?")).
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.Evaluate(context.Background(), 10, 3, model.EvalGood); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestEvaluateNotSold(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(forUpdateEvalQuery)).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id", "status"}).AddRow(7, model.StatusSelling))
	mock.ExpectRollback()

	if err := repo.Evaluate(context.Background(), 10, 3, model.EvalGood); !errors.Is(err, ErrNotSold) {
		t.Fatalf("err = %v, want ErrNotSold", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

// Sellers cannot rate their own sale.
func TestEvaluateSelf(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(forUpdateEvalQuery)).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id", "status"}).AddRow(7, model.StatusSold))
	mock.ExpectRollback()

	if err := repo.Evaluate(context.Background(), 10, 7, model.EvalBad); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestEvaluateTwice(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(forUpdateEvalQuery)).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id", "status"}).AddRow(7, model.StatusSold))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO product_evaluations")).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry '10-3' for key 'PRIMARY'"))
	mock.ExpectRollback()

	if err := repo.Evaluate(context.Background(), 10, 3, model.EvalNeutral); !errors.Is(err, ErrAlreadyEvaluated) {
		t.Fatalf("err = %v, want ErrAlreadyEvaluated", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestToggleFavoriteAdd(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM products WHERE id=?")).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM product_favorites")).
		WithArgs(uint64(10), uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO product_favorites")).
		WithArgs(uint64(10), uint64(3)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM product_favorites WHERE product_id=?")).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectCommit()

	count, favorited, err := repo.ToggleFavorite(context.Background(), 10, 3)
	if err != nil {
		t.Fatalf("ToggleFavorite: %v", err)
	}
	if !favorited || count != 3 {
		t.Errorf("got favorited=%v count=%d, want favorited=true count=3", favorited, count)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestToggleFavoriteRemove(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM products WHERE id=?")).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM product_favorites")).
		WithArgs(uint64(10), uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM product_favorites WHERE product_id=?")).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectCommit()

	count, favorited, err := repo.ToggleFavorite(context.Background(), 10, 3)
	if err != nil {
		t.Fatalf("ToggleFavorite: %v", err)
	}
	if favorited || count != 2 {
		t.Errorf("got favorited=%v count=%d, want favorited=false count=2", favorited, count)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

// The loser of two simultaneous same-user toggles hits a duplicate
// key on the insert; the row exists, so the outcome is still
// favorited rather than an error.
func TestToggleFavoriteConcurrentAdd(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM products WHERE id=?")).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM product_favorites")).
		WithArgs(uint64(10), uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO product_favorites")).
		WithArgs(uint64(10), uint64(3)).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry '10-3' for key 'PRIMARY'"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM product_favorites WHERE product_id=?")).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectCommit()

	count, favorited, err := repo.ToggleFavorite(context.Background(), 10, 3)
	if err != nil {
		t.Fatalf("ToggleFavorite: %v", err)
	}
	if !favorited || count != 1 {
		t.Errorf("got favorited=%v count=%d, want favorited=true count=1", favorited, count)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestToggleFavoriteMissingProduct(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM products WHERE id=?")).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	if _, _, err := repo.ToggleFavorite(context.Background(), 10, 3); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRecordView(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE products SET view_count = view_count + 1 WHERE id=?")).
		WithArgs(uint64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO view_history")).
		WithArgs(uint64(3), uint64(10)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := repo.RecordView(context.Background(), 10, 3); err != nil {
		t.Fatalf("RecordView: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRecordViewMissingProduct(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE products SET view_count = view_count + 1 WHERE id=?")).
		WithArgs(uint64(10)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	if err := repo.RecordView(context.Background(), 10, 3); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSearchFilters(t *testing.T) {
	repo, mock := newMockRepo(t)

	q := SearchQuery{
		Category: "books",
		Search:   "Calc",
		PriceMin: 0,
		PriceMax: 5000,
		SortBy:   "price",
		Page:     1,
		PageSize: 20,
	}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM products p WHERE")).
		WithArgs(model.StatusSelling, "books", "%calc%", int64(0), int64(5000)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("ORDER BY p.price_cents ASC").
		WithArgs(model.StatusSelling, "books", "%calc%", int64(0), int64(5000), 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "description", "price_cents", "category",
			"campus", "cond", "status", "view_count", "owner_id", "nickname", "created_at",
		}).AddRow(10, "Calculus vol.1", "barely used", 3200, "books",
			"north", model.ConditionNinety, model.StatusSelling, 12, 7, "wei", time.Now()))

	rows, total, err := repo.Search(context.Background(), q)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("got total=%d len=%d, want 1/1", total, len(rows))
	}
	if rows[0].Price != 32.00 {
		t.Errorf("Price = %v, want 32 derived from 3200 cents", rows[0].Price)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCreateUserDuplicateStudentID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	users := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry '20250101' for key 'uq_student_id'"))

	if _, err := users.Create(context.Background(), "20250101", "wei", "hunter22", 4); !errors.Is(err, ErrStudentIDExists) {
		t.Fatalf("err = %v, want ErrStudentIDExists", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
