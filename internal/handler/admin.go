package handler

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/unitrade/campus-market/internal/config"
	"github.com/unitrade/campus-market/internal/repository"
)

// AdminHandler serves the reporting and data-management surface:
// CSV exports, CSV user import, aggregate statistics and the
// admin-flag bootstrap route. Everything here is read-only over the
// marketplace state except the import and setadmin routes, which
// never touch product lifecycle state.
type AdminHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Products *repository.ProductRepo
	Orders   *repository.OrderRepo
	Stats    *repository.StatsRepo
}

func NewAdminHandler(cfg config.Config, users *repository.UserRepo, products *repository.ProductRepo, orders *repository.OrderRepo, stats *repository.StatsRepo) *AdminHandler {
	if users == nil || products == nil || orders == nil || stats == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	return &AdminHandler{Cfg: cfg, Users: users, Products: products, Orders: orders, Stats: stats}
}

// csvAttachment renders records as a CSV download. The UTF-8 BOM is
// prepended so spreadsheet tools detect the encoding, matching the
// platform's existing exports.
func csvAttachment(c echo.Context, filename string, records [][]string) error {
	var buf bytes.Buffer
	buf.WriteString("\xEF\xBB\xBF")
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "csv encode failed"})
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportUsers handles GET /v1/admin/export/users. Password hashes are
// never exported.
func (h *AdminHandler) ExportUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	users, err := h.Users.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if len(users) == 0 {
		return c.JSON(http.StatusOK, echo.Map{"message": "no data to export"})
	}
	records := [][]string{{"id", "student_id", "nickname", "is_admin",
		"reputation_good", "reputation_neutral", "reputation_bad", "created_at"}}
	for _, u := range users {
		records = append(records, []string{
			strconv.FormatUint(u.ID, 10),
			u.StudentID,
			u.Nickname,
			strconv.FormatBool(u.IsAdmin),
			strconv.FormatUint(uint64(u.ReputationGood), 10),
			strconv.FormatUint(uint64(u.ReputationNeutral), 10),
			strconv.FormatUint(uint64(u.ReputationBad), 10),
			u.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return csvAttachment(c, "all_users.csv", records)
}

// ExportProducts handles GET /v1/admin/export/products. Image bytes
// are excluded; the owner appears by nickname.
func (h *AdminHandler) ExportProducts(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	products, err := h.Products.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if len(products) == 0 {
		return c.JSON(http.StatusOK, echo.Map{"message": "no data to export"})
	}
	records := [][]string{{"id", "title", "price", "category", "campus", "condition",
		"status", "view_count", "owner_nickname", "created_at"}}
	for _, p := range products {
		records = append(records, []string{
			strconv.FormatUint(p.ID, 10),
			p.Title,
			strconv.FormatFloat(p.Price, 'f', 2, 64),
			p.Category,
			p.Campus,
			p.Condition,
			p.Status,
			strconv.FormatUint(p.ViewCount, 10),
			p.OwnerNickname,
			p.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return csvAttachment(c, "all_products.csv", records)
}

// ExportOrders handles GET /v1/admin/export/orders.
func (h *AdminHandler) ExportOrders(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	orders, err := h.Orders.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if len(orders) == 0 {
		return c.JSON(http.StatusOK, echo.Map{"message": "no data to export"})
	}
	records := [][]string{{"id", "product_title", "price", "seller_nickname", "transaction_date"}}
	for _, o := range orders {
		records = append(records, []string{
			strconv.FormatUint(o.ID, 10),
			o.ProductTitle,
			strconv.FormatFloat(o.Price, 'f', 2, 64),
			o.SellerNickname,
			o.TransactionDate.UTC().Format(time.RFC3339),
		})
	}
	return csvAttachment(c, "all_orders.csv", records)
}

// ImportUsers handles POST /v1/admin/import/users. The uploaded CSV
// must carry student_id, nickname and password columns (header row
// optional). Rows failing validation or colliding with an existing
// student id are counted and skipped; a bad row never aborts the
// rest of the file.
func (h *AdminHandler) ImportUsers(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no csv file uploaded"})
	}
	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot read uploaded file"})
	}
	defer src.Close()

	r := csv.NewReader(src)
	r.FieldsPerRecord = -1 // validated per row below
	r.TrimLeadingSpace = true

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	var imported, skipped int
	first := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		if first {
			first = false
			// Tolerate a header row naming the columns.
			if len(rec) > 0 && strings.EqualFold(strings.TrimPrefix(rec[0], "\xEF\xBB\xBF"), "student_id") {
				continue
			}
		}
		if len(rec) < 3 {
			skipped++
			continue
		}
		studentID := strings.TrimSpace(strings.TrimPrefix(rec[0], "\xEF\xBB\xBF"))
		nickname := strings.TrimSpace(rec[1])
		password := rec[2]
		if studentID == "" || nickname == "" || password == "" {
			skipped++
			continue
		}
		if _, err := h.Users.Create(ctx, studentID, nickname, password, h.Cfg.BcryptCost); err != nil {
			if errors.Is(err, repository.ErrStudentIDExists) {
				skipped++
				continue
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "import failed"})
		}
		imported++
	}

	return c.JSON(http.StatusOK, echo.Map{
		"imported": imported,
		"skipped":  skipped,
	})
}

// DailyPosts handles GET /v1/admin/stats/daily-posts.
func (h *AdminHandler) DailyPosts(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	stats, err := h.Stats.DailyPosts(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "daily posts stats failed"})
	}
	return c.JSON(http.StatusOK, stats)
}

// DailyTransactions handles GET /v1/admin/stats/daily-transactions.
func (h *AdminHandler) DailyTransactions(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	stats, err := h.Stats.DailyTransactions(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "daily transactions stats failed"})
	}
	return c.JSON(http.StatusOK, stats)
}

// HotCategories handles GET /v1/admin/stats/hot-categories-sales.
func (h *AdminHandler) HotCategories(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	stats, err := h.Stats.HotCategories(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hot categories stats failed"})
	}
	return c.JSON(http.StatusOK, stats)
}

// SetAdmin handles GET /v1/setadmin. It grants or revokes the admin
// flag for a student id. The route is guarded by a shared secret
// instead of a JWT so the first admin can be bootstrapped; with no
// secret configured the route is disabled outright.
func (h *AdminHandler) SetAdmin(c echo.Context) error {
	if h.Cfg.AdminSetupSecret == "" {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	if c.QueryParam("secretKey") != h.Cfg.AdminSetupSecret {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	studentID := strings.TrimSpace(c.QueryParam("userId"))
	flag := c.QueryParam("setadmin")
	if studentID == "" || (flag != "0" && flag != "1") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "userId and setadmin=0|1 required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.SetAdmin(ctx, studentID, flag == "1")
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "set admin failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "admin flag updated",
		"user": echo.Map{
			"id":         u.ID,
			"student_id": u.StudentID,
			"nickname":   u.Nickname,
			"is_admin":   u.IsAdmin,
		},
	})
}
