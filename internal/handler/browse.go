package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/unitrade/campus-market/internal/repository"
)

// BrowseHandler serves the public, unauthenticated listing feed with
// filtering, search, sorting and pagination. Sold products never
// appear here; they remain reachable through the detail endpoint and
// per-user listings.
type BrowseHandler struct {
	Products *repository.ProductRepo
}

func NewBrowseHandler(products *repository.ProductRepo) *BrowseHandler {
	if products == nil {
		panic("nil repository passed to NewBrowseHandler")
	}
	return &BrowseHandler{Products: products}
}

// priceFilterCents converts an optional decimal query value into
// cents, returning -1 when the filter is absent or unusable.
func priceFilterCents(raw string) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return -1
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 {
		return -1
	}
	return int64(f * 100)
}

// List handles GET /v1/products.
// Query parameters: category, campus, condition, search, priceMin,
// priceMax, sort (field:asc|desc over created_at, price, view_count),
// page, page_size.
func (h *BrowseHandler) List(c echo.Context) error {
	q := repository.SearchQuery{
		Category:  strings.TrimSpace(c.QueryParam("category")),
		Campus:    strings.TrimSpace(c.QueryParam("campus")),
		Condition: strings.TrimSpace(c.QueryParam("condition")),
		Search:    strings.TrimSpace(c.QueryParam("search")),
		PriceMin:  priceFilterCents(c.QueryParam("priceMin")),
		PriceMax:  priceFilterCents(c.QueryParam("priceMax")),
		SortBy:    "created_at",
		SortDesc:  true,
		Page:      1,
		PageSize:  20,
	}

	if sort := strings.TrimSpace(c.QueryParam("sort")); sort != "" {
		field, dir, _ := strings.Cut(sort, ":")
		switch field {
		case "price", "view_count", "created_at":
			q.SortBy = field
		}
		q.SortDesc = !strings.EqualFold(dir, "asc")
	}
	if n, err := strconv.Atoi(c.QueryParam("page")); err == nil && n > 0 {
		q.Page = n
	}
	if n, err := strconv.Atoi(c.QueryParam("page_size")); err == nil && n > 0 && n <= 100 {
		q.PageSize = n
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, total, err := h.Products.Search(ctx, q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"products":  rows,
		"total":     total,
		"page":      q.Page,
		"page_size": q.PageSize,
	})
}
