package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/unitrade/campus-market/internal/repository"
)

// UserListingsHandler serves the per-user collections: favorites,
// publications, completed orders and the view history. Everything
// here is scoped to the authenticated caller.
type UserListingsHandler struct {
	Products  *repository.ProductRepo
	OrderRepo *repository.OrderRepo
}

func NewUserListingsHandler(products *repository.ProductRepo, orders *repository.OrderRepo) *UserListingsHandler {
	if products == nil || orders == nil {
		panic("nil repository passed to NewUserListingsHandler")
	}
	return &UserListingsHandler{Products: products, OrderRepo: orders}
}

// Favorites handles GET /v1/user/favorites.
func (h *UserListingsHandler) Favorites(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Products.ListFavoritedBy(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, rows)
}

// Publications handles GET /v1/user/publications.
func (h *UserListingsHandler) Publications(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Products.ListByOwner(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, rows)
}

// Orders handles GET /v1/user/orders, listing sales where the caller
// was the seller.
func (h *UserListingsHandler) Orders(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	orders, err := h.OrderRepo.ListBySeller(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, orders)
}

// ViewHistory handles GET /v1/user/view-history. Entries come back
// most-recently-viewed first with at most one entry per product; the
// page/page_size parameters bound the read.
func (h *UserListingsHandler) ViewHistory(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	page := 1
	pageSize := 20
	if n, err := strconv.Atoi(c.QueryParam("page")); err == nil && n > 0 {
		page = n
	}
	if n, err := strconv.Atoi(c.QueryParam("page_size")); err == nil && n > 0 && n <= 100 {
		pageSize = n
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Products.ViewHistory(ctx, userID, page, pageSize)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"history":   rows,
		"page":      page,
		"page_size": pageSize,
	})
}
