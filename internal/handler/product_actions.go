package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/unitrade/campus-market/internal/model"
	"github.com/unitrade/campus-market/internal/queue"
	"github.com/unitrade/campus-market/internal/repository"
	queue_publisher "github.com/unitrade/campus-market/internal/service"
)

// ActionsHandler covers the authenticated lifecycle operations on a
// listing: marking it sold, recording a view, toggling a favorite,
// commenting and evaluating the seller. Each operation delegates to
// a single transactional repository call, so a failed request never
// leaves half of a transition behind.
type ActionsHandler struct {
	Products *repository.ProductRepo
	Orders   *repository.OrderRepo
}

// NewActionsHandler constructs an ActionsHandler and panics if any
// dependency is nil.
func NewActionsHandler(products *repository.ProductRepo, orders *repository.OrderRepo) *ActionsHandler {
	if products == nil || orders == nil {
		panic("nil repository passed to NewActionsHandler")
	}
	return &ActionsHandler{Products: products, Orders: orders}
}

// Sell handles PUT /v1/products/:id/status and POST
// /v1/products/:id/sell. Both paths mark the caller's selling
// product as sold and append the order in the same transaction. Of
// two concurrent sells exactly one succeeds; the loser sees 409 and
// no second order exists. The order.created event is published after
// commit on a best-effort basis: the sale is already durable, so a
// broker outage only costs the notification.
func (h *ActionsHandler) Sell(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	productID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}

	// The status route historically accepts a body of {"status":"sold"};
	// anything else is rejected rather than interpreted.
	if c.Request().Method == http.MethodPut {
		var body struct {
			Status string `json:"status"`
		}
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
		}
		if body.Status != "" && body.Status != model.StatusSold {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "status can only change to sold"})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	order, err := h.Products.MarkSold(ctx, productID, userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "you are not the owner of this product"})
		case errors.Is(err, repository.ErrAlreadySold):
			return c.JSON(http.StatusConflict, echo.Map{"error": "already sold"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "sell failed"})
	}

	evt := queue.OrderCreatedEvent{
		OrderID:         order.ID,
		ProductID:       order.ProductID,
		SellerID:        order.SellerID,
		PriceCents:      order.PriceCents,
		TransactionDate: order.TransactionDate.Format(time.RFC3339),
	}
	if err := queue_publisher.PublishOrderCreated(context.Background(), evt); err != nil {
		log.Printf("sell: order.created publish failed for order %d: %v", order.ID, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "product sold",
		"order": echo.Map{
			"id":               order.ID,
			"product_id":       order.ProductID,
			"seller_id":        order.SellerID,
			"price":            float64(order.PriceCents) / 100,
			"price_cents":      order.PriceCents,
			"transaction_date": order.TransactionDate,
		},
	})
}

// View handles PUT /v1/products/:id/view: one atomic view-count
// increment plus the caller's history upsert.
func (h *ActionsHandler) View(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	productID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Products.RecordView(ctx, productID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "record view failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "view recorded"})
}

// Favorite handles POST /v1/products/:id/favorite, toggling the
// caller's membership in the product's favorite set.
func (h *ActionsHandler) Favorite(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	productID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	count, favorited, err := h.Products.ToggleFavorite(ctx, productID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "favorite failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"favorited":       favorited,
		"favorited_count": count,
	})
}

// Comment handles POST /v1/products/:id/comments, appending to the
// thread with the caller's nickname captured at write time.
func (h *ActionsHandler) Comment(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	productID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	var body struct {
		Content string `json:"content"`
	}
	if err := c.Bind(&body); err != nil || strings.TrimSpace(body.Content) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	comments, err := h.Products.AddComment(ctx, productID, userID, getNickname(c), strings.TrimSpace(body.Content))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "comment failed"})
	}
	return c.JSON(http.StatusCreated, comments)
}

// Evaluate handles POST /v1/products/:id/evaluate. The kind is
// validated here; existence, sold-status, self-evaluation and
// write-once checks run inside the repository transaction so they
// hold under the row's current state, not a stale read.
func (h *ActionsHandler) Evaluate(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	productID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	var body struct {
		Type string `json:"type"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	kind := strings.ToLower(strings.TrimSpace(body.Type))
	if !model.ValidEvaluation(kind) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "type must be good, neutral or bad"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Products.Evaluate(ctx, productID, userID, kind); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		case errors.Is(err, repository.ErrNotSold):
			return c.JSON(http.StatusConflict, echo.Map{"error": "product not sold yet"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "cannot evaluate your own sale"})
		case errors.Is(err, repository.ErrAlreadyEvaluated):
			return c.JSON(http.StatusConflict, echo.Map{"error": "already evaluated"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "evaluate failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "evaluation submitted"})
}
