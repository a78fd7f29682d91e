package handler

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/unitrade/campus-market/internal/model"
	"github.com/unitrade/campus-market/internal/repository"
)

// maxImageBytes caps uploaded listing images at 5 MiB.
const maxImageBytes = 5 << 20

// ProductHandler serves listing creation, editing, detail and image
// endpoints.  Browse and lifecycle actions live in their own files;
// this handler covers the owner-facing CRUD surface.
type ProductHandler struct {
	Products *repository.ProductRepo
	Users    *repository.UserRepo
}

// NewProductHandler constructs a ProductHandler and panics if any
// dependency is nil.
func NewProductHandler(products *repository.ProductRepo, users *repository.UserRepo) *ProductHandler {
	if products == nil || users == nil {
		panic("nil repository passed to NewProductHandler")
	}
	return &ProductHandler{Products: products, Users: users}
}

// parsePriceCents converts a decimal price string ("100", "99.50")
// into cents. Negative and malformed values are rejected.
func parsePriceCents(s string) (uint32, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	cents := math.Round(f * 100)
	if cents > math.MaxUint32 {
		return 0, false
	}
	return uint32(cents), true
}

// listingForm holds the validated multipart fields of a create or
// update request.
type listingForm struct {
	product   model.Product
	image     []byte // nil when no file was uploaded
	imageType string
}

// bindListingForm reads the multipart fields shared by create and
// update. When requireImage is set a missing imageFile part is a
// validation error; update requests may omit it to keep the stored
// image.
func bindListingForm(c echo.Context, requireImage bool) (listingForm, string) {
	var f listingForm
	f.product.Title = strings.TrimSpace(c.FormValue("title"))
	f.product.Description = strings.TrimSpace(c.FormValue("description"))
	f.product.Category = strings.TrimSpace(c.FormValue("category"))
	f.product.Campus = strings.TrimSpace(c.FormValue("campus"))
	f.product.Condition = strings.TrimSpace(c.FormValue("condition"))

	if f.product.Title == "" || f.product.Category == "" || f.product.Campus == "" {
		return f, "title/category/campus required"
	}
	if !model.ValidCondition(f.product.Condition) {
		return f, "invalid condition"
	}
	cents, ok := parsePriceCents(c.FormValue("price"))
	if !ok {
		return f, "price must be a non-negative number"
	}
	f.product.PriceCents = cents

	fh, err := c.FormFile("imageFile")
	if err != nil {
		if requireImage {
			return f, "no image file uploaded"
		}
		return f, ""
	}
	if fh.Size > maxImageBytes {
		return f, "image too large"
	}
	src, err := fh.Open()
	if err != nil {
		return f, "no image file uploaded"
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, maxImageBytes+1))
	if err != nil || len(data) == 0 || len(data) > maxImageBytes {
		return f, "no image file uploaded"
	}
	f.image = data
	f.imageType = fh.Header.Get("Content-Type")
	if f.imageType == "" {
		f.imageType = "application/octet-stream"
	}
	f.product.ImageType = f.imageType
	return f, ""
}

// Create handles POST /v1/products.  The request is multipart: the
// listing fields plus an imageFile part, which is mandatory on
// creation.  The new listing starts in the selling state with the
// caller as owner.
func (h *ProductHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	form, msg := bindListingForm(c, true)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	form.product.OwnerID = userID

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Products.Create(ctx, &form.product, form.image)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create product failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id, "message": "product created"})
}

// Update handles PUT/POST /v1/products/:id.  Only the owner may edit.
// A supplied imageFile replaces the stored image object wholesale;
// without one the image is left untouched.  Note that editing is not
// restricted to selling products: an owner may still amend a sold
// listing's text, matching the platform's historical behaviour.
func (h *ProductHandler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	productID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	form, msg := bindListingForm(c, false)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Products.Update(ctx, productID, userID, &form.product, form.image); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "you are not the owner of this product"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update product failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "product updated"})
}

// productDetail is the full detail payload: the list projection plus
// the owner's reputation, the comment thread, the favorite count and
// the set of users who already evaluated the sale.  Image bytes are
// never part of it.
type productDetail struct {
	repository.ProductRow
	OwnerReputation map[string]uint32 `json:"owner_reputation"`
	Comments        []model.Comment   `json:"comments"`
	FavoritedCount  int64             `json:"favorited_count"`
	EvaluatedBy     []uint64          `json:"evaluated_by"`
}

// Detail handles GET /v1/products/:id.
func (h *ProductHandler) Detail(c echo.Context) error {
	productID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	row, err := h.Products.GetRow(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	owner, err := h.Users.GetByID(ctx, row.OwnerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	comments, err := h.Products.ListComments(ctx, productID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	favCount, err := h.Products.FavoriteCount(ctx, productID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	evaluators, err := h.Products.Evaluators(ctx, productID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	return c.JSON(http.StatusOK, productDetail{
		ProductRow: row,
		OwnerReputation: map[string]uint32{
			model.EvalGood:    owner.ReputationGood,
			model.EvalNeutral: owner.ReputationNeutral,
			model.EvalBad:     owner.ReputationBad,
		},
		Comments:       comments,
		FavoritedCount: favCount,
		EvaluatedBy:    evaluators,
	})
}

// Image handles GET /v1/products/:id/image, serving the raw bytes
// with the content type captured at upload time.
func (h *ProductHandler) Image(c echo.Context) error {
	productID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	data, mime, err := h.Products.Image(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "image not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if mime == "" {
		mime = "application/octet-stream"
	}
	return c.Blob(http.StatusOK, mime, data)
}
