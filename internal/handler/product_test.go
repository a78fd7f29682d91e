package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/unitrade/campus-market/internal/model"
)

func TestParsePriceCents(t *testing.T) {
	cases := []struct {
		in    string
		cents uint32
		ok    bool
	}{
		{"100", 10000, true},
		{"99.50", 9950, true},
		{"0", 0, true},
		{" 12.5 ", 1250, true},
		{"0.005", 1, true}, // rounds, never truncates
		{"", 0, false},
		{"-1", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"99999999999", 0, false}, // overflows uint32 cents
	}
	for _, tc := range cases {
		cents, ok := parsePriceCents(tc.in)
		if ok != tc.ok || cents != tc.cents {
			t.Errorf("parsePriceCents(%q) = (%d, %v), want (%d, %v)", tc.in, cents, ok, tc.cents, tc.ok)
		}
	}
}

func TestPriceFilterCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"", -1},
		{"50", 5000},
		{"0", 0},
		{"12.34", 1234},
		{"-3", -1},
		{"abc", -1},
	}
	for _, tc := range cases {
		if got := priceFilterCents(tc.in); got != tc.want {
			t.Errorf("priceFilterCents(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

// multipartListing builds a multipart request body from form fields,
// optionally attaching an imageFile part.
func multipartListing(t *testing.T, fields map[string]string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if image != nil {
		part, err := w.CreateFormFile("imageFile", "photo.jpg")
		if err != nil {
			t.Fatalf("create file part: %v", err)
		}
		if _, err := part.Write(image); err != nil {
			t.Fatalf("write file part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func listingContext(t *testing.T, fields map[string]string, image []byte) echo.Context {
	t.Helper()
	body, contentType := multipartListing(t, fields, image)
	req := httptest.NewRequest(http.MethodPost, "/v1/products", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec)
}

func validFields() map[string]string {
	return map[string]string{
		"title":       "Calculus vol.1",
		"description": "barely used",
		"price":       "32",
		"category":    "books",
		"campus":      "north",
		"condition":   model.ConditionNinety,
	}
}

func TestBindListingForm(t *testing.T) {
	c := listingContext(t, validFields(), []byte{0xFF, 0xD8, 0xFF})
	form, msg := bindListingForm(c, true)
	if msg != "" {
		t.Fatalf("unexpected validation message %q", msg)
	}
	if form.product.Title != "Calculus vol.1" || form.product.PriceCents != 3200 {
		t.Errorf("bound product = %+v", form.product)
	}
	if len(form.image) != 3 {
		t.Errorf("image length = %d, want 3", len(form.image))
	}
}

func TestBindListingFormMissingImage(t *testing.T) {
	c := listingContext(t, validFields(), nil)
	if _, msg := bindListingForm(c, true); msg == "" {
		t.Error("missing imageFile accepted on create")
	}

	// Updates may omit the file to keep the stored image.
	c = listingContext(t, validFields(), nil)
	form, msg := bindListingForm(c, false)
	if msg != "" {
		t.Fatalf("unexpected validation message %q", msg)
	}
	if form.image != nil {
		t.Error("image should stay nil when no file was uploaded")
	}
}

func TestBindListingFormRejects(t *testing.T) {
	cases := []struct {
		name  string
		patch func(map[string]string)
	}{
		{"empty title", func(f map[string]string) { f["title"] = "  " }},
		{"missing campus", func(f map[string]string) { delete(f, "campus") }},
		{"unknown condition", func(f map[string]string) { f["condition"] = "brand new" }},
		{"negative price", func(f map[string]string) { f["price"] = "-5" }},
		{"garbage price", func(f map[string]string) { f["price"] = "ten" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fields := validFields()
			tc.patch(fields)
			c := listingContext(t, fields, []byte{1})
			if _, msg := bindListingForm(c, true); msg == "" {
				t.Error("invalid form accepted")
			}
		})
	}
}
