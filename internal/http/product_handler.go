package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	"github.com/desantiago/gallery-shop/internal/apperr"
	"github.com/desantiago/gallery-shop/internal/model"
	"github.com/desantiago/gallery-shop/internal/service"
)

type createProductRequest struct {
	Name      string   `json:"name"`
	Technique *string  `json:"technique"`
	Img       *string  `json:"img"`
	Price     *float64 `json:"price"`
	Measures  *string  `json:"measures"`
	Weight    *float64 `json:"weight"`
}

type productResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Technique *string   `json:"technique,omitempty"`
	Img       *string   `json:"img,omitempty"`
	Price     float64   `json:"price"`
	Sold      bool      `json:"sold"`
	Measures  *string   `json:"measures,omitempty"`
	Weight    *float64  `json:"weight,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newProductResponse(p model.Product) productResponse {
	return productResponse{
		ID:        p.ID,
		Name:      p.Name,
		Technique: p.Technique,
		Img:       p.Img,
		Price:     p.Price,
		Sold:      p.Sold,
		Measures:  p.Measures,
		Weight:    p.Weight,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type productHandler struct {
	productSvc service.ProductService
}

func newProductHandler(productSvc service.ProductService) *productHandler {
	return &productHandler{
		productSvc: productSvc,
	}
}

func (h *productHandler) ListProducts(w http.ResponseWriter, r *http.Request) error {
	products, err := h.productSvc.ListAllProducts(r.Context())
	if err != nil {
		return fmt.Errorf("product service list all products: %w", err)
	}

	items := make([]productResponse, 0, len(products))
	for _, product := range products {
		items = append(items, newProductResponse(product))
	}

	return writeJSON(w, http.StatusOK, items)
}

func (h *productHandler) CreateProduct(w http.ResponseWriter, r *http.Request) error {
	var body createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return apperr.ValidationErr.WithMsg("request body must be a JSON object").WrapParent(err)
	}

	product, err := h.productSvc.CreateProduct(r.Context(), service.CreateProductParams{
		Name:      body.Name,
		Technique: body.Technique,
		Img:       body.Img,
		Price:     body.Price,
		Measures:  body.Measures,
		Weight:    body.Weight,
	})
	if err != nil {
		return fmt.Errorf("product service create product: %w", err)
	}

	return writeJSON(w, http.StatusCreated, newProductResponse(product))
}

func (h *productHandler) GetProduct(w http.ResponseWriter, r *http.Request) error {
	id, err := productIDParam(r)
	if err != nil {
		return err
	}

	product, err := h.productSvc.GetProduct(r.Context(), id)
	if err != nil {
		return fmt.Errorf("product service get product: %w", err)
	}

	return writeJSON(w, http.StatusOK, newProductResponse(product))
}

func (h *productHandler) SellProduct(w http.ResponseWriter, r *http.Request) error {
	id, err := productIDParam(r)
	if err != nil {
		return err
	}

	product, err := h.productSvc.MarkProductSold(r.Context(), id)
	if err != nil {
		return fmt.Errorf("product service mark product sold: %w", err)
	}

	return writeJSON(w, http.StatusOK, newProductResponse(product))
}

func productIDParam(r *http.Request) (uuid.UUID, error) {
	var id uuid.UUID
	if err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	}); err != nil {
		return uuid.Nil, apperr.InvalidProductIDErr.WrapParent(err)
	}
	return id, nil
}
