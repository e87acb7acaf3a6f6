package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Dosada05/raffle-system/services"
)

type ProductHandler struct {
	productService services.ProductService
}

func NewProductHandler(ps services.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: ps,
	}
}

// CreateHandler обрабатывает POST /products
func (h *ProductHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var input services.CreateProductInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	product, err := h.productService.CreateProduct(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"product": product}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler обрабатывает GET /products/{productID}
func (h *ProductHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "productID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	product, err := h.productService.GetProductByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"product": product}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler обрабатывает GET /products
func (h *ProductHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	products, err := h.productService.GetAllProducts(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"products": products}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateHandler обрабатывает PUT /products/{productID}
func (h *ProductHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "productID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdateProductInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	product, err := h.productService.UpdateProduct(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"product": product}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteHandler обрабатывает DELETE /products/{productID}
func (h *ProductHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "productID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.productService.DeleteProduct(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadImageHandler обрабатывает POST /products/{productID}/image
func (h *ProductHandler) UploadImageHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "productID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	err = r.ParseMultipartForm(32 << 20)
	if err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to parse multipart form: %w", err))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to get image file from form: %w", err))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		badRequestResponse(w, r, errors.New("content-type header is required for image"))
		return
	}

	product, err := h.productService.UploadImage(r.Context(), id, contentType, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"product": product}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
