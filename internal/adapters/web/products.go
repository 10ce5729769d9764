package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"candyshop/internal/app"
	"candyshop/internal/store"
)

const maxImageSize = 10 << 20 // 10 MB

// allowedImageTypes is the whitelist for uploaded product images.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// listProducts handles GET /api/products.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.ListProducts())
}

// createProduct handles POST /api/products.
func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req app.ProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.AddProduct(req)
	if err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	writeJSONStatus(w, http.StatusCreated, p)
}

// updateProduct handles PUT /api/products/{id}.
func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req app.ProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.UpdateProduct(productID(r), req)
	if err != nil {
		if errors.Is(err, app.ErrProductNotFound) {
			writeError(w, r, "product not found", "NOT_FOUND", http.StatusNotFound)
			return
		}
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	writeJSON(w, p)
}

// deleteProduct handles DELETE /api/products/{id}.
func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteProduct(productID(r)); err != nil {
		if errors.Is(err, app.ErrProductNotFound) {
			writeError(w, r, "product not found", "NOT_FOUND", http.StatusNotFound)
			return
		}
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// stockAlert handles GET /api/stock/alert.
func (h *Handler) stockAlert(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.StockAlert())
}

// applyStockLevels handles PUT /api/stock/levels — bulk stock update.
func (h *Handler) applyStockLevels(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Levels []app.StockLevel `json:"levels"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.ApplyStockLevels(req.Levels); err != nil {
		if errors.Is(err, app.ErrProductNotFound) {
			writeError(w, r, "no known products in stock update", "NOT_FOUND", http.StatusNotFound)
			return
		}
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	writeJSON(w, h.svc.StockAlert())
}

// uploadProductImage handles POST /api/products/{id}/image — multipart upload
// of a single product image.
func (h *Handler) uploadProductImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize)
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		writeError(w, r, "request too large or malformed", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		writeError(w, r, "no file provided", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	fh := files[0]

	f, err := fh.Open()
	if err != nil {
		writeError(w, r, "failed to open uploaded file", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	// Read header bytes for MIME detection.
	header := make([]byte, 512)
	n, _ := f.Read(header)
	mimeType := strings.ToLower(strings.TrimSpace(http.DetectContentType(header[:n])))
	if !allowedImageTypes[mimeType] {
		writeError(w, r, fmt.Sprintf("file type %q not allowed; accepted: jpeg, png, webp", mimeType),
			"UNSUPPORTED_TYPE", http.StatusUnsupportedMediaType)
		return
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		writeError(w, r, "failed to read uploaded file", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	data, err := io.ReadAll(f)
	if err != nil {
		writeError(w, r, "failed to read uploaded file", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}

	url, err := h.svc.UploadProductImage(r.Context(), productID(r), fh.Filename, mimeType, data)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrProductNotFound):
			writeError(w, r, "product not found", "NOT_FOUND", http.StatusNotFound)
		case errors.Is(err, store.ErrUploadUnavailable):
			writeError(w, r, "image upload is not available on this backend", "UPLOAD_UNAVAILABLE", http.StatusConflict)
		case errors.Is(err, store.ErrPermissionDenied):
			writeError(w, r, "image storage rejected the upload: permission denied", "FORBIDDEN", http.StatusForbidden)
		default:
			writeError(w, r, "image upload failed", "INTERNAL_ERROR", http.StatusInternalServerError)
		}
		return
	}

	type response struct {
		ImageURL string `json:"image_url"`
	}
	writeJSON(w, response{ImageURL: url})
}
