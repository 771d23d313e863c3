package httphandler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/niksmo/storefront/internal/core/port"
)

// GET  /api/categories (200 OK)
// POST /api/categories JSON {"name", "description"} (201 Created, 400 Bad request)
// GET  /api/products (200 OK)
// POST /api/products JSON {"category_id", "name", "description", "price", "stock"} (201 Created, 400 Bad request)
// GET, PUT, DELETE /api/products/{id} (200 OK, 400 Bad request, 404 Not found)

type AdminHandler struct {
	admin port.CatalogAdmin
}

func RegisterAdmin(r chi.Router, admin port.CatalogAdmin) {
	h := AdminHandler{admin}
	r.Route("/api", func(r chi.Router) {
		r.Get("/categories", h.ListCategories)
		r.Post("/categories", h.CreateCategory)
		r.Get("/products", h.ListProducts)
		r.Post("/products", h.CreateProduct)
		r.Get("/products/{id}", h.GetProduct)
		r.Put("/products/{id}", h.UpdateProduct)
		r.Delete("/products/{id}", h.DeleteProduct)
	})
}

func (h AdminHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	const op = "AdminHandler.ListCategories"
	log := slog.With("op", op)

	cs, err := h.admin.ListCategories(r.Context())
	if err != nil {
		writeDomainError(w, log, err, "failed to list categories")
		return
	}

	res := make([]Category, 0, len(cs))
	for _, c := range cs {
		res = append(res, fromDomainCategory(c))
	}
	writeJSON(w, http.StatusOK, res)
}

func (h AdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	const op = "AdminHandler.CreateCategory"
	log := slog.With("op", op)

	var req Category
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("failed to parse JSON", "err", err)
		writeError(w, http.StatusBadRequest, "invalid JSON data")
		return
	}

	c, err := h.admin.CreateCategory(r.Context(), req.toDomain())
	if err != nil {
		writeDomainError(w, log, err, "failed to create category")
		return
	}

	log.Info("category created", "id", c.ID)
	writeJSON(w, http.StatusCreated, fromDomainCategory(c))
}

func (h AdminHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	const op = "AdminHandler.ListProducts"
	log := slog.With("op", op)

	ps, err := h.admin.ListProducts(r.Context())
	if err != nil {
		writeDomainError(w, log, err, "failed to list products")
		return
	}

	res := make([]Product, 0, len(ps))
	for _, p := range ps {
		res = append(res, fromDomainProduct(p))
	}
	writeJSON(w, http.StatusOK, res)
}

func (h AdminHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	const op = "AdminHandler.GetProduct"
	log := slog.With("op", op)

	id, ok := productID(w, r)
	if !ok {
		return
	}

	p, err := h.admin.GetProduct(r.Context(), id)
	if err != nil {
		writeDomainError(w, log, err, "failed to get product")
		return
	}
	writeJSON(w, http.StatusOK, fromDomainProduct(p))
}

func (h AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	const op = "AdminHandler.CreateProduct"
	log := slog.With("op", op)

	var req ProductRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("failed to parse JSON", "err", err)
		writeError(w, http.StatusBadRequest, "invalid JSON data")
		return
	}

	p, err := h.admin.CreateProduct(r.Context(), req.toDomain(0))
	if err != nil {
		writeDomainError(w, log, err, "failed to create product")
		return
	}

	log.Info("product created", "id", p.ID)
	writeJSON(w, http.StatusCreated, fromDomainProduct(p))
}

func (h AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	const op = "AdminHandler.UpdateProduct"
	log := slog.With("op", op)

	id, ok := productID(w, r)
	if !ok {
		return
	}

	var req ProductRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("failed to parse JSON", "err", err)
		writeError(w, http.StatusBadRequest, "invalid JSON data")
		return
	}

	p, err := h.admin.UpdateProduct(r.Context(), req.toDomain(id))
	if err != nil {
		writeDomainError(w, log, err, "failed to update product")
		return
	}

	log.Info("product updated", "id", p.ID)
	writeJSON(w, http.StatusOK, fromDomainProduct(p))
}

func (h AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	const op = "AdminHandler.DeleteProduct"
	log := slog.With("op", op)

	id, ok := productID(w, r)
	if !ok {
		return
	}

	if err := h.admin.DeleteProduct(r.Context(), id); err != nil {
		writeDomainError(w, log, err, "failed to delete product")
		return
	}

	log.Info("product deleted", "id", id)
	writeJSON(w, http.StatusOK, DeleteResponse{
		Success: true,
		Message: "product deleted",
	})
}

func productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "id must be a positive integer")
		return 0, false
	}
	return id, true
}
