package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophstore/internal/api"
	"github.com/dmitrijs2005/gophstore/internal/catalog"
	"github.com/dmitrijs2005/gophstore/internal/server/metrics"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/products"
)

const maxProductBody = 1 << 20

func (h *Handler) categories(w http.ResponseWriter, r *http.Request) {
	refs, err := h.records.Categories(r.Context())
	if err != nil {
		h.logger.Error(r.Context(), "list categories", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list categories")
		return
	}
	writeJSON(w, http.StatusOK, refs)
}

func (h *Handler) collections(w http.ResponseWriter, r *http.Request) {
	refs, err := h.records.Collections(r.Context())
	if err != nil {
		h.logger.Error(r.Context(), "list collections", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list collections")
		return
	}
	writeJSON(w, http.StatusOK, refs)
}

// createProduct re-validates the payload; the client checks are advisory.
func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var p catalog.Product
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxProductBody))
	if err := dec.Decode(&p); err != nil {
		h.metrics.Product(metrics.ResultRejected)
		if errors.Is(err, catalog.ErrFlagLimit) {
			writeError(w, http.StatusUnprocessableEntity, "invalid product",
				catalog.FieldError{Field: "flags", Reason: err.Error()})
			return
		}
		writeError(w, http.StatusBadRequest, "malformed product: "+err.Error())
		return
	}

	if err := catalog.Validate(p); err != nil {
		h.metrics.Product(metrics.ResultRejected)
		var verr *catalog.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusUnprocessableEntity, "invalid product", verr.Fields...)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.records.Create(ctx, p)
	if err != nil {
		var ref *products.ReferenceError
		switch {
		case errors.Is(err, products.ErrSlugTaken):
			h.metrics.Product(metrics.ResultRejected)
			writeError(w, http.StatusConflict, err.Error(), catalog.FieldError{Field: "slug", Reason: "is already taken"})
		case errors.As(err, &ref):
			h.metrics.Product(metrics.ResultRejected)
			writeError(w, http.StatusUnprocessableEntity, err.Error(), catalog.FieldError{Field: ref.Field, Reason: "unknown id " + ref.ID})
		default:
			h.logger.Error(ctx, "create product", "error", err)
			h.metrics.Product(metrics.ResultError)
			writeError(w, http.StatusInternalServerError, "could not store product")
		}
		return
	}

	h.metrics.Product(metrics.ResultOK)
	h.logger.Info(ctx, "product created", "id", id, "slug", p.Slug)
	writeJSON(w, http.StatusCreated, api.CreateProductResponse{ID: id})
}
