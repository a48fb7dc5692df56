package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/b2b-orders/internal/domain/order"
	"github.com/xenking/b2b-orders/internal/domain/partner"
)

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeErrorMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Code: status, Message: message})
}

// writeError maps domain errors to HTTP status codes: 404 for missing
// entities, 400 for validation and business-rule rejections, 409 for
// concurrent modification, 500 for everything unexpected.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		dup        *partner.DuplicateError
		transition *order.InvalidTransitionError
		quantity   *order.InvalidQuantityError
		unitPrice  *order.InvalidUnitPriceError
	)
	switch {
	case errors.Is(err, order.ErrNotFound), errors.Is(err, partner.ErrNotFound):
		writeErrorMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, partner.ErrInsufficientCredit),
		errors.Is(err, partner.ErrNegativeAmount),
		errors.Is(err, partner.ErrInvalidCreditLimit),
		errors.Is(err, partner.ErrEmptyID),
		errors.Is(err, partner.ErrEmptyName),
		errors.As(err, &dup),
		errors.As(err, &transition),
		errors.As(err, &quantity),
		errors.As(err, &unitPrice):
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrConcurrentModification):
		writeErrorMessage(w, http.StatusConflict, err.Error())
	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		writeErrorMessage(w, http.StatusInternalServerError, "internal server error")
	}
}
