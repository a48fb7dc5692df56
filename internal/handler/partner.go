package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/xenking/b2b-orders/internal/domain/partner"
)

type createPartnerRequest struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	CreditLimit decimal.Decimal `json:"creditLimit"`
}

type partnerResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	CreditLimit     float64   `json:"creditLimit"`
	AvailableCredit float64   `json:"availableCredit"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func toPartnerResponse(p *partner.Partner) partnerResponse {
	return partnerResponse{
		ID:              p.ID,
		Name:            p.Name,
		CreditLimit:     p.CreditLimit.InexactFloat64(),
		AvailableCredit: p.AvailableCredit.InexactFloat64(),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func (h *Handler) createPartner(w http.ResponseWriter, r *http.Request) {
	var req createPartnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.partners.Create(r.Context(), partner.CreateParams{
		ID:          req.ID,
		Name:        req.Name,
		CreditLimit: req.CreditLimit,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPartnerResponse(p))
}

func (h *Handler) getPartner(w http.ResponseWriter, r *http.Request) {
	p, err := h.partners.Get(r.Context(), chi.URLParam(r, "partnerID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPartnerResponse(p))
}

func (h *Handler) listPartners(w http.ResponseWriter, r *http.Request) {
	var (
		f   partner.Filter
		err error
	)
	if f.From, err = parseTimeParam(r, "startDate"); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if f.To, err = parseTimeParam(r, "endDate"); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	page, err := parsePage(r)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	sort, err := parseSort(r)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	partners, err := h.partners.List(r.Context(), f, page, sort)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]partnerResponse, len(partners))
	for i := range partners {
		resp[i] = toPartnerResponse(&partners[i])
	}
	writeJSON(w, http.StatusOK, resp)
}
