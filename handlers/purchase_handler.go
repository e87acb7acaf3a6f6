package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Dosada05/raffle-system/middleware"
	"github.com/Dosada05/raffle-system/models"
	"github.com/Dosada05/raffle-system/services"
)

type PurchaseHandler struct {
	purchaseService services.PurchaseService
}

func NewPurchaseHandler(ps services.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{
		purchaseService: ps,
	}
}

// PurchaseHandler обрабатывает POST /competitions/{competitionID}/purchase
func (h *PurchaseHandler) PurchaseHandler(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to purchase tickets")
		return
	}

	var body struct {
		TicketCount      int     `json:"ticket_count"`
		WalletAmount     int     `json:"wallet_amount"`
		PaymentReference *string `json:"payment_reference"`
	}
	if err := readJSON(w, r, &body); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if body.TicketCount <= 0 {
		badRequestResponse(w, r, errors.New("ticket_count must be positive"))
		return
	}
	if body.WalletAmount < 0 {
		badRequestResponse(w, r, errors.New("wallet_amount cannot be negative"))
		return
	}

	result, err := h.purchaseService.Purchase(r.Context(), services.PurchaseInput{
		CompetitionID:    competitionID,
		UserID:           currentUserID,
		TicketCount:      body.TicketCount,
		WalletAmount:     body.WalletAmount,
		PaymentReference: body.PaymentReference,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"purchase": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// MyEntriesHandler обрабатывает GET /me/entries
func (h *PurchaseHandler) MyEntriesHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to list entries")
		return
	}

	limit := 20
	offset := 0
	query := r.URL.Query()
	if limitStr := query.Get("limit"); limitStr != "" {
		if v, err := strconv.Atoi(limitStr); err == nil && v > 0 {
			limit = v
		} else {
			badRequestResponse(w, r, errors.New("invalid limit query parameter"))
			return
		}
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if v, err := strconv.Atoi(offsetStr); err == nil && v >= 0 {
			offset = v
		} else {
			badRequestResponse(w, r, errors.New("invalid offset query parameter"))
			return
		}
	}

	entries, err := h.purchaseService.ListUserEntries(r.Context(), currentUserID, limit, offset)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"entries": entries}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetEntryHandler обрабатывает GET /entries/{entryID}.
// Пользователь видит только свои записи, админ — любые.
func (h *PurchaseHandler) GetEntryHandler(w http.ResponseWriter, r *http.Request) {
	entryID, err := getIDFromURL(r, "entryID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	entry, err := h.purchaseService.GetEntry(r.Context(), entryID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if entry.UserID != currentUserID {
		role, err := middleware.GetUserRoleFromContext(r.Context())
		if err != nil || role != models.RoleAdmin {
			forbiddenResponse(w, r, "you can only view your own entries")
			return
		}
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"entry": entry}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
