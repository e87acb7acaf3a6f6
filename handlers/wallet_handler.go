package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Dosada05/raffle-system/middleware"
	"github.com/Dosada05/raffle-system/services"
)

type WalletHandler struct {
	walletService services.WalletService
}

func NewWalletHandler(ws services.WalletService) *WalletHandler {
	return &WalletHandler{
		walletService: ws,
	}
}

// BalanceHandler обрабатывает GET /me/wallet
func (h *WalletHandler) BalanceHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	wallet, err := h.walletService.GetBalance(r.Context(), currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"wallet": wallet}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CreditHandler обрабатывает POST /admin/users/{userID}/wallet/credit.
// Пополнение доступно только администратору (ручная корректировка или
// подтверждённый внешний платёж).
func (h *WalletHandler) CreditHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var body struct {
		Amount    int     `json:"amount"`
		Reference *string `json:"reference"`
	}
	if err := readJSON(w, r, &body); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if body.Amount <= 0 {
		badRequestResponse(w, r, errors.New("amount must be positive"))
		return
	}

	tx, err := h.walletService.Credit(r.Context(), userID, body.Amount, body.Reference)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"transaction": tx}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// TransactionsHandler обрабатывает GET /me/wallet/transactions
func (h *WalletHandler) TransactionsHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
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

	transactions, err := h.walletService.ListTransactions(r.Context(), currentUserID, limit, offset)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"transactions": transactions}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
