package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Dosada05/raffle-system/middleware"
	"github.com/Dosada05/raffle-system/services"
)

type WinningTicketHandler struct {
	winningTicketService services.WinningTicketService
}

func NewWinningTicketHandler(ws services.WinningTicketService) *WinningTicketHandler {
	return &WinningTicketHandler{
		winningTicketService: ws,
	}
}

// ComputeHandler обрабатывает POST /competitions/{competitionID}/winning-tickets/compute
func (h *WinningTicketHandler) ComputeHandler(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	summary, err := h.winningTicketService.Compute(r.Context(), competitionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"summary": summary}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ClearHandler обрабатывает DELETE /competitions/{competitionID}/winning-tickets.
// Необязательный query-параметр prize_id ограничивает очистку одним призом.
func (h *WinningTicketHandler) ClearHandler(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var prizeID *int
	if prizeIDStr := r.URL.Query().Get("prize_id"); prizeIDStr != "" {
		id, err := strconv.Atoi(prizeIDStr)
		if err != nil || id <= 0 {
			badRequestResponse(w, r, errors.New("invalid prize_id query parameter"))
			return
		}
		prizeID = &id
	}

	deleted, err := h.winningTicketService.Clear(r.Context(), competitionID, prizeID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"deleted": deleted}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// StatsHandler обрабатывает GET /competitions/{competitionID}/winning-tickets/stats
func (h *WinningTicketHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	stats, err := h.winningTicketService.GetCompetitionStats(r.Context(), competitionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"stats": stats}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// LookupHandler обрабатывает GET /competitions/{competitionID}/winning-tickets/{ticketNumber}
func (h *WinningTicketHandler) LookupHandler(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	ticketNumber, err := getIDFromURL(r, "ticketNumber")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	ticket, err := h.winningTicketService.LookupByNumber(r.Context(), competitionID, ticketNumber)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"winning_ticket": ticket}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// MyWinsHandler обрабатывает GET /me/wins
func (h *WinningTicketHandler) MyWinsHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to list wins")
		return
	}

	wins, err := h.winningTicketService.ListUserWins(r.Context(), currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"wins": wins}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// PrizesByProductHandler обрабатывает GET /competitions/{competitionID}/prizes/by-product
func (h *WinningTicketHandler) PrizesByProductHandler(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	groups, err := h.winningTicketService.ListPrizesByProduct(r.Context(), competitionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"products": groups}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
