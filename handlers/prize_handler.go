package handlers

import (
	"net/http"

	"github.com/Dosada05/raffle-system/services"
)

type PrizeHandler struct {
	prizeService services.PrizeService
}

func NewPrizeHandler(ps services.PrizeService) *PrizeHandler {
	return &PrizeHandler{
		prizeService: ps,
	}
}

// CreateHandler обрабатывает POST /competitions/{competitionID}/prizes
func (h *PrizeHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CreatePrizeInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.CompetitionID = competitionID

	prize, err := h.prizeService.CreatePrize(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"prize": prize}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler обрабатывает GET /prizes/{prizeID}
func (h *PrizeHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "prizeID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	prize, err := h.prizeService.GetPrizeByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"prize": prize}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListByCompetitionHandler обрабатывает GET /competitions/{competitionID}/prizes
func (h *PrizeHandler) ListByCompetitionHandler(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	prizes, err := h.prizeService.ListByCompetition(r.Context(), competitionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"prizes": prizes}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateHandler обрабатывает PUT /prizes/{prizeID}
func (h *PrizeHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "prizeID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdatePrizeInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	prize, err := h.prizeService.UpdatePrize(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"prize": prize}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteHandler обрабатывает DELETE /prizes/{prizeID}
func (h *PrizeHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "prizeID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.prizeService.DeletePrize(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
