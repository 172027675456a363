package matches

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/emberly-app/emberly-backend/internal/common/utils"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	list, err := h.service.List(r.Context(), userID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load matches")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, list)
}

func (h *Handler) Unmatch(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	matchID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid match ID")
		return
	}

	switch err := h.service.Unmatch(r.Context(), userID, matchID); err {
	case nil:
		utils.MessageResponse(w, "Unmatched", http.StatusOK)
	case ErrMatchNotFound:
		utils.RespondWithError(w, http.StatusNotFound, "Match not found")
	case ErrNotYourMatch:
		utils.RespondWithError(w, http.StatusForbidden, "Match does not involve this user")
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to unmatch")
	}
}

func (h *Handler) PendingCelebrations(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	list, err := h.service.PendingCelebrations(r.Context(), userID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load celebrations")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, list)
}

func (h *Handler) MarkCelebrationSeen(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	matchID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid match ID")
		return
	}

	switch err := h.service.MarkCelebrationSeen(r.Context(), userID, matchID); err {
	case nil:
		utils.MessageResponse(w, "Celebration acknowledged", http.StatusOK)
	case ErrMatchNotFound:
		utils.RespondWithError(w, http.StatusNotFound, "Match not found")
	case ErrNotYourMatch:
		utils.RespondWithError(w, http.StatusForbidden, "Match does not involve this user")
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to acknowledge celebration")
	}
}
