package swipes

import (
	"encoding/json"
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

func (h *Handler) RecordSwipe(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	var dto RecordSwipeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	resp, err := h.service.Record(r.Context(), userID, &dto)
	if err != nil {
		if err == ErrSelfSwipe {
			utils.RespondWithError(w, http.StatusBadRequest, "Cannot swipe on yourself")
			return
		}
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, resp)
}

func (h *Handler) SwipeHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	list, err := h.service.History(r.Context(), userID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load swipe history")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, list)
}

func (h *Handler) Likers(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	resp, err := h.service.Likers(r.Context(), userID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load likers")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *Handler) UndoRejection(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	targetID, err := strconv.ParseInt(mux.Vars(r)["targetId"], 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid target ID")
		return
	}

	switch err := h.service.UndoRejection(r.Context(), userID, targetID); err {
	case nil:
		utils.MessageResponse(w, "Rejection undone", http.StatusOK)
	case ErrUndoRequiresUpsell:
		utils.RespondWithError(w, http.StatusForbidden, "Rejection undo requires a paid tier")
	case ErrNoActiveRejection:
		utils.RespondWithError(w, http.StatusNotFound, "No active rejection for this user")
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to undo rejection")
	}
}
