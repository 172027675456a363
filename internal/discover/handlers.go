package discover

import (
	"net/http"

	"github.com/emberly-app/emberly-backend/internal/common/utils"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) GetDiscover(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	deck, err := h.service.GetDiscover(r.Context(), userID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to build discovery feed")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, deck)
}
