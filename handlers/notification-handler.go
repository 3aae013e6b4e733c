package handlers

import (
	"net/http"

	"github.com/DinieMobo/TaskHero/middleware"
	"github.com/DinieMobo/TaskHero/models"
	"github.com/DinieMobo/TaskHero/services"
	"github.com/DinieMobo/TaskHero/utils"
)

type NotificationHandler struct {
	service *services.NotificationService
}

func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

func (h *NotificationHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromContext(r.Context())
	notices, err := h.service.ListForUser(r.Context(), p.UserID)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, notices)
}

// MarkRead takes isReadType and id from the body, or from the query string
// when the body leaves them out.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IsReadType string `json:"isReadType"`
		ID         string `json:"id"`
	}
	if err := decodeBody(r, &body); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	mode := models.ReadMode(formOrBody(r, body.IsReadType, "isReadType"))
	id := formOrBody(r, body.ID, "id")

	p := middleware.PrincipalFromContext(r.Context())
	if err := h.service.MarkRead(r.Context(), p.UserID, mode, id); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteOK(w, utils.Envelope{"message": "Notification(s) marked as read"})
}
