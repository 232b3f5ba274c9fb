// internal/handlers/events.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/merchstudio/photostudio-backend/internal/services"
	"github.com/merchstudio/photostudio-backend/internal/utils"
)

type EventHandler struct {
	eventService *services.EventService
}

func NewEventHandler(eventService *services.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

// GET /studio/events
func (h *EventHandler) ListEvents(c *gin.Context) {
	instanceID, exists := utils.GetInstanceIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	result, err := h.eventService.ListEvents(instanceID, params)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to retrieve events")
		return
	}

	utils.PaginatedResponse(c, *result)
}
