// internal/handlers/subscription.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/merchstudio/photostudio-backend/internal/services"
	"github.com/merchstudio/photostudio-backend/internal/utils"
)

type SubscriptionHandler struct {
	entitlementService *services.EntitlementService
}

func NewSubscriptionHandler(entitlementService *services.EntitlementService) *SubscriptionHandler {
	return &SubscriptionHandler{entitlementService: entitlementService}
}

// GET /studio/subscription
func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	instanceID, exists := utils.GetInstanceIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	entitlement, err := h.entitlementService.Lookup(c.Request.Context(), instanceID)
	if err != nil {
		// Billing being down should not block the editor, so fall back to
		// the free tier instead of failing the request.
		logrus.WithError(err).WithField("instance_id", instanceID).Warn("Entitlement lookup failed")
		utils.SuccessResponse(c, gin.H{
			"entitlement": h.entitlementService.FreeEntitlement(),
			"degraded":    true,
		})
		return
	}

	utils.SuccessResponse(c, gin.H{"entitlement": entitlement})
}
