// internal/handlers/studio.go
package handlers

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/merchstudio/photostudio-backend/internal/httpclient"
	"github.com/merchstudio/photostudio-backend/internal/services"
	"github.com/merchstudio/photostudio-backend/internal/studio"
	"github.com/merchstudio/photostudio-backend/internal/utils"
)

type StudioHandler struct {
	manager        *studio.Manager
	stagingService *services.StagingService
}

func NewStudioHandler(manager *studio.Manager, stagingService *services.StagingService) *StudioHandler {
	return &StudioHandler{
		manager:        manager,
		stagingService: stagingService,
	}
}

type OpenSessionRequest struct {
	ProductID string `json:"product_id,omitempty" validate:"omitempty,imageid"`
}

type FetchImagesRequest struct {
	Scope     string `json:"scope,omitempty" validate:"omitempty,oneof=product all"`
	ProductID string `json:"product_id,omitempty" validate:"omitempty,imageid"`
}

type SelectImageRequest struct {
	FileKey        *string `json:"file_key,omitempty" validate:"omitempty,max=512"`
	OriginalWidth  *int    `json:"original_width,omitempty" validate:"omitempty,min=1"`
	OriginalHeight *int    `json:"original_height,omitempty" validate:"omitempty,min=1"`
}

type PublishImageRequest struct {
	ProductID      string `json:"product_id,omitempty" validate:"omitempty,imageid"`
	ReplaceMediaID string `json:"replace_media_id,omitempty" validate:"omitempty,imageid"`
}

type UpdateImageMetaRequest struct {
	Comments *string `json:"comments,omitempty" validate:"omitempty,max=2000"`
	Feedback *string `json:"feedback,omitempty" validate:"omitempty,max=2000"`
}

// POST /studio/sessions
func (h *StudioHandler) OpenSession(c *gin.Context) {
	instanceID, exists := utils.GetInstanceIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req OpenSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request body", err.Error())
			return
		}
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	sess := h.manager.Open(h.requestContext(c), instanceID, req.ProductID)
	utils.CreatedResponse(c, sess.Snapshot())
}

// GET /studio/sessions/:sessionId
func (h *StudioHandler) GetSession(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	utils.SuccessResponse(c, sess.Snapshot())
}

// DELETE /studio/sessions/:sessionId
func (h *StudioHandler) CloseSession(c *gin.Context) {
	instanceID, exists := utils.GetInstanceIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	sessionID, err := uuid.Parse(c.Param("sessionId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid session ID", nil)
		return
	}

	if err := h.manager.Close(h.requestContext(c), instanceID, sessionID); err != nil {
		utils.NotFoundResponse(c, "session")
		return
	}

	utils.SuccessResponse(c, gin.H{"closed": true})
}

// POST /studio/sessions/:sessionId/images/fetch
func (h *StudioHandler) FetchImages(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	req := FetchImagesRequest{Scope: string(studio.FetchScopeProduct)}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request body", err.Error())
			return
		}
	}
	if req.Scope == "" {
		req.Scope = string(studio.FetchScopeProduct)
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	if err := sess.FetchImages(h.requestContext(c), studio.FetchScope(req.Scope), req.ProductID); err != nil {
		h.respondStudioError(c, err)
		return
	}

	utils.SuccessResponse(c, sess.Snapshot())
}

// POST /studio/sessions/:sessionId/images/:imageId/select
func (h *StudioHandler) SelectImage(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	imageID, ok := h.imageID(c)
	if !ok {
		return
	}

	var req SelectImageRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request body", err.Error())
			return
		}
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	layer, err := sess.SelectForEditing(h.requestContext(c), imageID, &studio.LayerPatch{
		FileKey:        req.FileKey,
		OriginalWidth:  req.OriginalWidth,
		OriginalHeight: req.OriginalHeight,
	})
	if err != nil {
		h.respondSelectError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"layer":    layer,
		"can_undo": sess.CanUndo(),
		"can_redo": sess.CanRedo(),
	})
}

// POST /studio/sessions/:sessionId/images/:imageId/reference
func (h *StudioHandler) MarkReference(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	imageID, ok := h.imageID(c)
	if !ok {
		return
	}

	if err := sess.MarkForCopyEdit(imageID); err != nil {
		h.respondStudioError(c, err)
		return
	}

	snap := sess.Snapshot()
	utils.SuccessResponse(c, gin.H{"reference_image": snap.Reference})
}

// POST /studio/sessions/:sessionId/images/:imageId/publish
func (h *StudioHandler) PublishImage(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	imageID, ok := h.imageID(c)
	if !ok {
		return
	}

	var req PublishImageRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request body", err.Error())
			return
		}
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	result, err := sess.Publish(h.requestContext(c), studio.PublishRequest{
		ImageID:        imageID,
		ProductID:      req.ProductID,
		ReplaceMediaID: req.ReplaceMediaID,
	})
	if err != nil {
		h.respondStudioError(c, err)
		return
	}

	// The catalog write continues in the background; the placeholder is
	// what the gallery shows until it settles.
	utils.AcceptedResponse(c, gin.H{"image": result.Placeholder})
}

// DELETE /studio/sessions/:sessionId/images/:imageId
func (h *StudioHandler) DeleteImage(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	imageID, ok := h.imageID(c)
	if !ok {
		return
	}

	if err := sess.Delete(h.requestContext(c), imageID); err != nil {
		h.respondStudioError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"deleted": true})
}

// PATCH /studio/sessions/:sessionId/images/:imageId
func (h *StudioHandler) UpdateImage(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	imageID, ok := h.imageID(c)
	if !ok {
		return
	}

	var req UpdateImageMetaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	img, err := sess.UpdateImageMeta(h.requestContext(c), imageID, studio.MetaUpdate{
		Comments: req.Comments,
		Feedback: req.Feedback,
	})
	if err != nil {
		h.respondStudioError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"image": img})
}

// GET /studio/sessions/:sessionId/images/:imageId/versions
func (h *StudioHandler) GetImageVersions(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	imageID, ok := h.imageID(c)
	if !ok {
		return
	}

	versions, err := sess.ImageVersions(h.requestContext(c), imageID)
	if err != nil {
		h.respondStudioError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"versions": versions})
}

// POST /studio/sessions/:sessionId/uploads
func (h *StudioHandler) UploadImage(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		utils.BadRequestResponse(c, "No image uploaded", err.Error())
		return
	}
	defer file.Close()

	// Validate image
	if err := h.stagingService.ValidateImage(file); err != nil {
		utils.BadRequestResponse(c, "Invalid image file", nil)
		return
	}

	options := h.stagingService.DefaultUploadOptions()
	result, err := h.stagingService.UploadFile(file, header, options)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	// An expected checksum lets the dashboard verify the upload survived
	// the round trip intact.
	if expected := c.PostForm("checksum"); expected != "" && expected != result.Checksum {
		utils.BadRequestResponse(c, "Checksum mismatch", gin.H{
			"expected": expected,
			"actual":   result.Checksum,
		})
		return
	}

	img, err := sess.AddStagedUpload(studio.StagedUpload{
		Key:      result.Key,
		URL:      result.URL,
		Size:     result.Size,
		MimeType: result.MimeType,
		Checksum: result.Checksum,
	})
	if err != nil {
		h.respondStudioError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"image":  img,
		"upload": result,
	})
}

// POST /studio/sessions/:sessionId/history/undo
func (h *StudioHandler) Undo(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	layer, _ := sess.Undo()
	utils.SuccessResponse(c, gin.H{
		"layer":    layer,
		"can_undo": sess.CanUndo(),
		"can_redo": sess.CanRedo(),
	})
}

// POST /studio/sessions/:sessionId/history/redo
func (h *StudioHandler) Redo(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	layer, _ := sess.Redo()
	utils.SuccessResponse(c, gin.H{
		"layer":    layer,
		"can_undo": sess.CanUndo(),
		"can_redo": sess.CanRedo(),
	})
}

// PATCH /studio/sessions/:sessionId/settings
func (h *StudioHandler) UpdateSettings(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var patch studio.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"settings": sess.UpdateSettings(patch)})
}

// GET /studio/sessions/:sessionId/notifications
func (h *StudioHandler) GetNotifications(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	notifications := sess.DrainNotifications()
	if notifications == nil {
		notifications = []studio.Notification{}
	}
	utils.SuccessResponse(c, gin.H{"notifications": notifications})
}

func (h *StudioHandler) session(c *gin.Context) (*studio.Session, bool) {
	instanceID, exists := utils.GetInstanceIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return nil, false
	}

	sessionID, err := uuid.Parse(c.Param("sessionId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid session ID", nil)
		return nil, false
	}

	sess, err := h.manager.Get(instanceID, sessionID)
	if err != nil {
		utils.NotFoundResponse(c, "session")
		return nil, false
	}

	return sess, true
}

func (h *StudioHandler) imageID(c *gin.Context) (string, bool) {
	imageID := c.Param("imageId")
	if !utils.IsValidImageID(imageID) {
		utils.BadRequestResponse(c, "Invalid image ID", nil)
		return "", false
	}
	return imageID, true
}

// requestContext carries the caller's instance token so upstream calls can
// authenticate as the same instance.
func (h *StudioHandler) requestContext(c *gin.Context) context.Context {
	ctx := c.Request.Context()
	if token, exists := utils.GetInstanceTokenFromContext(c); exists {
		ctx = httpclient.WithInstanceToken(ctx, token)
	}
	return ctx
}

func (h *StudioHandler) respondStudioError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, studio.ErrSessionNotFound), errors.Is(err, studio.ErrSessionClosed):
		utils.NotFoundResponse(c, "session")
	case errors.Is(err, studio.ErrImageNotFound):
		utils.NotFoundResponse(c, "image")
	case errors.Is(err, studio.ErrImagePublishing),
		errors.Is(err, studio.ErrSelectSuperseded),
		errors.Is(err, studio.ErrIllegalTransition):
		utils.ConflictResponse(c, err.Error())
	case errors.Is(err, studio.ErrProductRequired),
		errors.Is(err, studio.ErrImageURLRequired),
		errors.Is(err, studio.ErrLiveImageLimit):
		utils.BadRequestResponse(c, err.Error(), nil)
	default:
		utils.UpstreamErrorResponse(c, "UPSTREAM_ERROR", err.Error())
	}
}

// respondSelectError is respondStudioError plus the probe failure case,
// which only the select path can hit.
func (h *StudioHandler) respondSelectError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, studio.ErrSessionClosed):
		utils.NotFoundResponse(c, "session")
	case errors.Is(err, studio.ErrImageNotFound):
		utils.NotFoundResponse(c, "image")
	case errors.Is(err, studio.ErrImagePublishing), errors.Is(err, studio.ErrSelectSuperseded):
		utils.ConflictResponse(c, err.Error())
	default:
		utils.UpstreamErrorResponse(c, "PROBE_FAILED", err.Error())
	}
}
