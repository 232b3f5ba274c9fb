// internal/studio/operations.go
package studio

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/merchstudio/photostudio-backend/internal/imageservice"
	"github.com/merchstudio/photostudio-backend/internal/models"
	"github.com/merchstudio/photostudio-backend/internal/productmedia"
)

const livePlaceholderPrefix = "live_"

// LayerPatch carries caller-supplied layer fields merged into a freshly
// built canvas layer, typically the staging key and original dimensions of
// an exported edit.
type LayerPatch struct {
	FileKey        *string `json:"file_key,omitempty"`
	OriginalWidth  *int    `json:"original_width,omitempty"`
	OriginalHeight *int    `json:"original_height,omitempty"`
}

func (p *LayerPatch) apply(layer *models.Layer) {
	if p == nil {
		return
	}
	if p.FileKey != nil {
		layer.FileKey = p.FileKey
	}
	if p.OriginalWidth != nil {
		layer.OriginalWidth = *p.OriginalWidth
	}
	if p.OriginalHeight != nil {
		layer.OriginalHeight = *p.OriginalHeight
	}
}

// SelectForEditing loads an image onto the canvas: it probes the remote
// file for its pixel size, installs a new layer, pushes it onto the
// history, and marks the record as the one being edited. The session lock
// is dropped while the probe runs; when two selections race, the layer of
// the last call wins and the earlier probe result is discarded.
func (s *Session) SelectForEditing(ctx context.Context, imageID string, patch *LayerPatch) (*models.Layer, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	img, ok := s.collection.Get(imageID)
	if !ok {
		s.mu.Unlock()
		return nil, ErrImageNotFound
	}
	if img.ImageState == models.ImageStatePublishing {
		s.mu.Unlock()
		return nil, ErrImagePublishing
	}
	s.selectGen++
	gen := s.selectGen
	s.mu.Unlock()

	dims, err := s.deps.Probe.Dimensions(ctx, img.ImageURL)
	if err != nil {
		// A failed probe aborts the selection without touching any state.
		logrus.WithFields(logrus.Fields{
			"session_id": s.ID.String(),
			"image_id":   imageID,
		}).WithError(err).Warn("Image dimension probe failed")
		return nil, fmt.Errorf("failed to probe image %s: %w", imageID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	if gen != s.selectGen {
		return nil, ErrSelectSuperseded
	}
	// The record may have changed while the probe was in flight.
	img, ok = s.collection.Get(imageID)
	if !ok {
		return nil, ErrImageNotFound
	}
	if img.ImageState == models.ImageStatePublishing {
		return nil, ErrImagePublishing
	}

	wasStaged := img.ImageState == models.ImageStateUploaded

	layer := models.Layer{
		ImagePreview:   img,
		Width:          dims.Width,
		Height:         dims.Height,
		OriginalWidth:  dims.Width,
		OriginalHeight: dims.Height,
	}
	layer.ImageState = models.ImageStateEdit
	patch.apply(&layer)

	s.layer = &layer
	s.history.Push(layer)

	if !wasStaged {
		// Selecting away from a staged upload abandons it.
		s.collection.DropByState(models.ImageStateUploaded)
	}
	s.collection.ClearStatesExcept(imageID)
	if err := s.collection.Transition(imageID, AnyExcept(models.ImageStatePublishing), models.ImageStateEdit); err != nil {
		return nil, err
	}
	s.collection.Select(imageID)

	out := layer
	return &out, nil
}

// MarkForCopyEdit flags an image as the style reference for a copy edit.
// The canvas layer is dropped and every other record loses its lifecycle
// state, so at most one reference exists at a time.
func (s *Session) MarkForCopyEdit(imageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	img, ok := s.collection.Get(imageID)
	if !ok {
		return ErrImageNotFound
	}
	if img.ImageState == models.ImageStatePublishing {
		return ErrImagePublishing
	}

	s.layer = nil
	s.collection.ClearStatesExcept(imageID)
	return s.collection.Transition(imageID, AnyExcept(models.ImageStatePublishing), models.ImageStateReference)
}

// PublishRequest asks for one collection image to be pushed to a product
// gallery. ReplaceMediaID swaps an existing gallery entry instead of
// appending.
type PublishRequest struct {
	ImageID        string
	ProductID      string
	ReplaceMediaID string
}

// PublishResult reports the optimistic placeholder immediately; Done
// resolves once the remote call settles and the placeholder has been
// resolved or rolled back.
type PublishResult struct {
	Placeholder models.ImagePreview
	Done        <-chan error
}

// Publish runs the optimistic publish protocol. Validation happens before
// any state changes; then a publishing placeholder is inserted at the next
// free gallery position and the catalog write continues in the background.
// On success the placeholder becomes a plain live image, on failure it is
// removed again so the gallery mirrors exactly what the catalog holds.
func (s *Session) Publish(ctx context.Context, req PublishRequest) (*PublishResult, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}

	productID := req.ProductID
	if productID == "" {
		productID = s.ProductID
	}
	if productID == "" {
		s.notifyLocked(NotificationWarning, "Select a product before publishing")
		s.mu.Unlock()
		return nil, ErrProductRequired
	}

	img, ok := s.collection.Get(req.ImageID)
	if !ok {
		s.notifyLocked(NotificationWarning, "The image is no longer available")
		s.mu.Unlock()
		return nil, ErrImageNotFound
	}
	if img.ImageURL == "" {
		s.notifyLocked(NotificationWarning, "The image has no file to publish")
		s.mu.Unlock()
		return nil, ErrImageURLRequired
	}

	live := s.collection.LiveOrdered()
	maxLive := s.deps.Config.MaxLiveImages
	if maxLive <= 0 {
		maxLive = 10
	}
	if len(live) >= maxLive {
		s.notifyLocked(NotificationWarning, fmt.Sprintf("A product gallery holds at most %d images", maxLive))
		s.mu.Unlock()
		return nil, ErrLiveImageLimit
	}

	// The source sheds its confirm badge the moment the publish starts.
	if img.ImageState == models.ImageStateConfirm {
		s.collection.Update(img.ID, ImagePatch{ImageState: statePtr(models.ImageStateNone)}, UpdateOptions{AvoidPublishingImages: true})
	}

	nextOrder := 0
	for _, l := range live {
		if l.Order+1 > nextOrder {
			nextOrder = l.Order + 1
		}
	}

	placeholder := models.ImagePreview{
		ID:           livePlaceholderPrefix + uuid.NewString(),
		ImageState:   models.ImageStatePublishing,
		IsLiveImage:  true,
		Order:        nextOrder,
		CreatedAt:    models.NowMillis(),
		ImageURL:     img.ImageURL,
		Thumbnails:   img.Thumbnails,
		ProductID:    productID,
		ParentTaskID: img.ParentTaskID,
	}
	s.collection.Add(placeholder, false)
	s.mu.Unlock()

	done := make(chan error, 1)
	go s.completePublish(context.WithoutCancel(ctx), placeholder, productID, req.ReplaceMediaID, done)

	return &PublishResult{Placeholder: placeholder, Done: done}, nil
}

func (s *Session) completePublish(ctx context.Context, placeholder models.ImagePreview, productID, replaceMediaID string, done chan<- error) {
	var media *productmedia.Media
	var err error
	if replaceMediaID != "" {
		media, err = s.deps.Media.ReplaceProductMedia(ctx, productID, placeholder.ImageURL, replaceMediaID)
	} else {
		media, err = s.deps.Media.AddProductMedia(ctx, productID, placeholder.ImageURL)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		done <- ErrSessionClosed
		return
	}

	if err != nil {
		// Full rollback of the optimistic insert.
		s.collection.Delete(placeholder.ID)
		s.setErrorLocked(ErrorDomainAPI, "publish failed")
		s.notifyLocked(NotificationError, "Publishing failed. The image was not added to the product.")
		s.mu.Unlock()

		logrus.WithFields(logrus.Fields{
			"session_id": s.ID.String(),
			"product_id": productID,
		}).WithError(err).Error("Publish failed, placeholder rolled back")
		done <- err
		return
	}

	finalURL := placeholder.ImageURL
	if media != nil && media.URL != "" {
		finalURL = media.URL
	}
	// Resolution targets the placeholder directly, so the publishing guard
	// stays off for this one update.
	s.collection.Update(placeholder.ID, ImagePatch{
		ImageState: statePtr(models.ImageStateNone),
		ImageURL:   &finalURL,
	}, UpdateOptions{})
	s.clearErrorLocked(ErrorDomainAPI)
	s.notifyLocked(NotificationSuccess, "Image published to the product gallery")
	s.mu.Unlock()

	s.deps.Catalog.Invalidate(productID)
	s.recordEvent(ctx, models.EventImagePublished, productID, []string{placeholder.ID})
	done <- nil
}

// Delete removes an image from the generated-image service and, on
// success, from the collection. The record is marked deleting while the
// remote call runs; a failure parks it in the error state instead of
// dropping it, and the error is returned so callers can hook completion.
func (s *Session) Delete(ctx context.Context, imageID string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if _, ok := s.collection.Get(imageID); !ok {
		s.mu.Unlock()
		return ErrImageNotFound
	}
	if err := s.collection.Transition(imageID, AnyExcept(models.ImageStatePublishing), models.ImageStateDeleting); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.layer != nil && s.layer.ID == imageID {
		s.layer = nil
	}
	s.mu.Unlock()

	err := s.deps.Images.DeleteImages(ctx, []string{imageID})

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if err != nil {
		s.collection.Update(imageID, ImagePatch{ImageState: statePtr(models.ImageStateError)}, UpdateOptions{AvoidPublishingImages: true})
		s.setErrorLocked(ErrorDomainAPI, "delete failed")
		s.notifyLocked(NotificationError, "The image could not be deleted")
		s.mu.Unlock()
		return fmt.Errorf("failed to delete image %s: %w", imageID, err)
	}
	s.collection.Delete(imageID)
	s.clearErrorLocked(ErrorDomainAPI)
	s.notifyLocked(NotificationSuccess, "Image deleted")
	s.mu.Unlock()

	s.recordEvent(ctx, models.EventImageDeleted, "", []string{imageID})
	return nil
}

// MetaUpdate carries the editable metadata of a generated image.
type MetaUpdate struct {
	Comments *string
	Feedback *string
}

// UpdateImageMeta patches comments or feedback on the generated-image
// service and mirrors the change locally. Records mid publish are left
// untouched.
func (s *Session) UpdateImageMeta(ctx context.Context, imageID string, update MetaUpdate) (*models.ImagePreview, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	img, ok := s.collection.Get(imageID)
	if !ok {
		s.mu.Unlock()
		return nil, ErrImageNotFound
	}
	if img.ImageState == models.ImageStatePublishing {
		s.mu.Unlock()
		return nil, ErrImagePublishing
	}
	s.mu.Unlock()

	updated, err := s.deps.Images.UpdateImage(ctx, imageID, imageservice.UpdateImageRequest{
		Comments: update.Comments,
		Feedback: update.Feedback,
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	if err != nil {
		s.setErrorLocked(ErrorDomainAPI, "image update failed")
		s.notifyLocked(NotificationError, "Saving image details failed")
		return nil, fmt.Errorf("failed to update image %s: %w", imageID, err)
	}

	patch := ImagePatch{Comments: update.Comments, Feedback: update.Feedback}
	if updated != nil {
		// Prefer what the service echoed back.
		if update.Comments != nil {
			comments := updated.Comments
			patch.Comments = &comments
		}
		if update.Feedback != nil {
			feedback := updated.Feedback
			patch.Feedback = &feedback
		}
	}
	s.collection.Update(imageID, patch, UpdateOptions{AvoidPublishingImages: true})
	s.clearErrorLocked(ErrorDomainAPI)

	img, _ = s.collection.Get(imageID)
	return &img, nil
}

// ImageVersions lists the edit derivatives that share a generation task
// with the given image, newest first. The result feeds the image details
// view and is not merged into the collection.
func (s *Session) ImageVersions(ctx context.Context, imageID string) ([]models.ImagePreview, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	img, ok := s.collection.Get(imageID)
	if !ok {
		s.mu.Unlock()
		return nil, ErrImageNotFound
	}
	parentTaskID := img.ParentTaskID
	if parentTaskID == "" {
		parentTaskID = img.ID
	}
	s.mu.Unlock()

	images, err := s.deps.Images.ListImagesByParent(ctx, parentTaskID)
	if err != nil {
		s.mu.Lock()
		s.setErrorLocked(ErrorDomainImages, "version lookup failed")
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to list versions of image %s: %w", imageID, err)
	}

	versions := make([]models.ImagePreview, 0, len(images))
	for _, version := range images {
		versions = append(versions, draftFromService(version))
	}
	sortDraftsNewestFirst(versions)
	return versions, nil
}

func (s *Session) recordEvent(ctx context.Context, name, productID string, imageIDs []string) {
	if s.deps.Events == nil {
		return
	}
	sessionID := s.ID
	s.deps.Events.Record(ctx, &models.StudioEvent{
		InstanceID: s.InstanceID,
		SessionID:  &sessionID,
		EventName:  name,
		ProductID:  productID,
		ImageIDs:   pq.StringArray(imageIDs),
	})
}
