// internal/studio/fetch.go
package studio

import (
	"context"
	"fmt"
	"sort"

	"github.com/merchstudio/photostudio-backend/internal/catalog"
	"github.com/merchstudio/photostudio-backend/internal/imageservice"
	"github.com/merchstudio/photostudio-backend/internal/models"
)

// FetchScope selects which remote sources feed a collection refresh.
type FetchScope string

const (
	// FetchScopeProduct loads the product's live gallery plus its drafts.
	FetchScopeProduct FetchScope = "product"
	// FetchScopeAll loads every draft of the instance, gallery excluded.
	FetchScopeAll FetchScope = "all"
)

// FetchImages rebuilds the collection from the remote sources for the
// given scope. Remote reads run without the session lock; the swap at the
// end is atomic and keeps any placeholder still mid publish. On failure
// the collection is left exactly as it was.
func (s *Session) FetchImages(ctx context.Context, scope FetchScope, productID string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if productID == "" {
		productID = s.ProductID
	}
	s.mu.Unlock()

	var (
		live      []models.ImagePreview
		generated []imageservice.Image
		err       error
	)

	switch scope {
	case FetchScopeProduct:
		if productID == "" {
			return ErrProductRequired
		}
		var product *catalog.Product
		product, err = s.deps.Catalog.GetProduct(ctx, productID)
		if err == nil {
			live = liveFromCatalog(productID, product.Media)
			generated, err = s.deps.Images.ListImagesByProduct(ctx, productID)
		}
	case FetchScopeAll:
		generated, err = s.deps.Images.ListImages(ctx)
	default:
		return fmt.Errorf("unknown fetch scope %q", scope)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if err != nil {
		s.setErrorLocked(ErrorDomainImages, "image fetch failed")
		s.notifyLocked(NotificationError, "Loading images failed. Showing the last known set.")
		return fmt.Errorf("failed to fetch images: %w", err)
	}

	drafts := make([]models.ImagePreview, 0, len(generated))
	for _, img := range generated {
		drafts = append(drafts, draftFromService(img))
	}

	s.collection.Replace(explorerOrder(live, drafts))
	s.clearErrorLocked(ErrorDomainImages)
	return nil
}

// explorerOrder arranges a fetched set the way the explorer presents it:
// gallery images by their position, then drafts newest first.
func explorerOrder(live, drafts []models.ImagePreview) []models.ImagePreview {
	sort.SliceStable(live, func(i, j int) bool { return live[i].Order < live[j].Order })
	sortDraftsNewestFirst(drafts)
	return append(live, drafts...)
}

func sortDraftsNewestFirst(drafts []models.ImagePreview) {
	sort.SliceStable(drafts, func(i, j int) bool { return drafts[i].CreatedAt > drafts[j].CreatedAt })
}

func liveFromCatalog(productID string, items []catalog.MediaItem) []models.ImagePreview {
	out := make([]models.ImagePreview, 0, len(items))
	for i, item := range items {
		preview := models.ImagePreview{
			ID:          item.ID,
			IsLiveImage: true,
			Order:       i,
			ImageURL:    item.ImageURL,
			ProductID:   productID,
		}
		if item.ThumbnailURL != "" {
			preview.Thumbnails = []string{item.ThumbnailURL}
		}
		out = append(out, preview)
	}
	return out
}

// draftFromService maps a generated-image record onto the collection
// shape. Generation progress takes precedence over the review status: a
// record still rendering shows as processing no matter what its review
// status says.
func draftFromService(img imageservice.Image) models.ImagePreview {
	preview := models.ImagePreview{
		ID:             img.ID,
		CreatedAt:      img.CreatedAt,
		ImageURL:       img.ImageURL,
		Thumbnails:     img.Thumbnails,
		ProductID:      img.ProductID,
		ParentTaskID:   img.ParentTaskID,
		EnhancedPrompt: img.EnhancedPrompt,
		Comments:       img.Comments,
		Feedback:       img.Feedback,
	}

	switch img.GenerationStatus {
	case imageservice.GenerationStatusPending, imageservice.GenerationStatusProcessing:
		preview.ImageState = models.ImageStateProcessing
	case imageservice.GenerationStatusFailed:
		preview.ImageState = models.ImageStateError
	default:
		switch img.ImageStatus {
		case imageservice.ImageStatusPendingReview:
			preview.ImageState = models.ImageStateConfirm
		case imageservice.ImageStatusApproved:
			preview.ImageState = models.ImageStateSelected
		}
	}

	return preview
}
