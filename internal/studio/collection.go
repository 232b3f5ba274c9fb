// internal/studio/collection.go
package studio

import (
	"errors"
	"sort"

	"github.com/merchstudio/photostudio-backend/internal/models"
)

var ErrImageNotFound = errors.New("image not found in session")

// ImagePatch is a partial update of one preview. Nil fields are left
// untouched.
type ImagePatch struct {
	ImageState     *models.ImageState
	IsLiveImage    *bool
	Order          *int
	CreatedAt      *int64
	ImageURL       *string
	Thumbnails     []string
	ProductID      *string
	ParentTaskID   *string
	EnhancedPrompt *string
	Comments       *string
	Feedback       *string
}

func (p ImagePatch) apply(img *models.ImagePreview) {
	if p.ImageState != nil {
		img.ImageState = *p.ImageState
	}
	if p.IsLiveImage != nil {
		img.IsLiveImage = *p.IsLiveImage
	}
	if p.Order != nil {
		img.Order = *p.Order
	}
	if p.CreatedAt != nil {
		img.CreatedAt = *p.CreatedAt
	}
	if p.ImageURL != nil {
		img.ImageURL = *p.ImageURL
	}
	if p.Thumbnails != nil {
		img.Thumbnails = p.Thumbnails
	}
	if p.ProductID != nil {
		img.ProductID = *p.ProductID
	}
	if p.ParentTaskID != nil {
		img.ParentTaskID = *p.ParentTaskID
	}
	if p.EnhancedPrompt != nil {
		img.EnhancedPrompt = *p.EnhancedPrompt
	}
	if p.Comments != nil {
		img.Comments = *p.Comments
	}
	if p.Feedback != nil {
		img.Feedback = *p.Feedback
	}
}

// UpdateOptions tune a single Update call.
type UpdateOptions struct {
	// FilterTempImages drops every staged-upload record before the update
	// is applied.
	FilterTempImages bool
	// AvoidPublishingImages skips the update when the target is mid
	// publish. Mutators leave this set; only the publish resolution itself
	// targets a publishing record directly.
	AvoidPublishingImages bool
}

// Collection is the ordered image set of one session plus its selection
// slot. It is not synchronized; the owning session serializes access.
type Collection struct {
	images     []models.ImagePreview
	selectedID string
}

func NewCollection() *Collection {
	return &Collection{}
}

func (c *Collection) Len() int {
	return len(c.images)
}

// All returns the records in insertion order, newest first.
func (c *Collection) All() []models.ImagePreview {
	out := make([]models.ImagePreview, len(c.images))
	copy(out, c.images)
	return out
}

func (c *Collection) Get(id string) (models.ImagePreview, bool) {
	for _, img := range c.images {
		if img.ID == id {
			return img, true
		}
	}
	return models.ImagePreview{}, false
}

// Add inserts a preview at the front of the collection. An existing record
// with the same id is overwritten in place. resetSelection clears the
// selection slot, the default for images arriving from outside the editor.
func (c *Collection) Add(img models.ImagePreview, resetSelection bool) {
	if idx := c.index(img.ID); idx >= 0 {
		c.images[idx] = img
	} else {
		c.images = append([]models.ImagePreview{img}, c.images...)
	}
	if resetSelection {
		c.selectedID = ""
	}
}

// Update applies a patch to the record with the given id. Unknown ids are
// ignored. Returns whether the patch was applied.
func (c *Collection) Update(id string, patch ImagePatch, opts UpdateOptions) bool {
	if opts.FilterTempImages {
		c.DropByState(models.ImageStateUploaded)
	}

	idx := c.index(id)
	if idx < 0 {
		return false
	}
	if opts.AvoidPublishingImages && c.images[idx].ImageState == models.ImageStatePublishing {
		return false
	}

	patch.apply(&c.images[idx])
	return true
}

// Delete removes the record with the given id.
func (c *Collection) Delete(id string) bool {
	idx := c.index(id)
	if idx < 0 {
		return false
	}
	c.images = append(c.images[:idx], c.images[idx+1:]...)
	if c.selectedID == id {
		c.selectedID = ""
	}
	return true
}

// Replace swaps the whole collection for a freshly fetched set. Records mid
// publish survive the swap so an in-flight publish can still resolve or
// roll back its placeholder.
func (c *Collection) Replace(imgs []models.ImagePreview) {
	incoming := make(map[string]struct{}, len(imgs))
	for _, img := range imgs {
		incoming[img.ID] = struct{}{}
	}

	var kept []models.ImagePreview
	for _, img := range c.images {
		if img.ImageState != models.ImageStatePublishing {
			continue
		}
		if _, ok := incoming[img.ID]; ok {
			continue
		}
		kept = append(kept, img)
	}

	c.images = append(kept, imgs...)
}

// DropByState removes every record in the given state.
func (c *Collection) DropByState(state models.ImageState) {
	filtered := c.images[:0]
	for _, img := range c.images {
		if img.ImageState == state {
			if c.selectedID == img.ID {
				c.selectedID = ""
			}
			continue
		}
		filtered = append(filtered, img)
	}
	c.images = filtered
}

// ClearStatesExcept resets the lifecycle state of every record except the
// given one. Records mid publish are left alone.
func (c *Collection) ClearStatesExcept(exceptID string) {
	for i := range c.images {
		if c.images[i].ID == exceptID {
			continue
		}
		if c.images[i].ImageState == models.ImageStatePublishing {
			continue
		}
		c.images[i].ImageState = models.ImageStateNone
	}
}

func (c *Collection) Select(id string) {
	c.selectedID = id
}

func (c *Collection) ClearSelection() {
	c.selectedID = ""
}

func (c *Collection) SelectedID() string {
	return c.selectedID
}

// Derived views. Each returns a copy; mutating the result does not touch
// the collection.

// SortedByDate returns all records ordered newest first.
func (c *Collection) SortedByDate() []models.ImagePreview {
	out := c.All()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt > out[j].CreatedAt
	})
	return out
}

// ByState returns the records currently in one lifecycle state.
func (c *Collection) ByState(state models.ImageState) []models.ImagePreview {
	var out []models.ImagePreview
	for _, img := range c.images {
		if img.ImageState == state {
			out = append(out, img)
		}
	}
	return out
}

// Reference returns the copy-edit reference image, when one is marked.
func (c *Collection) Reference() (models.ImagePreview, bool) {
	for _, img := range c.images {
		if img.ImageState == models.ImageStateReference {
			return img, true
		}
	}
	return models.ImagePreview{}, false
}

// LiveOrdered returns the live catalog images in gallery order.
func (c *Collection) LiveOrdered() []models.ImagePreview {
	var out []models.ImagePreview
	for _, img := range c.images {
		if img.IsLiveImage {
			out = append(out, img)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Order < out[j].Order
	})
	return out
}

// DraftOrdered returns the non-live images, newest first.
func (c *Collection) DraftOrdered() []models.ImagePreview {
	var out []models.ImagePreview
	for _, img := range c.images {
		if !img.IsLiveImage {
			out = append(out, img)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt > out[j].CreatedAt
	})
	return out
}

func (c *Collection) index(id string) int {
	for i := range c.images {
		if c.images[i].ID == id {
			return i
		}
	}
	return -1
}

func statePtr(state models.ImageState) *models.ImageState {
	return &state
}
