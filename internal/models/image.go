// internal/models/image.go
package models

import "time"

// ImagePreview is one entry of a session's file explorer. Previews are held
// in memory only; they mirror catalog media and generated images fetched
// from the upstream services, plus any staged uploads and optimistic
// publish placeholders created locally.
type ImagePreview struct {
	ID             string     `json:"id"`
	ImageState     ImageState `json:"image_state,omitempty"`
	IsLiveImage    bool       `json:"is_live_image"`
	Order          int        `json:"order"`
	CreatedAt      int64      `json:"created_at"` // epoch milliseconds
	ImageURL       string     `json:"image_url"`
	Thumbnails     []string   `json:"thumbnails,omitempty"`
	ProductID      string     `json:"product_id,omitempty"`
	ParentTaskID   string     `json:"parent_task_id,omitempty"`
	EnhancedPrompt string     `json:"enhanced_prompt,omitempty"`
	Comments       string     `json:"comments,omitempty"`
	Feedback       string     `json:"feedback,omitempty"`
}

// Layer is the image currently loaded on the editing canvas. It extends the
// source preview with probed pixel dimensions and the staging key of the
// working file, when one exists.
type Layer struct {
	ImagePreview
	FileKey        *string `json:"file_key,omitempty"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	OriginalWidth  int     `json:"original_width"`
	OriginalHeight int     `json:"original_height"`
}

// EditorSettings carries the UI flags of a session that are not part of the
// image collection itself.
type EditorSettings struct {
	SelectedImageID string `json:"selected_image_id,omitempty"`
	ExplorerVisible bool   `json:"explorer_visible"`
	DetailsImageID  string `json:"details_image_id,omitempty"`
}

// NowMillis returns the current time as epoch milliseconds, the unit used
// for ImagePreview.CreatedAt.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
