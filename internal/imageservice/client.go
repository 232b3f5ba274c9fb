// internal/imageservice/client.go
package imageservice

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/merchstudio/photostudio-backend/internal/httpclient"
)

// Generation pipeline states reported by the service.
const (
	GenerationStatusPending    = "pending"
	GenerationStatusProcessing = "processing"
	GenerationStatusCompleted  = "completed"
	GenerationStatusFailed     = "failed"
)

// Review states of a finished generation.
const (
	ImageStatusPendingReview = "pending_review"
	ImageStatusApproved      = "approved"
)

// Image is a generated image as the service reports it.
type Image struct {
	ID               string   `json:"id"`
	ProductID        string   `json:"productId,omitempty"`
	ImageURL         string   `json:"imageUrl"`
	Thumbnails       []string `json:"thumbnails,omitempty"`
	CreatedAt        int64    `json:"createdAt"`
	UpdatedAt        int64    `json:"updatedAt,omitempty"`
	GenerationStatus string   `json:"generationStatus,omitempty"`
	ImageStatus      string   `json:"imageStatus,omitempty"`
	Seed             int64    `json:"seed,omitempty"`
	ParentTaskID     string   `json:"parentTaskId,omitempty"`
	EnhancedPrompt   string   `json:"enhancedPrompt,omitempty"`
	Comments         string   `json:"comments,omitempty"`
	Feedback         string   `json:"feedback,omitempty"`
}

type UpdateImageRequest struct {
	Comments *string `json:"comments,omitempty"`
	Feedback *string `json:"feedback,omitempty"`
}

type listImagesResponse struct {
	Images []Image `json:"images"`
}

type imageResponse struct {
	Image Image `json:"image"`
}

type deleteImagesRequest struct {
	IDs []string `json:"ids"`
}

// Client talks to the generated-image service. All calls are secured with
// the caller's instance token.
type Client struct {
	baseURL string
	http    *httpclient.Client
	retries int
}

func NewClient(baseURL string, httpClient *httpclient.Client, retries int) *Client {
	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		retries: retries,
	}
}

// ListImages returns every generated image of the instance.
func (c *Client) ListImages(ctx context.Context) ([]Image, error) {
	return c.list(ctx, nil)
}

// ListImagesByProduct returns the generated images attached to one product.
func (c *Client) ListImagesByProduct(ctx context.Context, productID string) ([]Image, error) {
	return c.list(ctx, url.Values{"productId": {productID}})
}

// ListImagesByParent returns the edit derivatives of a generation task.
func (c *Client) ListImagesByParent(ctx context.Context, parentTaskID string) ([]Image, error) {
	return c.list(ctx, url.Values{"parentTaskId": {parentTaskID}})
}

func (c *Client) list(ctx context.Context, query url.Values) ([]Image, error) {
	endpoint := c.baseURL + "/v1/images"
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var resp listImagesResponse
	opts := httpclient.Options{Secured: true, Retries: c.retries}
	if err := c.http.DoJSON(ctx, http.MethodGet, endpoint, nil, &resp, opts); err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}

	return resp.Images, nil
}

// UpdateImage patches the metadata of one generated image.
func (c *Client) UpdateImage(ctx context.Context, imageID string, req UpdateImageRequest) (*Image, error) {
	endpoint := fmt.Sprintf("%s/v1/images/%s", c.baseURL, url.PathEscape(imageID))

	var resp imageResponse
	opts := httpclient.Options{Secured: true, Retries: c.retries}
	if err := c.http.DoJSON(ctx, http.MethodPatch, endpoint, req, &resp, opts); err != nil {
		return nil, fmt.Errorf("failed to update image %s: %w", imageID, err)
	}

	return &resp.Image, nil
}

// DeleteImages removes generated images from the service.
func (c *Client) DeleteImages(ctx context.Context, imageIDs []string) error {
	endpoint := c.baseURL + "/v1/images"

	opts := httpclient.Options{Secured: true, Retries: c.retries}
	if _, err := c.http.Do(ctx, http.MethodDelete, endpoint, deleteImagesRequest{IDs: imageIDs}, opts); err != nil {
		return fmt.Errorf("failed to delete images: %w", err)
	}

	return nil
}
