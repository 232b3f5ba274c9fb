// internal/productmedia/client.go
package productmedia

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/merchstudio/photostudio-backend/internal/httpclient"
)

// Media is a catalog gallery entry created by an add or replace call.
type Media struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type addMediaRequest struct {
	MediaURL string `json:"mediaUrl"`
}

type replaceMediaRequest struct {
	MediaURL string `json:"mediaUrl"`
	MediaID  string `json:"mediaId"`
}

type mediaResponse struct {
	Media Media `json:"media"`
}

// Client performs the catalog media writes of the publish flow. Calls are
// secured; they are never retried beyond the transport defaults because the
// caller already wraps them in optimistic state it must roll back.
type Client struct {
	baseURL string
	http    *httpclient.Client
}

func NewClient(baseURL string, httpClient *httpclient.Client) *Client {
	return &Client{
		baseURL: baseURL,
		http:    httpClient,
	}
}

// AddProductMedia appends an image to the product gallery.
func (c *Client) AddProductMedia(ctx context.Context, productID, mediaURL string) (*Media, error) {
	endpoint := fmt.Sprintf("%s/v1/products/%s/media", c.baseURL, url.PathEscape(productID))

	var resp mediaResponse
	opts := httpclient.Options{Secured: true}
	if err := c.http.DoJSON(ctx, http.MethodPost, endpoint, addMediaRequest{MediaURL: mediaURL}, &resp, opts); err != nil {
		return nil, fmt.Errorf("failed to add media to product %s: %w", productID, err)
	}

	return &resp.Media, nil
}

// ReplaceProductMedia swaps an existing gallery entry for a new image,
// keeping its gallery position.
func (c *Client) ReplaceProductMedia(ctx context.Context, productID, mediaURL, replaceMediaID string) (*Media, error) {
	endpoint := fmt.Sprintf("%s/v1/products/%s/media/replace", c.baseURL, url.PathEscape(productID))

	req := replaceMediaRequest{MediaURL: mediaURL, MediaID: replaceMediaID}
	var resp mediaResponse
	opts := httpclient.Options{Secured: true}
	if err := c.http.DoJSON(ctx, http.MethodPost, endpoint, req, &resp, opts); err != nil {
		return nil, fmt.Errorf("failed to replace media %s on product %s: %w", replaceMediaID, productID, err)
	}

	return &resp.Media, nil
}
