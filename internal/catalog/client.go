// internal/catalog/client.go
package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/merchstudio/photostudio-backend/internal/config"
	"github.com/merchstudio/photostudio-backend/internal/httpclient"
)

// MediaItem is one live catalog image of a product, already normalized
// across catalog API versions.
type MediaItem struct {
	ID           string `json:"id"`
	ImageURL     string `json:"image_url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// Product carries the slice of the catalog the studio cares about: the
// product id and its media gallery in display order.
type Product struct {
	ID    string      `json:"id"`
	Media []MediaItem `json:"media"`
}

// Reader fetches products from one version of the catalog API.
type Reader interface {
	GetProduct(ctx context.Context, productID string) (*Product, error)
	GetProducts(ctx context.Context, productIDs []string) ([]Product, error)
}

// NewReader picks the wire client matching the configured catalog version.
func NewReader(cfg config.CatalogConfig, httpClient *httpclient.Client) Reader {
	if cfg.Version == "v1" {
		return &v1Client{baseURL: cfg.BaseURL, http: httpClient}
	}
	return &v3Client{baseURL: cfg.BaseURL, http: httpClient}
}

// --- v1 wire contract ---

type v1Client struct {
	baseURL string
	http    *httpclient.Client
}

type v1MediaItem struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

type v1Product struct {
	ID    string `json:"id"`
	Media struct {
		Items []v1MediaItem `json:"items"`
	} `json:"media"`
}

type v1ProductResponse struct {
	Product v1Product `json:"product"`
}

type v1ProductsResponse struct {
	Products []v1Product `json:"products"`
}

func (c *v1Client) GetProduct(ctx context.Context, productID string) (*Product, error) {
	endpoint := fmt.Sprintf("%s/v1/products/%s", c.baseURL, url.PathEscape(productID))

	var resp v1ProductResponse
	if err := c.http.DoJSON(ctx, http.MethodGet, endpoint, nil, &resp, httpclient.Options{Secured: true}); err != nil {
		return nil, fmt.Errorf("failed to get product %s: %w", productID, err)
	}

	product := normalizeV1(resp.Product)
	return &product, nil
}

func (c *v1Client) GetProducts(ctx context.Context, productIDs []string) ([]Product, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	endpoint := fmt.Sprintf("%s/v1/products?ids=%s", c.baseURL, url.QueryEscape(strings.Join(productIDs, ",")))

	var resp v1ProductsResponse
	if err := c.http.DoJSON(ctx, http.MethodGet, endpoint, nil, &resp, httpclient.Options{Secured: true}); err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	products := make([]Product, 0, len(resp.Products))
	for _, p := range resp.Products {
		products = append(products, normalizeV1(p))
	}
	return products, nil
}

func normalizeV1(p v1Product) Product {
	product := Product{ID: p.ID, Media: make([]MediaItem, 0, len(p.Media.Items))}
	for _, item := range p.Media.Items {
		product.Media = append(product.Media, MediaItem{
			ID:           item.ID,
			ImageURL:     item.URL,
			ThumbnailURL: item.ThumbnailURL,
		})
	}
	return product
}

// --- v3 wire contract ---

type v3Client struct {
	baseURL string
	http    *httpclient.Client
}

type v3QueryRequest struct {
	Query v3Query `json:"query"`
}

type v3Query struct {
	Filter       map[string]interface{} `json:"filter,omitempty"`
	CursorPaging v3CursorPaging         `json:"cursorPaging"`
}

type v3CursorPaging struct {
	Limit  int    `json:"limit"`
	Cursor string `json:"cursor,omitempty"`
}

type v3MediaItem struct {
	ID    string `json:"_id"`
	Image struct {
		URL string `json:"url"`
	} `json:"image"`
	Thumbnail struct {
		URL string `json:"url"`
	} `json:"thumbnail"`
}

type v3Product struct {
	ID    string `json:"id"`
	Media struct {
		ItemsInfo struct {
			Items []v3MediaItem `json:"items"`
		} `json:"itemsInfo"`
	} `json:"media"`
}

type v3QueryResponse struct {
	Products       []v3Product `json:"products"`
	PagingMetadata struct {
		HasNext bool `json:"hasNext"`
		Cursors struct {
			Next string `json:"next"`
		} `json:"cursors"`
	} `json:"pagingMetadata"`
}

const v3PageLimit = 100

func (c *v3Client) GetProduct(ctx context.Context, productID string) (*Product, error) {
	products, err := c.GetProducts(ctx, []string{productID})
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("product %s not found", productID)
	}
	return &products[0], nil
}

// GetProducts queries the v3 catalog, following cursors until every page is
// consumed.
func (c *v3Client) GetProducts(ctx context.Context, productIDs []string) ([]Product, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	endpoint := c.baseURL + "/v3/products/query"

	var products []Product
	cursor := ""
	for {
		req := v3QueryRequest{
			Query: v3Query{
				Filter:       map[string]interface{}{"id": map[string]interface{}{"$in": productIDs}},
				CursorPaging: v3CursorPaging{Limit: v3PageLimit, Cursor: cursor},
			},
		}

		var resp v3QueryResponse
		if err := c.http.DoJSON(ctx, http.MethodPost, endpoint, req, &resp, httpclient.Options{Secured: true}); err != nil {
			return nil, fmt.Errorf("failed to query products: %w", err)
		}

		for _, p := range resp.Products {
			products = append(products, normalizeV3(p))
		}

		if !resp.PagingMetadata.HasNext || resp.PagingMetadata.Cursors.Next == "" {
			break
		}
		cursor = resp.PagingMetadata.Cursors.Next
	}

	return products, nil
}

func normalizeV3(p v3Product) Product {
	product := Product{ID: p.ID, Media: make([]MediaItem, 0, len(p.Media.ItemsInfo.Items))}
	for _, item := range p.Media.ItemsInfo.Items {
		product.Media = append(product.Media, MediaItem{
			ID:           item.ID,
			ImageURL:     item.Image.URL,
			ThumbnailURL: item.Thumbnail.URL,
		})
	}
	return product
}
