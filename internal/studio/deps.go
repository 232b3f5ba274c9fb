// internal/studio/deps.go
package studio

import (
	"context"

	"github.com/merchstudio/photostudio-backend/internal/catalog"
	"github.com/merchstudio/photostudio-backend/internal/config"
	"github.com/merchstudio/photostudio-backend/internal/imageservice"
	"github.com/merchstudio/photostudio-backend/internal/models"
	"github.com/merchstudio/photostudio-backend/internal/probe"
	"github.com/merchstudio/photostudio-backend/internal/productmedia"
)

// ImageAPI is the slice of the generated-image service the studio uses.
type ImageAPI interface {
	ListImages(ctx context.Context) ([]imageservice.Image, error)
	ListImagesByProduct(ctx context.Context, productID string) ([]imageservice.Image, error)
	ListImagesByParent(ctx context.Context, parentTaskID string) ([]imageservice.Image, error)
	UpdateImage(ctx context.Context, imageID string, req imageservice.UpdateImageRequest) (*imageservice.Image, error)
	DeleteImages(ctx context.Context, imageIDs []string) error
}

// CatalogAPI reads products and invalidates them after a publish.
type CatalogAPI interface {
	GetProduct(ctx context.Context, productID string) (*catalog.Product, error)
	Invalidate(productID string)
}

// MediaAPI performs the catalog gallery writes of the publish flow.
type MediaAPI interface {
	AddProductMedia(ctx context.Context, productID, mediaURL string) (*productmedia.Media, error)
	ReplaceProductMedia(ctx context.Context, productID, mediaURL, replaceMediaID string) (*productmedia.Media, error)
}

// DimensionProber resolves the pixel size of a remote image.
type DimensionProber interface {
	Dimensions(ctx context.Context, rawURL string) (*probe.Result, error)
}

// EventRecorder persists analytics events. Implementations must never
// block the caller on failure.
type EventRecorder interface {
	Record(ctx context.Context, event *models.StudioEvent)
}

// EntitlementSource resolves the billing snapshot of an instance.
type EntitlementSource interface {
	Lookup(ctx context.Context, instanceID string) (*models.Entitlement, error)
}

// StagingCleaner removes staged upload objects a session leaves behind.
type StagingCleaner interface {
	DeleteFile(key string) error
}

// Deps are the shared collaborators every session works against. Events,
// Entitlements, and Staging may be nil; the session degrades to skipping
// those side effects.
type Deps struct {
	Images       ImageAPI
	Catalog      CatalogAPI
	Media        MediaAPI
	Probe        DimensionProber
	Events       EventRecorder
	Entitlements EntitlementSource
	Staging      StagingCleaner
	Config       config.StudioConfig
}
