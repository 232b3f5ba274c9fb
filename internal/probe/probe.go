// internal/probe/probe.go
package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/merchstudio/photostudio-backend/internal/httpclient"
)

const defaultMaxBytes = 1 << 20 // 1 MiB is enough for any image header

// Result holds the probed pixel dimensions of a remote image.
type Result struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Prober downloads just enough of a remote image to decode its dimensions.
// Supported formats: JPEG, PNG, GIF, and WebP.
type Prober struct {
	http     *httpclient.Client
	maxBytes int64
}

func New(httpClient *httpclient.Client, maxBytes int64) *Prober {
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	return &Prober{
		http:     httpClient,
		maxBytes: maxBytes,
	}
}

// Dimensions fetches the image at rawURL and decodes its size. The download
// is capped at maxBytes; image CDNs keep dimension headers well inside the
// first chunk.
func (p *Prober) Dimensions(ctx context.Context, rawURL string) (*Result, error) {
	if rawURL == "" {
		return nil, errors.New("image url is empty")
	}

	data, err := p.http.Do(ctx, http.MethodGet, rawURL, nil, httpclient.Options{
		Retries:      1,
		MaxBodyBytes: p.maxBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download image for probing: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image dimensions: %w", err)
	}

	return &Result{Width: cfg.Width, Height: cfg.Height}, nil
}
