package overlay

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"

	_ "github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/patrickmn/go-cache"
)

const maxImageBytes = 32 << 20

// Fetcher downloads and decodes source images with a short-lived cache
// so repeated redraws of one workspace do not refetch the same file.
type Fetcher struct {
	client *http.Client
	cache  *cache.Cache
}

func NewFetcher(ttl time.Duration) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: 30 * time.Second},
		cache:  cache.New(ttl, 2*ttl),
	}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (image.Image, error) {
	if cached, ok := f.cache.Get(url); ok {
		return cached.(image.Image), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read image body: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	f.cache.SetDefault(url, img)
	return img, nil
}
