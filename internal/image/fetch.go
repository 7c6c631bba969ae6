package image

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"github.com/dmorgan81/fluxgen/internal/log"
)

// Fetched holds a decoded image alongside the exact bytes the server sent.
type Fetched struct {
	Image    image.Image
	Data     []byte
	MimeType string
}

type Fetcher struct {
	Client *http.Client
}

func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{Client: client}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (Fetched, error) {
	logger := log.FromContextOrDiscard(ctx).WithGroup("fetcher").With("url", url)
	logger.Debug("downloading image")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Fetched{}, err
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return Fetched{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Fetched{}, fmt.Errorf("unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Fetched{}, err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Fetched{}, fmt.Errorf("decode image: %w", err)
	}
	logger.Debug("decoded image", "format", format, "bytes", len(data))

	return Fetched{Image: img, Data: data, MimeType: http.DetectContentType(data)}, nil
}
