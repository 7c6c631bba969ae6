package handler

import (
	"bytes"
	"context"
	goimage "image"
	"image/png"
	"io"
	"log/slog"
	"testing"

	"github.com/dmorgan81/fluxgen/internal/image"
	"github.com/dmorgan81/fluxgen/internal/log"
	"github.com/dmorgan81/fluxgen/internal/store"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	descriptors []image.Descriptor
	err         error
	calls       int
	last        image.Params
}

func (g *fakeGenerator) Generate(_ context.Context, params image.Params) ([]image.Descriptor, error) {
	g.calls++
	g.last = params
	return g.descriptors, g.err
}

// recordingFactory hands out gen and remembers the key it was asked for.
type recordingFactory struct {
	gen  *fakeGenerator
	keys []string
}

func (f *recordingFactory) factory(key string) (image.Generator, error) {
	f.keys = append(f.keys, key)
	if key == "" {
		return nil, image.ErrMissingKey
	}
	return f.gen, nil
}

type fakeFetcher struct {
	data []byte
	fail map[string]error
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (image.Fetched, error) {
	if err, ok := f.fail[url]; ok {
		return image.Fetched{}, err
	}
	img, err := png.Decode(bytes.NewReader(f.data))
	if err != nil {
		return image.Fetched{}, err
	}
	return image.Fetched{Image: img, Data: f.data, MimeType: "image/png"}, nil
}

type fakeUploader struct {
	uploads []store.UploadParams
	err     error
}

func (u *fakeUploader) Upload(_ context.Context, params store.UploadParams) error {
	u.uploads = append(u.uploads, params)
	return u.err
}

type fakeInvalidator struct {
	paths []string
}

func (i *fakeInvalidator) Invalidate(_ context.Context, paths []string) error {
	i.paths = append(i.paths, paths...)
	return nil
}

func onePixelPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, goimage.NewGray(goimage.Rect(0, 0, 1, 1))))
	return buf.Bytes()
}

func descriptors(urls ...string) []image.Descriptor {
	out := make([]image.Descriptor, len(urls))
	for i, u := range urls {
		out[i] = image.Descriptor{Index: i, URL: u}
	}
	return out
}

func testLogger(w io.Writer) *slog.Logger {
	return log.New(w, slog.LevelDebug)
}
