package generate

import (
	"context"
	"errors"
	goimage "image"

	"github.com/dmorgan81/fluxgen/internal/image"
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

// fakeFetcher serves a one-pixel image per URL unless the URL is listed in fail.
type fakeFetcher struct {
	fail    map[string]error
	fetched []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (image.Fetched, error) {
	f.fetched = append(f.fetched, url)
	if err, ok := f.fail[url]; ok {
		return image.Fetched{}, err
	}
	return image.Fetched{
		Image:    goimage.NewGray(goimage.Rect(0, 0, 1, 1)),
		Data:     []byte(url),
		MimeType: "image/png",
	}, nil
}

var errTimeout = errors.New("i/o timeout")

func descriptors(urls ...string) []image.Descriptor {
	out := make([]image.Descriptor, len(urls))
	for i, u := range urls {
		out[i] = image.Descriptor{Index: i, URL: u}
	}
	return out
}
