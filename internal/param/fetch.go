package param

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("parameter not found")

type Fetcher interface {
	Fetch(context.Context, string) (string, error)
}

// StaticFetcher serves values already known to the process, keyed by path.
type StaticFetcher map[string]string

func (f StaticFetcher) Fetch(_ context.Context, path string) (string, error) {
	if v, ok := f[path]; ok {
		return v, nil
	}
	return "", ErrNotFound
}
