package handler

import (
	"errors"

	"github.com/dmorgan81/fluxgen/internal/generate"
	"github.com/dmorgan81/fluxgen/internal/page"
	"github.com/samber/lo"
)

func errorNotice(err error) page.Notice {
	var prefix string
	switch {
	case errors.Is(err, generate.ErrClientSetup):
		prefix = "Error setting up client: "
	case errors.Is(err, generate.ErrGeneration):
		prefix = "Error generating images: "
	case errors.Is(err, generate.ErrFetch):
		prefix = "Error downloading image: "
	default:
		prefix = "Error: "
	}
	return page.Notice{Level: "error", Message: prefix + cause(err).Error()}
}

// cause strips the sentinel from errors built as fmt.Errorf("%w: %w", sentinel, err).
func cause(err error) error {
	if w, ok := err.(interface{ Unwrap() []error }); ok {
		if errs := w.Unwrap(); len(errs) > 1 {
			return errs[len(errs)-1]
		}
	}
	return err
}

func failureNotices(failures []generate.Failure) []page.Notice {
	return lo.Map(failures, func(f generate.Failure, _ int) page.Notice {
		return errorNotice(f.Err)
	})
}
