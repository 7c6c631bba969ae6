package generate

import (
	"context"
	"errors"
	"fmt"
	goimage "image"

	"github.com/dmorgan81/fluxgen/internal/image"
	"github.com/dmorgan81/fluxgen/internal/log"
)

var (
	ErrClientSetup = errors.New("client setup failed")
	ErrGeneration  = errors.New("image generation failed")
	ErrFetch       = errors.New("image download failed")
)

type Result struct {
	Image    goimage.Image
	Data     []byte
	MimeType string
}

// Failure records a descriptor that was dropped from the outcome.
type Failure struct {
	Index int
	URL   string
	Err   error
}

// Outcome lists fetched images in service order. Failed items are left out of Images
// and reported in Failures.
type Outcome struct {
	Images   []Result
	Failures []Failure
}

type Fetcher interface {
	Fetch(context.Context, string) (image.Fetched, error)
}

type Orchestrator struct {
	fetcher Fetcher
}

func NewOrchestrator(fetcher Fetcher) *Orchestrator {
	return &Orchestrator{fetcher: fetcher}
}

// Run builds a client from apiKey and generates. A setup failure aborts before any network call.
func (o *Orchestrator) Run(ctx context.Context, factory image.GeneratorFactory, apiKey string, req Request) (Outcome, error) {
	gen, err := factory(apiKey)
	if err != nil {
		log.FromContextOrDiscard(ctx).Error("setting up client", "error", err)
		return Outcome{}, fmt.Errorf("%w: %w", ErrClientSetup, err)
	}
	return o.Generate(ctx, gen, req)
}

func (o *Orchestrator) Generate(ctx context.Context, gen image.Generator, req Request) (Outcome, error) {
	logger := log.FromContextOrDiscard(ctx).WithGroup("orchestrator").With("model", string(req.Model), "count", req.Count)

	if err := req.Validate(); err != nil {
		return Outcome{}, err
	}

	descriptors, err := gen.Generate(ctx, image.Params{
		Model:  req.Model.ID(),
		Prompt: req.Prompt,
		Steps:  req.Steps,
		N:      req.Count,
	})
	if err != nil {
		logger.Error("generating images", "error", err)
		return Outcome{}, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	if len(descriptors) > req.Count {
		logger.Warn("service returned more images than requested", "returned", len(descriptors))
		descriptors = descriptors[:req.Count]
	}

	var out Outcome
	for _, d := range descriptors {
		if d.URL == "" {
			continue
		}
		fetched, err := o.fetcher.Fetch(ctx, d.URL)
		if err != nil || fetched.Image == nil || fetched.Data == nil {
			if err == nil {
				err = errors.New("empty image")
			}
			logger.Warn("downloading image", "index", d.Index, "url", d.URL, "error", err)
			out.Failures = append(out.Failures, Failure{Index: d.Index, URL: d.URL, Err: fmt.Errorf("%w: %w", ErrFetch, err)})
			continue
		}
		out.Images = append(out.Images, Result{Image: fetched.Image, Data: fetched.Data, MimeType: fetched.MimeType})
	}

	logger.Info("generated images", "fetched", len(out.Images), "failed", len(out.Failures))
	return out, nil
}
