package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmorgan81/fluxgen/internal/download"
	"github.com/dmorgan81/fluxgen/internal/generate"
	"github.com/dmorgan81/fluxgen/internal/image"
	"github.com/dmorgan81/fluxgen/internal/log"
	"github.com/dmorgan81/fluxgen/internal/model"
	"github.com/dmorgan81/fluxgen/internal/page"
	"github.com/dmorgan81/fluxgen/internal/param"
	"github.com/dmorgan81/fluxgen/internal/store"
	"github.com/samber/do"
	"github.com/samber/lo"
)

type Input struct {
	Run    string `json:"run,omitempty"`
	Prompt string `json:"prompt"`
	Model  string `json:"model,omitempty"`
	Steps  int    `json:"steps,omitempty"`
	Count  int    `json:"count,omitempty"`
}

func (i Input) toMetadata() map[string]string {
	return map[string]string{
		"run":    i.Run,
		"model":  i.Model,
		"prompt": i.Prompt,
		"steps":  strconv.Itoa(i.Steps),
		"count":  strconv.Itoa(i.Count),
	}
}

type Failure struct {
	Index int    `json:"index"`
	URL   string `json:"url"`
	Error string `json:"error"`
}

type Output struct {
	Run      string    `json:"run"`
	Page     string    `json:"page"`
	Images   []string  `json:"images"`
	Failures []Failure `json:"failures,omitempty"`
}

type Lambda struct {
	orchestrator *generate.Orchestrator
	factory      image.GeneratorFactory
	templator    *page.Templator
	uploader     store.Uploader
	invalidator  store.Invalidator
	params       param.Fetcher
	keyPath      string
	model        model.Label
}

func NewLambda(i *do.Injector) (*Lambda, error) {
	return &Lambda{
		orchestrator: do.MustInvoke[*generate.Orchestrator](i),
		factory:      do.MustInvoke[image.GeneratorFactory](i),
		templator:    do.MustInvoke[*page.Templator](i),
		uploader:     do.MustInvoke[store.Uploader](i),
		invalidator:  do.MustInvoke[store.Invalidator](i),
		params:       do.MustInvoke[param.Fetcher](i),
		keyPath:      do.MustInvokeNamed[string](i, "together_key_path"),
		model:        do.MustInvokeNamed[model.Label](i, "default_model"),
	}, nil
}

func (h *Lambda) Handle(ctx context.Context, input Input) (Output, error) {
	input.Run = lo.Ternary(input.Run != "", input.Run, time.Now().UTC().Format("20060102T150405Z"))
	input.Model = lo.Ternary(input.Model != "", input.Model, string(h.model))
	input.Steps = lo.Ternary(input.Steps != 0, input.Steps, generate.DefaultSteps)
	input.Count = lo.Ternary(input.Count != 0, input.Count, generate.DefaultCount)

	log := log.FromContextOrDiscard(ctx).WithGroup("Lambda").With("run", input.Run, "model", input.Model)
	log.Info("handling lambda invocation")

	req, err := generate.NewRequest(input.Prompt, model.Label(input.Model), input.Steps, input.Count)
	if err != nil {
		return Output{}, err
	}

	// fetched per invocation, never cached on the handler
	apiKey, err := h.params.Fetch(ctx, h.keyPath)
	if err != nil {
		return Output{}, fmt.Errorf("%w: fetching api key: %w", generate.ErrClientSetup, err)
	}

	out, err := h.orchestrator.Run(ctx, h.factory, apiKey, req)
	if err != nil {
		return Output{}, err
	}
	if len(out.Images) == 0 && len(out.Failures) > 0 {
		log.Error("every image download failed", "failures", len(out.Failures))
		return Output{}, errors.Join(lo.Map(out.Failures, func(f generate.Failure, _ int) error { return f.Err })...)
	}

	params := page.NewParams(req.Model)
	params.Static = true
	params.Prompt = req.Prompt
	params.Steps = req.Steps
	params.Count = req.Count
	params.Tiles = page.Tiles(out.Images)
	params.Notices = failureNotices(out.Failures)
	html, err := h.templator.Template(ctx, params)
	if err != nil {
		return Output{}, err
	}

	metadata := input.toMetadata()
	uploads := lo.Map(out.Images, func(r generate.Result, i int) store.UploadParams {
		return store.UploadParams{
			Name:        input.Run + "/" + download.Filename(i),
			Data:        r.Data,
			ContentType: r.MimeType,
			Metadata:    metadata,
		}
	})
	uploads = append(uploads, store.UploadParams{
		Name:        input.Run + "/index.html",
		Data:        html,
		ContentType: "text/html",
		Metadata:    metadata,
	})
	for _, u := range uploads {
		if err := h.uploader.Upload(ctx, u); err != nil {
			return Output{}, err
		}
	}

	if err := h.invalidator.Invalidate(ctx, []string{"/" + input.Run + "/*"}); err != nil {
		return Output{}, err
	}

	failures := lo.Map(out.Failures, func(f generate.Failure, _ int) Failure {
		return Failure{Index: f.Index, URL: f.URL, Error: cause(f.Err).Error()}
	})
	images := lo.Map(uploads[:len(uploads)-1], func(u store.UploadParams, _ int) string { return u.Name })
	return Output{
		Run:      input.Run,
		Page:     input.Run + "/index.html",
		Images:   images,
		Failures: failures,
	}, nil
}
