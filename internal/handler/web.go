package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmorgan81/fluxgen/internal/generate"
	"github.com/dmorgan81/fluxgen/internal/image"
	"github.com/dmorgan81/fluxgen/internal/log"
	"github.com/dmorgan81/fluxgen/internal/model"
	"github.com/dmorgan81/fluxgen/internal/page"
	"github.com/dmorgan81/fluxgen/internal/param"
	"github.com/gorilla/mux"
	"github.com/samber/do"
	"github.com/samber/lo"
)

const hint = "Enter a prompt and API key, then click Generate to create images"

type Web struct {
	orchestrator *generate.Orchestrator
	factory      image.GeneratorFactory
	templator    *page.Templator
	logger       *slog.Logger
	params       param.Fetcher
	keyPath      string
	hasKey       bool
	model        model.Label
}

func NewWeb(i *do.Injector) (*Web, error) {
	return &Web{
		orchestrator: do.MustInvoke[*generate.Orchestrator](i),
		factory:      do.MustInvoke[image.GeneratorFactory](i),
		templator:    do.MustInvoke[*page.Templator](i),
		logger:       do.MustInvoke[*slog.Logger](i),
		params:       do.MustInvoke[param.Fetcher](i),
		keyPath:      do.MustInvokeNamed[string](i, "together_key_path"),
		hasKey:       do.MustInvokeNamed[bool](i, "together_key_configured"),
		model:        do.MustInvokeNamed[model.Label](i, "default_model"),
	}, nil
}

func (h *Web) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(h.withLogger)
	r.HandleFunc("/", h.Index).Methods(http.MethodGet)
	r.HandleFunc("/generate", h.Generate).Methods(http.MethodPost)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	return r
}

func (h *Web) withLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := h.logger.With("method", r.Method, "path", r.URL.Path)
		logger.Info("handling request")
		next.ServeHTTP(w, r.WithContext(log.NewContext(r.Context(), logger)))
	})
}

func (h *Web) Index(w http.ResponseWriter, r *http.Request) {
	params := page.NewParams(h.model)
	params.HasAPIKey = h.hasKey
	h.render(w, r, params)
}

func (h *Web) Generate(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContextOrDiscard(r.Context()).WithGroup("Web")

	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	label := model.Label(lo.Ternary(r.PostForm.Get("model") != "", r.PostForm.Get("model"), string(h.model)))
	apiKey := strings.TrimSpace(r.PostForm.Get("api_key"))

	params := page.NewParams(label)
	params.HasAPIKey = h.hasKey
	params.Prompt = r.PostForm.Get("prompt")
	params.Steps = formInt(r, "steps", generate.DefaultSteps)
	params.Count = formInt(r, "count", generate.DefaultCount)

	if strings.TrimSpace(params.Prompt) == "" || (apiKey == "" && !h.hasKey) {
		params.Notices = append(params.Notices, page.Notice{Level: "info", Message: hint})
		h.render(w, r, params)
		return
	}
	if apiKey == "" {
		// the configured key is looked up per request, never held on the handler
		key, err := h.params.Fetch(r.Context(), h.keyPath)
		if err != nil {
			logger.Error("fetching configured api key", "error", err)
			params.Notices = append(params.Notices, errorNotice(fmt.Errorf("%w: fetching api key: %w", generate.ErrClientSetup, err)))
			h.render(w, r, params)
			return
		}
		apiKey = key
	}

	req, err := generate.NewRequest(params.Prompt, label, params.Steps, params.Count)
	if err != nil {
		params.Notices = append(params.Notices, errorNotice(err))
		h.render(w, r, params)
		return
	}

	logger.Info("generating", "model", string(label), "steps", req.Steps, "count", req.Count)
	out, err := h.orchestrator.Run(r.Context(), h.factory, apiKey, req)
	if err != nil {
		params.Notices = append(params.Notices, errorNotice(err))
	}
	params.Notices = append(params.Notices, failureNotices(out.Failures)...)
	params.Tiles = page.Tiles(out.Images)
	h.render(w, r, params)
}

func (h *Web) render(w http.ResponseWriter, r *http.Request, params page.Params) {
	html, err := h.templator.Template(r.Context(), params)
	if err != nil {
		log.FromContextOrDiscard(r.Context()).Error("rendering page", "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(html)
}

func formInt(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(r.PostForm.Get(key)))
	return lo.Ternary(err == nil, v, fallback)
}
