package image

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dmorgan81/fluxgen/internal/log"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
)

const DefaultTogetherURL = "https://api.together.xyz/v1"

var ErrMissingKey = errors.New("together: api key required")

type TogetherOptions struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// TogetherGenerator talks to the OpenAI-compatible images endpoint of api.together.xyz.
type TogetherGenerator struct {
	client openai.Client
}

func NewTogetherGenerator(opts TogetherOptions) (*TogetherGenerator, error) {
	key := strings.TrimSpace(opts.APIKey)
	if key == "" {
		return nil, ErrMissingKey
	}
	baseURL := strings.TrimSpace(opts.BaseURL)
	if baseURL == "" {
		baseURL = DefaultTogetherURL
	}

	requestOpts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithBaseURL(strings.TrimRight(baseURL, "/")),
		option.WithMaxRetries(0),
		// set by the SDK from OPENAI_ORG_ID and OPENAI_PROJECT_ID
		option.WithHeaderDel("OpenAI-Organization"),
		option.WithHeaderDel("OpenAI-Project"),
	}
	if opts.HTTPClient != nil {
		requestOpts = append(requestOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	return &TogetherGenerator{client: openai.NewClient(requestOpts...)}, nil
}

// NewTogetherFactory returns a GeneratorFactory that shares baseURL and client across runs.
func NewTogetherFactory(baseURL string, client *http.Client) GeneratorFactory {
	return func(apiKey string) (Generator, error) {
		return NewTogetherGenerator(TogetherOptions{APIKey: apiKey, BaseURL: baseURL, HTTPClient: client})
	}
}

func (g *TogetherGenerator) Generate(ctx context.Context, params Params) ([]Descriptor, error) {
	logger := log.FromContextOrDiscard(ctx).WithGroup("together").With("model", params.Model, "steps", params.Steps, "n", params.N)
	logger.Info("generating images via api.together.xyz")

	req := openai.ImageGenerateParams{
		Model:  openai.ImageModel(params.Model),
		Prompt: params.Prompt,
	}
	if params.N > 0 {
		req.N = param.NewOpt(int64(params.N))
	}

	resp, err := g.client.Images.Generate(ctx, req, option.WithJSONSet("steps", params.Steps))
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			logger.Warn("generation rejected", "status", apiErr.StatusCode)
		}
		return nil, err
	}

	descriptors := make([]Descriptor, 0, len(resp.Data))
	for i, d := range resp.Data {
		descriptors = append(descriptors, Descriptor{Index: i, URL: d.URL})
	}
	logger.Info("received image descriptors", "count", len(descriptors))
	return descriptors, nil
}
