package inject

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/dmorgan81/fluxgen/internal/config"
	"github.com/dmorgan81/fluxgen/internal/generate"
	"github.com/dmorgan81/fluxgen/internal/handler"
	"github.com/dmorgan81/fluxgen/internal/image"
	"github.com/dmorgan81/fluxgen/internal/log"
	"github.com/dmorgan81/fluxgen/internal/model"
	"github.com/dmorgan81/fluxgen/internal/page"
	"github.com/dmorgan81/fluxgen/internal/param"
	"github.com/dmorgan81/fluxgen/internal/store"
	"github.com/samber/do"
)

// staticKeyPath names the configured API key inside a param.StaticFetcher.
const staticKeyPath = "together.api_key"

func Setup(ctx context.Context, cfg *config.Config) *do.Injector {
	logger := log.FromContextOrDiscard(ctx)

	injector := do.NewWithOpts(&do.InjectorOpts{
		Logf: func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...))
		},
	})
	do.ProvideValue[*config.Config](injector, cfg)
	do.ProvideValue[*slog.Logger](injector, logger)

	do.Provide[aws.Config](injector, func(i *do.Injector) (aws.Config, error) {
		return awsconfig.LoadDefaultConfig(ctx)
	})
	do.Provide[*ssm.Client](injector, func(i *do.Injector) (*ssm.Client, error) {
		return ssm.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})
	do.Provide[*s3.Client](injector, func(i *do.Injector) (*s3.Client, error) {
		return s3.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})
	do.Provide[*cloudfront.Client](injector, func(i *do.Injector) (*cloudfront.Client, error) {
		return cloudfront.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})
	do.ProvideValue[*http.Client](injector, http.DefaultClient)

	do.Provide[image.GeneratorFactory](injector, func(i *do.Injector) (image.GeneratorFactory, error) {
		return image.NewTogetherFactory(cfg.Together.BaseURL, do.MustInvoke[*http.Client](i)), nil
	})
	do.Provide[*generate.Orchestrator](injector, func(i *do.Injector) (*generate.Orchestrator, error) {
		return generate.NewOrchestrator(image.NewFetcher(do.MustInvoke[*http.Client](i))), nil
	})
	do.Provide[*page.Templator](injector, page.NewTemplator)

	do.Provide[param.Fetcher](injector, func(i *do.Injector) (param.Fetcher, error) {
		if cfg.Together.APIKeyParam != "" {
			return param.NewParameterStoreFetcher(i)
		}
		return param.StaticFetcher{staticKeyPath: cfg.Together.APIKey}, nil
	})
	do.Provide[store.Uploader](injector, func(i *do.Injector) (store.Uploader, error) {
		if cfg.Publish.Bucket != "" {
			return store.NewS3Uploader(i)
		}
		return &store.FileUploader{Dir: cfg.Publish.Dir}, nil
	})
	do.Provide[store.Invalidator](injector, func(i *do.Injector) (store.Invalidator, error) {
		if cfg.Publish.Distribution != "" {
			return store.NewCloudFrontInvalidator(i)
		}
		return store.NopInvalidator{}, nil
	})

	do.ProvideNamedValue[bool](injector, "together_key_configured", cfg.Together.APIKey != "" || cfg.Together.APIKeyParam != "")
	do.ProvideNamedValue[string](injector, "together_key_path", keyPath(cfg))
	do.ProvideNamedValue[model.Label](injector, "default_model", cfg.DefaultModel())
	do.ProvideNamedValue[string](injector, "bucket", cfg.Publish.Bucket)
	do.ProvideNamedValue[string](injector, "distribution", cfg.Publish.Distribution)

	do.Provide[*handler.Web](injector, handler.NewWeb)
	do.Provide[*handler.Lambda](injector, handler.NewLambda)

	return injector
}

func keyPath(cfg *config.Config) string {
	if cfg.Together.APIKeyParam != "" {
		return cfg.Together.APIKeyParam
	}
	return staticKeyPath
}
