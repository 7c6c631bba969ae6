package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"github.com/spf13/viper"

	"github.com/dmorgan81/fluxgen/internal/image"
	"github.com/dmorgan81/fluxgen/internal/model"
)

const (
	ModeServe  = "serve"
	ModeLambda = "lambda"
)

// Config is the runtime configuration. The API key is sensitive and must not be logged.
type Config struct {
	Mode       string         `mapstructure:"mode"`
	ListenAddr string         `mapstructure:"listen_addr"`
	LogLevel   string         `mapstructure:"log_level"`
	Model      string         `mapstructure:"model"`
	Together   TogetherConfig `mapstructure:"together"`
	Publish    PublishConfig  `mapstructure:"publish"`
}

type TogetherConfig struct {
	APIKey      string `mapstructure:"api_key"`
	APIKeyParam string `mapstructure:"api_key_param"`
	BaseURL     string `mapstructure:"base_url"`
}

type PublishConfig struct {
	Bucket       string `mapstructure:"bucket"`
	Distribution string `mapstructure:"distribution"`
	Dir          string `mapstructure:"dir"`
}

type Options struct {
	ConfigFile string
	EnvFile    string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", ModeServe)
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("model", string(model.Default))
	v.SetDefault("together.api_key", "")
	v.SetDefault("together.api_key_param", "")
	v.SetDefault("together.base_url", image.DefaultTogetherURL)
	v.SetDefault("publish.bucket", "")
	v.SetDefault("publish.distribution", "")
	v.SetDefault("publish.dir", "")
}

const envPrefix = "FLUXGEN"

// envAliases are extra variables bound to a key, after the FLUXGEN_ one.
var envAliases = map[string][]string{
	"together.api_key": {"TOGETHER_API_KEY"},
}

func Load(opts Options) (*Config, error) {
	// read, not loaded: values from the env file never reach the process environment
	dotenv, err := godotenv.Read(lo.Ternary(opts.EnvFile != "", opts.EnvFile, ".env"))
	if err != nil {
		dotenv = map[string]string{}
	}
	lookup := func(name string) (string, bool) {
		if val, ok := os.LookupEnv(name); ok {
			return val, true
		}
		val, ok := dotenv[name]
		return val, ok
	}

	v := viper.New()
	setDefaults(v)

	explicitFile := false
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		explicitFile = true
	} else if cfg, _ := lookup(envPrefix + "_CONFIG_FILE"); cfg != "" {
		v.SetConfigFile(cfg)
		explicitFile = true
	}
	if !explicitFile {
		v.SetConfigName("fluxgen")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, aliases := range envAliases {
		if err := v.BindEnv(append([]string{key, envName(key)}, aliases...)...); err != nil {
			return nil, fmt.Errorf("bind env: %w", err)
		}
	}
	applyDotenv(v, dotenv)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// applyDotenv sets keys from the env file unless the process environment already
// carries one of the key's variables.
func applyDotenv(v *viper.Viper, dotenv map[string]string) {
	for _, key := range v.AllKeys() {
		names := append([]string{envName(key)}, envAliases[key]...)
		if lo.SomeBy(names, func(n string) bool { _, ok := os.LookupEnv(n); return ok }) {
			continue
		}
		for _, n := range names {
			if val, ok := dotenv[n]; ok {
				v.Set(key, val)
				break
			}
		}
	}
}

// Validate ensures required values are set.
func (c *Config) Validate() error {
	var problems []string

	switch c.Mode {
	case ModeServe:
		if c.ListenAddr == "" {
			problems = append(problems, "FLUXGEN_LISTEN_ADDR is required in serve mode")
		}
	case ModeLambda:
		if c.Publish.Bucket == "" && c.Publish.Dir == "" {
			problems = append(problems, "FLUXGEN_PUBLISH_BUCKET or FLUXGEN_PUBLISH_DIR is required in lambda mode")
		}
		if c.Together.APIKey == "" && c.Together.APIKeyParam == "" {
			problems = append(problems, "FLUXGEN_TOGETHER_API_KEY or FLUXGEN_TOGETHER_API_KEY_PARAM is required in lambda mode")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown mode %q", c.Mode))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// DefaultModel returns the configured model label, falling back when blank.
func (c *Config) DefaultModel() model.Label {
	if strings.TrimSpace(c.Model) == "" {
		return model.Default
	}
	return model.Label(c.Model)
}
