package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Supported storage backends.
const (
	BackendDynamoDB = "dynamodb"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (PRODUCTS_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	Backend     string `default:"dynamodb" usage:"Product store backend: dynamodb, postgres or memory"`
	Table       string `default:"Products" usage:"DynamoDB table name (PRODUCTS_TABLE)"`
	Region      string `usage:"AWS region (defaults to AWS_REGION)"`
	Endpoint    string `usage:"DynamoDB endpoint override, e.g. http://localhost:8000 for DynamoDB Local"`
	DatabaseURL string `usage:"PostgreSQL connection URL (PRODUCTS_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"true" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from defaults, YAML config files,
// environment variables and flags, then applies platform defaults.
func LoadConfig() (*Config, error) {
	return loadConfig([]string{"config.yaml", "/etc/products/config.yaml"}, false)
}

// LoadEnvConfig is LoadConfig without command-line flags, for tools that
// parse their own.
func LoadEnvConfig() (*Config, error) {
	return loadConfig([]string{"config.yaml", "/etc/products/config.yaml"}, true)
}

func loadConfig(files []string, skipFlags bool) (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "PRODUCTS",
		SkipFlags: skipFlags,
		Files:     files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps standard environment variables set by hosting
// platforms (PORT, DATABASE_URL, AWS_REGION) onto the PRODUCTS_ configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.Region == "" {
		c.Region = os.Getenv("AWS_REGION")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

func (c *Config) validate() error {
	switch c.Backend {
	case BackendDynamoDB:
		if c.Table == "" {
			return errors.New("table name is required: set PRODUCTS_TABLE")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("database URL is required: set PRODUCTS_DATABASE_URL or DATABASE_URL")
		}
	case BackendMemory:
	default:
		return errors.Errorf("unknown backend %q", c.Backend)
	}
	return nil
}
