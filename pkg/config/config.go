package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the full application configuration, loaded from YAML with
// env-var overrides on top. Zero-valued fields are filled from the
// `default` tags, then the whole struct is validated.
type Config struct {
	Environment string `yaml:"environment" default:"production"`

	Logging struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logging"`

	// Server is the ops endpoint (/healthz, /metrics) kept up while a
	// scraping run is in flight.
	Server struct {
		Enabled         bool          `yaml:"enabled"`
		Port            int           `yaml:"port" default:"8080" validate:"gt=0,lt=65536"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`

	Scrape struct {
		Targets []string `yaml:"targets"`
		Sinks   []string `yaml:"sinks" default:"[\"csv\"]"`

		// Delay is a fixed pause between requests; RateLimit caps
		// requests per second. Either may be zero.
		Delay     time.Duration `yaml:"delay"`
		RateLimit float64       `yaml:"rate_limit" validate:"gte=0"`

		// URLsLimit truncates the segment sequence; negative means
		// no limit.
		URLsLimit int `yaml:"urls_limit" default:"-1"`

		RandomizeOrder  bool   `yaml:"randomize_order"`
		Seed            int64  `yaml:"seed" default:"42"`
		RotateUserAgent bool   `yaml:"rotate_user_agent"`
		Proxy           string `yaml:"proxy"`

		RequestTimeout time.Duration `yaml:"request_timeout" default:"30s"`
	} `yaml:"scrape"`

	Segments struct {
		LTVGranularity float64 `yaml:"ltv_granularity" default:"0.01" validate:"gt=0,lte=0.5"`

		// LoanVolumeBins is a "[start, stop, step]" range expression
		// overriding the built-in volume axis when non-empty.
		LoanVolumeBins string `yaml:"loan_volume_bins"`
	} `yaml:"segments"`

	Providers struct {
		SBAB struct {
			BaseURL string `yaml:"base_url" default:"https://www.sbab.se/www-open-rest-api" validate:"url"`
		} `yaml:"sbab"`
		ICA struct {
			BaseURL  string        `yaml:"base_url" default:"https://www.icabanken.se/api" validate:"url"`
			RatesURL string        `yaml:"rates_url" default:"https://apimgw-pub.ica.se/t/public.tenant/ica/bank/ac39/mortgage/1.0.0/interestproposal_v2_0" validate:"url"`
			Periods  []int         `yaml:"periods" default:"[3,12,36,60]"`
			TokenTTL time.Duration `yaml:"token_ttl" default:"2m"`
		} `yaml:"ica"`
		Hypoteket struct {
			BaseURL string `yaml:"base_url" default:"https://api.hypoteket.com/api/v1" validate:"url"`
		} `yaml:"hypoteket"`
		Skandia struct {
			BaseURL      string `yaml:"base_url" default:"https://www.skandia.se/epi-api" validate:"url"`
			DiscountsURL string `yaml:"discounts_url" default:"https://www.skandia.se/papi/mortgage/v2.0/discounts" validate:"url"`
		} `yaml:"skandia"`
	} `yaml:"providers"`

	CSV struct {
		DataDir string `yaml:"data_dir" default:"data"`
	} `yaml:"csv"`

	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic" default:"mortgage.pricing"`
		RequiredAcks int           `yaml:"required_acks" default:"-1"`
		Compression  string        `yaml:"compression" default:"gzip"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"kafka"`
}

// Load reads and parses a YAML configuration file, applies defaults and
// validates the result. An empty path yields a default configuration.
func Load(path string) (*Config, error) {
	var c Config

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment
// variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("RATEPULL_TARGETS"); v != "" {
		c.Scrape.Targets = strings.Split(v, ",")
	}
	if v := os.Getenv("RATEPULL_SINKS"); v != "" {
		c.Scrape.Sinks = strings.Split(v, ",")
	}
	if v := os.Getenv("RATEPULL_DATA_DIR"); v != "" {
		c.CSV.DataDir = v
	}
	if v := os.Getenv("RATEPULL_PROXY"); v != "" {
		c.Scrape.Proxy = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("RATEPULL_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("RATEPULL_SEED: %w", err)
		}
		c.Scrape.Seed = seed
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// Validate checks the configuration against its struct tags plus the
// cross-field rules the tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers are required when the kafka sink is enabled")
	}
	for _, p := range c.Providers.ICA.Periods {
		if p <= 0 {
			return fmt.Errorf("ica.periods must be positive month counts, got %d", p)
		}
	}
	return nil
}
