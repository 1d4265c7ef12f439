package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig holds the configuration for the application.
// Tags used:
// - mapstructure: used by viper to unmarshal
// - default: default value to set if missing
// - required: if "true", error if missing
type AppConfig struct {
	// Environment specifies the runtime environment (e.g., development, production).
	Environment string `mapstructure:"APP_ENV" default:"development"`
	// LogLevel defines the logging verbosity (e.g., debug, info, error).
	LogLevel string `mapstructure:"LOG_LEVEL" default:"info"`
	// LogFile enables a rotating file sink when set.
	LogFile string `mapstructure:"LOG_FILE"`
	// ServerPort is the port where the server will listen.
	ServerPort int `mapstructure:"SERVER_PORT" default:"8080"`

	// Storage holds cache and database settings.
	Storage StorageConfig `mapstructure:",squash"`

	// Layers holds the fallback data source settings.
	Layers LayersConfig `mapstructure:",squash"`

	// Carriers holds per-carrier endpoints used by the scrapers.
	Carriers CarriersConfig `mapstructure:",squash"`

	// Browser holds headless browser settings.
	Browser BrowserConfig `mapstructure:",squash"`

	// Proxy holds the optional outbound proxy.
	Proxy ProxyConfig `mapstructure:",squash"`

	// Messaging holds the Kafka settings for resolved result events.
	Messaging MessagingConfig `mapstructure:",squash"`

	// Refresh holds the stale result refresher settings.
	Refresh RefreshConfig `mapstructure:",squash"`
}

// StorageConfig holds Redis and Postgres connection details.
type StorageConfig struct {
	// RedisURL is the Redis connection string. Empty disables the Redis cache.
	RedisURL string `mapstructure:"REDIS_URL"`
	// DatabaseURL is the Postgres DSN. Empty disables persistent storage.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// CacheTTLSeconds is how long a resolved result stays fresh.
	CacheTTLSeconds int `mapstructure:"CACHE_TTL_SECONDS" default:"7200" required:"true"`
	// ScrapeRateLimitPerMinute caps scraper calls per carrier. Zero disables the limit.
	ScrapeRateLimitPerMinute int `mapstructure:"SCRAPE_RATE_LIMIT_PER_MINUTE" default:"0"`
}

// LayersConfig holds the secondary aggregator and vendor API settings.
type LayersConfig struct {
	// SecondaryAPIURL is the base URL of the secondary aggregator.
	SecondaryAPIURL string `mapstructure:"SECONDARY_API_URL"`
	// SecondaryAPIKey is the aggregator API key.
	SecondaryAPIKey string `mapstructure:"SECONDARY_API_KEY"`
	// VendorAPIURL is the base URL of the paid vendor API.
	VendorAPIURL string `mapstructure:"VENDOR_API_URL" default:"https://api.shipsgo.com/v2"`
	// VendorAPIKey is the vendor bearer token. Checked when the vendor is called.
	VendorAPIKey string `mapstructure:"VENDOR_API_KEY"`
}

// CarriersConfig holds carrier tracking endpoints.
type CarriersConfig struct {
	// MSCURL is the MSC track page.
	MSCURL string `mapstructure:"CARRIER_MSC_URL" default:"https://www.msc.com/en/track-a-shipment"`
	// ONEURL is the Ocean Network Express track page.
	ONEURL string `mapstructure:"CARRIER_ONE_URL" default:"https://ecomm.one-line.com/one-ecom/manage-shipment/cargo-tracking"`
	// MaerskAPIURL is the Maersk track API.
	MaerskAPIURL string `mapstructure:"CARRIER_MAERSK_API_URL" default:"https://api.maersk.com/track"`
	// MaerskAPIKey is the Maersk consumer key.
	MaerskAPIKey string `mapstructure:"CARRIER_MAERSK_API_KEY"`
	// HapagAPIURL is the Hapag-Lloyd track API.
	HapagAPIURL string `mapstructure:"CARRIER_HAPAG_API_URL" default:"https://api.hlag.com/hlag/external/v2/events"`
	// HapagAPIKey is the Hapag-Lloyd client key.
	HapagAPIKey string `mapstructure:"CARRIER_HAPAG_API_KEY"`
	// EvergreenURL is the Evergreen ShipmentLink query page.
	EvergreenURL string `mapstructure:"CARRIER_EVERGREEN_URL" default:"https://ct.shipmentlink.com/servlet/TDB1_CargoTracking.do"`
}

// BrowserConfig holds headless browser settings.
type BrowserConfig struct {
	// Headless runs Chromium without a window.
	Headless bool `mapstructure:"BROWSER_HEADLESS" default:"true"`
	// Bin is an optional Chromium binary path.
	Bin string `mapstructure:"BROWSER_BIN"`
}

// ProxyConfig holds the optional outbound proxy used by scrapers.
type ProxyConfig struct {
	// Enabled turns the proxy on.
	Enabled bool `mapstructure:"PROXY_ENABLED" default:"false"`
	// Hostname is the proxy host.
	Hostname string `mapstructure:"PROXY_HOSTNAME"`
	// Port is the proxy port.
	Port int `mapstructure:"PROXY_PORT"`
	// Username is the proxy user.
	Username string `mapstructure:"PROXY_USERNAME"`
	// Password is the proxy password.
	Password string `mapstructure:"PROXY_PASSWORD"`
}

// MessagingConfig holds Kafka settings.
type MessagingConfig struct {
	// KafkaBrokers is a comma separated broker list. Empty disables publishing.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// KafkaTopic receives resolved tracking results.
	KafkaTopic string `mapstructure:"KAFKA_TOPIC" default:"tracking.resolved"`
}

// RefreshConfig holds the stale result refresher settings.
type RefreshConfig struct {
	// Schedule is a cron expression. Empty disables the refresher.
	Schedule string `mapstructure:"REFRESH_SCHEDULE" default:"*/30 * * * *"`
	// BatchSize caps how many results one run re-resolves.
	BatchSize int `mapstructure:"REFRESH_BATCH_SIZE" default:"50"`
}

// CacheTTL returns the cache TTL as a duration.
func (c *AppConfig) CacheTTL() time.Duration {
	return time.Duration(c.Storage.CacheTTLSeconds) * time.Second
}

// BrokerList splits KafkaBrokers into addresses.
func (c *AppConfig) BrokerList() []string {
	var out []string
	for _, b := range strings.Split(c.Messaging.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// Load loads configuration from .env files and environment variables.
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.AutomaticEnv()

	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config AppConfig

	if err := processTags(v, &config); err != nil {
		return nil, err
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := validateRequired(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// processTags iterates over the struct fields and sets default values in Viper.
func processTags(v *viper.Viper, config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := processTags(v, val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		key := field.Tag.Get("mapstructure")
		defaultValue := field.Tag.Get("default")

		if key != "" {
			v.BindEnv(key)
		}

		if key != "" && defaultValue != "" {
			v.SetDefault(key, defaultValue)
		}
	}
	return nil
}

// validateRequired checks if fields marked as required have non-zero values.
func validateRequired(config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := validateRequired(val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		required := field.Tag.Get("required")
		if required == "true" {
			value := val.Field(i)
			if isZero(value) {
				key := field.Tag.Get("mapstructure")
				return fmt.Errorf("missing required configuration: %s", key)
			}
		}
	}
	return nil
}

// isZero checks if a reflect.Value is the zero value for its type.
func isZero(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return v.String() == ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	default:
		return v.IsZero()
	}
}
