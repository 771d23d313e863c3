package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configFileEnvName = "STOREFRONT_CONFIG_FILE"
	envPrefix         = "STOREFRONT"
	defaultConfigFile = "/config.yaml"
)

const (
	CartBackendFile  = "file"
	CartBackendRedis = "redis"
)

type httpServer struct {
	Addr           string        `mapstructure:"addr"`
	HandlerTimeout time.Duration `mapstructure:"handler_timeout"`
}

type catalog struct {
	FakeStoreURL  string        `mapstructure:"fakestore_url"`
	DummyJSONURL  string        `mapstructure:"dummyjson_url"`
	FetchTimeout  time.Duration `mapstructure:"fetch_timeout"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
}

type redisCart struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type cart struct {
	Backend string    `mapstructure:"backend"`
	Key     string    `mapstructure:"key"`
	Dir     string    `mapstructure:"dir"`
	Redis   redisCart `mapstructure:"redis"`
}

type payment struct {
	SecretKey     string  `mapstructure:"secret_key"`
	WebhookSecret string  `mapstructure:"webhook_secret"`
	Currency      string  `mapstructure:"currency"`
	RateLimit     float64 `mapstructure:"rate_limit"`
	RateBurst     int     `mapstructure:"rate_burst"`
}

type topics struct {
	Payments string `mapstructure:"payments"`
}

type consumers struct {
	PaymentSaverGroup string `mapstructure:"payment_saver_group"`
}

type brokerTLS struct {
	Enabled  bool   `mapstructure:"enabled"`
	CAFile   string `mapstructure:"ca_file"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

type broker struct {
	SeedBrokers        []string  `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string  `mapstructure:"schema_registry_urls"`
	Topics             topics    `mapstructure:"topics"`
	Consumers          consumers `mapstructure:"consumers"`
	TLS                brokerTLS `mapstructure:"tls"`
}

type telemetry struct {
	ServiceName  string  `mapstructure:"service_name"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	Insecure     bool    `mapstructure:"insecure"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

type Config struct {
	LogLevel   slog.Level `mapstructure:"log_level"`
	HTTPServer httpServer `mapstructure:"http_server"`
	SQLDB      string     `mapstructure:"sql_db"`
	Catalog    catalog    `mapstructure:"catalog"`
	Cart       cart       `mapstructure:"cart"`
	Payment    payment    `mapstructure:"payment"`
	Broker     broker     `mapstructure:"broker"`
	Telemetry  telemetry  `mapstructure:"telemetry"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("http_server.addr", ":4242")
	v.SetDefault("http_server.handler_timeout", 10*time.Second)
	v.SetDefault("sql_db", "")

	v.SetDefault("catalog.fakestore_url", "https://fakestoreapi.com/products")
	v.SetDefault("catalog.dummyjson_url", "https://dummyjson.com/products")
	v.SetDefault("catalog.fetch_timeout", 10*time.Second)
	v.SetDefault("catalog.retry_attempts", 3)
	v.SetDefault("catalog.retry_delay", time.Second)

	v.SetDefault("cart.backend", CartBackendFile)
	v.SetDefault("cart.key", "cart")
	v.SetDefault("cart.dir", defaultCartDir())
	v.SetDefault("cart.redis.addr", "localhost:6379")
	v.SetDefault("cart.redis.password", "")
	v.SetDefault("cart.redis.db", 0)
	v.SetDefault("cart.redis.prefix", "storefront:")
	v.SetDefault("cart.redis.ttl", 0)

	v.SetDefault("payment.secret_key", "")
	v.SetDefault("payment.webhook_secret", "")
	v.SetDefault("payment.currency", "usd")
	v.SetDefault("payment.rate_limit", 5.0)
	v.SetDefault("payment.rate_burst", 10)

	v.SetDefault("broker.seed_brokers", []string{})
	v.SetDefault("broker.schema_registry_urls", []string{})
	v.SetDefault("broker.topics.payments", "payments")
	v.SetDefault("broker.consumers.payment_saver_group", "payment-saver")
	v.SetDefault("broker.tls.enabled", false)
	v.SetDefault("broker.tls.ca_file", "")
	v.SetDefault("broker.tls.cert_file", "")
	v.SetDefault("broker.tls.key_file", "")

	v.SetDefault("telemetry.service_name", "storefront")
	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.insecure", false)
	v.SetDefault("telemetry.sample_ratio", 1.0)
}

func defaultCartDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".storefront"
	}
	return dir + string(os.PathSeparator) + "storefront"
}

// Load reads the config file named by the STOREFRONT_CONFIG_FILE env or
// the --config flag and exits the process on failure. A missing default
// file is not an error: defaults and environment apply.
func Load() Config {
	path, explicit := getConfigFilepath()
	cfg, err := LoadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			cfg, err = LoadFile("")
		}
		if err != nil {
			die(err)
		}
	}
	return cfg
}

// LoadFile reads path, or only defaults and environment when path is
// empty.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	err := v.UnmarshalExact(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getConfigFilepath() (path string, explicit bool) {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
	cmdLine.ParseErrorsWhitelist.UnknownFlags = true
	arg := cmdLine.String("config", defaultConfigFile, "config file")
	_ = cmdLine.Parse(os.Args[1:])
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env, true
	}
	return *arg, cmdLine.Changed("config")
}

func die(err error) {
	fmt.Printf("failed to load config file: %v\n", err)
	os.Exit(2)
}

// ValidateServer reports the settings the ecom server cannot start
// without.
func (c Config) ValidateServer() error {
	var errs []error
	if c.SQLDB == "" {
		errs = append(errs, errors.New("sql_db is required"))
	}
	if c.Payment.SecretKey == "" {
		errs = append(errs, errors.New("payment.secret_key is required"))
	}
	if c.Payment.RateLimit <= 0 || c.Payment.RateBurst <= 0 {
		errs = append(errs, errors.New("payment rate limit must be positive"))
	}
	if len(c.Broker.SeedBrokers) == 0 {
		errs = append(errs, errors.New("broker.seed_brokers is required"))
	}
	if len(c.Broker.SchemaRegistryURLs) == 0 {
		errs = append(errs, errors.New("broker.schema_registry_urls is required"))
	}
	if c.Broker.Topics.Payments == "" {
		errs = append(errs, errors.New("broker.topics.payments is required"))
	}
	return errors.Join(errs...)
}

// ValidateStorefront reports the settings the terminal storefront cannot
// start without.
func (c Config) ValidateStorefront() error {
	var errs []error
	if c.Catalog.FakeStoreURL == "" || c.Catalog.DummyJSONURL == "" {
		errs = append(errs, errors.New("catalog source urls are required"))
	}
	if c.Catalog.FetchTimeout <= 0 {
		errs = append(errs, errors.New("catalog.fetch_timeout must be positive"))
	}
	if c.Catalog.RetryAttempts < 1 {
		errs = append(errs, errors.New("catalog.retry_attempts must be at least 1"))
	}
	switch c.Cart.Backend {
	case CartBackendFile:
		if c.Cart.Dir == "" {
			errs = append(errs, errors.New("cart.dir is required"))
		}
	case CartBackendRedis:
		if c.Cart.Redis.Addr == "" {
			errs = append(errs, errors.New("cart.redis.addr is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cart.backend %q", c.Cart.Backend))
	}
	if c.Cart.Key == "" {
		errs = append(errs, errors.New("cart.key is required"))
	}
	return errors.Join(errs...)
}

func (c Config) Print() {
	c.Fprint(os.Stdout)
}

// Fprint writes the config with secrets masked.
func (c Config) Fprint(w io.Writer) {
	tamplate := `
	General:
	LogLevel=%q
	HTTPServerAddr=%q
	HandlerTimeout=%q
	SQLDB=%q

	Catalog:
	FakeStoreURL=%q
	DummyJSONURL=%q
	FetchTimeout=%q
	RetryAttempts=%d

	Cart:
	Backend=%q
	Key=%q
	Dir=%q
	RedisAddr=%q

	Payment:
	SecretKey=%q
	WebhookSecret=%q
	Currency=%q
	RateLimit=%v
	RateBurst=%d

	BrokerConfig:
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	Topics:
		Payments=%q
	Consumers:
		PaymentSaverGroup=%q
	TLS=%t

	Telemetry:
	OTLPEndpoint=%q

`
	fmt.Fprintln(w, "Loaded config:")
	fmt.Fprintf(
		w,
		strings.TrimLeft(tamplate, "\n"),
		c.LogLevel,
		c.HTTPServer.Addr,
		c.HTTPServer.HandlerTimeout,
		mask(c.SQLDB),
		c.Catalog.FakeStoreURL,
		c.Catalog.DummyJSONURL,
		c.Catalog.FetchTimeout,
		c.Catalog.RetryAttempts,
		c.Cart.Backend,
		c.Cart.Key,
		c.Cart.Dir,
		c.Cart.Redis.Addr,
		mask(c.Payment.SecretKey),
		mask(c.Payment.WebhookSecret),
		c.Payment.Currency,
		c.Payment.RateLimit,
		c.Payment.RateBurst,
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.Topics.Payments,
		c.Broker.Consumers.PaymentSaverGroup,
		c.Broker.TLS.Enabled,
		c.Telemetry.OTLPEndpoint,
	)
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "******"
}
