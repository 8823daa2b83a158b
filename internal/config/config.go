package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorageDriverMemory   = "memory"
	StorageDriverRedis    = "redis"
	StorageDriverPostgres = "postgres"
)

type HTTPServer struct {
	Addr string `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
}

// Backend describes the remote storefront REST API the core talks to.
type Backend struct {
	BaseURL            string        `yaml:"BASE_URL" env:"BACKEND_BASE_URL" env-required:"true"`
	RequestTimeout     time.Duration `yaml:"REQUEST_TIMEOUT" env:"BACKEND_REQUEST_TIMEOUT" env-default:"15s"`
	RefreshTimeout     time.Duration `yaml:"REFRESH_TIMEOUT" env:"BACKEND_REFRESH_TIMEOUT" env-default:"10s"`
	BreakerMaxFailures uint32        `yaml:"BREAKER_MAX_FAILURES" env:"BACKEND_BREAKER_MAX_FAILURES" env-default:"5"`
	BreakerOpenTimeout time.Duration `yaml:"BREAKER_OPEN_TIMEOUT" env:"BACKEND_BREAKER_OPEN_TIMEOUT" env-default:"30s"`
}

type Storage struct {
	Driver    string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"memory"`
	KeyPrefix string `yaml:"key_prefix" env:"STORAGE_KEY_PREFIX" env-default:"juicebar"`
}

type Database struct {
	Host            string        `yaml:"PG_HOST" env:"PG_HOST" env-default:"localhost"`
	Port            string        `yaml:"PG_PORT" env:"PG_PORT" env-default:"5432"`
	User            string        `yaml:"PG_USER" env:"PG_USER"`
	Password        string        `yaml:"PG_PASSWORD" env:"PG_PASSWORD"`
	Name            string        `yaml:"PG_DBNAME" env:"PG_DBNAME"`
	SSLMode         string        `yaml:"PG_SSLMODE" env:"PG_SSLMODE" env-default:"require"`
	MaxOpenConns    int           `yaml:"MAX_OPEN_CONNS" env:"PG_MAX_OPEN_CONNS" env-default:"5"`
	MaxIdleConns    int           `yaml:"MAX_IDLE_CONNS" env:"PG_MAX_IDLE_CONNS" env-default:"2"`
	ConnMaxLifetime time.Duration `yaml:"CONN_MAX_LIFETIME" env:"PG_CONN_MAX_LIFETIME" env-default:"30m"`
	ConnMaxIdleTime time.Duration `yaml:"CONN_MAX_IDLE_TIME" env:"PG_CONN_MAX_IDLE_TIME" env-default:"5m"`
}

type RedisConnect struct {
	Host     string `yaml:"REDIS_HOST" env:"REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"REDIS_PORT" env:"REDIS_PORT" env-default:"6379"`
	Username string `yaml:"REDIS_USER" env:"REDIS_USER"`
	Password string `yaml:"REDIS_PASSWORD" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"REDIS_DB" env:"REDIS_DB" env-default:"0"`
}

type Zones struct {
	// Empty means the embedded reference catalog.
	CatalogPath string `yaml:"catalog_path" env:"ZONES_CATALOG_PATH"`
}

type Cart struct {
	InstructionsMaxWords int           `yaml:"instructions_max_words" env:"CART_INSTRUCTIONS_MAX_WORDS" env-default:"30"`
	LoadTimeout          time.Duration `yaml:"load_timeout" env:"CART_LOAD_TIMEOUT" env-default:"20s"`
}

type CacheConfig struct {
	DefaultTTL time.Duration `yaml:"default_ttl" env:"CACHE_DEFAULT_TTL" env-default:"5m"`
	Size       int           `yaml:"size" env:"CACHE_SIZE" env-default:"256"`
}

type Tracing struct {
	ServiceName      string  `yaml:"SERVICE_NAME" env:"OTEL_SERVICE_NAME" env-default:"juicebar-storefront"`
	ExporterEndpoint string  `yaml:"EXPORTER_ENDPOINT" env:"OTEL_EXPORTER_ENDPOINT"`
	SamplerRatio     float64 `yaml:"SAMPLER_RATIO" env:"OTEL_SAMPLER_RATIO" env-default:"1"`
}

// LoginLimit bounds login attempts per identity over a sliding window.
type LoginLimit struct {
	MaxAttempts int           `yaml:"max_attempts" env:"LOGIN_MAX_ATTEMPTS" env-default:"5"`
	Window      time.Duration `yaml:"window" env:"LOGIN_WINDOW" env-default:"15m"`
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"*"`
}

type Config struct {
	Env          string `yaml:"env" env:"ENV" env-required:"true"`
	HTTPServer   `yaml:"http_server"`
	Backend      Backend      `yaml:"backend"`
	Storage      Storage      `yaml:"storage"`
	Database     Database     `yaml:"database"`
	RedisConnect RedisConnect `yaml:"redis"`
	Zones        Zones        `yaml:"zones"`
	Cart         Cart         `yaml:"cart"`
	Cache        CacheConfig  `yaml:"cache"`
	Tracing      Tracing      `yaml:"otel"`
	CORS         CORS         `yaml:"cors"`
	LoginLimit   LoginLimit   `yaml:"login_limit"`
}

func MustLoad() *Config {

	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {

		flags := flag.String("config", "", "gets the config flag value")

		flag.Parse()

		configPath = *flags

		if configPath == "" {
			log.Fatal("Config path is not set")
		}

	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	cfg, err := LoadConfigFromPath(configPath)
	if err != nil {
		log.Fatalf("can not read config file: %s", err.Error())
	}

	return cfg
}

// LoadConfigFromPath reads the YAML file and applies environment overrides.
func LoadConfigFromPath(configPath string) (*Config, error) {

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {

	switch c.Storage.Driver {
	case StorageDriverMemory, StorageDriverRedis:
	case StorageDriverPostgres:
		if c.Database.User == "" || c.Database.Name == "" {
			return fmt.Errorf("storage driver %q requires PG_USER and PG_DBNAME", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Cart.InstructionsMaxWords <= 0 {
		return fmt.Errorf("instructions_max_words must be positive, got %d", c.Cart.InstructionsMaxWords)
	}

	if c.LoginLimit.MaxAttempts <= 0 {
		return fmt.Errorf("login_limit.max_attempts must be positive, got %d", c.LoginLimit.MaxAttempts)
	}

	return nil
}

// UsesRedis reports whether a redis client is needed for storage or caching.
func (c *Config) UsesRedis() bool {
	return c.Storage.Driver == StorageDriverRedis
}

func (d *Database) GetDSN() string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

func (r *RedisConnect) GetDSN() string {
	return fmt.Sprintf("redis://%s:%s@%s:%s", r.Username, r.Password, r.Host, r.Port)
}
