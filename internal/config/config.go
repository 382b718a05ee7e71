package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

var ErrTickSecretRequired = errors.New("api.ticksecret is required in production")

type AppConfig struct {
	API      *APIConfig
	Gin      *GinConfig
	Database *DatabaseConfig
	Postgres *PostgresConfig
	MySQL    *MySQLConfig
	Lottery  *LotteryConfig

	// secrets holds the values that may be rotated while the server runs.
	secrets *Secrets
}

type APIConfig struct {
	Environment        string
	Port               string
	BaseURL            string
	AllowedCORSDomains []string
	TickSecret         string
	AdminPin           string
}

type GinConfig struct {
	Mode string
}

type DatabaseConfig struct {
	Driver string
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DB       string
	SSLMode  string
}

type MySQLConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DB       string
}

type LotteryConfig struct {
	TickParallelism int
	RoundHistory    int
}

// Secrets are the rotatable credentials guarding the trigger and admin endpoints.
type Secrets struct {
	mu         sync.RWMutex
	tickSecret string
	adminPin   string
}

func (s *Secrets) TickSecret() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tickSecret
}

func (s *Secrets) AdminPin() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.adminPin
}

func (s *Secrets) set(tickSecret, adminPin string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickSecret = tickSecret
	s.adminPin = adminPin
}

// Secrets returns the live credentials. A config built without Load starts from its API values.
func (c *AppConfig) Secrets() *Secrets {
	if c.secrets == nil {
		c.secrets = &Secrets{}
		c.secrets.set(c.API.TickSecret, c.API.AdminPin)
	}

	return c.secrets
}

func (c *AppConfig) IsProduction() bool {
	return c.API.Environment == EnvProduction
}

func (c *AppConfig) Validate() error {
	err := validation.ValidateStruct(
		c.API,
		validation.Field(&c.API.Environment, validation.Required, validation.In(EnvDevelopment, EnvTest, EnvProduction)),
		validation.Field(&c.API.Port, validation.Required, is.Port),
	)
	if err != nil {
		return fmt.Errorf("api -> %w", err)
	}

	err = validation.ValidateStruct(
		c.Database,
		validation.Field(&c.Database.Driver, validation.Required, validation.In(DriverPostgres, DriverMySQL)),
	)
	if err != nil {
		return fmt.Errorf("database -> %w", err)
	}

	if c.IsProduction() && c.API.TickSecret == "" {
		return ErrTickSecretRequired
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.environment", EnvDevelopment)
	v.SetDefault("api.port", "8080")
	v.SetDefault("api.baseurl", "localhost:8080")
	v.SetDefault("gin.mode", "debug")
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("lottery.tickparallelism", 4)
	v.SetDefault("lottery.roundhistory", 20)
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("RAFFLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	return v
}

func unmarshal(v *viper.Viper) (*AppConfig, error) {
	conf := &AppConfig{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("v.Unmarshal -> %w", err)
	}
	if conf.API == nil {
		conf.API = &APIConfig{}
	}
	if conf.Gin == nil {
		conf.Gin = &GinConfig{}
	}
	if conf.Database == nil {
		conf.Database = &DatabaseConfig{}
	}
	if conf.Postgres == nil {
		conf.Postgres = &PostgresConfig{}
	}
	if conf.MySQL == nil {
		conf.MySQL = &MySQLConfig{}
	}
	if conf.Lottery == nil {
		conf.Lottery = &LotteryConfig{}
	}

	return conf, nil
}

// Load reads the YAML file at path. Every key can be overridden by an environment variable
// such as RAFFLE_API_TICKSECRET.
func Load(path string) (*AppConfig, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("v.ReadInConfig -> %w", err)
	}

	conf, err := unmarshal(v)
	if err != nil {
		return nil, err
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	conf.secrets = &Secrets{}
	conf.secrets.set(conf.API.TickSecret, conf.API.AdminPin)

	return conf, nil
}

// Watch reloads the secrets whenever the config file changes. A reload that fails
// validation keeps the previous values.
func Watch(path string, conf *AppConfig) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		zap.L().Warn("config watch disabled", zap.String("path", path), zap.Error(err))
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}

		reloaded, err := unmarshal(v)
		if err == nil {
			reloaded.API.Environment = conf.API.Environment
			err = reloaded.Validate()
		}
		if err != nil {
			zap.L().Error("config reload rejected", zap.String("file", e.Name), zap.Error(err))
			return
		}

		conf.Secrets().set(reloaded.API.TickSecret, reloaded.API.AdminPin)
		zap.L().Info("secrets reloaded", zap.String("file", e.Name))
	})
	v.WatchConfig()
}
