package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config/config.yml"

type AppConfig struct {
	Port     int    `yaml:"port"`
	GinMode  string `yaml:"gin_mode"`
	LogLevel string `yaml:"log_level"`
}

type DatabaseConfig struct {
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	Debug        bool   `yaml:"debug"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer"`
	TTL    string `yaml:"ttl"`
}

type OTPConfig struct {
	Retention       string `yaml:"retention"`
	DeliveryWorkers int    `yaml:"delivery_workers"`
	DeliveryBuffer  int    `yaml:"delivery_buffer"`
}

type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type AuthConfig struct {
	AdminAccessCode string `yaml:"admin_access_code"`
	RehashLegacy    bool   `yaml:"rehash_legacy"`
}

type CasbinConfig struct {
	ModelPath string `yaml:"model_path"`
}

type ConfigFile struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	JWT      JWTConfig      `yaml:"jwt"`
	OTP      OTPConfig      `yaml:"otp"`
	Twilio   TwilioConfig   `yaml:"twilio"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Auth     AuthConfig     `yaml:"auth"`
	Casbin   CasbinConfig   `yaml:"casbin"`
}

type Config struct {
	Port            string
	GinMode         string
	LogLevel        string
	DSN             string
	DBMaxOpenConns  int
	DBDebug         bool
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	JWTSecret       string
	JWTIssuer       string
	TokenTTL        time.Duration
	OTPRetention    time.Duration
	DeliveryWorkers int
	DeliveryBuffer  int
	TwilioSID       string
	TwilioToken     string
	TwilioFrom      string
	SMTPHost        string
	SMTPPort        int
	SMTPUsername    string
	SMTPPassword    string
	SMTPFrom        string
	AdminAccessCode string
	RehashLegacy    bool
	CasbinModelPath string
}

// Load reads the YAML file named by CONFIG_PATH (default config/config.yml),
// then applies environment overrides. A .env file in the working directory
// is loaded first when present. A missing default file is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	path := os.Getenv("CONFIG_PATH")
	file := defaults()
	if err := loadConfigFile(coalesce(path, defaultConfigPath), file); err != nil {
		if path != "" || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	if err := applyEnv(file); err != nil {
		return nil, err
	}

	cfg, err := build(file)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot start with
func (c *Config) Validate() error {
	var errs []error
	if c.DSN == "" {
		errs = append(errs, errors.New("database dsn is required"))
	}
	if c.RedisAddr == "" {
		errs = append(errs, errors.New("redis addr is required"))
	}
	if c.JWTSecret == "" || c.JWTSecret == "change" {
		errs = append(errs, errors.New("jwt secret must be set"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("jwt ttl must be positive"))
	}
	if c.OTPRetention < 0 {
		errs = append(errs, errors.New("otp retention must not be negative"))
	}
	if c.DeliveryWorkers <= 0 || c.DeliveryBuffer <= 0 {
		errs = append(errs, errors.New("otp delivery workers and buffer must be positive"))
	}
	if p, err := strconv.Atoi(c.Port); err != nil || p <= 0 {
		errs = append(errs, fmt.Errorf("invalid app port %q", c.Port))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func defaults() *ConfigFile {
	return &ConfigFile{
		App:   AppConfig{Port: 8080, GinMode: "release", LogLevel: "info"},
		Redis: RedisConfig{Addr: "localhost:6379"},
		JWT:   JWTConfig{Issuer: "tradeauth", TTL: "24h"},
		OTP: OTPConfig{
			Retention:       "10m",
			DeliveryWorkers: 4,
			DeliveryBuffer:  256,
		},
		SMTP: SMTPConfig{Port: 587},
		Auth: AuthConfig{RehashLegacy: true},
	}
}

func loadConfigFile(path string, into *ConfigFile) error {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read config file at %s: %w", path, err)
	}
	if err := yaml.Unmarshal(bytes, into); err != nil {
		return fmt.Errorf("could not parse config yaml: %w", err)
	}
	return nil
}

func applyEnv(f *ConfigFile) error {
	strs := map[string]*string{
		"GIN_MODE":           &f.App.GinMode,
		"LOG_LEVEL":          &f.App.LogLevel,
		"DATABASE_DSN":       &f.Database.DSN,
		"REDIS_ADDR":         &f.Redis.Addr,
		"REDIS_PASSWORD":     &f.Redis.Password,
		"JWT_SECRET":         &f.JWT.Secret,
		"JWT_ISSUER":         &f.JWT.Issuer,
		"JWT_TTL":            &f.JWT.TTL,
		"OTP_RETENTION":      &f.OTP.Retention,
		"TWILIO_ACCOUNT_SID": &f.Twilio.AccountSID,
		"TWILIO_AUTH_TOKEN":  &f.Twilio.AuthToken,
		"TWILIO_FROM_NUMBER": &f.Twilio.FromNumber,
		"SMTP_HOST":          &f.SMTP.Host,
		"SMTP_USERNAME":      &f.SMTP.Username,
		"SMTP_PASSWORD":      &f.SMTP.Password,
		"SMTP_FROM":          &f.SMTP.From,
		"ADMIN_ACCESS_CODE":  &f.Auth.AdminAccessCode,
		"CASBIN_MODEL_PATH":  &f.Casbin.ModelPath,
	}
	for k, p := range strs {
		*p = env(k, *p)
	}

	ints := map[string]*int{
		"APP_PORT":             &f.App.Port,
		"DB_MAX_OPEN_CONNS":    &f.Database.MaxOpenConns,
		"REDIS_DB":             &f.Redis.DB,
		"OTP_DELIVERY_WORKERS": &f.OTP.DeliveryWorkers,
		"OTP_DELIVERY_BUFFER":  &f.OTP.DeliveryBuffer,
		"SMTP_PORT":            &f.SMTP.Port,
	}
	for k, p := range ints {
		v := os.Getenv(k)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", k, err)
		}
		*p = n
	}

	bools := map[string]*bool{
		"DB_DEBUG":           &f.Database.Debug,
		"AUTH_REHASH_LEGACY": &f.Auth.RehashLegacy,
	}
	for k, p := range bools {
		v := os.Getenv(k)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", k, err)
		}
		*p = b
	}
	return nil
}

func build(f *ConfigFile) (*Config, error) {
	tokenTTL, err := time.ParseDuration(f.JWT.TTL)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT TTL: %w", err)
	}
	retention, err := time.ParseDuration(f.OTP.Retention)
	if err != nil {
		return nil, fmt.Errorf("invalid OTP retention: %w", err)
	}

	return &Config{
		Port:            strconv.Itoa(f.App.Port),
		GinMode:         f.App.GinMode,
		LogLevel:        strings.ToLower(f.App.LogLevel),
		DSN:             f.Database.DSN,
		DBMaxOpenConns:  f.Database.MaxOpenConns,
		DBDebug:         f.Database.Debug,
		RedisAddr:       f.Redis.Addr,
		RedisPassword:   f.Redis.Password,
		RedisDB:         f.Redis.DB,
		JWTSecret:       f.JWT.Secret,
		JWTIssuer:       f.JWT.Issuer,
		TokenTTL:        tokenTTL,
		OTPRetention:    retention,
		DeliveryWorkers: f.OTP.DeliveryWorkers,
		DeliveryBuffer:  f.OTP.DeliveryBuffer,
		TwilioSID:       f.Twilio.AccountSID,
		TwilioToken:     f.Twilio.AuthToken,
		TwilioFrom:      f.Twilio.FromNumber,
		SMTPHost:        f.SMTP.Host,
		SMTPPort:        f.SMTP.Port,
		SMTPUsername:    f.SMTP.Username,
		SMTPPassword:    f.SMTP.Password,
		SMTPFrom:        f.SMTP.From,
		AdminAccessCode: f.Auth.AdminAccessCode,
		RehashLegacy:    f.Auth.RehashLegacy,
		CasbinModelPath: f.Casbin.ModelPath,
	}, nil
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func coalesce(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
