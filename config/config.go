// Package config loads the runtime settings for the zeen server:
// per environment defaults, an optional YAML file, a .env file,
// environment variables and finally command-line flags.
package config

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const (
	EnvDevelopment = "development"
	EnvTesting     = "testing"
	EnvProduction  = "production"
)

// Config holds runtime settings. The getters satisfy zeen.Config.
type Config struct {
	Env         string      `yaml:"env" json:"env"`
	App         App         `yaml:"app" json:"app"`
	Auth        Auth        `yaml:"auth" json:"auth"`
	Persistence Persistence `yaml:"persistence" json:"persistence"`
	Mail        Mail        `yaml:"mail" json:"mail"`
	Pagination  Pagination  `yaml:"pagination" json:"pagination"`
}

type App struct {
	Name     string `yaml:"name" json:"name"`
	Addr     string `yaml:"addr" json:"addr"`
	BaseURL  string `yaml:"base_url" json:"base_url"`
	LogLevel string `yaml:"log_level" json:"log_level"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type Auth struct {
	SecretKey             string `yaml:"secret_key" json:"-"`
	Issuer                string `yaml:"issuer" json:"issuer"`
	AdminEmail            string `yaml:"admin_email" json:"admin_email"`
	TokenExpiration       int    `yaml:"token_expiration" json:"token_expiration"`
	ExtendedTokenDuration int    `yaml:"extended_token_duration" json:"extended_token_duration"`
	ActionTokenExpiration int    `yaml:"action_token_expiration" json:"action_token_expiration"`
}

type Persistence struct {
	Driver  string `yaml:"driver" json:"driver"`
	DSN     string `yaml:"dsn" json:"-"`
	Migrate bool   `yaml:"migrate" json:"migrate"`
}

type Mail struct {
	SubjectPrefix string `yaml:"subject_prefix" json:"subject_prefix"`
	Sender        string `yaml:"sender" json:"sender"`
}

type Pagination struct {
	PostsPerPage     int `yaml:"posts_per_page" json:"posts_per_page"`
	FollowersPerPage int `yaml:"followers_per_page" json:"followers_per_page"`
}

func (c *Config) GetSigningKey() string         { return c.Auth.SecretKey }
func (c *Config) GetIssuer() string             { return c.Auth.Issuer }
func (c *Config) GetTokenExpiration() int       { return c.Auth.TokenExpiration }
func (c *Config) GetExtendedTokenDuration() int { return c.Auth.ExtendedTokenDuration }
func (c *Config) GetActionTokenExpiration() int { return c.Auth.ActionTokenExpiration }
func (c *Config) GetAdminEmail() string         { return c.Auth.AdminEmail }

// IsProduction reports whether Env is production
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Validate checks the resolved configuration
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Env, validation.Required, validation.In(EnvDevelopment, EnvTesting, EnvProduction)),
	); err != nil {
		return err
	}

	if err := validation.ValidateStruct(&c.App,
		validation.Field(&c.App.Addr, validation.Required),
		validation.Field(&c.App.LogLevel, validation.In("trace", "debug", "info", "warn", "error", "critical", "off")),
	); err != nil {
		return err
	}

	secretRules := []validation.Rule{validation.Required}
	if c.IsProduction() {
		secretRules = append(secretRules, validation.Length(32, 0), validation.By(func(value interface{}) error {
			if value == defaultSecretKey {
				return errors.New("must not use the development secret key")
			}
			return nil
		}))
	}

	if err := validation.ValidateStruct(&c.Auth,
		validation.Field(&c.Auth.SecretKey, secretRules...),
		validation.Field(&c.Auth.AdminEmail, is.Email),
		validation.Field(&c.Auth.TokenExpiration, validation.Min(1)),
		validation.Field(&c.Auth.ActionTokenExpiration, validation.Min(1)),
	); err != nil {
		return err
	}

	if err := validation.ValidateStruct(&c.Persistence,
		validation.Field(&c.Persistence.Driver, validation.Required, validation.In("sqlite", "postgres")),
		validation.Field(&c.Persistence.DSN, validation.Required),
	); err != nil {
		return err
	}

	return validation.ValidateStruct(&c.Pagination,
		validation.Field(&c.Pagination.PostsPerPage, validation.Min(1), validation.Max(100)),
		validation.Field(&c.Pagination.FollowersPerPage, validation.Min(1), validation.Max(100)),
	)
}

func normalizeEnv(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "prod", EnvProduction:
		return EnvProduction
	case "test", EnvTesting:
		return EnvTesting
	case "", "dev", EnvDevelopment:
		return EnvDevelopment
	default:
		return strings.ToLower(strings.TrimSpace(env))
	}
}
