package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/petalert/internal/logger"
	"github.com/nkiryanov/petalert/internal/service/password"
	"github.com/nkiryanov/petalert/internal/service/session"
)

// Storage backends
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

const (
	defaultListenAddr   = "localhost:8000"
	defaultLoggingLevel = logger.LevelInfo
	defaultEnvironment  = logger.EnvProduction
	defaultStorage      = StoragePostgres
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the petalert service will be run
	ListenAddr string

	// Dedicated address for /metrics; empty means metrics are served by the main listener only
	MetricsAddr string

	// Database to connect to, required for postgres storage
	DatabaseDSN string

	// Where users, sessions, alerts and messages live: postgres or memory
	Storage string

	// Environment
	Environment string

	// Sliding session window
	SessionWindow time.Duration

	// Digest that turns token seeds into token values
	TokenDigest string

	// How passwords are stored: plain or bcrypt
	PasswordHashing string

	// Renew expired sessions on gated requests instead of refusing them
	GraceRenewal bool
}

func NewConfig() *Config {
	return &Config{
		LogLevel:        defaultLoggingLevel,
		ListenAddr:      defaultListenAddr,
		Storage:         defaultStorage,
		Environment:     defaultEnvironment,
		SessionWindow:   session.DefaultWindow,
		TokenDigest:     session.DefaultDigest,
		PasswordHashing: password.ModePlain,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(func(key string) string {
			return envMap[key]
		})
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) error {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = value
			}
			return nil
		}
	}
	setDuration := func(o *time.Duration) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			*o = d
			return nil
		}
	}
	setBool := func(o *bool) func(value string) error {
		return func(value string) error {
			switch value {
			case "":
			case "1", "true", "TRUE", "True":
				*o = true
			case "0", "false", "FALSE", "False":
				*o = false
			default:
				return fmt.Errorf("not a boolean: %q", value)
			}
			return nil
		}
	}

	envMap := map[string]func(string) error{
		"RUN_ADDRESS":      setString(&c.ListenAddr),
		"METRICS_ADDRESS":  setString(&c.MetricsAddr),
		"DATABASE_URI":     setString(&c.DatabaseDSN),
		"STORAGE":          setString(&c.Storage),
		"LOG_LEVEL":        setString(&c.LogLevel),
		"ENVIRONMENT":      setString(&c.Environment),
		"SESSION_WINDOW":   setDuration(&c.SessionWindow),
		"TOKEN_DIGEST":     setString(&c.TokenDigest),
		"PASSWORD_HASHING": setString(&c.PasswordHashing),
		"GRACE_RENEWAL":    setBool(&c.GraceRenewal),
	}

	for key, parseFn := range envMap {
		if err := parseFn(getenv(key)); err != nil {
			return fmt.Errorf("env %s: %w", key, err)
		}
	}

	return nil
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("petalert", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVar(&c.MetricsAddr, "metrics-address", c.MetricsAddr, "Dedicated metrics listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVar(&c.Storage, "storage", c.Storage, "Storage backend (postgres, memory)")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (development, production)")
	fs.DurationVarP(&c.SessionWindow, "session-window", "w", c.SessionWindow, "Sliding session window")
	fs.StringVar(&c.TokenDigest, "token-digest", c.TokenDigest, "Token digest (md5, sha1, sha256)")
	fs.StringVar(&c.PasswordHashing, "password-hashing", c.PasswordHashing, "Password storage (plain, bcrypt)")
	fs.BoolVar(&c.GraceRenewal, "grace-renewal", c.GraceRenewal, "Renew expired sessions on gated requests")

	return fs.Parse(args)
}

// Validate reports the first option the app can't start with
func (c *Config) Validate() error {
	switch c.Storage {
	case StoragePostgres:
		if c.DatabaseDSN == "" {
			return errors.New("database DSN is required for postgres storage")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown storage %q", c.Storage)
	}

	if c.SessionWindow <= 0 {
		return fmt.Errorf("session window must be positive, got %s", c.SessionWindow)
	}
	if !session.KnownDigest(c.TokenDigest) {
		return fmt.Errorf("unknown token digest %q", c.TokenDigest)
	}
	if _, err := password.New(c.PasswordHashing); err != nil {
		return err
	}

	return nil
}
