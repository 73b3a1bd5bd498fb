package main

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/andrekirst/familyauth/internal/logger"
	"github.com/andrekirst/familyauth/internal/service/password"
)

const (
	defaultListenAddr   = "localhost:8000"
	defaultLoggingLevel = logger.LevelInfo
	defaultEnvironment  = logger.EnvProduction
	defaultIssuer       = "familyauth"
	defaultAudience     = "familyauth"

	defaultAccessTokenTTL    = 15 * time.Minute
	defaultRefreshTokenTTL   = 30 * 24 * time.Hour
	defaultMaxFailedAttempts = 5
	defaultLockoutDuration   = 15 * time.Minute
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the auth service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Secret key
	// Access tokens are signed symmetrically, so this key is used for that purpose
	SecretKey string

	// Environment
	Environment string

	// Issuer and audience claims stamped on access tokens
	TokenIssuer   string
	TokenAudience string

	// Token lifetimes
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// Lockout policy
	MaxFailedAttempts int
	LockoutDuration   time.Duration

	// Password strength requirements
	PasswordPolicy password.PolicyConfig
}

func NewConfig() *Config {
	return &Config{
		LogLevel:          defaultLoggingLevel,
		ListenAddr:        defaultListenAddr,
		Environment:       defaultEnvironment,
		TokenIssuer:       defaultIssuer,
		TokenAudience:     defaultAudience,
		AccessTokenTTL:    defaultAccessTokenTTL,
		RefreshTokenTTL:   defaultRefreshTokenTTL,
		MaxFailedAttempts: defaultMaxFailedAttempts,
		LockoutDuration:   defaultLockoutDuration,
		PasswordPolicy:    password.DefaultPolicyConfig(),
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
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty and parses
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}
	setDuration := func(o *time.Duration) func(value string) {
		return func(value string) {
			if d, err := time.ParseDuration(value); err == nil {
				*o = d
			}
		}
	}
	setInt := func(o *int) func(value string) {
		return func(value string) {
			if n, err := strconv.Atoi(value); err == nil {
				*o = n
			}
		}
	}
	setBool := func(o *bool) func(value string) {
		return func(value string) {
			if b, err := strconv.ParseBool(value); err == nil {
				*o = b
			}
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":         setString(&c.ListenAddr),
		"DATABASE_URI":        setString(&c.DatabaseDSN),
		"SECRET_KEY":          setString(&c.SecretKey),
		"LOG_LEVEL":           setString(&c.LogLevel),
		"ENVIRONMENT":         setString(&c.Environment),
		"TOKEN_ISSUER":        setString(&c.TokenIssuer),
		"TOKEN_AUDIENCE":      setString(&c.TokenAudience),
		"ACCESS_TOKEN_TTL":    setDuration(&c.AccessTokenTTL),
		"REFRESH_TOKEN_TTL":   setDuration(&c.RefreshTokenTTL),
		"MAX_FAILED_ATTEMPTS": setInt(&c.MaxFailedAttempts),
		"LOCKOUT_DURATION":    setDuration(&c.LockoutDuration),

		"PASSWORD_MIN_LENGTH":        setInt(&c.PasswordPolicy.MinimumLength),
		"PASSWORD_REQUIRE_UPPERCASE": setBool(&c.PasswordPolicy.RequireUppercase),
		"PASSWORD_REQUIRE_LOWERCASE": setBool(&c.PasswordPolicy.RequireLowercase),
		"PASSWORD_REQUIRE_DIGIT":     setBool(&c.PasswordPolicy.RequireDigit),
		"PASSWORD_REQUIRE_SPECIAL":   setBool(&c.PasswordPolicy.RequireSpecialCharacter),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("familyauth", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")
	fs.StringVar(&c.TokenIssuer, "issuer", c.TokenIssuer, "Issuer claim for access tokens")
	fs.StringVar(&c.TokenAudience, "audience", c.TokenAudience, "Audience claim for access tokens")
	fs.DurationVar(&c.AccessTokenTTL, "access-ttl", c.AccessTokenTTL, "Access token lifetime")
	fs.DurationVar(&c.RefreshTokenTTL, "refresh-ttl", c.RefreshTokenTTL, "Refresh token lifetime")
	fs.IntVar(&c.MaxFailedAttempts, "max-failed-attempts", c.MaxFailedAttempts, "Failed logins before lockout")
	fs.DurationVar(&c.LockoutDuration, "lockout-duration", c.LockoutDuration, "How long a lockout lasts")
	fs.IntVar(&c.PasswordPolicy.MinimumLength, "password-min-length", c.PasswordPolicy.MinimumLength, "Minimum password length")
	fs.BoolVar(&c.PasswordPolicy.RequireUppercase, "password-require-uppercase", c.PasswordPolicy.RequireUppercase, "Require an uppercase letter in passwords")
	fs.BoolVar(&c.PasswordPolicy.RequireLowercase, "password-require-lowercase", c.PasswordPolicy.RequireLowercase, "Require a lowercase letter in passwords")
	fs.BoolVar(&c.PasswordPolicy.RequireDigit, "password-require-digit", c.PasswordPolicy.RequireDigit, "Require a digit in passwords")
	fs.BoolVar(&c.PasswordPolicy.RequireSpecialCharacter, "password-require-special", c.PasswordPolicy.RequireSpecialCharacter, "Require a special character in passwords")

	return fs.Parse(args)
}
