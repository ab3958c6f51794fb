package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/joho/godotenv"
)

const EnvProduction = "production"

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

type Config struct {
	App      AppConfig
	HTTP     ServerConfig
	GRPC     ServerConfig
	MySQL    MySQLConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Tokens   TokenConfig
	Password PasswordConfig
	SMTP     SMTPConfig
	Cookie   CookieConfig
	Media    MediaConfig
	Purge    PurgeConfig
	Log      LogConfig
}

type AppConfig struct {
	Env              string
	FrontendHost     string
	CORSAllowOrigins []string
	// TrustedProxies lists the CIDR ranges whose X-Forwarded-For header is
	// believed. Empty means the socket peer address is the client address.
	TrustedProxies []string
}

func (a AppConfig) IsProduction() bool {
	return a.Env == EnvProduction
}

type ServerConfig struct {
	Host string
	Port string
}

type MySQLConfig struct {
	DSN string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	AccessSecret    string
	RefreshSecret   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type TokenConfig struct {
	OTPTTL   time.Duration
	ResetTTL time.Duration
}

type PasswordConfig struct {
	Policy PasswordPolicy
}

type SMTPConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
	UseTLS   bool
	Timeout  time.Duration
}

type CookieConfig struct {
	Secure bool
	Domain string
}

type MediaConfig struct {
	Enabled         bool
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Folder          string
	PublicBaseURL   string
	UsePathStyle    bool
}

type PurgeConfig struct {
	Schedule string
}

type LogConfig struct {
	Level  string
	Format string
}

type PasswordPolicy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireNumber    bool
	RequireSpecial   bool
}

func (p PasswordPolicy) Validate(password string) error {
	if len(password) < p.MinLength {
		return fmt.Errorf("password must be at least %d characters long", p.MinLength)
	}
	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("password must be at most %d bytes long", MaxPasswordBytes)
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasNumber = true
		case unicode.IsPunct(ch) || unicode.IsSymbol(ch):
			hasSpecial = true
		}
	}

	var missing []string
	if p.RequireUppercase && !hasUpper {
		missing = append(missing, "uppercase letter")
	}
	if p.RequireLowercase && !hasLower {
		missing = append(missing, "lowercase letter")
	}
	if p.RequireNumber && !hasNumber {
		missing = append(missing, "number")
	}
	if p.RequireSpecial && !hasSpecial {
		missing = append(missing, "special character")
	}

	if len(missing) > 0 {
		return fmt.Errorf("password must contain at least one: %s", strings.Join(missing, ", "))
	}

	return nil
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignores error if not found)
	_ = godotenv.Load()

	accessSecret := os.Getenv("ACCESS_TOKEN_SECRET")
	if accessSecret == "" {
		return nil, errors.New("ACCESS_TOKEN_SECRET environment variable is required")
	}

	refreshSecret := os.Getenv("REFRESH_TOKEN_SECRET")
	if refreshSecret == "" {
		return nil, errors.New("REFRESH_TOKEN_SECRET environment variable is required")
	}
	if refreshSecret == accessSecret {
		return nil, errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}

	cfg := &Config{
		App: AppConfig{
			Env:              getEnv("APP_ENV", "development"),
			FrontendHost:     strings.TrimRight(getEnv("FRONTEND_HOST", "http://localhost:5173"), "/"),
			CORSAllowOrigins: getListEnv("CORS_ALLOW_ORIGINS", nil),
			TrustedProxies:   getListEnv("TRUSTED_PROXIES", nil),
		},
		HTTP: ServerConfig{
			Host: getEnv("HTTP_HOST", ""),
			Port: getEnv("HTTP_PORT", "8080"),
		},
		GRPC: ServerConfig{
			Host: getEnv("GRPC_HOST", ""),
			Port: getEnv("GRPC_PORT", "9090"),
		},
		MySQL: MySQLConfig{DSN: mysqlDSN},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			AccessSecret:    accessSecret,
			RefreshSecret:   refreshSecret,
			AccessTokenTTL:  getDurationEnv("ACCESS_TOKEN_TTL", 15*time.Minute),
			RefreshTokenTTL: getDurationEnv("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		},
		Tokens: TokenConfig{
			OTPTTL:   getSecondsEnv("OTP_TTL", 120*time.Second),
			ResetTTL: getDurationEnv("RESET_TOKEN_TTL", 15*time.Minute),
		},
		Password: PasswordConfig{Policy: loadPasswordPolicy()},
		SMTP: SMTPConfig{
			Enabled:  getBoolEnv("SMTP_ENABLED", true),
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getIntEnv("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("EMAIL_FROM", "ON-LEARN <no-reply@onlearn.local>"),
			UseTLS:   getBoolEnv("SMTP_TLS", false),
			Timeout:  getSecondsEnv("SMTP_TIMEOUT", 10*time.Second),
		},
		Cookie: CookieConfig{
			Secure: getBoolEnv("COOKIE_SECURE", true),
			Domain: os.Getenv("COOKIE_DOMAIN"),
		},
		Media: MediaConfig{
			Enabled:         getBoolEnv("MEDIA_ENABLED", false),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
			Bucket:          getEnv("S3_BUCKET", "onlearn-media"),
			Folder:          getEnv("S3_FOLDER", "avatars"),
			PublicBaseURL:   strings.TrimRight(os.Getenv("S3_PUBLIC_BASE_URL"), "/"),
			UsePathStyle:    getBoolEnv("S3_USE_PATH_STYLE", true),
		},
		Purge: PurgeConfig{
			Schedule: lookupEnv("PURGE_SCHEDULE", "@hourly"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if cfg.JWT.AccessTokenTTL >= cfg.JWT.RefreshTokenTTL {
		return nil, errors.New("ACCESS_TOKEN_TTL must be shorter than REFRESH_TOKEN_TTL")
	}
	for _, cidr := range cfg.App.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q: %w", cidr, err)
		}
	}
	if len(cfg.App.CORSAllowOrigins) == 0 {
		cfg.App.CORSAllowOrigins = []string{cfg.App.FrontendHost}
	}

	return cfg, nil
}

// LoadDSN reads only the database settings, for commands that do not need
// the full server configuration.
func LoadDSN() (string, error) {
	_ = godotenv.Load()

	dsn := strings.TrimSpace(os.Getenv("MYSQL_DSN"))
	if dsn == "" {
		return "", errors.New("MYSQL_DSN environment variable is required")
	}
	return dsn, nil
}

func (c *Config) DSN() string {
	return c.MySQL.DSN
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// lookupEnv differs from getEnv in that an explicitly empty value is kept.
func lookupEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

// getDurationEnv reads a number of minutes.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil && minutes > 0 {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getSecondsEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func loadPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:        getIntEnv("PASSWORD_MIN_LENGTH", 8),
		RequireUppercase: getBoolEnv("PASSWORD_REQUIRE_UPPERCASE", true),
		RequireLowercase: getBoolEnv("PASSWORD_REQUIRE_LOWERCASE", true),
		RequireNumber:    getBoolEnv("PASSWORD_REQUIRE_NUMBER", true),
		RequireSpecial:   getBoolEnv("PASSWORD_REQUIRE_SPECIAL", true),
	}
}
