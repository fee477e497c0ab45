package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	neturl "net/url"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config centralises runtime configuration for the API server and the importer.
type Config struct {
	HTTPPort           string
	DatabaseURL        string
	AutoMigrate        bool
	JWTSecret          string
	JWTIssuer          string
	AllowedOrigins     []string
	ReadTimeoutSec     int
	WriteTimeoutSec    int
	IdleTimeoutSec     int
	ShutdownTimeoutSec int
	Logging            LoggingConfig
	Import             ImportConfig
	Metrics            MetricsConfig
}

// LoggingConfig selects the log level and output format (json or console).
type LoggingConfig struct {
	Level  string
	Format string
}

// ImportConfig holds the batch importer settings.
type ImportConfig struct {
	StopOnError bool
	Delimiter   string
	HasHeader   bool
}

// MetricsConfig configures Prometheus collectors.
type MetricsConfig struct {
	Namespace string
	// PushgatewayURL, when set, receives the importer's metrics after each run.
	PushgatewayURL string
}

// DelimiterRune returns the configured field delimiter. "tab" and `\t` mean a tab.
func (c ImportConfig) DelimiterRune() rune {
	switch c.Delimiter {
	case "tab", `\t`:
		return '\t'
	}
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	return r
}

func (c ImportConfig) validDelimiter() bool {
	d := c.DelimiterRune()
	if d == '\t' {
		return true
	}
	return utf8.RuneCountInString(c.Delimiter) == 1 && d != utf8.RuneError && d != '"' && d != '\r' && d != '\n'
}

// Load reads the configuration and validates it.
func Load() (Config, error) {
	cfg, err := Read()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Read reads configuration from defaults, an optional config.yaml, a .env file
// and environment variables, in increasing order of precedence. It does not
// validate, so callers can apply their own overrides first.
func Read() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := Config{
		HTTPPort:           firstNonEmpty(v.GetString("http.port"), v.GetString("port"), "8080"),
		DatabaseURL:        firstNonEmpty(coerceDatabaseURL(v.GetString("database.url")), resolveDatabaseURL()),
		AutoMigrate:        v.GetBool("database.auto_migrate"),
		JWTSecret:          v.GetString("jwt.secret"),
		JWTIssuer:          v.GetString("jwt.issuer"),
		AllowedOrigins:     splitCSV(v.GetString("cors.allowed_origins")),
		ReadTimeoutSec:     v.GetInt("http.read_timeout"),
		WriteTimeoutSec:    v.GetInt("http.write_timeout"),
		IdleTimeoutSec:     v.GetInt("http.idle_timeout"),
		ShutdownTimeoutSec: v.GetInt("http.shutdown_timeout"),
		Logging: LoggingConfig{
			Level:  strings.ToLower(v.GetString("log.level")),
			Format: strings.ToLower(v.GetString("log.format")),
		},
		Import: ImportConfig{
			StopOnError: v.GetBool("import.stop_on_error"),
			Delimiter:   v.GetString("import.delimiter"),
			HasHeader:   v.GetBool("import.has_header"),
		},
		Metrics: MetricsConfig{
			Namespace:      v.GetString("metrics.namespace"),
			PushgatewayURL: v.GetString("metrics.pushgateway_url"),
		},
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("jwt.issuer", "catalog")
	v.SetDefault("cors.allowed_origins", "*")
	v.SetDefault("http.read_timeout", 15)
	v.SetDefault("http.write_timeout", 15)
	v.SetDefault("http.idle_timeout", 60)
	v.SetDefault("http.shutdown_timeout", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("import.stop_on_error", false)
	v.SetDefault("import.delimiter", ",")
	v.SetDefault("import.has_header", false)
	v.SetDefault("metrics.namespace", "catalog")
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("database configuration missing: provide DATABASE_URL or PG* env vars"))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format))
	}
	if !c.Import.validDelimiter() {
		errs = append(errs, fmt.Errorf("IMPORT_DELIMITER must be a single character, got %q", c.Import.Delimiter))
	}
	if c.ReadTimeoutSec <= 0 || c.WriteTimeoutSec <= 0 || c.IdleTimeoutSec <= 0 {
		errs = append(errs, errors.New("HTTP timeouts must be positive"))
	}
	return errors.Join(errs...)
}

func splitCSV(value string) []string {
	parts := []string{}
	for _, part := range strings.Split(value, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) == 0 {
		return []string{"*"}
	}
	return parts
}

// resolveDatabaseURL falls back to alternative URL variables and then to
// libpq-style PG* variables when DATABASE_URL is not set.
func resolveDatabaseURL() string {
	for _, key := range []string{"DATABASE_PUBLIC_URL", "DATABASE_INTERNAL_URL", "POSTGRES_URL", "PGURL"} {
		if url := coerceDatabaseURL(os.Getenv(key)); url != "" {
			return url
		}
	}
	if path := os.Getenv("DATABASE_URL_FILE"); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			if url := coerceDatabaseURL(string(data)); url != "" {
				return url
			}
		}
	}

	host := firstNonEmpty(os.Getenv("PGHOST"), os.Getenv("POSTGRES_HOST"), os.Getenv("DATABASE_HOST"))
	user := firstNonEmpty(os.Getenv("PGUSER"), os.Getenv("POSTGRES_USER"), os.Getenv("DATABASE_USER"))
	if host == "" || user == "" {
		return ""
	}
	password := firstNonEmpty(os.Getenv("PGPASSWORD"), os.Getenv("POSTGRES_PASSWORD"), os.Getenv("DATABASE_PASSWORD"))
	database := firstNonEmpty(os.Getenv("PGDATABASE"), os.Getenv("POSTGRES_DB"), os.Getenv("DATABASE_NAME"), user)
	port := firstNonEmpty(os.Getenv("PGPORT"), os.Getenv("POSTGRES_PORT"), os.Getenv("DATABASE_PORT"), "5432")
	sslMode := firstNonEmpty(os.Getenv("PGSSLMODE"), os.Getenv("POSTGRES_SSL_MODE"), "require")

	dsn := &neturl.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, port),
		Path:   "/" + database,
		User:   neturl.User(user),
	}
	if password != "" {
		dsn.User = neturl.UserPassword(user, password)
	}
	query := dsn.Query()
	query.Set("sslmode", sslMode)
	dsn.RawQuery = query.Encode()
	return dsn.String()
}

func coerceDatabaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, "postgresql://"):
		return "postgres://" + strings.TrimPrefix(raw, "postgresql://")
	case strings.HasPrefix(raw, "postgres://"):
		return raw
	default:
		return ""
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
