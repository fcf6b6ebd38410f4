package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fairwaylabs/teeline/internal/domain/tournament"
	"github.com/fairwaylabs/teeline/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Config stores runtime configuration for the service. Secrets (the feed
// provider key, the internal job token) live here and are injected into
// collaborators explicitly; nothing reads them from ambient globals.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	HTTPAddr       string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	DBURL                   string
	DBDisablePreparedBinary bool

	DataGolfBaseURL               string
	DataGolfKey                   string
	DataGolfTimeout               time.Duration
	DataGolfCircuitEnabled        bool
	DataGolfCircuitFailureCount   int
	DataGolfCircuitOpenTimeout    time.Duration
	DataGolfCircuitHalfOpenMaxReq int

	IngestTours      []tournament.Tour
	IngestPoolSize   int
	InternalJobToken string
	OddsPrimaryBook  string
	OddsBookPriority []string

	UptraceEnabled             bool
	UptraceDSN                 string
	UptraceCaptureRequestBody  bool
	UptraceRequestBodyMaxBytes int

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration

	PprofEnabled bool
	PprofAddr    string

	LogLevel logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	dataGolfTimeout, err := time.ParseDuration(getEnv("DATAGOLF_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DATAGOLF_TIMEOUT: %w", err)
	}
	if dataGolfTimeout <= 0 {
		return Config{}, fmt.Errorf("DATAGOLF_TIMEOUT must be > 0")
	}
	dataGolfCircuitEnabled, err := strconv.ParseBool(getEnv("DATAGOLF_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DATAGOLF_CIRCUIT_ENABLED: %w", err)
	}
	dataGolfCircuitFailureCount, err := getEnvAsInt("DATAGOLF_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse DATAGOLF_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if dataGolfCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("DATAGOLF_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	dataGolfCircuitOpenTimeout, err := time.ParseDuration(getEnv("DATAGOLF_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DATAGOLF_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if dataGolfCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("DATAGOLF_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	dataGolfCircuitHalfOpenMaxReq, err := getEnvAsInt("DATAGOLF_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse DATAGOLF_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if dataGolfCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("DATAGOLF_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	ingestTours, err := parseTours(getEnv("INGEST_TOURS", "pga"))
	if err != nil {
		return Config{}, err
	}
	ingestPoolSize, err := getEnvAsInt("INGEST_POOL_SIZE", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse INGEST_POOL_SIZE: %w", err)
	}
	if ingestPoolSize < 1 {
		return Config{}, fmt.Errorf("INGEST_POOL_SIZE must be >= 1")
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	uptraceCaptureRequestBody, err := strconv.ParseBool(getEnv("UPTRACE_CAPTURE_REQUEST_BODY", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_CAPTURE_REQUEST_BODY: %w", err)
	}
	uptraceRequestBodyMaxBytes, err := getEnvAsInt("UPTRACE_REQUEST_BODY_MAX_BYTES", 8192)
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_REQUEST_BODY_MAX_BYTES: %w", err)
	}
	if uptraceRequestBodyMaxBytes <= 0 {
		return Config{}, fmt.Errorf("UPTRACE_REQUEST_BODY_MAX_BYTES must be > 0")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}

	cfg := Config{
		AppEnv:         appEnv,
		ServiceName:    getEnv("APP_SERVICE_NAME", "teeline-api"),
		ServiceVersion: getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:       getEnv("APP_HTTP_ADDR", ":8080"),
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,

		// Empty selects the seeded in-memory repositories.
		DBURL:                   getEnv("DB_URL", ""),
		DBDisablePreparedBinary: dbDisablePreparedBinary,

		DataGolfBaseURL:               getEnv("DATAGOLF_BASE_URL", "https://feeds.datagolf.com"),
		DataGolfKey:                   strings.TrimSpace(getEnv("DATAGOLF_KEY", "")),
		DataGolfTimeout:               dataGolfTimeout,
		DataGolfCircuitEnabled:        dataGolfCircuitEnabled,
		DataGolfCircuitFailureCount:   dataGolfCircuitFailureCount,
		DataGolfCircuitOpenTimeout:    dataGolfCircuitOpenTimeout,
		DataGolfCircuitHalfOpenMaxReq: dataGolfCircuitHalfOpenMaxReq,

		IngestTours:      ingestTours,
		IngestPoolSize:   ingestPoolSize,
		InternalJobToken: strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
		OddsPrimaryBook:  strings.ToLower(strings.TrimSpace(getEnv("ODDS_PRIMARY_BOOK", "fanduel"))),
		OddsBookPriority: splitCSV(getEnv("ODDS_BOOK_PRIORITY", "fanduel,draftkings,betmgm,caesars,bet365,pointsbet")),

		UptraceEnabled:             uptraceEnabled,
		UptraceDSN:                 uptraceDSN,
		UptraceCaptureRequestBody:  uptraceCaptureRequestBody,
		UptraceRequestBodyMaxBytes: uptraceRequestBodyMaxBytes,

		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,

		PprofEnabled: pprofEnabled,
		PprofAddr:    pprofAddr,

		LogLevel: parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
	}

	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.OddsBookPriority) == 0 {
		return Config{}, fmt.Errorf("ODDS_BOOK_PRIORITY cannot be empty")
	}
	if cfg.AppEnv == EnvProd && cfg.DataGolfKey == "" {
		return Config{}, fmt.Errorf("DATAGOLF_KEY is required in prod")
	}
	if cfg.AppEnv == EnvProd && cfg.InternalJobToken == "" {
		return Config{}, fmt.Errorf("INTERNAL_JOB_TOKEN is required in prod")
	}
	if cfg.AppEnv == EnvProd && strings.TrimSpace(cfg.DBURL) == "" {
		return Config{}, fmt.Errorf("DB_URL is required in prod")
	}

	return cfg, nil
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func parseTours(raw string) ([]tournament.Tour, error) {
	parts := splitCSV(raw)
	if len(parts) == 0 {
		return nil, fmt.Errorf("INGEST_TOURS cannot be empty")
	}
	out := make([]tournament.Tour, 0, len(parts))
	seen := make(map[tournament.Tour]struct{}, len(parts))
	for _, part := range parts {
		tour, ok := tournament.ParseTour(part)
		if !ok {
			return nil, fmt.Errorf("invalid tour %q in INGEST_TOURS", part)
		}
		if _, dup := seen[tour]; dup {
			continue
		}
		seen[tour] = struct{}{}
		out = append(out, tour)
	}
	return out, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.ToLower(strings.TrimSpace(part))
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
