// Package configs provides application configuration loaded from environment variables.
package configs

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Document store backends.
const (
	StoreSharePoint = "sharepoint"
	StoreLocal      = "local"
)

// AppConfig holds all application configuration.
// Load it once at startup using AppLoad().
type AppConfig struct {
	FTP        FTPConfig
	Azure      AzureConfig
	SharePoint SharePointConfig
	Pipeline   PipelineConfig
	RunHistory RunHistoryConfig
	Events     EventsConfig

	// DocStore selects the document store: "sharepoint" or "local".
	DocStore string

	// LocalStoreDir is the root of the local document store.
	LocalStoreDir string

	// ServerPort is the HTTP API port.
	ServerPort string

	// DebugMode runs gin in debug mode.
	DebugMode bool

	LogLevel logrus.Level
}

// FTPConfig holds the vendor FTP settings.
type FTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string

	// BaseDir holds one {YYYY}-{MM} directory per month.
	BaseDir string
	Timeout time.Duration
}

// AzureConfig holds the app registration used for Graph access.
type AzureConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string
}

// SharePointConfig locates the document library folders.
type SharePointConfig struct {
	// Host is the tenant host, e.g. contoso.sharepoint.com.
	Host string
	Site string

	// MonthRoot holds one {YYYY}/{MM} folder per month.
	MonthRoot string

	// LedgerFolder holds the consumos_{YYYY}.csv annual ledgers.
	LedgerFolder string

	RequestsPerSecond float64
}

// PipelineConfig holds step settings.
type PipelineConfig struct {
	// StagingDir keeps retrieved files between download and upload.
	StagingDir string

	// Timezone decides which months are previous and current.
	Timezone string

	// LedgerBootstrap creates a missing annual ledger on the annual step.
	LedgerBootstrap bool

	// TablesFile optionally overrides the reference tables (YAML).
	TablesFile string
}

// RunHistoryConfig holds the ClickHouse run history settings.
type RunHistoryConfig struct {
	Enabled bool

	// DSN is the ClickHouse connection string.
	DSN string
}

// EventsConfig holds Kafka settings. Events are disabled without a broker.
type EventsConfig struct {
	Broker string
	Topic  string
}

// getDatabaseDSN constructs the ClickHouse DSN from environment variables.
func getDatabaseDSN() string {
	dbUser := getEnv("CLICKHOUSE_USER", "default")
	dbPassword := getEnv("CLICKHOUSE_PASSWORD", "")
	dbHost := getEnv("CLICKHOUSE_HOST", "localhost")
	dbPort := getEnv("CLICKHOUSE_TCP_PORT", "9000")
	dbName := getEnv("CLICKHOUSE_DB", "fronteras")

	return fmt.Sprintf(
		"clickhouse://%s:%s@%s:%s/%s?dial_timeout=10s&read_timeout=20s",
		dbUser, dbPassword, dbHost, dbPort, dbName,
	)
}

// AppLoad loads all application configuration from environment variables.
// It attempts to load a .env file first (for local development).
func AppLoad() *AppConfig {
	_ = godotenv.Load() // Ignore error - .env is optional

	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = logrus.InfoLevel
	}

	return &AppConfig{
		FTP: FTPConfig{
			Host:     getEnv("FTP_HOST", "xmftps.xm.com.co"),
			Port:     getEnvInt("FTP_PORT", 210),
			User:     getEnv("FTP_USER", ""),
			Password: getEnv("FTP_PASSWORD", ""),
			BaseDir:  getEnv("FTP_BASE_DIR", "/INFORMACION_XM/USUARIOSK/RTQC/sic/comercia"),
			Timeout:  time.Duration(getEnvInt("FTP_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Azure: AzureConfig{
			TenantID:     getEnv("AZURE_TENANT_ID", ""),
			ClientID:     getEnv("AZURE_CLIENT_ID", ""),
			ClientSecret: getEnv("AZURE_CLIENT_SECRET", ""),
		},
		SharePoint: SharePointConfig{
			Host:              getEnv("SHAREPOINT_HOST", ""),
			Site:              getEnv("SHAREPOINT_SITE", "fronterascomerciales"),
			MonthRoot:         getEnv("SHAREPOINT_MONTH_ROOT", "aenc_pruebas"),
			LedgerFolder:      getEnv("SHAREPOINT_LEDGER_FOLDER", "aenc_pruebas/fact_consumos"),
			RequestsPerSecond: getEnvFloat("GRAPH_REQUESTS_PER_SECOND", 5),
		},
		Pipeline: PipelineConfig{
			StagingDir:      getEnv("STAGING_DIR", "archivos_descargados"),
			Timezone:        getEnv("TIMEZONE", "America/Bogota"),
			LedgerBootstrap: getEnvBool("LEDGER_BOOTSTRAP", false),
			TablesFile:      getEnv("TABLES_FILE", ""),
		},
		RunHistory: RunHistoryConfig{
			Enabled: getEnvBool("RUN_HISTORY_ENABLED", false),
			DSN:     getDatabaseDSN(),
		},
		Events: EventsConfig{
			Broker: getEnv("KAFKA_BROKER", ""),
			Topic:  getEnv("KAFKA_EVENTS_TOPIC", "fronteras_steps"),
		},
		DocStore:      getEnv("DOCSTORE", StoreSharePoint),
		LocalStoreDir: getEnv("LOCAL_STORE_DIR", "documentos"),
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		DebugMode:     getEnvBool("DEBUGMODE", false),
		LogLevel:      level,
	}
}

// Validate reports settings that make the selected backends unusable.
func (c *AppConfig) Validate() error {
	switch c.DocStore {
	case StoreSharePoint:
		if c.SharePoint.Host == "" || c.Azure.TenantID == "" || c.Azure.ClientID == "" || c.Azure.ClientSecret == "" {
			return fmt.Errorf("sharepoint store needs SHAREPOINT_HOST and AZURE_* credentials")
		}
	case StoreLocal:
		if c.LocalStoreDir == "" {
			return fmt.Errorf("local store needs LOCAL_STORE_DIR")
		}
	default:
		return fmt.Errorf("unknown DOCSTORE %q", c.DocStore)
	}
	return nil
}

// NewLogger returns the process logger.
func NewLogger(level logrus.Level) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(level)
	return logger
}

// getEnv returns the environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}
