package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/sommelier-labs/cellars-indexer/internal/domain"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`     // Maximum number of open connections to the database
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`     // Maximum number of idle connections in the pool
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`  // Maximum amount of time a connection may be reused (e.g., "5m", "1h")
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"` // Maximum amount of time a connection may be idle (e.g., "10m", "30m")
}

// NATSConfig holds NATS JetStream configuration
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	ConsumerName   string        `mapstructure:"consumer_name"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
	AckWait        time.Duration `mapstructure:"ack_wait"`
	MaxDeliver     int           `mapstructure:"max_deliver"`
}

// EthereumConfig holds Ethereum-specific configuration
type EthereumConfig struct {
	WebSocketURL string       `mapstructure:"websocket_url"`
	RPCURL       string       `mapstructure:"rpc_url"`
	ChainID      domain.Chain `mapstructure:"chain_id"`
	StartBlock   uint64       `mapstructure:"start_block"`
}

// CursorConfig holds block cursor persistence configuration
type CursorConfig struct {
	SaveFreq  uint64        `mapstructure:"save_freq"`  // Save cursor every N blocks
	SaveDelay time.Duration `mapstructure:"save_delay"` // Or save cursor every N seconds
}

// EmitterConfig holds configuration for the event-emitter
type EmitterConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig        `mapstructure:"database"`
	NATS       NATSConfig            `mapstructure:"nats"`
	Ethereum   EthereumConfig        `mapstructure:"ethereum"`
	Cursor     CursorConfig          `mapstructure:"cursor"`
	Cellars    []domain.CellarConfig `mapstructure:"cellars"`
}

// IndexerConfig holds configuration for the indexer
type IndexerConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig        `mapstructure:"database"`
	NATS       NATSConfig            `mapstructure:"nats"`
	Ethereum   EthereumConfig        `mapstructure:"ethereum"`
	Cellars    []domain.CellarConfig `mapstructure:"cellars"`
}

// Registry builds the tracked cellar registry, falling back to the
// built-in mainnet deployments when the config names none
func Registry(cellars []domain.CellarConfig) (domain.Registry, error) {
	if len(cellars) == 0 {
		cellars = domain.DefaultCellars()
	}

	for _, c := range cellars {
		if c.Address == "" {
			return nil, errors.New("cellar address is required")
		}
		if !domain.IsValidGeneration(c.Generation) {
			return nil, fmt.Errorf("cellar %s has unknown generation %q", c.Address, c.Generation)
		}
	}

	return domain.NewRegistry(cellars), nil
}

// LoadEmitterConfig loads configuration for the event-emitter
func LoadEmitterConfig(configFile string, envPath string) (*EmitterConfig, error) {
	v := configureViper("event-emitter", configFile, envPath)

	// Set defaults
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.stream_name", "CELLAR_EVENTS")
	v.SetDefault("ethereum.chain_id", "eip155:1")
	v.SetDefault("cursor.save_freq", 10)
	v.SetDefault("cursor.save_delay", "30s")

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var config EmitterConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// LoadIndexerConfig loads configuration for the indexer
func LoadIndexerConfig(configFile string, envPath string) (*IndexerConfig, error) {
	v := configureViper("indexer", configFile, envPath)

	// Set defaults
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.stream_name", "CELLAR_EVENTS")
	v.SetDefault("nats.consumer_name", "cellars-indexer")
	v.SetDefault("nats.ack_wait", "30s")
	v.SetDefault("nats.max_deliver", 3)
	v.SetDefault("ethereum.chain_id", "eip155:1")

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var config IndexerConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// readConfig reads the config file, tolerating a missing one so pure
// environment variable deployments work
func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || os.IsNotExist(err) {
			// Config file not found, use environment variables
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	// Set config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// Search for config.yaml in multiple locations:
		// 1. Current directory
		v.AddConfigPath(".")
		// 2. Service-specific directory (e.g., cmd/indexer/)
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		// 3. Config directory
		v.AddConfigPath("config/")
	}

	// Set environment variables
	v.SetEnvPrefix("CELLARS_INDEXER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables
	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	commonKeys := []string{
		"debug",
		"sentry_dsn",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.consumer_name",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		"nats.ack_wait",
		"nats.max_deliver",
		// Ethereum
		"ethereum.websocket_url",
		"ethereum.rpc_url",
		"ethereum.chain_id",
		"ethereum.start_block",
		// Cursor
		"cursor.save_freq",
		"cursor.save_delay",
	}

	for _, key := range commonKeys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Always try shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	// Default to config directory
	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
