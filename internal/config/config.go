package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	StoreDriverMemory    = "memory"
	StoreDriverDatastore = "datastore"

	MirrorDriverMemory   = "memory"
	MirrorDriverSQLite   = "sqlite"
	MirrorDriverPostgres = "postgres"
)

// envConfig mirrors the process environment. Field names match the variable names.
type envConfig struct {
	APP_PORT      string `yaml:"app_port"`
	LOG_FILE_PATH string `yaml:"log_file_path"`
	LOG_LEVEL     string `yaml:"log_level"`

	STORE_DRIVER        string        `yaml:"store_driver"`
	GCP_PROJECT_ID      string        `yaml:"gcp_project_id"`
	TASKS_KIND          string        `yaml:"tasks_kind"`
	STORE_POLL_INTERVAL time.Duration `yaml:"store_poll_interval"`

	MIRROR_DRIVER      string `yaml:"mirror_driver"`
	MIRROR_SQLITE_PATH string `yaml:"mirror_sqlite_path"`

	DB_HOST              string        `yaml:"db_host"`
	DB_PORT              int           `yaml:"db_port"`
	DB_USER              string        `yaml:"db_user"`
	DB_PASSWORD          string        `yaml:"db_password"`
	DB_NAME              string        `yaml:"db_name"`
	DB_SSL_MODE          string        `yaml:"db_ssl_mode"`
	DB_MAX_OPEN_CONNS    int           `yaml:"db_max_open_conns"`
	DB_MAX_IDLE_CONNS    int           `yaml:"db_max_idle_conns"`
	DB_CONN_MAX_LIFETIME time.Duration `yaml:"db_conn_max_lifetime"`

	CHIME_COMMAND    string `yaml:"chime_command"`
	CHIME_SOUND_PATH string `yaml:"chime_sound_path"`

	ELASTICSEARCH_URL   string `yaml:"elasticsearch_url"`
	ELASTICSEARCH_INDEX string `yaml:"elasticsearch_index"`

	GARDEN_TEMPLATE_PATH string `yaml:"garden_template_path"`
}

// DefaultEnvConfig is populated by LoadEnvConfig.
var DefaultEnvConfig = defaults()

func defaults() envConfig {
	return envConfig{
		APP_PORT:             "8080",
		LOG_LEVEL:            "info",
		STORE_DRIVER:         StoreDriverMemory,
		TASKS_KIND:           "Task",
		STORE_POLL_INTERVAL:  2 * time.Second,
		MIRROR_DRIVER:        MirrorDriverMemory,
		MIRROR_SQLITE_PATH:   "petalplanner.db",
		DB_HOST:              "localhost",
		DB_PORT:              5432,
		DB_SSL_MODE:          "disable",
		DB_MAX_OPEN_CONNS:    5,
		DB_MAX_IDLE_CONNS:    2,
		DB_CONN_MAX_LIFETIME: 30 * time.Minute,
		CHIME_SOUND_PATH:     "static/Bling.mp3",
		ELASTICSEARCH_INDEX:  "petalplanner-tasks",
	}
}

// LoadEnvConfig reads .env (if present), the environment and the optional
// CONFIG_FILE yaml overlay into DefaultEnvConfig.
func LoadEnvConfig() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyYAML(&cfg, path); err != nil {
			return err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return err
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	DefaultEnvConfig = cfg
	return nil
}

func applyYAML(cfg *envConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("decode config file %q: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *envConfig) error {
	setString(&cfg.APP_PORT, "APP_PORT")
	setString(&cfg.LOG_FILE_PATH, "LOG_FILE_PATH")
	setString(&cfg.LOG_LEVEL, "LOG_LEVEL")
	setString(&cfg.STORE_DRIVER, "STORE_DRIVER")
	setString(&cfg.GCP_PROJECT_ID, "GCP_PROJECT_ID")
	setString(&cfg.TASKS_KIND, "TASKS_KIND")
	setString(&cfg.MIRROR_DRIVER, "MIRROR_DRIVER")
	setString(&cfg.MIRROR_SQLITE_PATH, "MIRROR_SQLITE_PATH")
	setString(&cfg.DB_HOST, "DB_HOST")
	setString(&cfg.DB_USER, "DB_USER")
	setString(&cfg.DB_PASSWORD, "DB_PASSWORD")
	setString(&cfg.DB_NAME, "DB_NAME")
	setString(&cfg.DB_SSL_MODE, "DB_SSL_MODE")
	setString(&cfg.CHIME_COMMAND, "CHIME_COMMAND")
	setString(&cfg.CHIME_SOUND_PATH, "CHIME_SOUND_PATH")
	setString(&cfg.ELASTICSEARCH_URL, "ELASTICSEARCH_URL")
	setString(&cfg.ELASTICSEARCH_INDEX, "ELASTICSEARCH_INDEX")
	setString(&cfg.GARDEN_TEMPLATE_PATH, "GARDEN_TEMPLATE_PATH")

	if err := setInt(&cfg.DB_PORT, "DB_PORT"); err != nil {
		return err
	}
	if err := setInt(&cfg.DB_MAX_OPEN_CONNS, "DB_MAX_OPEN_CONNS"); err != nil {
		return err
	}
	if err := setInt(&cfg.DB_MAX_IDLE_CONNS, "DB_MAX_IDLE_CONNS"); err != nil {
		return err
	}
	if err := setDuration(&cfg.DB_CONN_MAX_LIFETIME, "DB_CONN_MAX_LIFETIME"); err != nil {
		return err
	}
	return setDuration(&cfg.STORE_POLL_INTERVAL, "STORE_POLL_INTERVAL")
}

func (c envConfig) validate() error {
	switch c.STORE_DRIVER {
	case StoreDriverMemory:
	case StoreDriverDatastore:
		if c.GCP_PROJECT_ID == "" {
			return fmt.Errorf("GCP_PROJECT_ID is required for store driver %q", c.STORE_DRIVER)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.STORE_DRIVER)
	}

	switch c.MIRROR_DRIVER {
	case MirrorDriverMemory, MirrorDriverSQLite, MirrorDriverPostgres:
	default:
		return fmt.Errorf("unknown MIRROR_DRIVER %q", c.MIRROR_DRIVER)
	}

	if c.STORE_POLL_INTERVAL <= 0 {
		return fmt.Errorf("STORE_POLL_INTERVAL must be positive, got %s", c.STORE_POLL_INTERVAL)
	}
	return nil
}

func setString(dst *string, key string) {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		*dst = val
	}
}

func setInt(dst *int, key string) error {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	*dst = d
	return nil
}
