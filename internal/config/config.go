package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultUnitCommand       = "npx jest --json --outputFile={report} tests/unit"
	DefaultE2ECommand        = "npx jest --json --outputFile={report} --runInBand tests/e2e"
	DefaultCollectionCommand = "npx newman run {collection} --reporters cli,json --reporter-json-export {report}"
	DefaultCollectionTimeout = 5 * time.Minute
)

// Config holds everything the dashboard needs at startup. Values come from
// defaults, then the optional YAML file named by DASHBOARD_CONFIG, then
// environment variables.
type Config struct {
	ListenAddr string `yaml:"listenAddr"`
	ProjectDir string `yaml:"projectDir"`

	UnitReportPath string `yaml:"unitReportPath"`
	E2EReportPath  string `yaml:"e2eReportPath"`
	BootReportPath string `yaml:"bootReportPath"`

	CollectionsDir      string   `yaml:"collectionsDir"`
	CollectionNames     []string `yaml:"collectionNames"`
	CollectionReportDir string   `yaml:"collectionReportDir"`

	UnitCommand       string `yaml:"unitCommand"`
	E2ECommand        string `yaml:"e2eCommand"`
	CollectionCommand string `yaml:"collectionCommand"`

	CollectionTimeout time.Duration `yaml:"collectionTimeout"`
	RunTimeout        time.Duration `yaml:"runTimeout"` // 0 means no limit
	RunInterval       time.Duration `yaml:"runInterval"` // 0 disables scheduled runs

	StreamOutput              bool `yaml:"streamOutput"`
	RunAllIncludesCollections bool `yaml:"runAllIncludesCollections"`

	DatabaseURL string `yaml:"databaseUrl"`
	E2EMySQLDSN string `yaml:"e2eMysqlDsn"`
	E2ESchema   string `yaml:"e2eSchema"`

	CORSOrigins []string `yaml:"corsOrigins"`
}

func Default() Config {
	return Config{
		ListenAddr:          ":8080",
		UnitReportPath:      "reports/unit-results.json",
		E2EReportPath:       "reports/e2e-results.json",
		BootReportPath:      "reports/prebuilt-results.json",
		CollectionsDir:      "collections",
		CollectionNames:     []string{"auth", "orders", "admin"},
		CollectionReportDir: "reports/collections",
		UnitCommand:         DefaultUnitCommand,
		E2ECommand:          DefaultE2ECommand,
		CollectionCommand:   DefaultCollectionCommand,
		CollectionTimeout:   DefaultCollectionTimeout,
		StreamOutput:        true,
		E2ESchema:           "catering_e2e",
		CORSOrigins:         []string{"*"},
	}
}

// Load builds the configuration from defaults, file and environment.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("DASHBOARD_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return cfg, err
		}
	}

	if err := cfg.loadEnv(); err != nil {
		return cfg, err
	}

	if cfg.ProjectDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return cfg, fmt.Errorf("failed to get current working directory: %w", err)
		}
		cfg.ProjectDir = wd
	}

	return cfg, cfg.Validate()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	c.ListenAddr = getEnvOrDefault("LISTEN_ADDR", c.ListenAddr)
	c.ProjectDir = getEnvOrDefault("PROJECT_DIR", c.ProjectDir)
	c.UnitReportPath = getEnvOrDefault("UNIT_REPORT_PATH", c.UnitReportPath)
	c.E2EReportPath = getEnvOrDefault("E2E_REPORT_PATH", c.E2EReportPath)
	c.BootReportPath = getEnvOrDefault("BOOT_REPORT_PATH", c.BootReportPath)
	c.CollectionsDir = getEnvOrDefault("COLLECTIONS_DIR", c.CollectionsDir)
	c.CollectionReportDir = getEnvOrDefault("COLLECTION_REPORT_DIR", c.CollectionReportDir)
	c.UnitCommand = getEnvOrDefault("UNIT_COMMAND", c.UnitCommand)
	c.E2ECommand = getEnvOrDefault("E2E_COMMAND", c.E2ECommand)
	c.CollectionCommand = getEnvOrDefault("COLLECTION_COMMAND", c.CollectionCommand)
	c.DatabaseURL = getEnvOrDefault("DATABASE_URL", c.DatabaseURL)
	c.E2EMySQLDSN = getEnvOrDefault("E2E_MYSQL_DSN", c.E2EMySQLDSN)
	c.E2ESchema = getEnvOrDefault("E2E_SCHEMA", c.E2ESchema)

	if v := os.Getenv("COLLECTION_NAMES"); v != "" {
		c.CollectionNames = splitList(v)
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}

	var err error
	if c.CollectionTimeout, err = durationEnv("COLLECTION_TIMEOUT", c.CollectionTimeout); err != nil {
		return err
	}
	if c.RunTimeout, err = durationEnv("RUN_TIMEOUT", c.RunTimeout); err != nil {
		return err
	}
	if c.RunInterval, err = durationEnv("RUN_INTERVAL", c.RunInterval); err != nil {
		return err
	}
	if c.StreamOutput, err = boolEnv("STREAM_OUTPUT", c.StreamOutput); err != nil {
		return err
	}
	if c.RunAllIncludesCollections, err = boolEnv("RUN_ALL_INCLUDES_COLLECTIONS", c.RunAllIncludesCollections); err != nil {
		return err
	}
	return nil
}

func (c Config) Validate() error {
	for name, cmd := range map[string]string{
		"unit command":       c.UnitCommand,
		"e2e command":        c.E2ECommand,
		"collection command": c.CollectionCommand,
	} {
		if strings.TrimSpace(cmd) == "" {
			return fmt.Errorf("invalid config: %s is empty", name)
		}
	}
	if c.UnitReportPath == "" || c.E2EReportPath == "" {
		return fmt.Errorf("invalid config: report paths must be set")
	}
	if c.UnitReportPath == c.E2EReportPath {
		return fmt.Errorf("invalid config: unit and e2e reports must use different paths")
	}
	if c.CollectionTimeout <= 0 {
		return fmt.Errorf("invalid config: collection timeout must be positive")
	}
	if c.RunTimeout < 0 || c.RunInterval < 0 {
		return fmt.Errorf("invalid config: durations must not be negative")
	}
	return nil
}

// Path resolves p against the project directory unless it is absolute.
func (c Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.ProjectDir, p)
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func durationEnv(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func boolEnv(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func splitList(v string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" && !seen[item] {
			seen[item] = true
			out = append(out, item)
		}
	}
	return out
}
