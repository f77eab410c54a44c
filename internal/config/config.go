package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/navrouter/internal/errors"
	"github.com/vango-dev/navrouter/pkg/history"
	"github.com/vango-dev/navrouter/pkg/router"
	"github.com/vango-dev/navrouter/pkg/storage"
)

const (
	// JSONFileName and YAMLFileName are the configuration file names, in
	// lookup order.
	JSONFileName = "navrouter.json"
	YAMLFileName = "navrouter.yaml"

	// DefaultPort is the default dev server port.
	DefaultPort = 3000

	// DefaultHost is the default dev server host.
	DefaultHost = "localhost"

	// DefaultOrigin is the origin simulated browsers start from.
	DefaultOrigin = "http://localhost"
)

// Environment variables that override file settings.
const (
	EnvStorageBackend = "NAVROUTER_STORAGE_BACKEND"
	EnvRedisAddr      = "NAVROUTER_REDIS_ADDR"
	EnvSQLDSN         = "NAVROUTER_SQL_DSN"
	EnvS3Bucket       = "NAVROUTER_S3_BUCKET"
	EnvPort           = "NAVROUTER_PORT"
)

// FileNames lists the configuration files Load looks for.
var FileNames = []string{JSONFileName, YAMLFileName, "navrouter.yml"}

// Config represents a navrouter.json or navrouter.yaml file.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Routes are the route definitions.
	Routes []router.Route `json:"routes,omitempty" yaml:"routes,omitempty"`

	// RoutesFile is a separate JSON or YAML file holding the route list.
	// When set it replaces Routes and is watched by the dev server.
	RoutesFile string `json:"routesFile,omitempty" yaml:"routesFile,omitempty"`

	// History configures the persisted state stack.
	History HistoryConfig `json:"history" yaml:"history"`

	// Language configures route languages.
	Language LanguageConfig `json:"language" yaml:"language"`

	// Storage selects the key-value backend of the history stack.
	Storage storage.Config `json:"storage" yaml:"storage"`

	// Server configures the dev server.
	Server ServerConfig `json:"server" yaml:"server"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// HistoryConfig configures the history stack.
type HistoryConfig struct {
	// Key is the storage key of the stack (default: "history").
	Key string `json:"key,omitempty" yaml:"key,omitempty"`

	// MaxLength bounds the stack (default: 15).
	MaxLength int `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
}

// LanguageConfig configures route languages.
type LanguageConfig struct {
	// Default is the language of routes without one (default: "en").
	Default string `json:"default,omitempty" yaml:"default,omitempty"`
}

// ServerConfig contains dev server settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty" yaml:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty" yaml:"port,omitempty"`

	// Origin is the scheme and host simulated browsers use.
	Origin string `json:"origin,omitempty" yaml:"origin,omitempty"`
}

// New creates a Config with default values.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads the first configuration file found in dir, after loading
// dir/.env into the environment.
func Load(dir string) (*Config, error) {
	if err := LoadEnv(dir); err != nil {
		return nil, err
	}
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New(errors.CodeConfigNotFound).
		WithDetail("No navrouter.json or navrouter.yaml found in " + dir)
}

// LoadEnv loads dir/.env if present. Variables already set win.
func LoadEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("Failed to parse " + path).
			Wrap(err)
	}
	return nil
}

// LoadFile reads configuration from path. The format follows the
// extension: .yaml and .yml are YAML, anything else JSON. Environment
// overrides are applied after the file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfigNotFound).WithDetail(path)
		}
		return nil, errors.New(errors.CodeConfigInvalid).Wrap(err)
	}

	cfg := &Config{}
	if err := decode(path, data, cfg); err != nil {
		return nil, errors.New(errors.CodeConfigInvalid).
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error())
	}

	cfg.configPath = path
	cfg.applyDefaults()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if cfg.RoutesFile != "" {
		routes, err := LoadRoutes(cfg.RoutesPath())
		if err != nil {
			return nil, err
		}
		cfg.Routes = routes
	}
	return cfg, nil
}

// LoadRoutes reads a route list from a JSON or YAML file.
func LoadRoutes(path string) ([]router.Route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.CodeConfigInvalid).
			WithDetail("Failed to read routes file " + path).
			Wrap(err)
	}
	var routes []router.Route
	if err := decode(path, data, &routes); err != nil {
		return nil, errors.New(errors.CodeConfigInvalid).
			WithDetail("Failed to parse routes file " + filepath.Base(path) + ": " + err.Error())
	}
	return routes, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func decode(path string, data []byte, v any) error {
	if isYAML(path) {
		return yaml.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to path in the format its extension
// names.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New(errors.CodeConfigInvalid).Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New(errors.CodeConfigInvalid).Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// RoutesPath returns the absolute path of RoutesFile, or "" if unset.
func (c *Config) RoutesPath() string {
	if c.RoutesFile == "" {
		return ""
	}
	return c.resolve(c.RoutesFile)
}

// StorageConfig returns the storage settings with relative file paths
// resolved against the config directory.
func (c *Config) StorageConfig() storage.Config {
	sc := c.Storage
	if sc.Backend == storage.BackendFile && sc.Path != "" {
		sc.Path = c.resolve(sc.Path)
	}
	return sc
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.History.Key == "" {
		c.History.Key = history.DefaultKey
	}
	if c.History.MaxLength == 0 {
		c.History.MaxLength = history.DefaultMaxLength
	}
	if c.Language.Default == "" {
		c.Language.Default = router.DefaultLanguage
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = storage.BackendMemory
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.Origin == "" {
		c.Server.Origin = DefaultOrigin
	}
}

// applyEnv overrides settings from the environment.
func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvStorageBackend); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Storage.RedisAddr = v
	}
	if v := os.Getenv(EnvSQLDSN); v != "" {
		c.Storage.SQLDSN = v
	}
	if v := os.Getenv(EnvS3Bucket); v != "" {
		c.Storage.S3Bucket = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.New(errors.CodeConfigInvalid).
				WithDetailf("%s=%q is not a port number", EnvPort, v)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("Port must be between 0 and 65535")
	}
	if c.History.MaxLength < 1 {
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("history.maxLength must be at least 1")
	}
	if !strings.HasPrefix(c.Server.Origin, "http://") && !strings.HasPrefix(c.Server.Origin, "https://") {
		return errors.New(errors.CodeConfigInvalid).
			WithDetailf("server.origin %q must start with http:// or https://", c.Server.Origin)
	}

	switch c.Storage.Backend {
	case storage.BackendMemory:
	case storage.BackendFile:
		if c.Storage.Path == "" {
			return errors.New(errors.CodeConfigInvalid).WithDetail("storage.path is required for the file backend")
		}
	case storage.BackendRedis:
		if c.Storage.RedisAddr == "" {
			return errors.New(errors.CodeConfigInvalid).WithDetail("storage.redisAddr is required for the redis backend")
		}
	case storage.BackendSQL:
		if c.Storage.SQLDriver == "" || c.Storage.SQLDSN == "" {
			return errors.New(errors.CodeConfigInvalid).WithDetail("storage.sqlDriver and storage.sqlDSN are required for the sql backend")
		}
	case storage.BackendS3:
		if c.Storage.S3Bucket == "" {
			return errors.New(errors.CodeConfigInvalid).WithDetail("storage.s3Bucket is required for the s3 backend")
		}
	default:
		return errors.New(errors.CodeConfigInvalid).
			WithDetailf("unknown storage backend %q", c.Storage.Backend).
			WithSuggestion("Use one of memory, file, redis, sql, s3")
	}

	if len(c.Routes) == 0 {
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("no routes defined").
			WithSuggestion("Add a routes list or point routesFile at one")
	}
	return nil
}

// ServerAddress returns host:port for the dev server.
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// RouterOptions returns the router options the configuration implies.
func (c *Config) RouterOptions() []router.Option {
	return []router.Option{
		router.WithHistoryKey(c.History.Key),
		router.WithMaxHistoryLength(c.History.MaxLength),
		router.WithDefaultLanguage(c.Language.Default),
	}
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range FileNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing a config file, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New(errors.CodeConfigNotFound).
				WithDetail("No navrouter.json or navrouter.yaml found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
