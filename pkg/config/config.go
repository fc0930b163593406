package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AuthProvider selects one token validator. Config is passed through to the
// provider factory untouched.
type AuthProvider struct {
	Type   string         `yaml:"type"`
	Config map[string]any `yaml:"config"`
}

type Config struct {
	Port          int    `yaml:"port"`
	PublicBaseURL string `yaml:"publicBaseUrl"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDb"`
	Timezone      string `yaml:"timezone"`
	LogLevel      string `yaml:"logLevel"`
	LogFormat     string `yaml:"logFormat"`
	Env           string `yaml:"env"`

	MaxFileSizeMB     int      `yaml:"maxFileSizeMb"`
	CatalogDir        string   `yaml:"catalogDir"`
	DataDir           string   `yaml:"dataDir"`
	AdvancedSelection bool     `yaml:"advancedSelection"`
	Disclaimers       []string `yaml:"disclaimers"`

	TasksStreamMaxLen      int64 `yaml:"tasksStreamMaxLen"`
	TaskRetentionHours     int   `yaml:"taskRetentionHours"`
	RetentionSweepSeconds  int   `yaml:"retentionSweepSeconds"`
	MaxSeedValiditySeconds int64 `yaml:"maxSeedValiditySeconds"`

	RateLimitPerMinute int `yaml:"rateLimitPerMinute"`
	RateLimitBurst     int `yaml:"rateLimitBurst"`

	AuthProviders []AuthProvider `yaml:"authProviders"`

	TracingEnabled   bool    `yaml:"tracingEnabled"`
	OTLPEndpoint     string  `yaml:"otlpEndpoint"`
	OTLPInsecure     bool    `yaml:"otlpInsecure"`
	TraceSampleRatio float64 `yaml:"traceSampleRatio"`
}

func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	finish(&c)
	return &c, nil
}

// LoadConfigOptional behaves like LoadConfig but tolerates an empty path or
// a missing file: environment variables and defaults alone drive the
// configuration then.
func LoadConfigOptional(filePath string) (*Config, error) {
	if strings.TrimSpace(filePath) == "" {
		var c Config
		finish(&c)
		return &c, nil
	}
	cfg, err := LoadConfig(filePath)
	if err != nil && os.IsNotExist(err) {
		var c Config
		finish(&c)
		return &c, nil
	}
	return cfg, err
}

func finish(c *Config) {
	applyEnv(c)
	applyDefaults(c)
	log.Printf("Intake Config: {Port:%d Redis:%s Catalog:%s MaxMB:%d Advanced:%v Stream:%d}\n",
		c.Port, c.RedisAddr, c.CatalogDir, c.MaxFileSizeMB, c.AdvancedSelection, c.TasksStreamMaxLen)
}

func applyEnv(c *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Port = p
		}
	}
	if v := os.Getenv("PUBLIC_BASE_URL"); v != "" {
		c.PublicBaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RedisDB = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("ENV"); v != "" {
		c.Env = v
	}
	if v := os.Getenv("MAX_FILE_SIZE_MB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxFileSizeMB = n
		}
	}
	if v := os.Getenv("CATALOG_DIR"); v != "" {
		c.CatalogDir = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("ADVANCED_SELECTION"); v != "" {
		c.AdvancedSelection = parseBool(v)
	}
	if v := os.Getenv("TASKS_STREAM_MAX_LEN"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.TasksStreamMaxLen = n
		}
	}
	if v := os.Getenv("TASK_RETENTION_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.TaskRetentionHours = n
		}
	}
	if v := os.Getenv("RETENTION_SWEEP_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RetentionSweepSeconds = n
		}
	}
	if v := os.Getenv("MAX_SEED_VALIDITY_SECONDS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.MaxSeedValiditySeconds = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RateLimitPerMinute = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RateLimitBurst = n
		}
	}
	if v := os.Getenv("TRACING_ENABLED"); v != "" {
		c.TracingEnabled = parseBool(v)
	}
	if v := os.Getenv("OTLP_ENDPOINT"); v != "" {
		c.OTLPEndpoint = v
	}
	if v := os.Getenv("OTLP_INSECURE"); v != "" {
		c.OTLPInsecure = parseBool(v)
	}
}

func applyDefaults(c *Config) {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.RedisAddr == "" {
		c.RedisAddr = "localhost:6379"
	}
	if c.Timezone == "" {
		c.Timezone = "America/Sao_Paulo"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
	if c.Env == "" {
		c.Env = "dev"
	}
	if c.MaxFileSizeMB <= 0 {
		c.MaxFileSizeMB = 100
	}
	if c.CatalogDir == "" {
		c.CatalogDir = "./workers"
	}
	if c.DataDir == "" {
		c.DataDir = "./data"
	}
	if c.TasksStreamMaxLen <= 0 {
		c.TasksStreamMaxLen = 10000
	}
	if c.TaskRetentionHours <= 0 {
		c.TaskRetentionHours = 24
	}
	if c.RetentionSweepSeconds <= 0 {
		c.RetentionSweepSeconds = 300
	}
	if c.MaxSeedValiditySeconds <= 0 {
		c.MaxSeedValiditySeconds = 7 * 24 * 3600
	}
	if c.RateLimitPerMinute <= 0 {
		c.RateLimitPerMinute = 60
	}
	if c.RateLimitBurst <= 0 {
		c.RateLimitBurst = 20
	}
}

func parseBool(v string) bool {
	v = strings.TrimSpace(strings.ToLower(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func (c *Config) Validate() error {
	var errs []string
	env := strings.ToLower(strings.TrimSpace(c.Env))
	dev := env == "dev" || env == "test"

	if c.MaxFileSizeMB <= 0 {
		errs = append(errs, "maxFileSizeMb must be positive")
	}
	if strings.TrimSpace(c.CatalogDir) == "" {
		errs = append(errs, "catalogDir is required")
	}
	if c.PublicBaseURL != "" {
		u, err := url.Parse(c.PublicBaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, "publicBaseUrl must be a valid http(s) URL")
		}
	}
	if len(c.AuthProviders) == 0 && !dev {
		errs = append(errs, "authProviders are required in non-dev")
	}
	for i, p := range c.AuthProviders {
		if strings.TrimSpace(p.Type) == "" {
			errs = append(errs, fmt.Sprintf("authProviders[%d].type is required", i))
		}
	}
	if c.MaxSeedValiditySeconds <= 0 {
		errs = append(errs, "maxSeedValiditySeconds must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
