package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the crawler, the indexer and the chat server
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Crawl     CrawlConfig     `mapstructure:"crawl"`
	PDF       PDFConfig       `mapstructure:"pdf"`
	Chunking  ChunkingConfig  `mapstructure:"chunking"`
	Index     IndexConfig     `mapstructure:"index"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Server    ServerConfig    `mapstructure:"server"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"` // text or json
}

// DefaultStartURLs are the university pages a crawl starts from when none are configured.
var DefaultStartURLs = []string{
	"https://www.ajman.ac.ae/en/prospective-students",
	"https://www.ajman.ac.ae/en/admissions",
}

// CrawlConfig contains web crawl settings
type CrawlConfig struct {
	StartURLs     []string          `mapstructure:"start_urls"`
	Mode          string            `mapstructure:"mode"` // pool or depth
	MaxPages      int               `mapstructure:"max_pages"`
	MaxDepth      int               `mapstructure:"max_depth"`
	Workers       int               `mapstructure:"workers"`
	Timeout       time.Duration     `mapstructure:"timeout"`
	Delay         time.Duration     `mapstructure:"delay"`
	UserAgent     string            `mapstructure:"user_agent"`
	OutputDir     string            `mapstructure:"output_dir"`
	Strip         string            `mapstructure:"strip"` // full or light
	Readability   bool              `mapstructure:"readability"`
	RatePerSecond float64           `mapstructure:"rate_per_second"`
	Renderer      string            `mapstructure:"renderer"` // http or chromedp
	MaxBodyBytes  int64             `mapstructure:"max_body_bytes"`
	Policy        CrawlPolicyConfig `mapstructure:"policy"`
}

// Normalize applies defaults for unset crawl values.
func (c CrawlConfig) Normalize() CrawlConfig {
	var starts []string
	for _, u := range c.StartURLs {
		if u = strings.TrimSpace(u); u != "" {
			starts = append(starts, u)
		}
	}
	if len(starts) == 0 {
		starts = append([]string(nil), DefaultStartURLs...)
	}
	c.StartURLs = starts
	c.Mode = strings.ToLower(strings.TrimSpace(c.Mode))
	if c.Mode == "" {
		c.Mode = "pool"
	}
	if c.Workers <= 0 {
		c.Workers = 5
	}
	if c.MaxPages < 0 {
		c.MaxPages = 0
	}
	if c.MaxDepth < 0 {
		c.MaxDepth = 0
	}
	if c.Timeout <= 0 {
		c.Timeout = 8 * time.Second
	}
	if c.Delay < 0 {
		c.Delay = 0
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		c.OutputDir = "data/crawl"
	}
	c.Strip = strings.ToLower(strings.TrimSpace(c.Strip))
	if c.Strip == "" {
		c.Strip = "full"
	}
	c.Renderer = strings.ToLower(strings.TrimSpace(c.Renderer))
	if c.Renderer == "" {
		c.Renderer = "http"
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 5 << 20
	}
	c.Policy = c.Policy.Normalize()
	return c
}

// Validate checks the crawl configuration.
func (c CrawlConfig) Validate() error {
	switch c.Mode {
	case "pool", "depth":
	default:
		return fmt.Errorf("crawl.mode must be pool or depth, got %q", c.Mode)
	}
	switch c.Strip {
	case "full", "light":
	default:
		return fmt.Errorf("crawl.strip must be full or light, got %q", c.Strip)
	}
	switch c.Renderer {
	case "http", "chromedp":
	default:
		return fmt.Errorf("crawl.renderer must be http or chromedp, got %q", c.Renderer)
	}
	if c.RatePerSecond < 0 {
		return fmt.Errorf("crawl.rate_per_second cannot be negative")
	}
	return c.Policy.Validate()
}

// PDFConfig contains PDF extraction settings
type PDFConfig struct {
	InputDir  string `mapstructure:"input_dir"`
	OutputDir string `mapstructure:"output_dir"`
}

// Normalize applies defaults for unset PDF values.
func (c PDFConfig) Normalize() PDFConfig {
	if strings.TrimSpace(c.InputDir) == "" {
		c.InputDir = "data/pdf"
	}
	return c
}

// ChunkingConfig controls how documents are split before embedding
type ChunkingConfig struct {
	Size       int      `mapstructure:"size"`
	Overlap    int      `mapstructure:"overlap"`
	Separators []string `mapstructure:"separators"`
}

// Normalize applies defaults for unset chunking values.
func (c ChunkingConfig) Normalize() ChunkingConfig {
	if c.Size <= 0 {
		c.Size = 1000
	}
	if c.Overlap < 0 {
		c.Overlap = 0
	}
	return c
}

// Validate ensures the overlap fits inside a chunk.
func (c ChunkingConfig) Validate() error {
	if c.Overlap >= c.Size {
		return fmt.Errorf("chunking.overlap (%d) must be smaller than chunking.size (%d)", c.Overlap, c.Size)
	}
	return nil
}

// IndexConfig contains vector index settings
type IndexConfig struct {
	Path      string `mapstructure:"path"`
	BatchSize int    `mapstructure:"batch_size"`
}

// Normalize applies defaults for unset index values.
func (c IndexConfig) Normalize() IndexConfig {
	if strings.TrimSpace(c.Path) == "" {
		c.Path = "data/index.db"
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 64
	}
	return c
}

// RetrievalConfig controls query-time retrieval
type RetrievalConfig struct {
	TopK int    `mapstructure:"top_k"`
	Mode string `mapstructure:"mode"` // vector or hybrid
}

// Normalize applies defaults for unset retrieval values.
func (c RetrievalConfig) Normalize() RetrievalConfig {
	if c.TopK <= 0 {
		c.TopK = 10
	}
	c.Mode = strings.ToLower(strings.TrimSpace(c.Mode))
	if c.Mode == "" {
		c.Mode = "vector"
	}
	return c
}

// Validate checks the retrieval mode.
func (c RetrievalConfig) Validate() error {
	if c.Mode != "vector" && c.Mode != "hybrid" {
		return fmt.Errorf("retrieval.mode must be vector or hybrid, got %q", c.Mode)
	}
	return nil
}

// LLMConfig contains the OpenAI-compatible provider settings
type LLMConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	ChatModel      string        `mapstructure:"chat_model"`
	EmbeddingModel string        `mapstructure:"embedding_model"`
	Temperature    float64       `mapstructure:"temperature"`
	MaxTokens      int           `mapstructure:"max_tokens"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
}

// Normalize applies defaults for unset LLM values.
func (c LLMConfig) Normalize() LLMConfig {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if strings.TrimSpace(c.ChatModel) == "" {
		c.ChatModel = "gpt-3.5-turbo"
	}
	if strings.TrimSpace(c.EmbeddingModel) == "" {
		c.EmbeddingModel = "text-embedding-3-small"
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	return c
}

// StorageConfig contains storage and persistence settings
type StorageConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig contains Redis connection settings for the embedding cache
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// Addr returns host:port.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

func (r RedisConfig) Validate() error {
	if !r.Enabled {
		return nil
	}
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	return nil
}

// ServerConfig contains HTTP chat server settings
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	AllowOrigins []string      `mapstructure:"allow_origins"`
	SessionTTL   time.Duration `mapstructure:"session_ttl"`
}

// Normalize applies defaults for unset server values.
func (c ServerConfig) Normalize() ServerConfig {
	if strings.TrimSpace(c.Address) == "" {
		c.Address = ":10001"
	}
	if len(c.AllowOrigins) == 0 {
		c.AllowOrigins = []string{"*"}
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 30 * time.Minute
	}
	return c
}

// TelemetryConfig toggles the prometheus endpoint
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Normalize runs every section's Normalize.
func (c *Config) Normalize() {
	c.Crawl = c.Crawl.Normalize()
	c.PDF = c.PDF.Normalize()
	c.Chunking = c.Chunking.Normalize()
	c.Index = c.Index.Normalize()
	c.Retrieval = c.Retrieval.Normalize()
	c.LLM = c.LLM.Normalize()
	c.Server = c.Server.Normalize()
}

// Validate runs every section's Validate and returns the first failure.
func (c *Config) Validate() error {
	if err := c.Crawl.Validate(); err != nil {
		return err
	}
	if err := c.Chunking.Validate(); err != nil {
		return err
	}
	if err := c.Retrieval.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Redis.Validate(); err != nil {
		return err
	}
	return nil
}

// LoadConfig loads config from file and environment. A missing config file is not an error:
// defaults and CAMPUSBOT_* variables still apply. A malformed file or invalid value panics.
func LoadConfig(path string) *Config {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.SetDefault("general.log_level", "info")
	v.SetDefault("general.log_format", "text")
	v.SetDefault("crawl.mode", "pool")
	v.SetDefault("crawl.max_pages", 50)
	v.SetDefault("crawl.max_depth", 2)
	v.SetDefault("crawl.workers", 5)
	v.SetDefault("crawl.timeout", 8*time.Second)
	v.SetDefault("crawl.delay", time.Second)
	v.SetDefault("crawl.strip", "full")
	v.SetDefault("crawl.renderer", "http")
	v.SetDefault("chunking.size", 1000)
	v.SetDefault("chunking.overlap", 200)
	v.SetDefault("retrieval.top_k", 10)
	v.SetDefault("retrieval.mode", "vector")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("storage.redis.port", "6379")
	v.SetDefault("storage.redis.ttl", 30*24*time.Hour)
	v.SetDefault("telemetry.enabled", true)

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		v.AddConfigPath(exeDir)
		v.AddConfigPath(filepath.Join(exeDir, "..", "config"))
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("CAMPUSBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only covers keys viper already knows about.
	for _, key := range []string{"llm.api_key", "llm.base_url", "storage.redis.host", "storage.redis.password", "index.path", "server.address"} {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	if config.LLM.APIKey == "" {
		config.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	config.Normalize()
	if err := config.Validate(); err != nil {
		panic(err)
	}
	return &config
}
