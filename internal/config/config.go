// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/signalnine/logwhisperer/internal/risk"
)

// LLMEndpoint represents one LLM provider in a fallback chain
type LLMEndpoint struct {
	URL       string `yaml:"url"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"` // env var name for API key
	APIKey    string `yaml:"-"`           // resolved at load time
}

// WeaviateConfig locates the pattern index. Empty host disables retrieval.
type WeaviateConfig struct {
	Scheme    string `yaml:"scheme"`
	Host      string `yaml:"host"`
	APIKeyEnv string `yaml:"api_key_env"`
	APIKey    string `yaml:"-"`
}

// ServerConfig for the diagnosis server
type ServerConfig struct {
	ListenAddr        string         `yaml:"listen_addr"`
	DBPath            string         `yaml:"db_path"`
	BlobDir           string         `yaml:"blob_dir"`
	MaxPayloadBytes   int64          `yaml:"max_payload_bytes"`
	MaxTokens         int            `yaml:"max_tokens"`
	ChunkMaxBytes     int            `yaml:"chunk_max_bytes"`
	ChunkOverlapBytes int            `yaml:"chunk_overlap_bytes"`
	RetrievalTopK     int            `yaml:"retrieval_top_k"`
	Allowlist         []string       `yaml:"allowlist"`
	AnalysisEndpoints []LLMEndpoint  `yaml:"analysis_endpoints"` // fallback chain
	CommandEndpoints  []LLMEndpoint  `yaml:"command_endpoints"`  // fallback chain
	Weaviate          WeaviateConfig `yaml:"weaviate"`
}

// AgentConfig for the log-tailing agent
type AgentConfig struct {
	ServerURL     string        `yaml:"server_url"`
	WatchFile     string        `yaml:"watch_file"`
	StateFile     string        `yaml:"state_file"`
	PollInterval  time.Duration `yaml:"poll_interval"`
	SessionID     string        `yaml:"session_id"`
	Hints         string        `yaml:"hints"`
	Vendor        string        `yaml:"vendor"`
	TLSSkipVerify bool          `yaml:"tls_skip_verify"`
}

// LoadServerConfig loads server config from YAML file with env overrides
func LoadServerConfig(path string) (*ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg ServerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Defaults
	if cfg.ChunkMaxBytes == 0 {
		cfg.ChunkMaxBytes = 2000
	}
	if cfg.ChunkOverlapBytes == 0 {
		cfg.ChunkOverlapBytes = 200
	}
	if cfg.RetrievalTopK == 0 {
		cfg.RetrievalTopK = 8
	}
	if cfg.MaxPayloadBytes == 0 {
		cfg.MaxPayloadBytes = 1 << 20
	}

	// Env overrides
	if v := os.Getenv("LOGWHISPERER_ALLOWLIST"); v != "" {
		cfg.Allowlist = risk.ParseAllowlist(v)
	}
	if v := os.Getenv("LOGWHISPERER_MAX_TOKENS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("LOGWHISPERER_MAX_TOKENS: %w", err)
		}
		cfg.MaxTokens = n
	}

	// Resolve API keys for each endpoint from env vars
	resolveKeys(cfg.AnalysisEndpoints)
	resolveKeys(cfg.CommandEndpoints)
	if cfg.Weaviate.APIKeyEnv != "" {
		cfg.Weaviate.APIKey = os.Getenv(cfg.Weaviate.APIKeyEnv)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func resolveKeys(endpoints []LLMEndpoint) {
	for i := range endpoints {
		if endpoints[i].APIKeyEnv != "" {
			endpoints[i].APIKey = os.Getenv(endpoints[i].APIKeyEnv)
		}
	}
}

// Validate rejects configurations the pipeline cannot run with
func (c *ServerConfig) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.ChunkMaxBytes < utf8.UTFMax {
		return fmt.Errorf("chunk_max_bytes %d too small, need at least %d", c.ChunkMaxBytes, utf8.UTFMax)
	}
	if c.ChunkOverlapBytes < 0 || c.ChunkOverlapBytes >= c.ChunkMaxBytes {
		return fmt.Errorf("chunk_overlap_bytes %d out of range [0, %d)", c.ChunkOverlapBytes, c.ChunkMaxBytes)
	}
	if len(c.AnalysisEndpoints) == 0 {
		return fmt.Errorf("at least one analysis endpoint is required")
	}
	if len(c.CommandEndpoints) == 0 {
		return fmt.Errorf("at least one command endpoint is required")
	}
	return nil
}

// LoadAgentConfig loads agent config from YAML file with env overrides
func LoadAgentConfig(path string) (*AgentConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg AgentConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if v := os.Getenv("LOGWHISPERER_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 30 * time.Second
	}
	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("server_url is required")
	}
	if cfg.WatchFile == "" {
		return nil, fmt.Errorf("watch_file is required")
	}
	return &cfg, nil
}
