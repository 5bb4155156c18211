// CLAUDE:SUMMARY Configuration struct, defaults and YAML loader for the larder service.
package larder

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/larder/internal/forkify"
	"github.com/hazyhaar/larder/view"
)

// Config holds all larder configuration.
type Config struct {
	Addr            string          `yaml:"addr"`
	DBPath          string          `yaml:"db_path"`
	API             APIConfig       `yaml:"api"`
	CacheTTL        time.Duration   `yaml:"cache_ttl"`
	ResultsPerPage  int             `yaml:"results_per_page"`
	ModalCloseAfter time.Duration   `yaml:"modal_close_after"`
	SessionIdle     time.Duration   `yaml:"session_idle"`
	IconsURL        string          `yaml:"icons_url"`
	Reconcile       ReconcileConfig `yaml:"reconcile"`
	MCPHTTP         bool            `yaml:"mcp_http"` // serve MCP on /mcp
}

// APIConfig points at the recipe API.
type APIConfig struct {
	BaseURL  string        `yaml:"base_url"`
	Key      string        `yaml:"key"`
	Timeout  time.Duration `yaml:"timeout"`
	MaxBytes int64         `yaml:"max_bytes"`
}

// ReconcileConfig controls incremental updates.
type ReconcileConfig struct {
	// Mismatch is what an update does when the new markup has a different
	// element structure: "replace", "truncate" or "reject".
	Mismatch string `yaml:"mismatch"`
}

func (c *Config) defaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.DBPath == "" {
		c.DBPath = "larder.db"
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = forkify.DefaultBaseURL
	}
	if c.API.Timeout <= 0 {
		c.API.Timeout = 10 * time.Second
	}
	if c.API.MaxBytes <= 0 {
		c.API.MaxBytes = 1 << 20
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 24 * time.Hour
	}
	if c.ResultsPerPage <= 0 {
		c.ResultsPerPage = 10
	}
	if c.ModalCloseAfter <= 0 {
		c.ModalCloseAfter = 2500 * time.Millisecond
	}
	if c.SessionIdle <= 0 {
		c.SessionIdle = 30 * time.Minute
	}
	if c.IconsURL == "" {
		c.IconsURL = view.DefaultIconsURL
	}
	if c.Reconcile.Mismatch == "" {
		c.Reconcile.Mismatch = "replace"
	}
}

// LoadConfigFile reads a YAML config file. Missing fields keep their zero
// value until New applies the defaults.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("larder: config: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("larder: config %s: %w", path, err)
	}
	return cfg, nil
}
