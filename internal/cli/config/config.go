package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

const ConfigFileName = "llmadmin.json"

// Server is one platform deployment the CLI can talk to
type Server struct {
	URL   string `json:"url"`
	Alias string `json:"alias"`
}

// Validate checks the server URL is an absolute http(s) URL
func (s Server) Validate() error {
	if s.URL == "" {
		return fmt.Errorf("server %q has no url. Please edit %s and add the API address", s.Alias, ConfigFileName)
	}
	u, err := url.Parse(s.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("server %q has an invalid url %q (expected http(s)://host[:port])", s.Alias, s.URL)
	}
	return nil
}

// Config represents the project configuration file
type Config struct {
	Servers []Server `json:"servers"`
}

// NormalizeURL trims whitespace and trailing slashes
func NormalizeURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

// FindConfigFile searches for llmadmin.json in the current directory and its parents
func FindConfigFile() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	dir := currentDir
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%s not found in %s or any parent directory", ConfigFileName, currentDir)
}

// Load reads the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	for i := range cfg.Servers {
		cfg.Servers[i].URL = NormalizeURL(cfg.Servers[i].URL)
	}

	return &cfg, nil
}

// LoadFromCurrentDir loads config from the current directory or a parent
func LoadFromCurrentDir() (*Config, error) {
	configPath, err := FindConfigFile()
	if err != nil {
		return nil, err
	}

	return Load(configPath)
}

// Save writes the configuration to a file
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetServerByAlias returns a server by its alias
func (c *Config) GetServerByAlias(alias string) (*Server, error) {
	for i := range c.Servers {
		if c.Servers[i].Alias == alias {
			return &c.Servers[i], nil
		}
	}
	return nil, fmt.Errorf("server with alias '%s' not found", alias)
}

// GetServerByURL returns a server by its URL
func (c *Config) GetServerByURL(rawURL string) (*Server, error) {
	want := NormalizeURL(rawURL)
	for i := range c.Servers {
		if c.Servers[i].URL == want {
			return &c.Servers[i], nil
		}
	}
	return nil, fmt.Errorf("server with url '%s' not found", rawURL)
}

// GetServer finds a server by URL first, then by alias
func (c *Config) GetServer(urlOrAlias string) (*Server, error) {
	if s, err := c.GetServerByURL(urlOrAlias); err == nil {
		return s, nil
	}
	if s, err := c.GetServerByAlias(urlOrAlias); err == nil {
		return s, nil
	}
	return nil, fmt.Errorf("server with url or alias '%s' not found", urlOrAlias)
}

// AddServer appends a server unless its URL is already configured. The
// first server is aliased "default"; later ones "server-N".
func (c *Config) AddServer(rawURL string) (*Server, bool) {
	if s, err := c.GetServerByURL(rawURL); err == nil {
		return s, false
	}

	alias := "default"
	if len(c.Servers) > 0 {
		alias = fmt.Sprintf("server-%d", len(c.Servers)+1)
	}
	c.Servers = append(c.Servers, Server{URL: NormalizeURL(rawURL), Alias: alias})
	return &c.Servers[len(c.Servers)-1], true
}
