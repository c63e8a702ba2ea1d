package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	General            GeneralConfig   `toml:"general"`
	Sources            SourcesConfig   `toml:"sources"`
	Docker             DockerConfig    `toml:"docker"`
	Storage            StorageConfig   `toml:"storage"`
	Backup             BackupConfig    `toml:"backup"`
	LLM                LLMConfig       `toml:"llm"`
	API                APIConfig       `toml:"api"`
	Security           SecurityConfig  `toml:"security"`
	Logging            LoggingConfig   `toml:"logging"`
	Services           []ServiceConfig `toml:"services"`
	CriticalContainers []string        `toml:"critical_containers"`
}

type GeneralConfig struct {
	// Owner is the name the assistant persona refers to ("il NAS di <Owner>").
	Owner string `toml:"owner"`
}

// SourcesConfig holds the monitoring backends queried over HTTP.
type SourcesConfig struct {
	NetdataURL    string        `toml:"netdata_url"`
	ScrutinyURL   string        `toml:"scrutiny_url"`
	UptimeKumaURL string        `toml:"uptime_kuma_url"`
	DuplicatiURL  string        `toml:"duplicati_url"`
	PortainerURL  string        `toml:"portainer_url"`
	HTTPTimeout   string        `toml:"http_timeout"`
	HTTPTimeoutD  time.Duration `toml:"-"`
}

type DockerConfig struct {
	// Host overrides DOCKER_HOST when set.
	Host         string        `toml:"host"`
	VPNContainer string        `toml:"vpn_container"`
	VPNLogTail   int           `toml:"vpn_log_tail"`
	Timeout      string        `toml:"timeout"`
	TimeoutD     time.Duration `toml:"-"`
}

type StorageConfig struct {
	MountPath string        `toml:"mount_path"`
	Timeout   string        `toml:"timeout"`
	TimeoutD  time.Duration `toml:"-"`
}

type BackupConfig struct {
	Source      string `toml:"source"`
	Destination string `toml:"destination"`
}

// LLMConfig holds settings for the generative backend.
type LLMConfig struct {
	BaseURL            string        `toml:"base_url"`
	Model              string        `toml:"model"`
	Temperature        float64       `toml:"temperature"`
	TopP               float64       `toml:"top_p"`
	NumCtx             int           `toml:"num_ctx"`
	PromptBudgetTokens int           `toml:"prompt_budget_tokens"`
	Language           string        `toml:"language"`
	Timeout            string        `toml:"timeout"`
	TimeoutD           time.Duration `toml:"-"`
}

type APIConfig struct {
	ListenAddr string `toml:"listen_addr"`
}

type SecurityConfig struct {
	// AllowedChatIDs gates every entry point of the HTTP boundary.
	AllowedChatIDs  []int64 `toml:"allowed_chat_ids"`
	RateLimitPerMin int     `toml:"rate_limit_per_min"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ServiceConfig is one entry of the monitored service directory.
type ServiceConfig struct {
	Name        string   `toml:"name"`
	Role        string   `toml:"role"`
	URL         string   `toml:"url"`
	PublicURL   string   `toml:"public_url"`
	Emoji       string   `toml:"emoji"`
	Highlights  []string `toml:"highlights"`
	ShowInShort bool     `toml:"show_in_short"`
}

func Default() *Config {
	return &Config{
		General: GeneralConfig{
			Owner: "Eros",
		},
		Sources: SourcesConfig{
			NetdataURL:    "http://nas-netdata:19999",
			ScrutinyURL:   "http://nas-scrutiny:8086",
			UptimeKumaURL: "http://nas-uptime-kuma:3001",
			DuplicatiURL:  "http://nas-duplicati:8200",
			PortainerURL:  "http://portainer:9000",
			HTTPTimeout:   "10s",
		},
		Docker: DockerConfig{
			VPNContainer: "transmission-openvpn",
			VPNLogTail:   50,
			Timeout:      "10s",
		},
		Storage: StorageConfig{
			MountPath: "/mnt/nas",
			Timeout:   "10s",
		},
		Backup: BackupConfig{
			Source:      "/mnt/nas/docker/",
			Destination: "/mnt/nas/backup/duplicati/",
		},
		LLM: LLMConfig{
			BaseURL:            "http://ollama:11434",
			Model:              "llama3.2:3b",
			Temperature:        0.7,
			TopP:               0.9,
			NumCtx:             3072,
			PromptBudgetTokens: 2048,
			Language:           "italiano",
			Timeout:            "180s",
		},
		API: APIConfig{
			ListenAddr: "127.0.0.1:8088",
		},
		Security: SecurityConfig{
			AllowedChatIDs:  nil,
			RateLimitPerMin: 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Services:           DefaultServices(),
		CriticalContainers: []string{"transmission-openvpn", "Immich-SERVER", "vaultwarden", "seafile", "npm", "portainer"},
	}
}

// DefaultServices returns the built-in service directory.
func DefaultServices() []ServiceConfig {
	return []ServiceConfig{
		{
			Name: "Netdata", Role: "Sistema Real-time", Emoji: "📊",
			URL: "http://nas-netdata:19999", PublicURL: "http://192.168.1.50:19999", ShowInShort: true,
			Highlights: []string{"CPU, RAM, Temperature, Load", "Grafici real-time interattivi", "Alert automatici"},
		},
		{
			Name: "Scrutiny", Role: "SMART Dischi", Emoji: "💾",
			URL: "http://nas-scrutiny:8086", PublicURL: "http://192.168.1.50:8086", ShowInShort: true,
			Highlights: []string{"Test SMART automatici (weekly/monthly)", "Temperature sda, sdb, nvme", "Health score dischi"},
		},
		{
			Name: "Duplicati", Role: "Backup Versioning", Emoji: "📦",
			URL: "http://nas-duplicati:8200", PublicURL: "http://192.168.1.50:8200", ShowInShort: true,
			Highlights: []string{"Backup automatico /mnt/nas/docker/", "Versioning multiplo (2 versioni)", "Scheduling personalizzabile"},
		},
		{
			Name: "Uptime Kuma", Role: "Service Monitoring", Emoji: "⏰",
			URL: "http://nas-uptime-kuma:3001", PublicURL: "http://192.168.1.50:3001", ShowInShort: true,
			Highlights: []string{"Monitoring VPN transmission-openvpn", "Alert downtime servizi", "Grafici uptime"},
		},
		{
			Name: "Portainer", Role: "Container Management", Emoji: "🐳",
			URL: "http://portainer:9000", PublicURL: "http://192.168.1.50:9000",
			Highlights: []string{"Gestione container esistenti", "Logs e statistiche", "Stack management"},
		},
	}
}

func LoadFromFile(path string) (*Config, error) {
	expandedPath, err := expandPath(path)
	if err != nil {
		return nil, fmt.Errorf("expand path: %w", err)
	}

	data, err := os.ReadFile(expandedPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("decode TOML: %w", err)
	}

	if err := cfg.postProcess(); err != nil {
		return nil, fmt.Errorf("post process config: %w", err)
	}

	return cfg, nil
}

func (c *Config) postProcess() error {
	var err error

	if c.Sources.HTTPTimeoutD, err = time.ParseDuration(c.Sources.HTTPTimeout); err != nil {
		return fmt.Errorf("parse sources.http_timeout: %w", err)
	}

	if c.Docker.TimeoutD, err = time.ParseDuration(c.Docker.Timeout); err != nil {
		return fmt.Errorf("parse docker.timeout: %w", err)
	}

	if c.Storage.TimeoutD, err = time.ParseDuration(c.Storage.Timeout); err != nil {
		return fmt.Errorf("parse storage.timeout: %w", err)
	}

	if c.LLM.TimeoutD, err = time.ParseDuration(c.LLM.Timeout); err != nil {
		return fmt.Errorf("parse llm.timeout: %w", err)
	}

	c.Storage.MountPath, err = expandPath(c.Storage.MountPath)
	if err != nil {
		return fmt.Errorf("expand storage.mount_path: %w", err)
	}

	c.syncServiceURLs()
	return nil
}

// syncServiceURLs makes the directory entry of each queried service point
// at the endpoint actually fetched, so environment and file overrides of
// the sources reach the prompt.
func (c *Config) syncServiceURLs() {
	byName := map[string]string{
		"netdata":     c.Sources.NetdataURL,
		"scrutiny":    c.Sources.ScrutinyURL,
		"uptime kuma": c.Sources.UptimeKumaURL,
		"duplicati":   c.Sources.DuplicatiURL,
		"portainer":   c.Sources.PortainerURL,
	}
	for i := range c.Services {
		if u := byName[strings.ToLower(c.Services[i].Name)]; u != "" {
			c.Services[i].URL = u
		}
	}
}

func (c *Config) Validate() error {
	if c.Sources.HTTPTimeoutD <= 0 || c.Sources.HTTPTimeoutD > 10*time.Second {
		return fmt.Errorf("sources.http_timeout must be in (0s, 10s], got %s", c.Sources.HTTPTimeoutD)
	}

	if c.Docker.VPNContainer == "" {
		return fmt.Errorf("docker.vpn_container cannot be empty")
	}

	if c.Docker.VPNLogTail < 1 {
		return fmt.Errorf("docker.vpn_log_tail must be at least 1, got %d", c.Docker.VPNLogTail)
	}

	if c.Storage.MountPath == "" {
		return fmt.Errorf("storage.mount_path cannot be empty")
	}

	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model cannot be empty")
	}

	if c.LLM.NumCtx < 512 {
		return fmt.Errorf("llm.num_ctx must be at least 512, got %d", c.LLM.NumCtx)
	}

	if c.LLM.PromptBudgetTokens <= 0 || c.LLM.PromptBudgetTokens > c.LLM.NumCtx {
		return fmt.Errorf("llm.prompt_budget_tokens must be in (0, num_ctx=%d], got %d", c.LLM.NumCtx, c.LLM.PromptBudgetTokens)
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2, got %.2f", c.LLM.Temperature)
	}

	if c.LLM.TopP < 0 || c.LLM.TopP > 1 {
		return fmt.Errorf("llm.top_p must be between 0 and 1, got %.2f", c.LLM.TopP)
	}

	if c.Security.RateLimitPerMin < 0 {
		return fmt.Errorf("rate_limit_per_min cannot be negative, got %d", c.Security.RateLimitPerMin)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid logging level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("invalid logging format: %s (valid: json, text)", c.Logging.Format)
	}

	return nil
}

// IsCritical reports whether name is in the critical container allow-list.
func (c *Config) IsCritical(name string) bool {
	for _, n := range c.CriticalContainers {
		if n == name {
			return true
		}
	}
	return false
}

// IsChatAllowed reports whether chatID is in the authorization allow-list.
// An empty allow-list denies everyone.
func (c *Config) IsChatAllowed(chatID int64) bool {
	for _, id := range c.Security.AllowedChatIDs {
		if id == chatID {
			return true
		}
	}
	return false
}

// ApplyEnvOverrides applies the environment variables used by the original
// docker-compose deployment, then the NASBOT_* variables.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("NETDATA_URL"); v != "" {
		cfg.Sources.NetdataURL = v
	}
	if v := os.Getenv("SCRUTINY_URL"); v != "" {
		cfg.Sources.ScrutinyURL = v
	}
	if v := os.Getenv("UPTIME_KUMA_URL"); v != "" {
		cfg.Sources.UptimeKumaURL = v
	}
	if v := os.Getenv("DUPLICATI_URL"); v != "" {
		cfg.Sources.DuplicatiURL = v
	}
	if v := os.Getenv("PORTAINER_URL"); v != "" {
		cfg.Sources.PortainerURL = v
	}
	if v := os.Getenv("OLLAMA_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("ALLOWED_CHAT_IDS"); v != "" {
		cfg.Security.AllowedChatIDs = parseChatIDs(v)
	}
	if v := os.Getenv("NASBOT_OLLAMA_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("NASBOT_MOUNT_PATH"); v != "" {
		cfg.Storage.MountPath = v
	}
	if v := os.Getenv("NASBOT_VPN_CONTAINER"); v != "" {
		cfg.Docker.VPNContainer = v
	}
	if v := os.Getenv("NASBOT_API_LISTEN"); v != "" {
		cfg.API.ListenAddr = v
	}
	if v := os.Getenv("NASBOT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("NASBOT_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("DOCKER_HOST"); v != "" && cfg.Docker.Host == "" {
		cfg.Docker.Host = v
	}
}

// parseChatIDs parses a comma separated list, skipping malformed entries.
func parseChatIDs(s string) []int64 {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get user home directory: %w", err)
		}
		return filepath.Join(homeDir, path[2:]), nil
	}

	return path, nil
}

func Load(configPath string) (*Config, error) {
	var cfg *Config
	var err error

	if configPath != "" {
		cfg, err = LoadFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("load config from %s: %w", configPath, err)
		}
	} else {
		cfg = Default()
	}

	ApplyEnvOverrides(cfg)

	if err := cfg.postProcess(); err != nil {
		return nil, fmt.Errorf("post process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}
