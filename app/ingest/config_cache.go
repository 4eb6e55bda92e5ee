package ingest

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

type ConfigCache struct {
	providersDir string
	cache        map[string]*Config
	mu           sync.RWMutex
}

func NewConfigCache(providersDir string) *ConfigCache {
	return &ConfigCache{
		providersDir: providersDir,
		cache:        make(map[string]*Config),
	}
}

func (cc *ConfigCache) Run() error {
	if _, err := os.Stat(cc.providersDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.providersDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		// Derive provider name from filename (remove .yml extension)
		fileName := filepath.Base(file)
		providerName := fileName[:len(fileName)-4]

		config, err := cc.LoadConfig(providerName)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Provider configuration loaded", "provider", providerName, "feeding_service", config.FeedingService, "enabled", config.Settings.Enabled)
	}

	return nil
}

func (cc *ConfigCache) LoadConfig(providerName string) (*Config, error) {
	configFile := cc.getConfigFilePath(providerName)
	providerConfig, err := cc.parseConfig(configFile)
	if err != nil {
		return nil, err
	}

	// Set provider name from parameter
	providerConfig.Name = providerName

	if err := cc.validateConfig(providerConfig); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	// Store in cache
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache[providerConfig.Name] = providerConfig

	return providerConfig, nil
}

func (cc *ConfigCache) GetConfig(providerName string) (*Config, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	providerConfig, ok := cc.cache[providerName]
	if !ok {
		return nil, fmt.Errorf("provider config with name '%s' not found", providerName)
	}
	return providerConfig, nil
}

func (cc *ConfigCache) GetConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	configsCopy := make(map[string]*Config, len(cc.cache))
	for k, v := range cc.cache {
		configsCopy[k] = v
	}
	return configsCopy
}

func (cc *ConfigCache) GetEnabledConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	enabledConfigs := make(map[string]*Config)
	for k, v := range cc.cache {
		if v.Settings.Enabled {
			enabledConfigs[k] = v
		}
	}
	return enabledConfigs
}

func (cc *ConfigCache) GetConfigCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache)
}

func (cc *ConfigCache) parseConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var providerConfig Config
	if err := yaml.Unmarshal(data, &providerConfig); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if providerConfig.Settings.ScheduleInterval == 0 {
		providerConfig.Settings.ScheduleInterval = 300
	}
	if providerConfig.Settings.MaxItems == 0 {
		providerConfig.Settings.MaxItems = 100
	}
	if providerConfig.Settings.Timeout == 0 {
		providerConfig.Settings.Timeout = 60
	}
	if len(providerConfig.AllowedKinds) == 0 {
		providerConfig.AllowedKinds = []string{"TEXTARTICLE"}
	}

	return &providerConfig, nil
}

func (cc *ConfigCache) validateConfig(providerConfig *Config) error {
	if providerConfig == nil {
		return fmt.Errorf("providerConfig is nil")
	}

	requiredFields := map[string]string{
		"provider name":   providerConfig.Name,
		"feeding service": providerConfig.FeedingService,
		"provider URL":    providerConfig.URL,
	}

	for fieldName, fieldValue := range requiredFields {
		if strings.TrimSpace(fieldValue) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}

	if !feedingServiceRegistered(providerConfig.FeedingService) {
		return fmt.Errorf("unknown feeding service: %s", providerConfig.FeedingService)
	}

	nonNegativeFields := map[string]int{
		"schedule interval": providerConfig.Settings.ScheduleInterval,
		"max items":         providerConfig.Settings.MaxItems,
		"timeout":           providerConfig.Settings.Timeout,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	return nil
}

func (cc *ConfigCache) getConfigFilePath(providerName string) string {
	return filepath.Join(cc.providersDir, providerName+".yml")
}
