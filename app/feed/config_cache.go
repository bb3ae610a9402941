package feed

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/lysyi3m/jsonfeed-comb/app/jsonfeed"
)

const (
	defaultRefreshInterval = 3600 // seconds
	defaultMaxItems        = 100
	defaultTimeout         = 30 // seconds

	// Upper bound on items re-published per feed
	maxItemsLimit = 1000
)

// Feed names become the last segment of /feeds/<name>
var feedNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ConfigCache holds the per-feed YAML configurations found in the feeds
// directory, keyed by file name without the .yml extension.
type ConfigCache struct {
	feedsDir string
	cache    map[string]*Config
	mu       sync.RWMutex
}

func NewConfigCache(feedsDir string) *ConfigCache {
	return &ConfigCache{
		feedsDir: feedsDir,
		cache:    make(map[string]*Config),
	}
}

// Run loads every *.yml file in the feeds directory. A missing directory
// leaves the cache empty.
func (cc *ConfigCache) Run() error {
	if _, err := os.Stat(cc.feedsDir); os.IsNotExist(err) {
		slog.Warn("Feeds directory not found", "dir", cc.feedsDir)
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.feedsDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		feedName := strings.TrimSuffix(filepath.Base(file), ".yml")

		feedConfig, err := cc.LoadConfig(feedName)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Feed configuration loaded",
			"feed", feedName,
			"url", feedConfig.URL,
			"enabled", feedConfig.Settings.Enabled,
			"refresh_interval", feedConfig.Settings.RefreshInterval,
			"filters", len(feedConfig.Filters))
	}

	return nil
}

// LoadConfig reads and validates a single feed configuration and replaces
// the cached copy. An invalid file leaves the cached copy untouched.
func (cc *ConfigCache) LoadConfig(feedName string) (*Config, error) {
	configFile := filepath.Join(cc.feedsDir, feedName+".yml")

	feedConfig, err := cc.parseConfig(configFile)
	if err != nil {
		return nil, err
	}
	feedConfig.Name = feedName

	if err := cc.validateConfig(feedConfig); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	cc.mu.Lock()
	cc.cache[feedName] = feedConfig
	cc.mu.Unlock()

	return feedConfig, nil
}

func (cc *ConfigCache) GetConfig(feedName string) (*Config, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	feedConfig, ok := cc.cache[feedName]
	if !ok {
		return nil, fmt.Errorf("feed config with name '%s' not found", feedName)
	}
	return feedConfig, nil
}

func (cc *ConfigCache) GetConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return maps.Clone(cc.cache)
}

func (cc *ConfigCache) GetEnabledConfigs() map[string]*Config {
	configs := cc.GetConfigs()
	maps.DeleteFunc(configs, func(_ string, feedConfig *Config) bool {
		return !feedConfig.Settings.Enabled
	})
	return configs
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

	var feedConfig Config
	if err := yaml.Unmarshal(data, &feedConfig); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	settings := &feedConfig.Settings
	if settings.RefreshInterval == 0 {
		settings.RefreshInterval = defaultRefreshInterval
	}
	if settings.MaxItems == 0 {
		settings.MaxItems = defaultMaxItems
	}
	if settings.Timeout == 0 {
		settings.Timeout = defaultTimeout
	}
	if feedConfig.Filters == nil {
		feedConfig.Filters = []ConfigFilter{}
	}

	return &feedConfig, nil
}

// validateConfig reports every problem found, joined into one error.
func (cc *ConfigCache) validateConfig(feedConfig *Config) error {
	if feedConfig == nil {
		return errors.New("feed config is nil")
	}

	return errors.Join(
		validateSource(feedConfig),
		validateSettings(feedConfig.Settings),
		validateFilters(feedConfig.Filters),
	)
}

func validateSource(feedConfig *Config) error {
	var errs []error

	if !feedNamePattern.MatchString(feedConfig.Name) {
		errs = append(errs, fmt.Errorf("feed name %q cannot be used in a URL path", feedConfig.Name))
	}

	if feedConfig.URL == "" {
		return errors.Join(append(errs, errors.New("feed URL is required"))...)
	}

	// Same URI rules the decoder applies to feed_url
	u, err := jsonfeed.ParseURI(feedConfig.URL)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("feed URL %q is malformed: %w", feedConfig.URL, err))
	case u.Scheme != "http" && u.Scheme != "https", u.Host == "":
		errs = append(errs, fmt.Errorf("feed URL must be an absolute http(s) URL: %s", feedConfig.URL))
	}

	return errors.Join(errs...)
}

func validateSettings(settings ConfigSettings) error {
	var errs []error

	if settings.RefreshInterval < 0 {
		errs = append(errs, errors.New("refresh interval must be non-negative"))
	}
	if settings.Timeout < 0 {
		errs = append(errs, errors.New("timeout must be non-negative"))
	} else if settings.Timeout > settings.RefreshInterval && settings.RefreshInterval > 0 {
		errs = append(errs, fmt.Errorf("timeout %ds exceeds refresh interval %ds", settings.Timeout, settings.RefreshInterval))
	}
	if settings.MaxItems < 0 || settings.MaxItems > maxItemsLimit {
		errs = append(errs, fmt.Errorf("max items must be between 0 and %d, got %d", maxItemsLimit, settings.MaxItems))
	}

	return errors.Join(errs...)
}

func validateFilters(filters []ConfigFilter) error {
	var errs []error

	for i, filter := range filters {
		if !slices.Contains(FilterFields, filter.Field) {
			errs = append(errs, fmt.Errorf("filter %d: unknown field %q, expected one of %s",
				i, filter.Field, strings.Join(FilterFields, ", ")))
		}
		if len(filter.Includes) == 0 && len(filter.Excludes) == 0 {
			errs = append(errs, fmt.Errorf("filter %d: needs at least one include or exclude rule", i))
		}
		// A blank pattern would match every item
		if slices.ContainsFunc(filter.Includes, isBlank) || slices.ContainsFunc(filter.Excludes, isBlank) {
			errs = append(errs, fmt.Errorf("filter %d: patterns must not be blank", i))
		}
	}

	return errors.Join(errs...)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
