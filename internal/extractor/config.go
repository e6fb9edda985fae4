package extractor

import (
	"github.com/kaikelopes301-code/portal-performance/internal/textnorm"
	"github.com/kaikelopes301-code/portal-performance/pkg/errors"
)

// Config holds engine options.
type Config struct {
	// CacheSize bounds the normalization and month caches; 0 disables them.
	CacheSize int `json:"cache_size" mapstructure:"cache_size"`
	// FormatExtras renders money extras as BRL and the extension fee as a
	// percentage instead of passing the cleaned cell text through.
	FormatExtras bool `json:"format_extras" mapstructure:"format_extras"`
}

// DefaultConfig returns the default engine configuration
func DefaultConfig() *Config {
	return &Config{
		CacheSize: textnorm.DefaultCacheSize,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.CacheSize < 0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "cache_size", c.CacheSize, nil).
			WithSuggestion("use 0 to disable caching or a positive size")
	}
	return nil
}
