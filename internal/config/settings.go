package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Settings are the hot-reloadable platform tunables. They live in a
// volume-mounted settings.yml so operators can adjust them without a
// redeploy.
type Settings struct {
	DefaultPageSize int `mapstructure:"defaultPageSize"`
	MaxPageSize     int `mapstructure:"maxPageSize"`
	BulkImportLimit int `mapstructure:"bulkImportLimit"`
}

func DefaultSettings() Settings {
	return Settings{
		DefaultPageSize: 10,
		MaxPageSize:     250,
		BulkImportLimit: 500,
	}
}

type SettingsHolder struct {
	current atomic.Value // holds Settings
}

func NewSettingsHolder() (*SettingsHolder, error) {
	v := viper.New()

	v.SetConfigName("settings")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/campuskit/config") // Volume-mounted config
	v.AddConfigPath("/etc/campuskit")            // System config
	v.AddConfigPath(".")                         // Current directory (dev mode)

	v.SetEnvPrefix("CAMPUSKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultSettings()
		v.SetDefault("platform.defaultPageSize", defaults.DefaultPageSize)
		v.SetDefault("platform.maxPageSize", defaults.MaxPageSize)
		v.SetDefault("platform.bulkImportLimit", defaults.BulkImportLimit)
	}

	var settings Settings
	if err := v.UnmarshalKey("platform", &settings); err != nil {
		return nil, err
	}
	if settings == (Settings{}) {
		settings = DefaultSettings()
	}
	if err := validateSettings(settings); err != nil {
		return nil, err
	}

	holder := &SettingsHolder{}
	holder.current.Store(settings)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated Settings
		if err := v.UnmarshalKey("platform", &updated); err != nil {
			log.Printf("[settings] reload failed: %v", err)
			return
		}
		if err := validateSettings(updated); err != nil {
			log.Printf("[settings] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[settings] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *SettingsHolder) Get() Settings {
	return h.current.Load().(Settings)
}

func validateSettings(s Settings) error {
	if s.DefaultPageSize < 1 {
		return errors.New("platform.defaultPageSize must be positive")
	}
	if s.MaxPageSize < s.DefaultPageSize {
		return errors.New("platform.maxPageSize must be >= defaultPageSize")
	}
	if s.BulkImportLimit < 1 {
		return errors.New("platform.bulkImportLimit must be positive")
	}
	return nil
}
