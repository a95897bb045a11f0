package config

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// RecommendationSettings is the live, hot-reloadable recommendation section
type RecommendationSettings struct {
	mu  sync.RWMutex
	cfg RecommendationConfig
}

// NewRecommendationSettings seeds the holder with the loaded section
func NewRecommendationSettings(cfg RecommendationConfig) *RecommendationSettings {
	return &RecommendationSettings{cfg: cfg}
}

// Get returns a copy of the current section
func (s *RecommendationSettings) Get() RecommendationConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Set replaces the section
func (s *RecommendationSettings) Set(cfg RecommendationConfig) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

// Watcher re-reads the config file on change and swaps the recommendation
// section in place. Other sections need a restart.
type Watcher struct {
	v        *viper.Viper
	settings *RecommendationSettings
	logger   *zap.Logger
}

// NewWatcher creates a watcher for the given config file
func NewWatcher(configFile string, settings *RecommendationSettings, logger *zap.Logger) *Watcher {
	return &Watcher{
		v:        newViper(configFile),
		settings: settings,
		logger:   logger.Named("config-watcher"),
	}
}

// Start begins watching. A missing config file disables reloading.
func (w *Watcher) Start() error {
	if err := w.v.ReadInConfig(); err != nil {
		w.logger.Info("Config hot reload disabled", zap.Error(err))
		return nil
	}

	w.v.OnConfigChange(w.HandleChange)
	w.v.WatchConfig()

	w.logger.Info("Watching config file", zap.String("file", w.v.ConfigFileUsed()))
	return nil
}

// HandleChange applies a file event. Invalid sections are logged and
// ignored so the previous values stay in effect.
func (w *Watcher) HandleChange(e fsnotify.Event) {
	if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
		return
	}

	next, err := w.reload()
	if err != nil {
		w.logger.Warn("Ignoring config change",
			zap.String("file", e.Name),
			zap.Error(err),
		)
		return
	}

	w.settings.Set(next)
	w.logger.Info("Recommendation settings reloaded",
		zap.String("file", e.Name),
		zap.Float64("boost_per_hit", next.BoostPerHit),
		zap.Float64("boost_per_100g", next.BoostPer100g),
		zap.Int("min_hits", next.MinHits),
		zap.Int("options_per_meal", next.OptionsPerMeal),
	)
}

func (w *Watcher) reload() (RecommendationConfig, error) {
	var next RecommendationConfig
	if err := w.v.ReadInConfig(); err != nil {
		return next, fmt.Errorf("failed to read config: %w", err)
	}
	if err := w.v.UnmarshalKey("recommendation", &next); err != nil {
		return next, fmt.Errorf("failed to unmarshal recommendation section: %w", err)
	}
	if err := next.Validate(); err != nil {
		return next, err
	}
	return next, nil
}
