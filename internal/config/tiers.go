package config

import (
	"errors"
	"log"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// TierDefinition is the file-backed shape of a tier ladder entry. The
// catalog service seeds these into the tiers table on startup and on
// file reload.
type TierDefinition struct {
	Name      string         `mapstructure:"name"`
	Threshold int64          `mapstructure:"threshold"`
	Rank      int            `mapstructure:"rank"`
	Benefits  map[string]any `mapstructure:"benefits"`
}

type TierConfig struct {
	Tiers []TierDefinition `mapstructure:"tiers"`
}

func DefaultTierConfig() TierConfig {
	return TierConfig{
		Tiers: []TierDefinition{
			{Name: "Member", Threshold: 0, Rank: 1},
			{Name: "Silver", Threshold: 1000, Rank: 2},
			{Name: "Gold", Threshold: 5000, Rank: 3},
			{Name: "Platinum", Threshold: 20000, Rank: 4},
		},
	}
}

// TierConfigHolder keeps an immutable snapshot of the tier ladder
// definitions, replaced atomically on file reload so concurrent readers
// never observe a half-updated ladder.
type TierConfigHolder struct {
	current  atomic.Value // holds TierConfig
	onReload atomic.Value // holds func(TierConfig)
}

func NewTierConfigHolder() (*TierConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("tiers")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/loyalty/config") // Volume-mounted config
	v.AddConfigPath("/etc/loyalty")            // System config
	v.AddConfigPath(".")                       // Current directory (dev mode)

	v.SetEnvPrefix("LOYALTY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fromFile := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fromFile = false
	}

	holder := &TierConfigHolder{}

	cfg := DefaultTierConfig()
	if fromFile {
		var parsed TierConfig
		if err := v.Unmarshal(&parsed); err != nil {
			return nil, err
		}
		cfg = parsed
	}
	if err := validateTierConfig(cfg); err != nil {
		return nil, err
	}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated TierConfig
		if err := v.Unmarshal(&updated); err != nil {
			log.Printf("[tier-config] reload failed: %v", err)
			return
		}
		if err := validateTierConfig(updated); err != nil {
			log.Printf("[tier-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[tier-config] reloaded from %s", e.Name)
		if fn, ok := holder.onReload.Load().(func(TierConfig)); ok && fn != nil {
			fn(updated)
		}
	})

	return holder, nil
}

func (h *TierConfigHolder) Get() TierConfig {
	return h.current.Load().(TierConfig)
}

// OnReload registers a single callback fired after a successful file reload.
func (h *TierConfigHolder) OnReload(fn func(TierConfig)) {
	h.onReload.Store(fn)
}

func validateTierConfig(cfg TierConfig) error {
	if len(cfg.Tiers) == 0 {
		return errors.New("tiers cannot be empty")
	}

	sorted := make([]TierDefinition, len(cfg.Tiers))
	copy(sorted, cfg.Tiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Rank < sorted[j].Rank })

	if sorted[0].Threshold != 0 {
		return errors.New("lowest tier must have a zero threshold")
	}

	seenRank := map[int]bool{}
	seenThreshold := map[int64]bool{}
	for _, t := range sorted {
		if strings.TrimSpace(t.Name) == "" {
			return errors.New("tier name cannot be empty")
		}
		if seenRank[t.Rank] {
			return errors.New("tier ranks must be unique")
		}
		if seenThreshold[t.Threshold] {
			return errors.New("tier thresholds must be unique")
		}
		seenRank[t.Rank] = true
		seenThreshold[t.Threshold] = true
	}
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Threshold < sorted[i-1].Threshold {
			return errors.New("tier thresholds must increase with rank")
		}
	}

	return nil
}
