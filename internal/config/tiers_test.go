package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTierConfigIsValid(t *testing.T) {
	cfg := DefaultTierConfig()
	require.NoError(t, validateTierConfig(cfg))
	assert.Len(t, cfg.Tiers, 4)
	assert.Equal(t, int64(0), cfg.Tiers[0].Threshold)
}

func TestValidateTierConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     TierConfig
		wantErr string
	}{
		{
			name:    "empty",
			cfg:     TierConfig{},
			wantErr: "tiers cannot be empty",
		},
		{
			name: "missing baseline",
			cfg: TierConfig{Tiers: []TierDefinition{
				{Name: "Silver", Threshold: 1000, Rank: 1},
			}},
			wantErr: "lowest tier must have a zero threshold",
		},
		{
			name: "blank name",
			cfg: TierConfig{Tiers: []TierDefinition{
				{Name: "  ", Threshold: 0, Rank: 1},
			}},
			wantErr: "tier name cannot be empty",
		},
		{
			name: "duplicate rank",
			cfg: TierConfig{Tiers: []TierDefinition{
				{Name: "Member", Threshold: 0, Rank: 1},
				{Name: "Silver", Threshold: 1000, Rank: 1},
			}},
			wantErr: "tier ranks must be unique",
		},
		{
			name: "duplicate threshold",
			cfg: TierConfig{Tiers: []TierDefinition{
				{Name: "Member", Threshold: 0, Rank: 1},
				{Name: "Silver", Threshold: 1000, Rank: 2},
				{Name: "Gold", Threshold: 1000, Rank: 3},
			}},
			wantErr: "tier thresholds must be unique",
		},
		{
			name: "threshold regression",
			cfg: TierConfig{Tiers: []TierDefinition{
				{Name: "Member", Threshold: 0, Rank: 1},
				{Name: "Silver", Threshold: 5000, Rank: 2},
				{Name: "Gold", Threshold: 1000, Rank: 3},
			}},
			wantErr: "tier thresholds must increase with rank",
		},
		{
			name: "valid out-of-order input",
			cfg: TierConfig{Tiers: []TierDefinition{
				{Name: "Gold", Threshold: 5000, Rank: 3},
				{Name: "Member", Threshold: 0, Rank: 1},
				{Name: "Silver", Threshold: 1000, Rank: 2},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTierConfig(tt.cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}
