package models

// TierConfig is one VIP tier with its XP entry threshold.
type TierConfig struct {
	Name  string `yaml:"name"`
	MinXP int64  `yaml:"min_xp"`
}

// DefaultTiers returns the built-in tier table used when no tiers.yaml is
// present. Thresholds ascend; the first tier must start at zero.
func DefaultTiers() []TierConfig {
	return []TierConfig{
		{Name: "Bronze", MinXP: 0},
		{Name: "Silver", MinXP: 1_000},
		{Name: "Gold", MinXP: 10_000},
		{Name: "Diamond", MinXP: 50_000},
	}
}

// TierForXP returns the name of the highest tier whose threshold the given
// XP meets.
func TierForXP(tiers []TierConfig, xp int64) string {
	name := tiers[0].Name
	for _, tier := range tiers {
		if xp >= tier.MinXP {
			name = tier.Name
		}
	}
	return name
}

// MaxTier returns the top tier of the table.
func MaxTier(tiers []TierConfig) TierConfig {
	return tiers[len(tiers)-1]
}
