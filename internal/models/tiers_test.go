package models

import "testing"

func TestTierForXP_Boundaries(t *testing.T) {
	tiers := DefaultTiers()

	cases := []struct {
		xp   int64
		want string
	}{
		{0, "Bronze"},
		{999, "Bronze"},
		{1_000, "Silver"},
		{9_999, "Silver"},
		{10_000, "Gold"},
		{50_000, "Diamond"},
		{1_000_000, "Diamond"},
	}
	for _, c := range cases {
		if got := TierForXP(tiers, c.xp); got != c.want {
			t.Errorf("TierForXP(%d) = %s, want %s", c.xp, got, c.want)
		}
	}
}

func TestMaxTier(t *testing.T) {
	if got := MaxTier(DefaultTiers()); got.Name != "Diamond" {
		t.Errorf("Expected Diamond, got %s", got.Name)
	}
}
