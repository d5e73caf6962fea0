package common

import (
	"os"
	"path/filepath"
	"testing"

	"game-wallet-custody-go/internal/models"
)

func writeTiersFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tiers.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write tiers file: %v", err)
	}
	return path
}

func TestLoadTierConfig_MissingFileFallsBack(t *testing.T) {
	tiers, err := LoadTierConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Missing file should fall back to defaults: %v", err)
	}
	defaults := models.DefaultTiers()
	if len(tiers) != len(defaults) || tiers[0].Name != defaults[0].Name {
		t.Errorf("Expected default tiers, got %v", tiers)
	}
}

func TestLoadTierConfig_Valid(t *testing.T) {
	path := writeTiersFile(t, `
tiers:
  - name: Rookie
    min_xp: 0
  - name: Pro
    min_xp: 100
`)
	tiers, err := LoadTierConfig(path)
	if err != nil {
		t.Fatalf("LoadTierConfig failed: %v", err)
	}
	if len(tiers) != 2 || tiers[1].Name != "Pro" || tiers[1].MinXP != 100 {
		t.Errorf("Unexpected tiers %v", tiers)
	}
}

func TestLoadTierConfig_RejectsBadTables(t *testing.T) {
	cases := map[string]string{
		"empty": `tiers: []`,
		"non-ascending": `
tiers:
  - name: A
    min_xp: 0
  - name: B
    min_xp: 0
`,
		"nonzero first": `
tiers:
  - name: A
    min_xp: 50
`,
		"missing name": `
tiers:
  - min_xp: 0
`,
	}
	for label, content := range cases {
		if _, err := LoadTierConfig(writeTiersFile(t, content)); err == nil {
			t.Errorf("Expected %s table to be rejected", label)
		}
	}
}
