package common

import (
	"fmt"
	"os"
	"path/filepath"

	"game-wallet-custody-go/internal/models"

	"gopkg.in/yaml.v2"
)

type tiersFileConfig struct {
	Tiers []models.TierConfig `yaml:"tiers"`
}

// LoadTierConfig reads the VIP tier table from a yaml file. A missing file
// falls back to the built-in defaults; a present but invalid file is an
// error.
func LoadTierConfig(tiersFile string) ([]models.TierConfig, error) {
	var tiersPath string
	if filepath.IsAbs(tiersFile) {
		tiersPath = tiersFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		tiersPath = filepath.Join(wd, tiersFile)
	}

	data, err := os.ReadFile(tiersPath)
	if err != nil {
		if os.IsNotExist(err) {
			return models.DefaultTiers(), nil
		}
		return nil, fmt.Errorf("unable to read %s: %w", tiersFile, err)
	}

	var config tiersFileConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", tiersFile, err)
	}
	if len(config.Tiers) == 0 {
		return nil, fmt.Errorf("%s contains no tiers", tiersFile)
	}

	for i, tier := range config.Tiers {
		if tier.Name == "" {
			return nil, fmt.Errorf("tier at index %d missing name", i)
		}
		if i > 0 && tier.MinXP <= config.Tiers[i-1].MinXP {
			return nil, fmt.Errorf("tier %s threshold must exceed %s", tier.Name, config.Tiers[i-1].Name)
		}
	}
	if config.Tiers[0].MinXP != 0 {
		return nil, fmt.Errorf("first tier %s must start at 0 xp", config.Tiers[0].Name)
	}

	return config.Tiers, nil
}
