package common

import (
	"context"
	"log"
	"strings"

	"game-wallet-custody-go/internal/custody"
	"game-wallet-custody-go/internal/database"
	"game-wallet-custody-go/internal/manager"
	"game-wallet-custody-go/internal/models"
	"game-wallet-custody-go/internal/profileapi"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Try to load .env file - if it doesn't exist, that's okay
	// Environment variables can be set via other means (shell export, docker, etc.)
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
	}
}

type Services struct {
	DbService     *database.Service
	Vault         *custody.Vault
	ProfileClient *profileapi.Client
	Manager       *manager.Manager
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	vault, err := custody.NewVault(cfg.Custody.MasterKeyHex)
	if err != nil {
		return nil, err
	}

	dbService, err := database.NewService(ctx, cfg.Database, vault)
	if err != nil {
		return nil, err
	}

	tiers, err := LoadTierConfig(cfg.TiersFile)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	// Profile sync is optional; without a base URL the manager works
	// purely against local storage.
	var profileClient *profileapi.Client
	if cfg.ProfileAPI.BaseURL != "" {
		profileClient, err = profileapi.NewClient(cfg.ProfileAPI)
		if err != nil {
			dbService.Close()
			return nil, err
		}
		zap.L().Info("Profile sync enabled", zap.String("base_url", cfg.ProfileAPI.BaseURL))
	}

	mgr, err := manager.New(dbService, profileClient, tiers)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	return &Services{
		DbService:     dbService,
		Vault:         vault,
		ProfileClient: profileClient,
		Manager:       mgr,
	}, nil
}

func (cs *Services) Close() {
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
