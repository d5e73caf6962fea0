/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"

	"game-wallet-custody-go/internal/custody"
	"game-wallet-custody-go/internal/models"
	"game-wallet-custody-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Compile-time checks: *Service must satisfy the store contracts.
var (
	_ store.MappingStore = (*Service)(nil)
	_ store.ProfileStore = (*Service)(nil)
)

type Service struct {
	db    *sql.DB
	vault *custody.Vault
	audit *AuditService
}

func NewService(ctx context.Context, cfg models.DatabaseConfig, vault *custody.Vault) (*Service, error) {
	// Validate configuration
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}
	if vault == nil {
		return nil, fmt.Errorf("custody vault is required")
	}

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000")
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	// Set connection timeouts and limits
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test connection with timeout
	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, cerr
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	audit := NewAuditService(db)
	service := &Service{db: db, vault: vault, audit: audit}
	if err := service.initSchema(); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, cerr
		}
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	if err := audit.InitSchema(); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, cerr
		}
		return nil, fmt.Errorf("unable to initialize audit schema: %w", err)
	}

	zap.L().Info("Database service initialized successfully")
	return service, nil
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

func (s *Service) initSchema() error {
	schema := `
	-- Wallet mappings: external address -> custodial game wallet
	CREATE TABLE IF NOT EXISTS wallet_mappings (
		id TEXT PRIMARY KEY,
		external_address TEXT NOT NULL,
		custodial_address TEXT NOT NULL,
		ciphertext TEXT NOT NULL,
		iv TEXT NOT NULL,
		tag TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		is_frozen BOOLEAN NOT NULL DEFAULT 0,
		throttle_until TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		last_accessed TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- At most one active mapping per external address
	CREATE UNIQUE INDEX IF NOT EXISTS idx_mappings_active_address
		ON wallet_mappings(external_address) WHERE is_active = 1;
	-- Create index for history lookups
	CREATE INDEX IF NOT EXISTS idx_mappings_address ON wallet_mappings(external_address);
	-- Create index for custodial address lookups
	CREATE INDEX IF NOT EXISTS idx_mappings_custodial ON wallet_mappings(custodial_address);

	-- User profiles: independent lifecycle, survives wallet resets
	CREATE TABLE IF NOT EXISTS user_profiles (
		id TEXT PRIMARY KEY,
		external_address TEXT NOT NULL UNIQUE,
		username TEXT NOT NULL COLLATE NOCASE,
		profile_picture TEXT NOT NULL DEFAULT '',
		profile_picture_type TEXT NOT NULL DEFAULT 'default',
		join_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		xp INTEGER NOT NULL DEFAULT 0,
		badges TEXT NOT NULL DEFAULT '[]',
		current_streak INTEGER NOT NULL DEFAULT 0,
		longest_streak INTEGER NOT NULL DEFAULT 0,
		total_wins INTEGER NOT NULL DEFAULT 0,
		total_losses INTEGER NOT NULL DEFAULT 0,
		total_wagered TEXT NOT NULL DEFAULT '0',
		vip_tier TEXT NOT NULL DEFAULT 'Bronze',
		is_admin BOOLEAN NOT NULL DEFAULT 0,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Usernames are unique case-insensitively (column collates NOCASE)
	CREATE UNIQUE INDEX IF NOT EXISTS idx_profiles_username ON user_profiles(username);
	-- Create index on admins for privilege checks
	CREATE INDEX IF NOT EXISTS idx_profiles_admin ON user_profiles(is_admin);
	`

	_, err := s.db.Exec(schema)
	return err
}

// mappingId derives the record identifier for a mapping deterministically
// from the external address and the custodial address issued for it, so
// replaced generations of the same external address keep distinct ids.
func mappingId(externalAddress, custodialAddress string) string {
	sum := sha256.Sum256([]byte("mapping:" + externalAddress + ":" + custodialAddress))
	return hex.EncodeToString(sum[:16])
}

// profileId derives the profile identifier from the external address alone;
// a profile is never replaced, only mutated.
func profileId(externalAddress string) string {
	sum := sha256.Sum256([]byte("profile:" + externalAddress))
	return hex.EncodeToString(sum[:16])
}
