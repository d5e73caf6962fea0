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

package manager

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"game-wallet-custody-go/internal/custody"
	"game-wallet-custody-go/internal/models"
	"game-wallet-custody-go/internal/profileapi"
	"game-wallet-custody-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// XP awarded per dice game outcome.
const (
	xpPerWin  = 25
	xpPerLoss = 5
)

// Stores groups the persistence contracts the manager composes. Both are
// satisfied by *database.Service.
type Stores interface {
	store.MappingStore
	store.ProfileStore
}

// GameWalletSession is what a connecting wallet receives: the custodial
// keypair, its mapping record and the player profile. IsNew reports whether
// a wallet was generated on this call.
type GameWalletSession struct {
	Keypair *custody.Keypair
	Mapping *models.WalletMapping
	Profile *models.UserProfile
	IsNew   bool
}

// Manager is the single entry point the UI and admin tooling use. It
// composes the mapping and profile stores and best-effort syncs with the
// remote profile service when one is configured.
type Manager struct {
	stores Stores
	remote *profileapi.Client
	tiers  []models.TierConfig
}

// New builds a manager. remote may be nil, which disables profile sync.
func New(stores Stores, remote *profileapi.Client, tiers []models.TierConfig) (*Manager, error) {
	if stores == nil {
		return nil, fmt.Errorf("stores are required")
	}
	if len(tiers) == 0 {
		tiers = models.DefaultTiers()
	}
	return &Manager{stores: stores, remote: remote, tiers: tiers}, nil
}

// GetOrCreateGameWallet resolves the custodial wallet for a connecting
// external address, creating wallet and default profile on first sight.
// Remote profile sync is best-effort and never blocks the session.
func (m *Manager) GetOrCreateGameWallet(ctx context.Context, externalAddress string) (*GameWalletSession, error) {
	keypair, mapping, isNew, err := m.stores.GetOrCreateMapping(ctx, externalAddress)
	if err != nil {
		return nil, err
	}

	profile, err := m.stores.GetProfile(ctx, externalAddress)
	if errors.Is(err, store.ErrProfileNotFound) {
		profile, err = m.stores.UpsertProfile(ctx, store.UpsertProfileParams{
			ExternalAddress: externalAddress,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("unable to resolve profile: %w", err)
	}

	if m.remote != nil && m.remote.HasSession() {
		if merged := m.mergeRemoteProfile(ctx, externalAddress); merged != nil {
			profile = merged
		}
	}

	return &GameWalletSession{
		Keypair: keypair,
		Mapping: mapping,
		Profile: profile,
		IsNew:   isNew,
	}, nil
}

// CreateProfile creates a profile with an explicit username. The username
// must be unique case-insensitively across all profiles.
func (m *Manager) CreateProfile(ctx context.Context, externalAddress, username, picture, pictureType string) (*models.UserProfile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username cannot be empty")
	}

	unique, err := m.stores.IsUsernameUnique(ctx, username)
	if err != nil {
		return nil, err
	}
	if !unique {
		return nil, fmt.Errorf("%w: %s", store.ErrDuplicateUsername, username)
	}

	params := store.UpsertProfileParams{
		ExternalAddress: externalAddress,
		Username:        &username,
	}
	if picture != "" {
		params.ProfilePicture = &picture
		if pictureType == "" {
			pictureType = models.PictureTypeUpload
		}
		params.ProfilePictureType = &pictureType
	}

	return m.stores.UpsertProfile(ctx, params)
}

// UpdateProfile edits username and/or avatar, then best-effort pushes the
// change to the remote profile service.
func (m *Manager) UpdateProfile(ctx context.Context, externalAddress string, username, picture, pictureType *string) (*models.UserProfile, error) {
	profile, err := m.stores.UpsertProfile(ctx, store.UpsertProfileParams{
		ExternalAddress:    externalAddress,
		Username:           username,
		ProfilePicture:     picture,
		ProfilePictureType: pictureType,
	})
	if err != nil {
		return nil, err
	}

	if m.remote != nil && m.remote.HasSession() {
		if err := m.remote.UpdateProfile(ctx, profile.Username, profile.ProfilePicture); err != nil {
			zap.L().Warn("Remote profile update failed",
				zap.String("external_address", externalAddress), zap.Error(err))
		}
	}
	return profile, nil
}

// RecordGameResult applies one dice game outcome to the player's profile:
// win/loss totals, streaks, XP and VIP tier progression. Gameplay is
// blocked while the wallet is frozen.
func (m *Manager) RecordGameResult(ctx context.Context, externalAddress string, won bool, wagered decimal.Decimal) (*models.UserProfile, error) {
	mapping, err := m.stores.GetMapping(ctx, externalAddress)
	if err != nil {
		return nil, err
	}
	if mapping.IsFrozen {
		return nil, fmt.Errorf("wallet is frozen: gameplay blocked for %s", externalAddress)
	}
	if wagered.IsNegative() {
		return nil, fmt.Errorf("wagered amount cannot be negative")
	}

	profile, err := m.stores.GetProfile(ctx, externalAddress)
	if err != nil {
		return nil, err
	}

	xp := profile.XP + xpPerLoss
	wins := profile.TotalWins
	losses := profile.TotalLosses
	currentStreak := int64(0)
	longestStreak := profile.LongestStreak

	if won {
		xp = profile.XP + xpPerWin
		wins++
		currentStreak = profile.CurrentStreak + 1
		if currentStreak > longestStreak {
			longestStreak = currentStreak
		}
	} else {
		losses++
	}

	totalWagered := profile.TotalWagered.Add(wagered)
	tier := models.TierForXP(m.tiers, xp)

	update := store.StatUpdate{
		XP:            &xp,
		CurrentStreak: &currentStreak,
		LongestStreak: &longestStreak,
		TotalWins:     &wins,
		TotalLosses:   &losses,
		TotalWagered:  &totalWagered,
		VIPTier:       &tier,
	}
	updated, err := m.stores.UpdateStats(ctx, externalAddress, update)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, fmt.Errorf("%w: %s", store.ErrProfileNotFound, externalAddress)
	}

	return m.stores.GetProfile(ctx, externalAddress)
}

// CheckWithdrawalAllowed reports whether an address may withdraw.
func (m *Manager) CheckWithdrawalAllowed(ctx context.Context, externalAddress string) (*models.WithdrawalCheck, error) {
	return m.stores.CheckWithdrawalAllowed(ctx, externalAddress)
}

// SyncProfile authenticates against the remote profile service with the
// external wallet's signer and merges the remote document into the local
// profile. All failures beyond authentication are soft.
func (m *Manager) SyncProfile(ctx context.Context, externalAddress string, signer profileapi.WalletSigner) error {
	if m.remote == nil {
		return fmt.Errorf("profile sync is not configured")
	}
	if !m.remote.HasSession() {
		if err := m.remote.Authenticate(ctx, signer); err != nil {
			return fmt.Errorf("unable to authenticate: %w", err)
		}
	}

	if merged := m.mergeRemoteProfileWithReauth(ctx, externalAddress, signer); merged == nil {
		zap.L().Debug("Remote profile sync yielded no update",
			zap.String("external_address", externalAddress))
	}
	return nil
}

// mergeRemoteProfileWithReauth fetches the remote profile, re-running the
// handshake once if the session has gone stale.
func (m *Manager) mergeRemoteProfileWithReauth(ctx context.Context, externalAddress string, signer profileapi.WalletSigner) *models.UserProfile {
	remote, err := m.remote.FetchProfile(ctx)
	if errors.Is(err, profileapi.ErrUnauthenticated) && signer != nil {
		if err := m.remote.Authenticate(ctx, signer); err != nil {
			zap.L().Warn("Profile service re-authentication failed",
				zap.String("external_address", externalAddress), zap.Error(err))
			return nil
		}
		remote, err = m.remote.FetchProfile(ctx)
	}
	if err != nil {
		zap.L().Warn("Remote profile fetch failed; continuing with local profile",
			zap.String("external_address", externalAddress), zap.Error(err))
		return nil
	}
	return m.applyRemoteProfile(ctx, externalAddress, remote)
}

// mergeRemoteProfile is the sessioned, no-signer variant used on connect.
func (m *Manager) mergeRemoteProfile(ctx context.Context, externalAddress string) *models.UserProfile {
	return m.mergeRemoteProfileWithReauth(ctx, externalAddress, nil)
}

// applyRemoteProfile merges remote stats into the local profile. The local
// store stays authoritative: stats only move forward, and a remote username
// that collides locally is skipped.
func (m *Manager) applyRemoteProfile(ctx context.Context, externalAddress string, remote *models.RemoteProfile) *models.UserProfile {
	update := store.StatUpdate{
		AddBadges: remote.Badges,
	}
	if remote.XP > 0 {
		update.XP = &remote.XP
	}
	if remote.Streaks.Longest > 0 {
		update.LongestStreak = &remote.Streaks.Longest
	}
	if _, err := m.stores.UpdateStats(ctx, externalAddress, update); err != nil {
		zap.L().Warn("Unable to merge remote stats",
			zap.String("external_address", externalAddress), zap.Error(err))
		return nil
	}

	profile, err := m.stores.GetProfile(ctx, externalAddress)
	if err != nil {
		return nil
	}
	return profile
}
