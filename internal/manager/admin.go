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
	"time"

	"game-wallet-custody-go/internal/models"
	"game-wallet-custody-go/internal/store"

	"go.uber.org/zap"
)

// Badge names granted by admin operations.
const (
	badgeGodMode  = "god_mode"
	badgeMaxLevel = "max_level"
)

// Admin operations return AdminResult instead of errors: they are invoked
// from interactive tooling that displays Message directly. Privilege is
// enforced here rather than trusting the calling layer.

func failure(format string, args ...any) *models.AdminResult {
	return &models.AdminResult{Success: false, Message: fmt.Sprintf(format, args...)}
}

func success(format string, args ...any) *models.AdminResult {
	return &models.AdminResult{Success: true, Message: fmt.Sprintf(format, args...)}
}

// requireAdmin verifies the acting address holds the admin flag.
func (m *Manager) requireAdmin(ctx context.Context, actorAddress string) *models.AdminResult {
	actor, err := m.stores.GetProfile(ctx, actorAddress)
	if err != nil {
		if errors.Is(err, store.ErrProfileNotFound) {
			return failure("actor %s has no profile", actorAddress)
		}
		return failure("unable to verify actor: %v", err)
	}
	if !actor.IsAdmin {
		zap.L().Warn("Admin operation rejected for non-admin actor",
			zap.String("actor", actorAddress))
		return failure("actor %s is not an admin", actorAddress)
	}
	return nil
}

// FreezeWallet places an administrative hold on all wallet operations.
func (m *Manager) FreezeWallet(ctx context.Context, actorAddress, targetAddress string) *models.AdminResult {
	if denied := m.requireAdmin(ctx, actorAddress); denied != nil {
		return denied
	}
	frozen, err := m.stores.FreezeMapping(ctx, targetAddress)
	if err != nil {
		return failure("freeze failed: %v", err)
	}
	if !frozen {
		return failure("no wallet mapping for %s", targetAddress)
	}
	return success("wallet for %s is frozen", targetAddress)
}

// UnfreezeWallet clears the administrative hold.
func (m *Manager) UnfreezeWallet(ctx context.Context, actorAddress, targetAddress string) *models.AdminResult {
	if denied := m.requireAdmin(ctx, actorAddress); denied != nil {
		return denied
	}
	unfrozen, err := m.stores.UnfreezeMapping(ctx, targetAddress)
	if err != nil {
		return failure("unfreeze failed: %v", err)
	}
	if !unfrozen {
		return failure("no wallet mapping for %s", targetAddress)
	}
	return success("wallet for %s is unfrozen", targetAddress)
}

// ThrottleWithdrawal blocks withdrawals for the target until the given
// duration elapses.
func (m *Manager) ThrottleWithdrawal(ctx context.Context, actorAddress, targetAddress string, duration time.Duration) *models.AdminResult {
	if denied := m.requireAdmin(ctx, actorAddress); denied != nil {
		return denied
	}
	if duration <= 0 {
		return failure("throttle duration must be positive")
	}
	until := time.Now().UTC().Add(duration)
	throttled, err := m.stores.SetWithdrawalThrottle(ctx, targetAddress, until)
	if err != nil {
		return failure("throttle failed: %v", err)
	}
	if !throttled {
		return failure("no wallet mapping for %s", targetAddress)
	}
	return success("withdrawals for %s throttled until %s", targetAddress, until.Format(time.RFC3339))
}

// ResetWallet issues a brand-new custodial wallet for the target. Funds on
// the old custodial wallet become unreachable through this system; the
// replacement is recorded in the audit trail.
func (m *Manager) ResetWallet(ctx context.Context, actorAddress, targetAddress string) *models.AdminResult {
	if denied := m.requireAdmin(ctx, actorAddress); denied != nil {
		return denied
	}
	keypair, err := m.stores.ResetMapping(ctx, targetAddress)
	if err != nil {
		if errors.Is(err, store.ErrMappingNotFound) {
			return failure("no wallet mapping for %s", targetAddress)
		}
		return failure("reset failed: %v", err)
	}
	return success("wallet for %s reset, new custodial address %s", targetAddress, keypair.Address)
}

// CreateGodUser promotes (or creates) a profile with the admin flag, top
// tier and the god-mode badge. The first god user bootstraps the system;
// after that an admin actor is required.
func (m *Manager) CreateGodUser(ctx context.Context, actorAddress, targetAddress string) *models.AdminResult {
	admins, err := m.stores.CountAdmins(ctx)
	if err != nil {
		return failure("unable to count admins: %v", err)
	}
	if admins > 0 {
		if denied := m.requireAdmin(ctx, actorAddress); denied != nil {
			return denied
		}
	}

	isAdmin := true
	maxTier := models.MaxTier(m.tiers)
	profile, err := m.stores.UpsertProfile(ctx, store.UpsertProfileParams{
		ExternalAddress: targetAddress,
		IsAdmin:         &isAdmin,
		VIPTier:         &maxTier.Name,
	})
	if err != nil {
		return failure("unable to create god user: %v", err)
	}

	if _, err := m.stores.UpdateStats(ctx, targetAddress, store.StatUpdate{
		AddBadges: []string{badgeGodMode},
	}); err != nil {
		return failure("god user created but badge grant failed: %v", err)
	}

	zap.L().Info("God user created",
		zap.String("target", targetAddress),
		zap.String("username", profile.Username))
	return success("god user %s created for %s", profile.Username, targetAddress)
}

// PromoteToMaxLevel lifts the target profile to the top tier with its
// entry XP and the max-level badge. Uses an admin override since it may
// rewrite stats downward for test accounts.
func (m *Manager) PromoteToMaxLevel(ctx context.Context, actorAddress, targetAddress string) *models.AdminResult {
	if denied := m.requireAdmin(ctx, actorAddress); denied != nil {
		return denied
	}

	maxTier := models.MaxTier(m.tiers)
	updated, err := m.stores.UpdateStats(ctx, targetAddress, store.StatUpdate{
		XP:            &maxTier.MinXP,
		VIPTier:       &maxTier.Name,
		AddBadges:     []string{badgeMaxLevel},
		AdminOverride: true,
	})
	if err != nil {
		return failure("promotion failed: %v", err)
	}
	if !updated {
		return failure("no profile for %s", targetAddress)
	}
	return success("%s promoted to %s", targetAddress, maxTier.Name)
}

// WalletEvents returns the audit trail for a target address.
func (m *Manager) WalletEvents(ctx context.Context, actorAddress, targetAddress string, limit int) ([]models.WalletEvent, *models.AdminResult) {
	if denied := m.requireAdmin(ctx, actorAddress); denied != nil {
		return nil, denied
	}
	events, err := m.stores.GetWalletEvents(ctx, targetAddress, limit)
	if err != nil {
		return nil, failure("unable to load wallet events: %v", err)
	}
	return events, nil
}
