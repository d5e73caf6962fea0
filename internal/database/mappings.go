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
	"database/sql"
	"errors"
	"fmt"
	"time"

	"game-wallet-custody-go/internal/custody"
	"game-wallet-custody-go/internal/models"
	"game-wallet-custody-go/internal/store"

	"go.uber.org/zap"
)

func scanMapping(row *sql.Row) (*models.WalletMapping, error) {
	var mapping models.WalletMapping
	var throttleUntil sql.NullTime
	err := row.Scan(&mapping.Id, &mapping.ExternalAddress, &mapping.CustodialAddress,
		&mapping.Secret.Ciphertext, &mapping.Secret.IV, &mapping.Secret.Tag,
		&mapping.IsActive, &mapping.IsFrozen, &throttleUntil,
		&mapping.CreatedAt, &mapping.LastAccessed)
	if err != nil {
		return nil, err
	}
	if throttleUntil.Valid {
		t := throttleUntil.Time
		mapping.ThrottleUntil = &t
	}
	return &mapping, nil
}

func (s *Service) getActiveMapping(ctx context.Context, externalAddress string) (*models.WalletMapping, error) {
	return scanMapping(s.db.QueryRowContext(ctx, queryGetActiveMapping, externalAddress))
}

// GetMapping returns the active mapping for an external address.
func (s *Service) GetMapping(ctx context.Context, externalAddress string) (*models.WalletMapping, error) {
	mapping, err := s.getActiveMapping(ctx, externalAddress)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrMappingNotFound, externalAddress)
		}
		return nil, fmt.Errorf("unable to query mapping: %w", err)
	}
	return mapping, nil
}

// GetOrCreateMapping returns the custodial keypair for an external address.
// A new wallet is generated when no active mapping exists or when the
// stored secret fails to restore; the latter is the repair-by-regeneration
// path and is always recorded in the audit trail.
func (s *Service) GetOrCreateMapping(ctx context.Context, externalAddress string) (*custody.Keypair, *models.WalletMapping, bool, error) {
	if err := custody.ValidateAddress(externalAddress); err != nil {
		return nil, nil, false, fmt.Errorf("%w: %v", store.ErrInvalidAddress, err)
	}

	mapping, err := s.getActiveMapping(ctx, externalAddress)
	switch {
	case err == nil:
		keypair, restoreErr := s.vault.RestoreWallet(mapping.Secret)
		if restoreErr == nil {
			if _, err := s.db.ExecContext(ctx, queryTouchMapping, mapping.Id); err != nil {
				zap.L().Warn("Failed to update last_accessed",
					zap.String("external_address", externalAddress), zap.Error(err))
			}
			mapping.LastAccessed = time.Now().UTC()
			return keypair, mapping, false, nil
		}
		if !errors.Is(restoreErr, custody.ErrDecryption) && !errors.Is(restoreErr, custody.ErrRestore) {
			return nil, nil, false, fmt.Errorf("unable to restore wallet: %w", restoreErr)
		}

		zap.L().Error("Stored wallet secret failed to restore, regenerating",
			zap.String("external_address", externalAddress),
			zap.String("old_custodial_address", mapping.CustodialAddress),
			zap.Error(restoreErr))

		keypair, newMapping, err := s.replaceMapping(ctx, externalAddress,
			mapping.CustodialAddress, models.EventWalletRegenerated, restoreErr.Error())
		if err != nil {
			return nil, nil, false, err
		}
		return keypair, newMapping, true, nil

	case errors.Is(err, sql.ErrNoRows):
		keypair, newMapping, err := s.replaceMapping(ctx, externalAddress,
			"", models.EventWalletCreated, "first connect")
		if err != nil {
			return nil, nil, false, err
		}
		return keypair, newMapping, true, nil

	default:
		return nil, nil, false, fmt.Errorf("unable to query mapping: %w", err)
	}
}

// replaceMapping generates a fresh wallet and installs it as the active
// mapping for the address, deactivating any prior record in the same
// transaction. The audit event is part of the transaction so a regenerated
// wallet can never appear without its trail entry.
func (s *Service) replaceMapping(ctx context.Context, externalAddress, oldCustodialAddress, eventType, detail string) (*custody.Keypair, *models.WalletMapping, error) {
	keypair, secret, err := s.vault.GenerateWallet()
	if err != nil {
		return nil, nil, fmt.Errorf("unable to generate wallet: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			zap.L().Warn("Failed to roll back mapping transaction", zap.Error(err))
		}
	}()

	if _, err := tx.ExecContext(ctx, queryDeactivateMappings, externalAddress); err != nil {
		return nil, nil, fmt.Errorf("unable to deactivate prior mapping: %w", err)
	}

	id := mappingId(externalAddress, keypair.Address)
	if _, err := tx.ExecContext(ctx, queryInsertMapping, id, externalAddress,
		keypair.Address, secret.Ciphertext, secret.IV, secret.Tag); err != nil {
		return nil, nil, fmt.Errorf("unable to insert mapping: %w", err)
	}

	if err := s.audit.recordTx(ctx, tx, externalAddress, eventType,
		oldCustodialAddress, keypair.Address, detail); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("unable to commit mapping: %w", err)
	}

	zap.L().Info("Custodial wallet installed",
		zap.String("external_address", externalAddress),
		zap.String("custodial_address", keypair.Address),
		zap.String("event", eventType))

	now := time.Now().UTC()
	mapping := &models.WalletMapping{
		Id:               id,
		ExternalAddress:  externalAddress,
		CustodialAddress: keypair.Address,
		Secret:           *secret,
		IsActive:         true,
		CreatedAt:        now,
		LastAccessed:     now,
	}
	return keypair, mapping, nil
}

func (s *Service) setFrozen(ctx context.Context, externalAddress string, frozen bool) (bool, error) {
	result, err := s.db.ExecContext(ctx, querySetFrozen, frozen, externalAddress)
	if err != nil {
		return false, fmt.Errorf("unable to update freeze flag: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("unable to get rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	eventType := models.EventWalletFrozen
	if !frozen {
		eventType = models.EventWalletUnfrozen
	}
	s.audit.Record(ctx, externalAddress, eventType, "", "", "")

	zap.L().Info("Wallet freeze flag updated",
		zap.String("external_address", externalAddress), zap.Bool("frozen", frozen))
	return true, nil
}

// FreezeMapping places an administrative hold blocking all gameplay and
// withdrawal operations. Returns false when no active mapping exists.
func (s *Service) FreezeMapping(ctx context.Context, externalAddress string) (bool, error) {
	return s.setFrozen(ctx, externalAddress, true)
}

// UnfreezeMapping clears the administrative hold.
func (s *Service) UnfreezeMapping(ctx context.Context, externalAddress string) (bool, error) {
	return s.setFrozen(ctx, externalAddress, false)
}

// SetWithdrawalThrottle blocks withdrawals until the given time passes.
func (s *Service) SetWithdrawalThrottle(ctx context.Context, externalAddress string, until time.Time) (bool, error) {
	result, err := s.db.ExecContext(ctx, querySetThrottle, until.UTC(), externalAddress)
	if err != nil {
		return false, fmt.Errorf("unable to set withdrawal throttle: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("unable to get rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	s.audit.Record(ctx, externalAddress, models.EventWalletThrottled, "", "",
		fmt.Sprintf("until %s", until.UTC().Format(time.RFC3339)))

	zap.L().Info("Withdrawal throttle set",
		zap.String("external_address", externalAddress), zap.Time("until", until))
	return true, nil
}

// CheckWithdrawalAllowed reports whether an address may withdraw. Checks run
// in order: missing mapping, frozen, throttled, allowed. Freeze takes
// precedence when both holds are present.
func (s *Service) CheckWithdrawalAllowed(ctx context.Context, externalAddress string) (*models.WithdrawalCheck, error) {
	mapping, err := s.getActiveMapping(ctx, externalAddress)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.WithdrawalCheck{Allowed: false, Reason: models.ReasonNotFound}, nil
		}
		return nil, fmt.Errorf("unable to query mapping: %w", err)
	}

	if mapping.IsFrozen {
		return &models.WithdrawalCheck{Allowed: false, Reason: models.ReasonFrozen}, nil
	}
	if mapping.ThrottleUntil != nil && mapping.ThrottleUntil.After(time.Now().UTC()) {
		return &models.WithdrawalCheck{
			Allowed:       false,
			Reason:        models.ReasonThrottled,
			ThrottleUntil: mapping.ThrottleUntil,
		}, nil
	}
	return &models.WithdrawalCheck{Allowed: true}, nil
}

// ResetMapping issues a brand-new custodial wallet for the address,
// overwriting the key material of the existing active mapping. The old
// secret becomes unreachable through this system. Unlike getOrCreate, any
// failure here is surfaced rather than repaired.
func (s *Service) ResetMapping(ctx context.Context, externalAddress string) (*custody.Keypair, error) {
	if err := custody.ValidateAddress(externalAddress); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidAddress, err)
	}

	mapping, err := s.getActiveMapping(ctx, externalAddress)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrMappingNotFound, externalAddress)
		}
		return nil, fmt.Errorf("unable to query mapping: %w", err)
	}

	keypair, secret, err := s.vault.GenerateWallet()
	if err != nil {
		return nil, fmt.Errorf("unable to generate replacement wallet: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			zap.L().Warn("Failed to roll back reset transaction", zap.Error(err))
		}
	}()

	newId := mappingId(externalAddress, keypair.Address)
	if _, err := tx.ExecContext(ctx, queryReplaceMappingKey, keypair.Address,
		secret.Ciphertext, secret.IV, secret.Tag, newId, externalAddress); err != nil {
		return nil, fmt.Errorf("unable to replace key material: %w", err)
	}

	if err := s.audit.recordTx(ctx, tx, externalAddress, models.EventWalletReset,
		mapping.CustodialAddress, keypair.Address, "admin reset"); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("unable to commit reset: %w", err)
	}

	zap.L().Info("Wallet reset",
		zap.String("external_address", externalAddress),
		zap.String("old_custodial_address", mapping.CustodialAddress),
		zap.String("new_custodial_address", keypair.Address))

	return keypair, nil
}
