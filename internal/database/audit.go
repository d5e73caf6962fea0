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
	"fmt"

	"game-wallet-custody-go/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuditService records the custody audit trail. Every wallet lifecycle
// change gets a row here; regeneration and reset events carry both the old
// and new custodial addresses so replaced wallets remain traceable.
type AuditService struct {
	db *sql.DB
}

func NewAuditService(db *sql.DB) *AuditService {
	return &AuditService{db: db}
}

func (a *AuditService) InitSchema() error {
	schema := `
	-- Custody audit trail (append-only)
	CREATE TABLE IF NOT EXISTS wallet_events (
		id TEXT PRIMARY KEY,
		external_address TEXT NOT NULL,
		event_type TEXT NOT NULL,
		old_custodial_address TEXT NOT NULL DEFAULT '',
		new_custodial_address TEXT NOT NULL DEFAULT '',
		detail TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Create index for per-address trail lookups
	CREATE INDEX IF NOT EXISTS idx_events_address ON wallet_events(external_address);
	-- Create index for event type scans
	CREATE INDEX IF NOT EXISTS idx_events_type ON wallet_events(event_type);
	`

	_, err := a.db.Exec(schema)
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (a *AuditService) record(ctx context.Context, db execer, externalAddress, eventType, oldAddr, newAddr, detail string) error {
	_, err := db.ExecContext(ctx, queryInsertWalletEvent, uuid.New().String(),
		externalAddress, eventType, oldAddr, newAddr, detail)
	if err != nil {
		return fmt.Errorf("unable to record wallet event: %w", err)
	}
	return nil
}

// recordTx writes an audit row inside a caller-owned transaction, so the
// event commits or rolls back together with the mutation it describes.
func (a *AuditService) recordTx(ctx context.Context, tx *sql.Tx, externalAddress, eventType, oldAddr, newAddr, detail string) error {
	return a.record(ctx, tx, externalAddress, eventType, oldAddr, newAddr, detail)
}

// Record writes an audit row outside any transaction. Failures are logged
// rather than propagated; the mutation the event describes has already
// committed.
func (a *AuditService) Record(ctx context.Context, externalAddress, eventType, oldAddr, newAddr, detail string) {
	if err := a.record(ctx, a.db, externalAddress, eventType, oldAddr, newAddr, detail); err != nil {
		zap.L().Error("Failed to record wallet event",
			zap.String("external_address", externalAddress),
			zap.String("event_type", eventType),
			zap.Error(err))
	}
}

// GetWalletEvents returns the most recent audit entries for an address.
func (s *Service) GetWalletEvents(ctx context.Context, externalAddress string, limit int) ([]models.WalletEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, queryGetWalletEvents, externalAddress, limit)
	if err != nil {
		return nil, fmt.Errorf("unable to query wallet events: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var events []models.WalletEvent
	for rows.Next() {
		var event models.WalletEvent
		err := rows.Scan(&event.Id, &event.ExternalAddress, &event.EventType,
			&event.OldCustodialAddress, &event.NewCustodialAddress,
			&event.Detail, &event.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("unable to scan wallet event row: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wallet event rows: %w", err)
	}

	return events, nil
}
