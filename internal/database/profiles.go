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
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"game-wallet-custody-go/internal/models"
	"game-wallet-custody-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*models.UserProfile, error) {
	var profile models.UserProfile
	var badges, totalWagered string
	err := row.Scan(&profile.Id, &profile.ExternalAddress, &profile.Username,
		&profile.ProfilePicture, &profile.ProfilePictureType, &profile.JoinDate,
		&profile.XP, &badges, &profile.CurrentStreak, &profile.LongestStreak,
		&profile.TotalWins, &profile.TotalLosses, &totalWagered,
		&profile.VIPTier, &profile.IsAdmin, &profile.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(badges), &profile.Badges); err != nil {
		return nil, fmt.Errorf("unable to decode badges: %w", err)
	}
	profile.TotalWagered, err = decimal.NewFromString(totalWagered)
	if err != nil {
		return nil, fmt.Errorf("unable to decode total_wagered: %w", err)
	}
	return &profile, nil
}

// defaultUsername derives the Player<suffix> username used when a profile is
// created without an explicit name. Longer suffixes keep the name derivable
// when two addresses share a tail.
func defaultUsername(externalAddress string, generation int) string {
	suffix := externalAddress
	length := 6 + generation*4
	if len(suffix) > length {
		suffix = suffix[len(suffix)-length:]
	}
	return "Player" + suffix
}

// usernameTakenBy returns the address holding a username, or "" when free.
// Comparison is case-insensitive via the column's NOCASE collation.
func (s *Service) usernameTakenBy(ctx context.Context, q func(context.Context, string, ...any) *sql.Row, candidate string) (string, error) {
	var holder string
	err := q(ctx, queryCheckUsername, candidate).Scan(&holder)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("unable to check username: %w", err)
	}
	return holder, nil
}

// IsUsernameUnique reports whether no profile currently holds the candidate
// username, compared case-insensitively.
func (s *Service) IsUsernameUnique(ctx context.Context, candidate string) (bool, error) {
	holder, err := s.usernameTakenBy(ctx, s.db.QueryRowContext, candidate)
	if err != nil {
		return false, err
	}
	return holder == "", nil
}

// GetProfile returns the profile for an external address.
func (s *Service) GetProfile(ctx context.Context, externalAddress string) (*models.UserProfile, error) {
	profile, err := scanProfile(s.db.QueryRowContext(ctx, queryGetProfile, externalAddress))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrProfileNotFound, externalAddress)
		}
		return nil, fmt.Errorf("unable to query profile: %w", err)
	}
	return profile, nil
}

// UpsertProfile creates or updates the profile for params.ExternalAddress.
// Creation applies defaults (generated username, default picture type,
// Bronze tier, zeroed stats); update merges only the supplied fields and
// never touches join_date. A username conflict leaves the store unchanged.
func (s *Service) UpsertProfile(ctx context.Context, params store.UpsertProfileParams) (*models.UserProfile, error) {
	if params.ExternalAddress == "" {
		return nil, fmt.Errorf("%w: external address cannot be empty", store.ErrInvalidAddress)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			zap.L().Warn("Failed to roll back profile transaction", zap.Error(err))
		}
	}()

	existing, err := scanProfile(tx.QueryRowContext(ctx, queryGetProfile, params.ExternalAddress))
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("unable to query profile: %w", err)
	}

	if existing == nil {
		if err := s.insertProfile(ctx, tx, params); err != nil {
			return nil, err
		}
	} else {
		if err := s.mergeProfile(ctx, tx, existing, params); err != nil {
			return nil, err
		}
	}

	updated, err := scanProfile(tx.QueryRowContext(ctx, queryGetProfile, params.ExternalAddress))
	if err != nil {
		return nil, fmt.Errorf("unable to read back profile: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("unable to commit profile: %w", err)
	}
	return updated, nil
}

func (s *Service) insertProfile(ctx context.Context, tx *sql.Tx, params store.UpsertProfileParams) error {
	username := ""
	if params.Username != nil {
		username = strings.TrimSpace(*params.Username)
	}

	if username != "" {
		holder, err := s.usernameTakenBy(ctx, tx.QueryRowContext, username)
		if err != nil {
			return err
		}
		if holder != "" {
			return fmt.Errorf("%w: %s", store.ErrDuplicateUsername, username)
		}
	} else {
		// Generated names can collide on shared address tails; widen the
		// suffix until one is free.
		for generation := 0; ; generation++ {
			candidate := defaultUsername(params.ExternalAddress, generation)
			holder, err := s.usernameTakenBy(ctx, tx.QueryRowContext, candidate)
			if err != nil {
				return err
			}
			if holder == "" || candidate == "Player"+params.ExternalAddress {
				username = candidate
				break
			}
		}
	}

	picture := ""
	if params.ProfilePicture != nil {
		picture = *params.ProfilePicture
	}
	pictureType := models.PictureTypeDefault
	if params.ProfilePictureType != nil {
		pictureType = *params.ProfilePictureType
	}
	tier := "Bronze"
	if params.VIPTier != nil {
		tier = *params.VIPTier
	}
	isAdmin := false
	if params.IsAdmin != nil {
		isAdmin = *params.IsAdmin
	}

	_, err := tx.ExecContext(ctx, queryInsertProfile, profileId(params.ExternalAddress),
		params.ExternalAddress, username, picture, pictureType, tier, isAdmin)
	if err != nil {
		return fmt.Errorf("unable to insert profile: %w", err)
	}

	zap.L().Info("Profile created",
		zap.String("external_address", params.ExternalAddress),
		zap.String("username", username))
	return nil
}

func (s *Service) mergeProfile(ctx context.Context, tx *sql.Tx, existing *models.UserProfile, params store.UpsertProfileParams) error {
	username := existing.Username
	if params.Username != nil && strings.TrimSpace(*params.Username) != "" {
		username = strings.TrimSpace(*params.Username)
		if !strings.EqualFold(username, existing.Username) {
			holder, err := s.usernameTakenBy(ctx, tx.QueryRowContext, username)
			if err != nil {
				return err
			}
			if holder != "" && holder != existing.ExternalAddress {
				return fmt.Errorf("%w: %s", store.ErrDuplicateUsername, username)
			}
		}
	}

	picture := existing.ProfilePicture
	if params.ProfilePicture != nil {
		picture = *params.ProfilePicture
	}
	pictureType := existing.ProfilePictureType
	if params.ProfilePictureType != nil {
		pictureType = *params.ProfilePictureType
	}
	tier := existing.VIPTier
	if params.VIPTier != nil {
		tier = *params.VIPTier
	}
	isAdmin := existing.IsAdmin
	if params.IsAdmin != nil {
		isAdmin = *params.IsAdmin
	}

	_, err := tx.ExecContext(ctx, queryUpdateProfileFields, username, picture,
		pictureType, tier, isAdmin, existing.ExternalAddress)
	if err != nil {
		return fmt.Errorf("unable to update profile: %w", err)
	}
	return nil
}

// UpdateStats merges gameplay statistics into a profile in place. Returns
// false when the profile does not exist. Monotonic fields are clamped so
// they never decrease unless the update carries AdminOverride.
func (s *Service) UpdateStats(ctx context.Context, externalAddress string, update store.StatUpdate) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("unable to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			zap.L().Warn("Failed to roll back stats transaction", zap.Error(err))
		}
	}()

	current, err := scanProfile(tx.QueryRowContext(ctx, queryGetProfile, externalAddress))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("unable to query profile: %w", err)
	}

	mergeInt := func(cur int64, next *int64) int64 {
		if next == nil {
			return cur
		}
		if !update.AdminOverride && *next < cur {
			return cur
		}
		return *next
	}

	xp := mergeInt(current.XP, update.XP)
	longestStreak := mergeInt(current.LongestStreak, update.LongestStreak)
	totalWins := mergeInt(current.TotalWins, update.TotalWins)
	totalLosses := mergeInt(current.TotalLosses, update.TotalLosses)

	// The current streak resets on every loss, so it is exempt from the
	// monotonic clamp.
	currentStreak := current.CurrentStreak
	if update.CurrentStreak != nil {
		currentStreak = *update.CurrentStreak
	}

	totalWagered := current.TotalWagered
	if update.TotalWagered != nil {
		if update.AdminOverride || update.TotalWagered.GreaterThanOrEqual(current.TotalWagered) {
			totalWagered = *update.TotalWagered
		}
	}

	tier := current.VIPTier
	if update.VIPTier != nil {
		tier = *update.VIPTier
	}

	badges := current.Badges
	for _, badge := range update.AddBadges {
		found := false
		for _, have := range badges {
			if have == badge {
				found = true
				break
			}
		}
		if !found {
			badges = append(badges, badge)
		}
	}
	if badges == nil {
		badges = []string{}
	}
	encodedBadges, err := json.Marshal(badges)
	if err != nil {
		return false, fmt.Errorf("unable to encode badges: %w", err)
	}

	_, err = tx.ExecContext(ctx, queryUpdateProfileStats, xp, string(encodedBadges),
		currentStreak, longestStreak, totalWins, totalLosses,
		totalWagered.String(), tier, externalAddress)
	if err != nil {
		return false, fmt.Errorf("unable to update stats: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("unable to commit stats: %w", err)
	}
	return true, nil
}

// ListProfiles returns all profiles ordered by join date.
func (s *Service) ListProfiles(ctx context.Context) ([]models.UserProfile, error) {
	rows, err := s.db.QueryContext(ctx, queryListProfiles)
	if err != nil {
		return nil, fmt.Errorf("unable to query profiles: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var profiles []models.UserProfile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan profile row: %w", err)
		}
		profiles = append(profiles, *profile)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profile rows: %w", err)
	}
	return profiles, nil
}

// CountAdmins returns the number of profiles with the admin flag set.
func (s *Service) CountAdmins(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, queryCountAdmins).Scan(&count); err != nil {
		return 0, fmt.Errorf("unable to count admins: %w", err)
	}
	return count, nil
}
