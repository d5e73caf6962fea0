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

const (
	// Mapping queries
	queryGetActiveMapping = `
		SELECT id, external_address, custodial_address, ciphertext, iv, tag,
		       is_active, is_frozen, throttle_until, created_at, last_accessed
		FROM wallet_mappings
		WHERE external_address = ? AND is_active = 1`

	queryInsertMapping = `
		INSERT INTO wallet_mappings (id, external_address, custodial_address, ciphertext, iv, tag)
		VALUES (?, ?, ?, ?, ?, ?)`

	queryDeactivateMappings = `
		UPDATE wallet_mappings
		SET is_active = 0
		WHERE external_address = ? AND is_active = 1`

	queryTouchMapping = `
		UPDATE wallet_mappings
		SET last_accessed = CURRENT_TIMESTAMP
		WHERE id = ?`

	querySetFrozen = `
		UPDATE wallet_mappings
		SET is_frozen = ?
		WHERE external_address = ? AND is_active = 1`

	querySetThrottle = `
		UPDATE wallet_mappings
		SET throttle_until = ?
		WHERE external_address = ? AND is_active = 1`

	queryReplaceMappingKey = `
		UPDATE wallet_mappings
		SET custodial_address = ?, ciphertext = ?, iv = ?, tag = ?,
		    id = ?, last_accessed = CURRENT_TIMESTAMP
		WHERE external_address = ? AND is_active = 1`

	// Profile queries
	queryGetProfile = `
		SELECT id, external_address, username, profile_picture, profile_picture_type,
		       join_date, xp, badges, current_streak, longest_streak,
		       total_wins, total_losses, total_wagered, vip_tier, is_admin, updated_at
		FROM user_profiles
		WHERE external_address = ?`

	queryInsertProfile = `
		INSERT INTO user_profiles (id, external_address, username, profile_picture,
		                           profile_picture_type, vip_tier, is_admin)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	queryCheckUsername = `
		SELECT external_address FROM user_profiles WHERE username = ? LIMIT 1`

	queryListProfiles = `
		SELECT id, external_address, username, profile_picture, profile_picture_type,
		       join_date, xp, badges, current_streak, longest_streak,
		       total_wins, total_losses, total_wagered, vip_tier, is_admin, updated_at
		FROM user_profiles
		ORDER BY join_date`

	queryCountAdmins = `
		SELECT COUNT(1) FROM user_profiles WHERE is_admin = 1`

	queryUpdateProfileFields = `
		UPDATE user_profiles
		SET username = ?, profile_picture = ?, profile_picture_type = ?,
		    vip_tier = ?, is_admin = ?, updated_at = CURRENT_TIMESTAMP
		WHERE external_address = ?`

	queryUpdateProfileStats = `
		UPDATE user_profiles
		SET xp = ?, badges = ?, current_streak = ?, longest_streak = ?,
		    total_wins = ?, total_losses = ?, total_wagered = ?, vip_tier = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE external_address = ?`

	// Audit queries
	queryInsertWalletEvent = `
		INSERT INTO wallet_events (id, external_address, event_type,
		                           old_custodial_address, new_custodial_address, detail)
		VALUES (?, ?, ?, ?, ?, ?)`

	queryGetWalletEvents = `
		SELECT id, external_address, event_type, old_custodial_address,
		       new_custodial_address, detail, created_at
		FROM wallet_events
		WHERE external_address = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`
)
