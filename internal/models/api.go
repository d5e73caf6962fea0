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

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Withdrawal denial reasons, in check order.
const (
	ReasonNotFound  = "not_found"
	ReasonFrozen    = "frozen"
	ReasonThrottled = "throttled"
)

// WithdrawalCheck is the result of asking whether an external address may
// withdraw. When Allowed is false, Reason carries one of the Reason*
// constants; ThrottleUntil is set only for the throttled case.
type WithdrawalCheck struct {
	Allowed       bool       `json:"allowed"`
	Reason        string     `json:"reason,omitempty"`
	ThrottleUntil *time.Time `json:"throttle_until,omitempty"`
}

// AdminResult is returned by administrative operations. Admin tooling shows
// Message directly, so failures are reported here rather than as errors.
type AdminResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// RemoteStreaks is the streak block of a remote profile.
type RemoteStreaks struct {
	Current int64 `json:"current"`
	Longest int64 `json:"longest"`
}

// RemoteProfile is the profile document served by the remote profile API.
// It is advisory only; the local profile store stays authoritative.
type RemoteProfile struct {
	Username         string          `json:"username"`
	AvatarURL        string          `json:"avatarUrl"`
	XP               int64           `json:"xp"`
	Badges           []string        `json:"badges"`
	Streaks          RemoteStreaks   `json:"streaks"`
	VIPTier          string          `json:"vip_tier"`
	TotalWonLamports decimal.Decimal `json:"total_won_lamports"`
}
