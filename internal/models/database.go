package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EncryptedSecret holds the at-rest form of a custodial wallet's private
// key: AES-256-GCM ciphertext, IV and authentication tag, all hex encoded.
type EncryptedSecret struct {
	Ciphertext string `db:"ciphertext"`
	IV         string `db:"iv"`
	Tag        string `db:"tag"`
}

// WalletMapping associates an external (connecting) wallet address with the
// custodial game wallet generated for it. At most one mapping per external
// address has IsActive set.
type WalletMapping struct {
	Id               string          `db:"id"`
	ExternalAddress  string          `db:"external_address"`
	CustodialAddress string          `db:"custodial_address"`
	Secret           EncryptedSecret `db:"-"`
	IsActive         bool            `db:"is_active"`
	IsFrozen         bool            `db:"is_frozen"`
	ThrottleUntil    *time.Time      `db:"throttle_until"`
	CreatedAt        time.Time       `db:"created_at"`
	LastAccessed     time.Time       `db:"last_accessed"`
}

// UserProfile is keyed by the same external address as WalletMapping but
// has an independent lifecycle: it survives wallet resets.
type UserProfile struct {
	Id                 string          `db:"id"`
	ExternalAddress    string          `db:"external_address"`
	Username           string          `db:"username"`
	ProfilePicture     string          `db:"profile_picture"`
	ProfilePictureType string          `db:"profile_picture_type"`
	JoinDate           time.Time       `db:"join_date"`
	XP                 int64           `db:"xp"`
	Badges             []string        `db:"badges"`
	CurrentStreak      int64           `db:"current_streak"`
	LongestStreak      int64           `db:"longest_streak"`
	TotalWins          int64           `db:"total_wins"`
	TotalLosses        int64           `db:"total_losses"`
	TotalWagered       decimal.Decimal `db:"total_wagered"`
	VIPTier            string          `db:"vip_tier"`
	IsAdmin            bool            `db:"is_admin"`
	UpdatedAt          time.Time       `db:"updated_at"`
}

// Profile picture types.
const (
	PictureTypeUpload  = "upload"
	PictureTypeNFT     = "nft"
	PictureTypeDefault = "default"
)

// WalletEvent is one row of the custody audit trail. Every lifecycle change
// to a mapping (creation, forced regeneration, reset, freeze, throttle) is
// recorded so that a replaced custodial wallet is never silently lost.
type WalletEvent struct {
	Id                  string    `db:"id"`
	ExternalAddress     string    `db:"external_address"`
	EventType           string    `db:"event_type"`
	OldCustodialAddress string    `db:"old_custodial_address"`
	NewCustodialAddress string    `db:"new_custodial_address"`
	Detail              string    `db:"detail"`
	CreatedAt           time.Time `db:"created_at"`
}

// Wallet event types.
const (
	EventWalletCreated     = "wallet_created"
	EventWalletRegenerated = "wallet_regenerated"
	EventWalletReset       = "wallet_reset"
	EventWalletFrozen      = "wallet_frozen"
	EventWalletUnfrozen    = "wallet_unfrozen"
	EventWalletThrottled   = "wallet_throttled"
)
