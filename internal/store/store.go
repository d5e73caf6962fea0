package store

import (
	"context"
	"errors"
	"time"

	"game-wallet-custody-go/internal/custody"
	"game-wallet-custody-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across store implementations.
var (
	ErrInvalidAddress    = errors.New("invalid external address")
	ErrMappingNotFound   = errors.New("no wallet mapping for address")
	ErrProfileNotFound   = errors.New("no profile for address")
	ErrDuplicateUsername = errors.New("username already taken")
)

// UpsertProfileParams carries the fields of a profile create-or-update.
// Nil pointer fields are left untouched on update; on create they fall back
// to defaults (generated username, default picture type, Bronze tier).
type UpsertProfileParams struct {
	ExternalAddress    string
	Username           *string
	ProfilePicture     *string
	ProfilePictureType *string
	VIPTier            *string
	IsAdmin            *bool
}

// StatUpdate merges gameplay statistics into a profile. Unless
// AdminOverride is set, monotonic fields (XP, longest streak, win/loss/
// wagered totals) are clamped so they never decrease; the current streak is
// exempt since it resets on every loss.
type StatUpdate struct {
	XP            *int64
	CurrentStreak *int64
	LongestStreak *int64
	TotalWins     *int64
	TotalLosses   *int64
	TotalWagered  *decimal.Decimal
	AddBadges     []string
	VIPTier       *string
	AdminOverride bool
}

// MappingStore is the contract for durable wallet-mapping storage.
type MappingStore interface {
	// GetOrCreateMapping returns the custodial keypair for an external
	// address, generating and persisting a new one when no usable mapping
	// exists. isNew reports whether a wallet was generated on this call,
	// which is also how callers detect repair-by-regeneration.
	GetOrCreateMapping(ctx context.Context, externalAddress string) (*custody.Keypair, *models.WalletMapping, bool, error)
	GetMapping(ctx context.Context, externalAddress string) (*models.WalletMapping, error)
	FreezeMapping(ctx context.Context, externalAddress string) (bool, error)
	UnfreezeMapping(ctx context.Context, externalAddress string) (bool, error)
	SetWithdrawalThrottle(ctx context.Context, externalAddress string, until time.Time) (bool, error)
	CheckWithdrawalAllowed(ctx context.Context, externalAddress string) (*models.WithdrawalCheck, error)
	// ResetMapping issues a brand-new custodial wallet for the address.
	// The old secret material becomes unreachable; this is an
	// administrative disaster-recovery action, not a reversible one.
	ResetMapping(ctx context.Context, externalAddress string) (*custody.Keypair, error)
	GetWalletEvents(ctx context.Context, externalAddress string, limit int) ([]models.WalletEvent, error)
}

// ProfileStore is the contract for user profile storage. Profiles share the
// external-address key with mappings but have an independent lifecycle.
type ProfileStore interface {
	UpsertProfile(ctx context.Context, params UpsertProfileParams) (*models.UserProfile, error)
	GetProfile(ctx context.Context, externalAddress string) (*models.UserProfile, error)
	IsUsernameUnique(ctx context.Context, candidate string) (bool, error)
	UpdateStats(ctx context.Context, externalAddress string, update StatUpdate) (bool, error)
	ListProfiles(ctx context.Context) ([]models.UserProfile, error)
	CountAdmins(ctx context.Context) (int, error)
}
