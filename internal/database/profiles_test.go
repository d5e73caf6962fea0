package database

import (
	"context"
	"errors"
	"strings"
	"testing"

	"game-wallet-custody-go/internal/store"

	"github.com/shopspring/decimal"
)

func strPtr(s string) *string { return &s }
func intPtr(n int64) *int64   { return &n }

func TestUpsertProfile_CreateDefaults(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	address := testAddress(t)

	profile, err := service.UpsertProfile(ctx, store.UpsertProfileParams{ExternalAddress: address})
	if err != nil {
		t.Fatalf("UpsertProfile failed: %v", err)
	}

	wantSuffix := address[len(address)-6:]
	if profile.Username != "Player"+wantSuffix {
		t.Errorf("Expected default username Player%s, got %s", wantSuffix, profile.Username)
	}
	if profile.VIPTier != "Bronze" {
		t.Errorf("Expected Bronze tier, got %s", profile.VIPTier)
	}
	if profile.XP != 0 || profile.TotalWins != 0 || profile.TotalLosses != 0 {
		t.Error("New profile should have zeroed stats")
	}
	if !profile.TotalWagered.Equal(decimal.Zero) {
		t.Errorf("Expected zero total_wagered, got %s", profile.TotalWagered.String())
	}
	if profile.IsAdmin {
		t.Error("New profile should not be admin")
	}
	if profile.JoinDate.IsZero() {
		t.Error("Join date should be set on creation")
	}
	if profile.Badges == nil || len(profile.Badges) != 0 {
		t.Errorf("Expected empty badge set, got %v", profile.Badges)
	}
}

func TestUsernameUniqueness_CaseInsensitive(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	first := testAddress(t)
	second := testAddress(t)

	if _, err := service.UpsertProfile(ctx, store.UpsertProfileParams{
		ExternalAddress: first,
		Username:        strPtr("HighRoller"),
	}); err != nil {
		t.Fatalf("First create failed: %v", err)
	}

	_, err := service.UpsertProfile(ctx, store.UpsertProfileParams{
		ExternalAddress: second,
		Username:        strPtr("highroller"),
	})
	if !errors.Is(err, store.ErrDuplicateUsername) {
		t.Fatalf("Expected ErrDuplicateUsername, got %v", err)
	}

	// No partial state: the conflicting profile must not exist.
	if _, err := service.GetProfile(ctx, second); !errors.Is(err, store.ErrProfileNotFound) {
		t.Errorf("Conflicting create should leave no profile, got %v", err)
	}

	unique, err := service.IsUsernameUnique(ctx, "HIGHROLLER")
	if err != nil {
		t.Fatalf("IsUsernameUnique failed: %v", err)
	}
	if unique {
		t.Error("HIGHROLLER should not be unique against HighRoller")
	}
}

func TestUpsertProfile_UpdateKeepsOwnUsername(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	address := testAddress(t)

	if _, err := service.UpsertProfile(ctx, store.UpsertProfileParams{
		ExternalAddress: address,
		Username:        strPtr("DiceFan"),
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Re-submitting the same name (different case) for the same address is
	// not a conflict.
	profile, err := service.UpsertProfile(ctx, store.UpsertProfileParams{
		ExternalAddress: address,
		Username:        strPtr("dicefan"),
	})
	if err != nil {
		t.Fatalf("Self-update failed: %v", err)
	}
	if !strings.EqualFold(profile.Username, "dicefan") {
		t.Errorf("Unexpected username %s", profile.Username)
	}
}

func TestUpsertProfile_JoinDateImmutable(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	address := testAddress(t)

	created, err := service.UpsertProfile(ctx, store.UpsertProfileParams{ExternalAddress: address})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := service.UpsertProfile(ctx, store.UpsertProfileParams{
		ExternalAddress: address,
		Username:        strPtr("Renamed"),
		ProfilePicture:  strPtr("https://cdn.example.com/avatar.png"),
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if !updated.JoinDate.Equal(created.JoinDate) {
		t.Errorf("Join date changed on update: %v -> %v", created.JoinDate, updated.JoinDate)
	}
	if updated.Username != "Renamed" {
		t.Errorf("Expected username Renamed, got %s", updated.Username)
	}
	if updated.ProfilePicture != "https://cdn.example.com/avatar.png" {
		t.Errorf("Unexpected picture %s", updated.ProfilePicture)
	}
}

func TestUpdateStats_Monotonic(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	address := testAddress(t)

	if _, err := service.UpsertProfile(ctx, store.UpsertProfileParams{ExternalAddress: address}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	wagered := decimal.NewFromInt(5_000_000)
	ok, err := service.UpdateStats(ctx, address, store.StatUpdate{
		XP:            intPtr(500),
		TotalWins:     intPtr(3),
		CurrentStreak: intPtr(3),
		LongestStreak: intPtr(3),
		TotalWagered:  &wagered,
	})
	if err != nil || !ok {
		t.Fatalf("UpdateStats failed: ok=%t err=%v", ok, err)
	}

	// A lower value without override must not decrease the stat.
	ok, err = service.UpdateStats(ctx, address, store.StatUpdate{
		XP:            intPtr(100),
		CurrentStreak: intPtr(0),
	})
	if err != nil || !ok {
		t.Fatalf("UpdateStats failed: ok=%t err=%v", ok, err)
	}

	profile, err := service.GetProfile(ctx, address)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if profile.XP != 500 {
		t.Errorf("XP decreased without override: got %d", profile.XP)
	}
	if profile.CurrentStreak != 0 {
		t.Errorf("Current streak should reset freely, got %d", profile.CurrentStreak)
	}
	if profile.LongestStreak != 3 {
		t.Errorf("Longest streak should persist, got %d", profile.LongestStreak)
	}

	// Admin override may rewrite downward.
	ok, err = service.UpdateStats(ctx, address, store.StatUpdate{
		XP:            intPtr(100),
		AdminOverride: true,
	})
	if err != nil || !ok {
		t.Fatalf("UpdateStats with override failed: ok=%t err=%v", ok, err)
	}
	profile, err = service.GetProfile(ctx, address)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if profile.XP != 100 {
		t.Errorf("Expected XP 100 after override, got %d", profile.XP)
	}
}

func TestUpdateStats_BadgeUnion(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	address := testAddress(t)

	if _, err := service.UpsertProfile(ctx, store.UpsertProfileParams{ExternalAddress: address}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := service.UpdateStats(ctx, address, store.StatUpdate{
			AddBadges: []string{"first_win", "high_roller"},
		}); err != nil {
			t.Fatalf("UpdateStats failed: %v", err)
		}
	}

	profile, err := service.GetProfile(ctx, address)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if len(profile.Badges) != 2 {
		t.Errorf("Expected 2 distinct badges, got %v", profile.Badges)
	}
}

func TestUpdateStats_MissingProfile(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ok, err := service.UpdateStats(context.Background(), testAddress(t), store.StatUpdate{XP: intPtr(10)})
	if err != nil {
		t.Fatalf("UpdateStats failed: %v", err)
	}
	if ok {
		t.Error("UpdateStats on a missing profile should return false")
	}
}

func TestCountAdmins(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	count, err := service.CountAdmins(ctx)
	if err != nil {
		t.Fatalf("CountAdmins failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 admins, got %d", count)
	}

	isAdmin := true
	if _, err := service.UpsertProfile(ctx, store.UpsertProfileParams{
		ExternalAddress: testAddress(t),
		IsAdmin:         &isAdmin,
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	count, err = service.CountAdmins(ctx)
	if err != nil {
		t.Fatalf("CountAdmins failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 admin, got %d", count)
	}
}
