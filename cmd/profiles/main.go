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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"game-wallet-custody-go/internal/common"
	"game-wallet-custody-go/internal/config"
	"game-wallet-custody-go/internal/models"
	"game-wallet-custody-go/internal/store"

	"go.uber.org/zap"
)

func printProfile(profile *models.UserProfile, check *models.WithdrawalCheck) {
	common.PrintHeader(fmt.Sprintf("PROFILE: %s", profile.Username), common.DefaultWidth)
	fmt.Printf("External Address: %s\n", profile.ExternalAddress)
	fmt.Printf("Joined:           %s\n", profile.JoinDate.Format(time.RFC3339))
	fmt.Printf("VIP Tier:         %s\n", profile.VIPTier)
	fmt.Printf("XP:               %d\n", profile.XP)
	fmt.Printf("Streak:           %d (longest %d)\n", profile.CurrentStreak, profile.LongestStreak)
	fmt.Printf("Record:           %d wins / %d losses\n", profile.TotalWins, profile.TotalLosses)
	fmt.Printf("Total Wagered:    %s lamports\n", profile.TotalWagered.String())
	fmt.Printf("Admin:            %t\n", profile.IsAdmin)
	if len(profile.Badges) > 0 {
		fmt.Printf("Badges:           %s\n", strings.Join(profile.Badges, ", "))
	}

	if check != nil {
		status := "allowed"
		if !check.Allowed {
			status = "blocked: " + check.Reason
			if check.ThrottleUntil != nil {
				status += " until " + check.ThrottleUntil.Format(time.RFC3339)
			}
		}
		fmt.Printf("Withdrawals:      %s\n", status)
	}
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	// Parse command line flags
	addressFlag := flag.String("address", "", "Show a single profile by external address (optional)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if *addressFlag != "" {
		profile, err := services.DbService.GetProfile(ctx, *addressFlag)
		if err != nil {
			if errors.Is(err, store.ErrProfileNotFound) {
				zap.L().Fatal("No profile for address", zap.String("address", *addressFlag))
			}
			zap.L().Fatal("Failed to load profile", zap.Error(err))
		}

		check, err := services.Manager.CheckWithdrawalAllowed(ctx, *addressFlag)
		if err != nil {
			zap.L().Fatal("Failed to check withdrawal status", zap.Error(err))
		}

		printProfile(profile, check)
		return
	}

	profiles, err := services.DbService.ListProfiles(ctx)
	if err != nil {
		zap.L().Fatal("Failed to list profiles", zap.Error(err))
	}

	common.PrintHeader(fmt.Sprintf("PROFILES (%d)", len(profiles)), common.DefaultWidth)
	if len(profiles) == 0 {
		fmt.Println("No profiles yet")
	}
	for i, profile := range profiles {
		prefix := common.BoxPrefix(i == len(profiles)-1)
		admin := ""
		if profile.IsAdmin {
			admin = "  [admin]"
		}
		fmt.Printf("%s%-24s %-8s xp=%-8d %dW/%dL%s\n", prefix, profile.Username,
			profile.VIPTier, profile.XP, profile.TotalWins, profile.TotalLosses, admin)
	}
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()
}
