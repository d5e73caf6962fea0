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

	"game-wallet-custody-go/internal/common"
	"game-wallet-custody-go/internal/config"
	"game-wallet-custody-go/internal/store"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	// Parse command line flags
	addressFlag := flag.String("address", "", "External wallet address connecting (required)")
	usernameFlag := flag.String("username", "", "Username to claim for this address (optional)")
	flag.Parse()

	if *addressFlag == "" {
		zap.L().Fatal("Flag is required: --address")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	zap.L().Info("Initializing services")
	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	session, err := services.Manager.GetOrCreateGameWallet(ctx, *addressFlag)
	if err != nil {
		if errors.Is(err, store.ErrInvalidAddress) {
			zap.L().Fatal("External address is not well-formed", zap.String("address", *addressFlag))
		}
		zap.L().Fatal("Failed to resolve game wallet", zap.Error(err))
	}

	if *usernameFlag != "" && session.Profile.Username != *usernameFlag {
		username := *usernameFlag
		profile, err := services.Manager.UpdateProfile(ctx, *addressFlag, &username, nil, nil)
		if err != nil {
			if errors.Is(err, store.ErrDuplicateUsername) {
				zap.L().Fatal("Username already taken", zap.String("username", username))
			}
			zap.L().Fatal("Failed to update username", zap.Error(err))
		}
		session.Profile = profile
	}

	state := "restored"
	if session.IsNew {
		state = "generated"
	}

	common.PrintHeader("GAME WALLET SESSION", common.DefaultWidth)
	fmt.Printf("External Address:  %s\n", session.Mapping.ExternalAddress)
	fmt.Printf("Custodial Address: %s (%s)\n", session.Mapping.CustodialAddress, state)
	fmt.Printf("Frozen:            %t\n", session.Mapping.IsFrozen)
	fmt.Printf("Username:          %s\n", session.Profile.Username)
	fmt.Printf("VIP Tier:          %s\n", session.Profile.VIPTier)
	fmt.Printf("XP:                %d\n", session.Profile.XP)
	fmt.Printf("Record:            %d wins / %d losses\n", session.Profile.TotalWins, session.Profile.TotalLosses)
	if len(session.Profile.Badges) > 0 {
		fmt.Printf("Badges:            %s\n", strings.Join(session.Profile.Badges, ", "))
	}
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()

	zap.L().Info("Wallet session ready",
		zap.String("external_address", session.Mapping.ExternalAddress),
		zap.String("custodial_address", session.Mapping.CustodialAddress),
		zap.Bool("is_new", session.IsNew))
}
