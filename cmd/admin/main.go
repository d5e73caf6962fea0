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
	"flag"
	"fmt"
	"time"

	"game-wallet-custody-go/internal/common"
	"game-wallet-custody-go/internal/config"
	"game-wallet-custody-go/internal/models"

	"go.uber.org/zap"
)

const usage = `Actions:
  freeze     Place an administrative hold on the target wallet
  unfreeze   Clear the administrative hold
  throttle   Block withdrawals for --for (default 1h)
  reset      Issue a brand-new custodial wallet (old funds unreachable)
  god        Create or promote the target to god user
  promote    Promote the target profile to the top VIP tier
  events     Show the custody audit trail for the target`

func printResult(result *models.AdminResult) {
	marker := "✓"
	if !result.Success {
		marker = "✗"
	}
	fmt.Printf("%s %s\n", marker, result.Message)
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	// Parse command line flags
	actionFlag := flag.String("action", "", "Admin action to perform (required)")
	actorFlag := flag.String("actor", "", "External address of the acting admin (required)")
	addressFlag := flag.String("address", "", "Target external wallet address (required)")
	durationFlag := flag.Duration("for", time.Hour, "Throttle duration (throttle action only)")
	limitFlag := flag.Int("limit", 20, "Number of audit entries to show (events action only)")
	flag.Parse()

	if *actionFlag == "" || *actorFlag == "" || *addressFlag == "" {
		fmt.Println(usage)
		zap.L().Fatal("Flags are required: --action, --actor and --address")
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	mgr := services.Manager

	switch *actionFlag {
	case "freeze":
		printResult(mgr.FreezeWallet(ctx, *actorFlag, *addressFlag))
	case "unfreeze":
		printResult(mgr.UnfreezeWallet(ctx, *actorFlag, *addressFlag))
	case "throttle":
		printResult(mgr.ThrottleWithdrawal(ctx, *actorFlag, *addressFlag, *durationFlag))
	case "reset":
		printResult(mgr.ResetWallet(ctx, *actorFlag, *addressFlag))
	case "god":
		printResult(mgr.CreateGodUser(ctx, *actorFlag, *addressFlag))
	case "promote":
		printResult(mgr.PromoteToMaxLevel(ctx, *actorFlag, *addressFlag))
	case "events":
		events, denied := mgr.WalletEvents(ctx, *actorFlag, *addressFlag, *limitFlag)
		if denied != nil {
			printResult(denied)
			return
		}
		common.PrintHeader(fmt.Sprintf("CUSTODY AUDIT TRAIL: %s", *addressFlag), common.DefaultWidth)
		if len(events) == 0 {
			fmt.Println("No events recorded")
		}
		for i, event := range events {
			prefix := common.BoxPrefix(i == len(events)-1)
			line := fmt.Sprintf("%s%s  %s", prefix, event.CreatedAt.Format(time.RFC3339), event.EventType)
			if event.NewCustodialAddress != "" {
				line += fmt.Sprintf("  -> %s", event.NewCustodialAddress)
			}
			if event.Detail != "" {
				line += fmt.Sprintf("  (%s)", event.Detail)
			}
			fmt.Println(line)
		}
		common.PrintSeparator("=", common.DefaultWidth)
		fmt.Println()
	default:
		fmt.Println(usage)
		zap.L().Fatal("Unknown action", zap.String("action", *actionFlag))
	}
}
