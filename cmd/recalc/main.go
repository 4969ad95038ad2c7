// Command recalc rescores a round or a whole event from the command line.
package main

import (
	"context"
	"flag"

	"github.com/google/uuid"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/blindtaste/internal/app"
)

func main() {
	var (
		configPath = flag.String("config", "config.toml", "Path to config file")
		roundFlag  = flag.String("round", "", "Round id to rescore")
		eventFlag  = flag.String("event", "", "Event id to rescore, every keyed round included")
	)
	flag.Parse()

	if (*roundFlag == "") == (*eventFlag == "") {
		logger.Error.Fatalf("Exactly one of -round or -event is required")
	}

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to start service: %v", err)
	}
	defer service.Close()

	ctx := context.Background()

	if *roundFlag != "" {
		roundID, err := uuid.Parse(*roundFlag)
		if err != nil {
			logger.Error.Fatalf("Invalid round id %q: %v", *roundFlag, err)
		}
		result, err := service.RecalculateRound(ctx, roundID)
		if err != nil {
			logger.Error.Fatalf("Failed to recalculate round %s: %v", roundID, err)
		}
		logger.Info.Printf("Round %s: key worth %d, %d evaluations rescored", roundID, result.KeyMaxScore, result.Count())
		return
	}

	eventID, err := uuid.Parse(*eventFlag)
	if err != nil {
		logger.Error.Fatalf("Invalid event id %q: %v", *eventFlag, err)
	}
	updated, err := service.RecalculateEvent(ctx, eventID)
	if err != nil {
		logger.Error.Fatalf("Failed to recalculate event %s: %v", eventID, err)
	}
	logger.Info.Printf("Event %s: %d participant totals updated", eventID, updated)
}
