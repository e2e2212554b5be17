// matecheck is a smoke probe against a running matebot server: it checks
// health, plays one opening move as a throwaway player, and tails the
// candidate stream for a moment.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dmelim/matebot/internal/botclient"
	"github.com/google/uuid"
)

func main() {
	baseURL := os.Getenv("MATEBOT_BASE_URL")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8080"
	}

	client := botclient.NewClient(baseURL, botclient.WithTimeout(8*time.Second))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := client.Health(ctx); err != nil {
		log.Fatalf("health check failed: %v", err)
	}
	log.Printf("health ok: %s", baseURL)

	presets, err := client.Presets(ctx)
	if err != nil {
		log.Fatalf("presets failed: %v", err)
	}
	log.Printf("presets ok: %d levels", len(presets))

	watcher, err := botclient.Watch(ctx, baseURL)
	if err != nil {
		log.Printf("watch connect failed (continuing): %v", err)
		watcher = nil
	}

	playerID := "matecheck-" + uuid.NewString()
	started, err := client.Start(ctx, playerID, "level1")
	if err != nil {
		log.Fatalf("start failed: %v", err)
	}
	log.Printf("session %s started (preset=%s)", started.State.SessionUUID, started.State.Preset)

	summary, err := client.Play(ctx, playerID, "e4")
	if err != nil {
		log.Fatalf("move failed: %v", err)
	}
	log.Printf("played e4, engine answered %s (score=%d nodes=%d in %dms)",
		summary.EngineSAN, summary.EngineInfo.Score, summary.EngineInfo.Nodes, summary.EngineInfo.DurationMS)

	if watcher != nil {
		eventCtx, eventCancel := context.WithTimeout(ctx, 3*time.Second)
		for i := 0; i < 3; i++ {
			event, err := watcher.Next(eventCtx)
			if err != nil {
				break
			}
			fmt.Printf("candidate %s score=%d\n", event.MoveUCI, event.Score)
		}
		eventCancel()
		_ = watcher.Close()
	}

	if _, err := client.Resign(ctx, playerID); err != nil {
		log.Fatalf("resign failed: %v", err)
	}
	records, err := client.History(ctx, playerID, 1)
	if err != nil {
		log.Fatalf("history failed: %v", err)
	}
	if len(records) == 0 {
		log.Fatal("resigned game missing from history")
	}
	log.Printf("history ok: game #%d result=%s", records[0].ID, records[0].Result)
}
