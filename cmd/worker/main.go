package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/config"
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/db"
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/optery"
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/tasks"
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/utils"

	"github.com/redis/go-redis/v9"
)

// The worker drains the scan queue: one task at a time, each task fans out
// its screenshot fetches internally.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading configuration:", err)
	}

	db.InitDB(cfg)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	queue := tasks.NewQueue(rdb)
	fetcher := tasks.NewScanFetcher(optery.NewClient(cfg), db.DB, tasks.DefaultRetryPolicy)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	utils.LogInfo("Scan worker started")

	for {
		req, err := queue.Dequeue(ctx, 5*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				utils.LogInfo("Scan worker stopping")
				return
			}
			utils.LogError(err, "Dequeue failed in worker loop")
			time.Sleep(time.Second)
			continue
		}
		if req == nil {
			if ctx.Err() != nil {
				utils.LogInfo("Scan worker stopping")
				return
			}
			continue
		}

		result, err := fetcher.Run(ctx, req)
		if err != nil {
			utils.LogError(err, "Scan task failed for task "+req.TaskID)
			if err := queue.SetFailed(context.Background(), req.TaskID, err); err != nil {
				utils.LogError(err, "Failed to record task failure for task "+req.TaskID)
			}
			continue
		}

		if err := queue.SetSucceeded(context.Background(), req.TaskID, result); err != nil {
			utils.LogError(err, "Failed to record task result for task "+req.TaskID)
		}
	}
}
