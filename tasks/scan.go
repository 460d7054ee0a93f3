package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/models"
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/optery"
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/utils"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// screenshotWorkers bounds concurrent outbound screenshot fetches.
const screenshotWorkers = 3

// ScreenshotResult is one scan's screenshot set. A failed fetch is recorded
// here as an error object rather than failing the task.
type ScreenshotResult struct {
	ScanID      string          `json:"scan_id"`
	Screenshots json.RawMessage `json:"screenshots"`
}

// ScanResult is the terminal payload returned to pollers.
type ScanResult struct {
	MemberUUID  string             `json:"member_uuid"`
	Email       string             `json:"email"`
	Scans       json.RawMessage    `json:"scans,omitempty"`
	Screenshots []ScreenshotResult `json:"screenshots,omitempty"`
	Message     string             `json:"message"`
}

// RetryPolicy caps whole-task retries. Only transient failures (provider
// 5xx, network, persistence) re-run the task; client and structural errors
// fail it immediately.
type RetryPolicy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
}

var DefaultRetryPolicy = RetryPolicy{
	MaxRetries:      2,
	InitialInterval: time.Minute,
}

// ScanFetcher runs the background scan fetch: list scans, fan out screenshot
// fetches, persist one history row per scan.
type ScanFetcher struct {
	client *optery.Client
	db     *gorm.DB
	policy RetryPolicy
}

func NewScanFetcher(client *optery.Client, database *gorm.DB, policy RetryPolicy) *ScanFetcher {
	return &ScanFetcher{client: client, db: database, policy: policy}
}

// Run executes the task under the retry policy.
func (f *ScanFetcher) Run(ctx context.Context, req *ScanRequest) (*ScanResult, error) {
	var result *ScanResult

	operation := func() error {
		res, err := f.runOnce(ctx, req)
		if err != nil {
			if !optery.IsTransient(err) {
				return backoff.Permanent(err)
			}
			utils.LogError(err, "Scan fetch attempt failed, will retry")
			return err
		}
		result = res
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = f.policy.InitialInterval

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, f.policy.MaxRetries), ctx))
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (f *ScanFetcher) runOnce(ctx context.Context, req *ScanRequest) (*ScanResult, error) {
	// keep a non-null value for the NOT NULL-ish email column
	email := req.Email
	if email == "" {
		email = "Not provided"
	}

	rawScans, scanIDs, err := f.client.GetScans(ctx, req.MemberUUID)
	if err != nil {
		return nil, err
	}

	if len(scanIDs) == 0 {
		return &ScanResult{
			MemberUUID: req.MemberUUID,
			Email:      email,
			Scans:      rawScans,
			Message:    "No scans found for this member",
		}, nil
	}

	results := make([]ScreenshotResult, len(scanIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(screenshotWorkers)
	for i, scanID := range scanIDs {
		i, scanID := i, scanID
		g.Go(func() error {
			shots, err := f.client.GetScreenshotsByScan(gctx, req.MemberUUID, scanID)
			if err != nil {
				// a failed screenshot fetch is data, not task failure
				utils.LogError(err, "Screenshot fetch failed for scan "+scanID)
				shots, _ = json.Marshal(map[string]string{"error": err.Error()})
			}

			record := models.ScanHistoryRecord{
				MemberUUID:        req.MemberUUID,
				Email:             email,
				ScanID:            scanID,
				RawScanData:       datatypes.JSON(rawScans),
				RawScreenshotData: datatypes.JSON(shots),
			}
			if err := f.db.WithContext(gctx).Create(&record).Error; err != nil {
				// persistence failures propagate so the whole task retries
				return fmt.Errorf("persist scan %s: %w", scanID, err)
			}

			results[i] = ScreenshotResult{ScanID: scanID, Screenshots: shots}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &ScanResult{
		MemberUUID:  req.MemberUUID,
		Email:       email,
		Scans:       rawScans,
		Screenshots: results,
		Message:     "Data fetched successfully",
	}, nil
}
