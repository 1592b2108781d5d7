package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ticket-validator/backend/internal/cache"
	"github.com/ticket-validator/backend/internal/metrics"
	"github.com/ticket-validator/backend/internal/storage/models"
	"github.com/ticket-validator/backend/internal/storage/sqlite"
	"github.com/ticket-validator/backend/pkg/logger"
	"github.com/ticket-validator/backend/pkg/utils"
)

// RunNotifier receives a callback after every completed run. Implemented by
// the WebSocket event hub.
type RunNotifier interface {
	RunCompleted(result *Result, cached bool)
}

// Result is the complete output of one pipeline run. It owns its data: the
// classified table never aliases the uploaded bytes, and cached copies
// round-trip through JSON.
type Result struct {
	RunID       string             `json:"run_id"`
	ContentHash string             `json:"content_hash"`
	DailyFile   string             `json:"daily_file"`
	AlarmFile   string             `json:"alarm_file"`
	Tickets     []ClassifiedTicket `json:"tickets"`
	Counts      []CategoryCount    `json:"counts"`
	LatencyMS   int                `json:"latency_ms"`
	CreatedAt   time.Time          `json:"created_at"`
}

// Processor runs the validation pipeline end to end: schema validation,
// site-code extraction, alarm resolution, classification. Results are
// memoized in the cache keyed by a content hash of both uploads, and each
// fresh run is recorded in the run history.
type Processor struct {
	runs     *sqlite.Client
	store    cache.Store
	notifier RunNotifier
	cacheTTL time.Duration
}

func NewProcessor(runs *sqlite.Client, store cache.Store, notifier RunNotifier, cacheTTL time.Duration) *Processor {
	return &Processor{
		runs:     runs,
		store:    store,
		notifier: notifier,
		cacheTTL: cacheTTL,
	}
}

// Run executes the pipeline over the two uploads. The second return value
// reports whether the result came from the memoization cache. Validation
// and parse failures abort the whole run; there is no partial recovery.
func (p *Processor) Run(ctx context.Context, dailyName string, dailyData []byte, alarmName string, alarmData []byte) (*Result, bool, error) {
	key := utils.HashContent([]byte(dailyName), dailyData, []byte(alarmName), alarmData)

	var memoized Result
	hit, err := p.store.Get(ctx, key, &memoized)
	if err != nil {
		logger.Warn("Result cache lookup failed", zap.Error(err))
	}
	if hit {
		metrics.CacheHits.Inc()
		logger.Info("Pipeline run served from cache",
			zap.String("run_id", memoized.RunID),
			zap.String("content_hash", key),
		)
		if p.notifier != nil {
			p.notifier.RunCompleted(&memoized, true)
		}
		return &memoized, true, nil
	}
	metrics.CacheMisses.Inc()

	start := time.Now()

	dailyTbl, err := ValidateCSV(dailyName, dailyData, DailyTicketColumns)
	if err != nil {
		metrics.RunTotal.WithLabelValues("rejected").Inc()
		return nil, false, err
	}
	alarmTbl, err := ValidateCSV(alarmName, alarmData, AlarmTicketColumns)
	if err != nil {
		metrics.RunTotal.WithLabelValues("rejected").Inc()
		return nil, false, err
	}

	daily := ParseDailyTickets(dailyTbl)
	alarms, err := ParseAlarmRecords(alarmTbl)
	if err != nil {
		metrics.RunTotal.WithLabelValues("rejected").Inc()
		return nil, false, err
	}

	resolved := ResolveLatest(alarms)
	tickets := Classify(daily, resolved)
	counts := ValidationCounts(tickets)

	elapsed := time.Since(start)
	result := &Result{
		RunID:       uuid.NewString(),
		ContentHash: key,
		DailyFile:   dailyName,
		AlarmFile:   alarmName,
		Tickets:     tickets,
		Counts:      counts,
		LatencyMS:   int(elapsed.Milliseconds()),
		CreatedAt:   start.UTC(),
	}

	metrics.RunDuration.Observe(elapsed.Seconds())
	metrics.RunTotal.WithLabelValues("completed").Inc()
	metrics.RowsProcessed.WithLabelValues("daily_tickets").Add(float64(len(daily)))
	metrics.RowsProcessed.WithLabelValues("alarm_tickets").Add(float64(len(alarms)))
	for _, c := range counts {
		metrics.ValidationOutcomes.WithLabelValues(c.Validation).Add(float64(c.Count))
	}

	if p.runs != nil {
		record := runRecord(result, len(alarms))
		if err := p.runs.InsertRun(record); err != nil {
			logger.Error("Failed to record pipeline run", zap.Error(err))
		}
	}

	if err := p.store.Set(ctx, key, result, p.cacheTTL); err != nil {
		logger.Warn("Failed to cache pipeline result", zap.Error(err))
	}

	logger.Info("Pipeline run completed",
		zap.String("run_id", result.RunID),
		zap.Int("tickets", len(tickets)),
		zap.Int("alarms", len(alarms)),
		zap.Duration("elapsed", elapsed),
	)

	if p.notifier != nil {
		p.notifier.RunCompleted(result, false)
	}
	return result, false, nil
}

// ResultByHash fetches a memoized result. A miss is not an error: evicted
// results are simply gone until the files are uploaded again.
func (p *Processor) ResultByHash(ctx context.Context, contentHash string) (*Result, bool, error) {
	var result Result
	hit, err := p.store.Get(ctx, contentHash, &result)
	if err != nil || !hit {
		return nil, false, err
	}
	return &result, true, nil
}

// Invalidate drops the memoized result for a content hash. This is the
// explicit invalidation path; nothing expires results implicitly besides
// the cache TTL.
func (p *Processor) Invalidate(ctx context.Context, contentHash string) error {
	return p.store.Invalidate(ctx, contentHash)
}

func runRecord(result *Result, alarmRows int) *models.PipelineRun {
	record := &models.PipelineRun{
		ID:          result.RunID,
		ContentHash: result.ContentHash,
		DailyFile:   result.DailyFile,
		AlarmFile:   result.AlarmFile,
		TicketRows:  len(result.Tickets),
		AlarmRows:   alarmRows,
		LatencyMS:   result.LatencyMS,
		CreatedAt:   result.CreatedAt,
	}
	for _, c := range result.Counts {
		switch c.Validation {
		case ValidationValid:
			record.ValidCount = c.Count
		case ValidationInvalid:
			record.InvalidCount = c.Count
		case ValidationNotInNMS:
			record.NotInNMSCount = c.Count
		}
	}
	return record
}
