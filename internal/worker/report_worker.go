package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/arjunalabs/arjuna-backend/internal/config"
	"github.com/arjunalabs/arjuna-backend/internal/model"
	"github.com/arjunalabs/arjuna-backend/internal/repository"
)

const ReportPollTimeout = 1 * time.Second

// ReportWorker drains finalized exam reports from the queue into PostgreSQL.
// Reports are rare compared to cheat events, so they are written one at a
// time without batching.
type ReportWorker struct {
	reports *repository.ReportRepository
	rdb     *redis.Client
	log     zerolog.Logger
}

func NewReportWorker(reports *repository.ReportRepository, rdb *redis.Client, log zerolog.Logger) *ReportWorker {
	return &ReportWorker{
		reports: reports,
		rdb:     rdb,
		log:     log.With().Str("component", "report_worker").Logger(),
	}
}

func (w *ReportWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ReportWorker started")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		result, err := w.rdb.BLPop(ctx, ReportPollTimeout, config.WorkerKey.PersistReportsQueue).Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			time.Sleep(3 * time.Second)
			continue
		}

		if len(result) < 2 {
			continue
		}

		var report model.ExamReport
		if err := json.Unmarshal([]byte(result[1]), &report); err != nil {
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed report JSON")
			continue
		}

		if err := w.reports.Create(ctx, &report); err != nil {
			w.log.Error().Err(err).Str("session_id", report.SessionID.String()).Msg("Report insert failed, requeueing")
			if err := w.rdb.RPush(ctx, config.WorkerKey.PersistReportsQueue, result[1]).Err(); err != nil {
				w.log.Error().Err(err).Msg("CRITICAL: Failed to requeue report. Data loss occurred.")
			}
			time.Sleep(2 * time.Second)
			continue
		}

		w.log.Info().Str("session_id", report.SessionID.String()).Msg("Report persisted")
	}
}
