package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mkce-labs/vivalab-backend/internal/config"
	"github.com/mkce-labs/vivalab-backend/internal/roster"
)

// markPayload is one finalized mark waiting to reach the spreadsheet.
type markPayload struct {
	RegNo        string `json:"reg_no"`
	ExperimentNo int    `json:"experiment_no"`
	Value        string `json:"value"`
}

// RedisMarksQueue is the producer side: services push finalized marks here
// and the export worker drains them.
type RedisMarksQueue struct {
	rdb *redis.Client
}

// NewRedisMarksQueue creates a new RedisMarksQueue.
func NewRedisMarksQueue(rdb *redis.Client) *RedisMarksQueue {
	return &RedisMarksQueue{rdb: rdb}
}

// EnqueueMark pushes one mark onto the export queue.
func (q *RedisMarksQueue) EnqueueMark(ctx context.Context, regNo string, experimentNo int, value string) error {
	payload, err := json.Marshal(markPayload{RegNo: regNo, ExperimentNo: experimentNo, Value: value})
	if err != nil {
		return err
	}
	return q.rdb.LPush(ctx, config.WorkerKey.ExportMarksQueue, payload).Err()
}

// MarksExportWorker consumes the export queue and writes marks into the
// roster spreadsheet. The database already holds every result, so this
// pipeline is allowed to lag or drop — never to block finalization.
type MarksExportWorker struct {
	rdb    *redis.Client
	roster roster.Store
	log    zerolog.Logger
}

// NewMarksExportWorker creates a new MarksExportWorker.
func NewMarksExportWorker(rdb *redis.Client, rosterStore roster.Store, log zerolog.Logger) *MarksExportWorker {
	return &MarksExportWorker{
		rdb:    rdb,
		roster: rosterStore,
		log:    log.With().Str("component", "marks_export_worker").Logger(),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *MarksExportWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *MarksExportWorker) processNext(ctx context.Context) {
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.ExportMarksQueue).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}
	if len(result) < 2 {
		return
	}

	if retry := w.export(ctx, result[1]); retry {
		w.rdb.RPush(ctx, config.WorkerKey.ExportMarksQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

// export writes one queued mark. Returns true when the item should be
// requeued for retry.
func (w *MarksExportWorker) export(ctx context.Context, raw string) bool {
	var payload markPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error, dropping item")
		return false
	}

	err := w.roster.WriteMark(ctx, payload.RegNo, payload.ExperimentNo, payload.Value)
	switch {
	case err == nil:
		w.log.Info().
			Str("reg_no", payload.RegNo).
			Int("experiment_no", payload.ExperimentNo).
			Str("value", payload.Value).
			Msg("Mark exported to roster")
		return false
	case errors.Is(err, roster.ErrUnavailable):
		// No roster configured: the database stays authoritative.
		w.log.Warn().Str("reg_no", payload.RegNo).Msg("Roster unavailable, dropping mark export")
		return false
	case errors.Is(err, roster.ErrStudentNotFound):
		w.log.Error().Str("reg_no", payload.RegNo).Msg("Student missing from roster, dropping mark export")
		return false
	default:
		w.log.Error().Err(err).
			Str("reg_no", payload.RegNo).
			Int("experiment_no", payload.ExperimentNo).
			Msg("Export error, retrying in 5s")
		return true
	}
}

// drain attempts every remaining item once before shutdown.
func (w *MarksExportWorker) drain(ctx context.Context) {
	drained := 0
	for {
		raw, err := w.rdb.LPop(ctx, config.WorkerKey.ExportMarksQueue).Result()
		if err != nil {
			break
		}
		if retry := w.export(ctx, raw); retry {
			w.rdb.RPush(ctx, config.WorkerKey.ExportMarksQueue, raw)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
