package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/statushub/statushub/internal/status"
)

// Recorder persists each published snapshot's entries. It implements the
// hub subscriber contract; Accept enqueues onto a buffered channel so the
// publish path never blocks on the database, and snapshots are dropped
// with a warning if the writer falls behind.
type Recorder struct {
	store    *Store
	logger   *slog.Logger
	submitCh chan *status.Snapshot
}

// NewRecorder creates a recorder with the given submit buffer size
func NewRecorder(store *Store, bufferSize int, logger *slog.Logger) *Recorder {
	if bufferSize <= 0 {
		bufferSize = 64
	}

	return &Recorder{
		store:    store,
		logger:   logger.With("component", "recorder"),
		submitCh: make(chan *status.Snapshot, bufferSize),
	}
}

// Accept enqueues a snapshot for persistence
func (r *Recorder) Accept(snap *status.Snapshot) {
	select {
	case r.submitCh <- snap:
	default:
		r.logger.Warn("recorder buffer full, dropping snapshot",
			"cycle_id", snap.CycleID,
			"sequence", snap.Sequence,
		)
	}
}

// AcceptError logs cycle-level errors; there is nothing to persist
func (r *Recorder) AcceptError(err error) {
	r.logger.Warn("cycle error received", "error", err)
}

// Run drains the submit channel until the context is cancelled, flushing
// any queued snapshots before returning
func (r *Recorder) Run(ctx context.Context) error {
	r.logger.Info("recorder starting", "buffer", cap(r.submitCh))

	for {
		select {
		case <-ctx.Done():
			r.drain()
			r.logger.Info("recorder stopped")
			return ctx.Err()
		case snap := <-r.submitCh:
			if err := r.writeSnapshot(context.WithoutCancel(ctx), snap); err != nil {
				r.logger.Error("failed to persist snapshot",
					"cycle_id", snap.CycleID,
					"error", err,
				)
			}
		}
	}
}

// drain gives queued snapshots a bounded chance to land during shutdown
func (r *Recorder) drain() {
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for {
		select {
		case snap := <-r.submitCh:
			if err := r.writeSnapshot(flushCtx, snap); err != nil {
				r.logger.Error("failed to flush snapshot", "error", err)
				return
			}
		default:
			return
		}
	}
}

// writeSnapshot inserts all entries of one snapshot in a single batch
func (r *Recorder) writeSnapshot(ctx context.Context, snap *status.Snapshot) error {
	batch := &pgx.Batch{}

	for _, name := range snap.Probes() {
		res := snap.Results[name]

		var payload []byte
		if res.OK {
			data, err := json.Marshal(res.Value)
			if err != nil {
				r.logger.Warn("failed to marshal probe payload",
					"probe", name,
					"error", err,
				)
			} else {
				payload = data
			}
		}

		batch.Queue(
			`INSERT INTO probe_results
				(cycle_id, sequence, probe, ok, failure, message, payload, duration_ms, captured_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			snap.CycleID,
			int64(snap.Sequence),
			name,
			res.OK,
			string(res.Failure),
			res.Message,
			payload,
			float64(res.Duration.Microseconds())/1000.0,
			res.CollectedAt,
		)
	}

	results := r.store.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch insert failed at entry %d: %w", i, err)
		}
	}

	return nil
}

// HistoryEntry is one persisted probe result
type HistoryEntry struct {
	CycleID    uuid.UUID              `json:"cycle_id"`
	Sequence   int64                  `json:"sequence"`
	Probe      string                 `json:"probe"`
	OK         bool                   `json:"ok"`
	Failure    string                 `json:"failure,omitempty"`
	Message    string                 `json:"message,omitempty"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	DurationMS float64                `json:"duration_ms"`
	CapturedAt time.Time              `json:"captured_at"`
}

// History returns the most recent persisted results for a probe
func (r *Recorder) History(ctx context.Context, probe string, limit int) ([]HistoryEntry, error) {
	rows, err := r.store.pool.Query(ctx,
		`SELECT cycle_id, sequence, probe, ok, failure, message, payload, duration_ms, captured_at
		 FROM probe_results
		 WHERE probe = $1
		 ORDER BY captured_at DESC
		 LIMIT $2`,
		probe, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history query failed: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var payload []byte

		if err := rows.Scan(&e.CycleID, &e.Sequence, &e.Probe, &e.OK,
			&e.Failure, &e.Message, &payload, &e.DurationMS, &e.CapturedAt); err != nil {
			return nil, fmt.Errorf("history scan failed: %w", err)
		}

		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &e.Payload); err != nil {
				r.logger.Warn("failed to unmarshal stored payload",
					"probe", e.Probe,
					"error", err,
				)
			}
		}

		entries = append(entries, e)
	}

	return entries, rows.Err()
}
