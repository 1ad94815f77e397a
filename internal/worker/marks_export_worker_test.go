package worker

import (
	"context"
	"errors"
	"sync"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mkce-labs/vivalab-backend/internal/config"
	"github.com/mkce-labs/vivalab-backend/internal/roster"
)

type recordingRoster struct {
	roster.Unavailable

	mu     sync.Mutex
	writes []string
	err    error
}

func (r *recordingRoster) WriteMark(_ context.Context, regNo string, experimentNo int, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.writes = append(r.writes, regNo+"/"+value)
	return nil
}

func newTestWorker(t *testing.T) (*MarksExportWorker, *RedisMarksQueue, *recordingRoster, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := &recordingRoster{}
	return NewMarksExportWorker(client, store, zerolog.Nop()), NewRedisMarksQueue(client), store, mr
}

func TestMarksExportWorker_WritesQueuedMark(t *testing.T) {
	w, q, store, _ := newTestWorker(t)
	ctx := context.Background()

	if err := q.EnqueueMark(ctx, "927623BCB041", 3, "7"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	w.processNext(ctx)

	if len(store.writes) != 1 || store.writes[0] != "927623BCB041/7" {
		t.Errorf("writes = %v", store.writes)
	}
}

func TestMarksExportWorker_RequeuesOnFailure(t *testing.T) {
	w, q, store, mr := newTestWorker(t)
	store.err = errors.New("sheets API down")
	ctx := context.Background()

	if err := q.EnqueueMark(ctx, "927623BCB041", 3, "7"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if retry := w.export(ctx, mustPop(t, mr)); !retry {
		t.Fatal("expected retry on transient failure")
	}
}

func TestMarksExportWorker_DropsWhenRosterUnavailable(t *testing.T) {
	w, q, store, mr := newTestWorker(t)
	store.err = roster.ErrUnavailable
	ctx := context.Background()

	if err := q.EnqueueMark(ctx, "927623BCB041", 3, "0 (V)"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if retry := w.export(ctx, mustPop(t, mr)); retry {
		t.Fatal("unavailable roster must not trigger retry")
	}
}

func TestMarksExportWorker_DropsGarbage(t *testing.T) {
	w, _, _, _ := newTestWorker(t)

	if retry := w.export(context.Background(), "{not json"); retry {
		t.Fatal("garbage payloads must be dropped, not requeued")
	}
}

func TestMarksExportWorker_DrainsOnShutdown(t *testing.T) {
	w, q, store, _ := newTestWorker(t)
	ctx := context.Background()

	for _, regNo := range []string{"927623BCB041", "927623BCB042"} {
		if err := q.EnqueueMark(ctx, regNo, 1, "9"); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	w.drain(ctx)

	if len(store.writes) != 2 {
		t.Errorf("drained %d writes, want 2", len(store.writes))
	}
}

func mustPop(t *testing.T, mr *miniredis.Miniredis) string {
	t.Helper()
	raw, err := mr.Lpop(config.WorkerKey.ExportMarksQueue)
	if err != nil {
		t.Fatalf("lpop: %v", err)
	}
	return raw
}
