package sqlite

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ticket-validator/backend/internal/storage/models"
	"github.com/ticket-validator/backend/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.InitNop()
	os.Exit(m.Run())
}

func newTestClient(t *testing.T) *Client {
	t.Helper()

	c, err := NewClient(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	if err := c.InitSchema(); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}
	return c
}

func sampleRun(id string, createdAt time.Time) *models.PipelineRun {
	return &models.PipelineRun{
		ID:            id,
		ContentHash:   "hash-" + id,
		DailyFile:     "daily.csv",
		AlarmFile:     "alarms.csv",
		TicketRows:    10,
		AlarmRows:     4,
		ValidCount:    5,
		InvalidCount:  3,
		NotInNMSCount: 2,
		LatencyMS:     12,
		CreatedAt:     createdAt,
	}
}

func TestInsertAndGetRun(t *testing.T) {
	c := newTestClient(t)
	created := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

	if err := c.InsertRun(sampleRun("run-1", created)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	got, err := c.GetRun("run-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.ContentHash != "hash-run-1" {
		t.Fatalf("unexpected content hash %q", got.ContentHash)
	}
	if got.ValidCount != 5 || got.InvalidCount != 3 || got.NotInNMSCount != 2 {
		t.Fatalf("unexpected counts %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected created_at %v", got.CreatedAt)
	}
}

func TestGetRunNotFound(t *testing.T) {
	c := newTestClient(t)

	_, err := c.GetRun("missing")
	if !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestListRunsMostRecentFirst(t *testing.T) {
	c := newTestClient(t)
	base := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"run-a", "run-b", "run-c"} {
		if err := c.InsertRun(sampleRun(id, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	runs, err := c.ListRuns(2)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "run-c" || runs[1].ID != "run-b" {
		t.Fatalf("unexpected order: %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestDeleteRun(t *testing.T) {
	c := newTestClient(t)

	if err := c.InsertRun(sampleRun("run-1", time.Now())); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := c.DeleteRun("run-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := c.GetRun("run-1"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected run to be gone, got %v", err)
	}
	if err := c.DeleteRun("run-1"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound on double delete, got %v", err)
	}
}
