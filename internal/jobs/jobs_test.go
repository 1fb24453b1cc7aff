package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"wms-backend/internal/config"
	"wms-backend/internal/models"
	"wms-backend/internal/notify"
	"wms-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type fakeMailer struct {
	sent []notify.Message
}

func (m *fakeMailer) Send(_ context.Context, msg notify.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Expiry: config.ExpiryConfig{WarningDays: 30, CriticalDays: 7},
		Email: config.EmailConfig{
			Enabled:         true,
			AlertRecipients: []string{"raktar@example.com"},
		},
	}
}

func newRunner(db *gorm.DB, mailer notify.Mailer, defs ...Definition) *Runner {
	if len(defs) == 0 {
		defs = Default()
	}
	return NewRunner(&Deps{DB: db, Config: testConfig(), Mailer: mailer}, defs, nil)
}

func TestRunRecordsSuccess(t *testing.T) {
	db := testutil.OpenDB(t)
	r := newRunner(db, nil, Definition{Name: "count", Run: func(context.Context, *Deps) (Outcome, error) {
		return Outcome{Result: map[string]any{"n": 3}, ItemsProcessed: intPtr(3)}, nil
	}})

	exec, err := r.Run(context.Background(), "count", "task-1")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var stored models.JobExecution
	if err := db.First(&stored, "id = ?", exec.ID).Error; err != nil {
		t.Fatalf("load execution: %v", err)
	}
	if stored.Status != models.JobSuccess || stored.TaskID != "task-1" || stored.FinishedAt == nil {
		t.Errorf("execution = %+v", stored)
	}
	if stored.Result != `{"n":3}` {
		t.Errorf("result = %s", stored.Result)
	}
	if stored.ItemsProcessed == nil || *stored.ItemsProcessed != 3 {
		t.Errorf("items processed = %v", stored.ItemsProcessed)
	}
}

func TestRunRecordsFailure(t *testing.T) {
	db := testutil.OpenDB(t)
	boom := errors.New("boom")
	r := newRunner(db, nil, Definition{Name: "broken", Run: func(context.Context, *Deps) (Outcome, error) {
		return Outcome{}, boom
	}})

	exec, err := r.Run(context.Background(), "broken", "task-2")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	var stored models.JobExecution
	if err := db.First(&stored, "id = ?", exec.ID).Error; err != nil {
		t.Fatal(err)
	}
	if stored.Status != models.JobFailed || stored.ErrorMessage == nil || *stored.ErrorMessage != "boom" {
		t.Errorf("execution = %+v", stored)
	}
	if !json.Valid([]byte(stored.Result)) {
		t.Errorf("result %q is not JSON", stored.Result)
	}
}

func TestRunUnknownJob(t *testing.T) {
	r := newRunner(testutil.OpenDB(t), nil)
	if _, err := r.Run(context.Background(), "nope", "x"); !errors.Is(err, ErrUnknownJob) {
		t.Fatalf("err = %v, want ErrUnknownJob", err)
	}
}

func TestEncodeResultAlwaysJSON(t *testing.T) {
	for _, in := range []map[string]any{nil, {"ch": make(chan int)}, {"ok": true}} {
		if out := encodeResult(in); !json.Valid([]byte(out)) {
			t.Errorf("encodeResult(%v) = %q", in, out)
		}
	}
}

func TestSendExpiryAlerts(t *testing.T) {
	testutil.FreezeClock(t)
	db := testutil.OpenDB(t)
	wh := testutil.Warehouse(t, db, "Központi")
	p := testutil.Product(t, db, "Csirkemell")
	testutil.Content(t, db, testutil.Bin(t, db, wh, "A-01"), p, "L1", 5, testutil.Days(2))

	mailer := &fakeMailer{}
	exec, err := newRunner(db, mailer).Run(context.Background(), SendExpiryAlerts, "t")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(mailer.sent) != 1 || mailer.sent[0].To[0] != "raktar@example.com" {
		t.Fatalf("sent = %+v", mailer.sent)
	}
	var result map[string]any
	if err := json.Unmarshal([]byte(exec.Result), &result); err != nil {
		t.Fatal(err)
	}
	if result["emails_sent"] != float64(1) || result["critical_count"] != float64(1) {
		t.Errorf("result = %v", result)
	}
}

func TestSendExpiryAlertsSkippedWhenDisabled(t *testing.T) {
	db := testutil.OpenDB(t)
	r := newRunner(db, nil)
	r.deps.Config.Email.Enabled = false

	exec, err := r.Run(context.Background(), SendExpiryAlerts, "t")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var result map[string]any
	if err := json.Unmarshal([]byte(exec.Result), &result); err != nil {
		t.Fatal(err)
	}
	if result["skipped"] != true {
		t.Errorf("result = %v", result)
	}
}

func TestSnapshotOccupancyJob(t *testing.T) {
	testutil.FreezeClock(t)
	db := testutil.OpenDB(t)
	wh := testutil.Warehouse(t, db, "Központi")
	b := testutil.Bin(t, db, wh, "A-01")
	testutil.Bin(t, db, wh, "A-02")
	testutil.Content(t, db, b, testutil.Product(t, db, "Tej"), "L1", 5, testutil.Days(9))

	if _, err := newRunner(db, nil).Run(context.Background(), SnapshotOccupancy, "t"); err != nil {
		t.Fatalf("run: %v", err)
	}
	var snap models.OccupancySnapshot
	if err := db.First(&snap, "warehouse_id = ?", wh.ID).Error; err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.TotalBins != 2 || snap.OccupiedBins != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestSchedulerTriggerAndStatus(t *testing.T) {
	db := testutil.OpenDB(t)
	r := newRunner(db, nil, Definition{Name: "noop", Schedule: "@every 1h", Run: func(context.Context, *Deps) (Outcome, error) {
		return Outcome{Result: map[string]any{"done": true}}, nil
	}})
	s := NewScheduler(r, time.UTC, nil)

	if _, err := s.Trigger("missing"); !errors.Is(err, ErrUnknownJob) {
		t.Fatalf("trigger missing: err = %v", err)
	}
	taskID, err := s.Trigger("noop")
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	app := fiber.New()
	app.Get("/jobs/status/:task_id", StatusHandler())

	for _, tc := range []struct {
		taskID string
		want   string
	}{
		{taskID, "SUCCESS"},
		{"unknown-task", "PENDING"},
	} {
		resp, err := app.Test(httptest.NewRequest("GET", "/jobs/status/"+tc.taskID, nil))
		if err != nil {
			t.Fatal(err)
		}
		var body StatusResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body.Status != tc.want {
			t.Errorf("status of %s = %s, want %s", tc.taskID, body.Status, tc.want)
		}
	}
}

func TestSchedulerStopWaitsForTriggeredRuns(t *testing.T) {
	db := testutil.OpenDB(t)
	started, release := make(chan struct{}), make(chan struct{})
	r := newRunner(db, nil, Definition{Name: "slow", Schedule: "@every 1h", Run: func(context.Context, *Deps) (Outcome, error) {
		close(started)
		<-release
		return Outcome{}, nil
	}})
	s := NewScheduler(r, time.UTC, nil)

	if _, err := s.Trigger("slow"); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	<-started

	short, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := s.Stop(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("stop with a running job: err = %v, want deadline exceeded", err)
	}

	if _, err := s.Trigger("slow"); !errors.Is(err, ErrSchedulerStopping) {
		t.Fatalf("trigger after stop: err = %v, want ErrSchedulerStopping", err)
	}

	close(release)
	ctx, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestTriggerHandlerAfterStop(t *testing.T) {
	db := testutil.OpenDB(t)
	s := NewScheduler(newRunner(db, nil), time.UTC, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatal(err)
	}

	app := fiber.New()
	app.Post("/jobs/trigger", TriggerHandler(s))
	resp := testutil.Do(t, app, "POST", "/jobs/trigger", TriggerRequest{JobName: SnapshotOccupancy})
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Fatalf("trigger = %d, want 503", resp.StatusCode)
	}
}
