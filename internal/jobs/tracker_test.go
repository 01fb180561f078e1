package jobs

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func newTestTracker(retention, stall time.Duration) (*Tracker, *time.Time) {
	tracker := NewTracker(retention, stall)
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	tracker.nowFunc = func() time.Time { return now }
	return tracker, &now
}

func TestStartRejectsSecondActiveJobOfKind(t *testing.T) {
	tracker, _ := newTestTracker(time.Hour, time.Hour)

	if _, err := tracker.Start(KindRefresh); err != nil {
		t.Fatalf("first Start returned error: %v", err)
	}
	if _, err := tracker.Start(KindRefresh); !errors.Is(err, ErrConflict) {
		t.Errorf("second Start error = %v, want ErrConflict", err)
	}

	// A different kind is unaffected.
	if _, err := tracker.Start(KindThumbnails); err != nil {
		t.Errorf("Start of other kind returned error: %v", err)
	}
}

func TestConcurrentStartsExactlyOneWins(t *testing.T) {
	tracker := NewTracker(time.Hour, time.Hour)

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = tracker.Start(KindRefresh)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrConflict):
		default:
			t.Errorf("unexpected Start error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("%d Start calls succeeded, want exactly 1", wins)
	}
}

func TestLifecycleTransitions(t *testing.T) {
	tracker, _ := newTestTracker(time.Hour, time.Hour)

	job, err := tracker.Start(KindRefresh)
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if job.Status != StatusPending {
		t.Errorf("status after Start = %s, want pending", job.Status)
	}

	if err := tracker.Advance(job.ID, 3, 10, true); err != nil {
		t.Fatalf("Advance returned error: %v", err)
	}

	got, err := tracker.Poll(job.ID)
	if err != nil {
		t.Fatalf("Poll returned error: %v", err)
	}
	if got.Status != StatusRunning {
		t.Errorf("status after Advance = %s, want running", got.Status)
	}
	if got.Processed != 3 || got.Total != 10 || !got.TotalKnown {
		t.Errorf("progress = %d/%d known=%v, want 3/10 known=true", got.Processed, got.Total, got.TotalKnown)
	}

	if err := tracker.Complete(job.ID); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	got, err = tracker.Poll(job.ID)
	if err != nil {
		t.Fatalf("Poll returned error: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Errorf("status after Complete = %s, want completed", got.Status)
	}
}

func TestCompleteRequiresRunning(t *testing.T) {
	tracker, _ := newTestTracker(time.Hour, time.Hour)

	job, err := tracker.Start(KindRefresh)
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	if err := tracker.Complete(job.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Complete of pending job: error = %v, want ErrInvalidTransition", err)
	}

	if err := tracker.Advance(job.ID, 0, 0, false); err != nil {
		t.Fatalf("Advance returned error: %v", err)
	}
	if err := tracker.Fail(job.ID, "boom"); err != nil {
		t.Fatalf("Fail returned error: %v", err)
	}

	if err := tracker.Advance(job.ID, 1, 1, true); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Advance of failed job: error = %v, want ErrInvalidTransition", err)
	}
	if err := tracker.Complete(job.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Complete of failed job: error = %v, want ErrInvalidTransition", err)
	}
}

func TestKindSlotFreesAfterTerminalState(t *testing.T) {
	tracker, _ := newTestTracker(time.Hour, time.Hour)

	job, err := tracker.Start(KindThumbnails)
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := tracker.Advance(job.ID, 0, 0, false); err != nil {
		t.Fatalf("Advance returned error: %v", err)
	}
	if err := tracker.Complete(job.ID); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}

	if _, err := tracker.Start(KindThumbnails); err != nil {
		t.Errorf("Start after completion returned error: %v", err)
	}
}

func TestPollIsRepeatable(t *testing.T) {
	tracker, _ := newTestTracker(time.Hour, time.Hour)

	job, err := tracker.Start(KindRefresh)
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := tracker.Advance(job.ID, 2, 5, true); err != nil {
		t.Fatalf("Advance returned error: %v", err)
	}

	first, err := tracker.Poll(job.ID)
	if err != nil {
		t.Fatalf("first Poll returned error: %v", err)
	}
	second, err := tracker.Poll(job.ID)
	if err != nil {
		t.Fatalf("second Poll returned error: %v", err)
	}
	if first != second {
		t.Errorf("repeated polls disagree: %+v vs %+v", first, second)
	}
}

func TestPollUnknownJobReturnsNotFound(t *testing.T) {
	tracker, _ := newTestTracker(time.Hour, time.Hour)

	if _, err := tracker.Poll("no-such-job"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Poll of unknown id: error = %v, want ErrNotFound", err)
	}
}

func TestStalledJobFailsAndFreesSlot(t *testing.T) {
	tracker, now := newTestTracker(time.Hour, 10*time.Minute)

	job, err := tracker.Start(KindRefresh)
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := tracker.Advance(job.ID, 1, 0, false); err != nil {
		t.Fatalf("Advance returned error: %v", err)
	}

	*now = now.Add(11 * time.Minute)

	got, err := tracker.Poll(job.ID)
	if err != nil {
		t.Fatalf("Poll returned error: %v", err)
	}
	if got.Status != StatusFailed {
		t.Errorf("status after stall = %s, want failed", got.Status)
	}
	if got.Error == "" {
		t.Error("stalled job should carry an error detail")
	}

	if _, err := tracker.Start(KindRefresh); err != nil {
		t.Errorf("Start after stall returned error: %v", err)
	}
}

func TestTerminalJobExpiresAfterRetention(t *testing.T) {
	tracker, now := newTestTracker(time.Hour, 10*time.Minute)

	job, err := tracker.Start(KindRefresh)
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := tracker.Advance(job.ID, 0, 0, false); err != nil {
		t.Fatalf("Advance returned error: %v", err)
	}
	if err := tracker.Complete(job.ID); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}

	*now = now.Add(2 * time.Hour)

	if _, err := tracker.Poll(job.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Poll after retention: error = %v, want ErrNotFound", err)
	}
	if _, ok := tracker.Latest(KindRefresh); ok {
		t.Error("Latest still reports an expired job")
	}
}

func TestObservedTerminalJobLingersThenClears(t *testing.T) {
	tracker, now := newTestTracker(24*time.Hour, 10*time.Minute)

	job, err := tracker.Start(KindRefresh)
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := tracker.Advance(job.ID, 0, 0, false); err != nil {
		t.Fatalf("Advance returned error: %v", err)
	}
	if err := tracker.Complete(job.ID); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}

	// First observation starts the linger countdown.
	if _, err := tracker.Poll(job.ID); err != nil {
		t.Fatalf("Poll returned error: %v", err)
	}

	*now = now.Add(observedLinger / 2)
	if _, err := tracker.Poll(job.ID); err != nil {
		t.Errorf("Poll within linger window returned error: %v", err)
	}

	*now = now.Add(observedLinger)
	if _, err := tracker.Poll(job.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Poll past linger window: error = %v, want ErrNotFound", err)
	}
}

func TestLatestTracksMostRecentJobOfKind(t *testing.T) {
	tracker, _ := newTestTracker(time.Hour, time.Hour)

	if _, ok := tracker.Latest(KindRefresh); ok {
		t.Error("Latest on an idle tracker should report nothing")
	}

	first, err := tracker.Start(KindRefresh)
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := tracker.Advance(first.ID, 0, 0, false); err != nil {
		t.Fatalf("Advance returned error: %v", err)
	}
	if err := tracker.Complete(first.ID); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}

	second, err := tracker.Start(KindRefresh)
	if err != nil {
		t.Fatalf("second Start returned error: %v", err)
	}

	got, ok := tracker.Latest(KindRefresh)
	if !ok {
		t.Fatal("Latest reported nothing with an active job")
	}
	if got.ID != second.ID {
		t.Errorf("Latest id = %s, want %s", got.ID, second.ID)
	}
}
