package schedule_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/leandrodaf/continuator/internal/schedule"
	"github.com/leandrodaf/continuator/internal/schedule/schedtest"
)

func TestQueue_RunsInDeadlineOrder(t *testing.T) {
	clock := schedtest.NewClock()
	q := schedule.NewQueue(clock.Now)

	var got []string
	q.AfterFunc(300*time.Millisecond, func() { got = append(got, "c") })
	q.AfterFunc(100*time.Millisecond, func() { got = append(got, "a") })
	q.AfterFunc(200*time.Millisecond, func() { got = append(got, "b") })

	clock.Advance(q, 250*time.Millisecond)
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("after 250ms got %v", got)
	}
	clock.Advance(q, time.Second)
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("after 1250ms got %v", got)
	}
	if q.Len() != 0 {
		t.Fatalf("queue not drained: %d", q.Len())
	}
}

func TestQueue_EqualDeadlinesKeepSchedulingOrder(t *testing.T) {
	clock := schedtest.NewClock()
	q := schedule.NewQueue(clock.Now)

	var got []int
	for i := 0; i < 16; i++ {
		q.AfterFunc(50*time.Millisecond, func() { got = append(got, i) })
	}
	clock.Advance(q, 50*time.Millisecond)
	for i, v := range got {
		if v != i {
			t.Fatalf("position %d ran task %d: %v", i, v, got)
		}
	}
	if len(got) != 16 {
		t.Fatalf("ran %d of 16 tasks", len(got))
	}
}

func TestQueue_StopPreventsFiring(t *testing.T) {
	clock := schedtest.NewClock()
	q := schedule.NewQueue(clock.Now)

	fired := 0
	keep := q.AfterFunc(10*time.Millisecond, func() { fired++ })
	drop := q.AfterFunc(20*time.Millisecond, func() { t.Fatalf("stopped task fired") })
	q.AfterFunc(30*time.Millisecond, func() { fired++ })

	if !drop.Stop() {
		t.Fatalf("Stop on pending task returned false")
	}
	if drop.Stop() {
		t.Fatalf("second Stop returned true")
	}
	if drop.Pending() {
		t.Fatalf("stopped task still pending")
	}

	clock.Advance(q, 100*time.Millisecond)
	if fired != 2 {
		t.Fatalf("fired=%d", fired)
	}
	if keep.Stop() {
		t.Fatalf("Stop on fired task returned true")
	}
}

func TestQueue_TaskStoppingLaterTask(t *testing.T) {
	clock := schedtest.NewClock()
	q := schedule.NewQueue(clock.Now)

	var later *schedule.Task
	q.AfterFunc(10*time.Millisecond, func() { later.Stop() })
	later = q.AfterFunc(10*time.Millisecond, func() { t.Fatalf("task stopped by an earlier task fired") })

	clock.Advance(q, 20*time.Millisecond)
	if q.Len() != 0 {
		t.Fatalf("queue len=%d", q.Len())
	}
}

func TestQueue_TasksScheduledWhileRunning(t *testing.T) {
	clock := schedtest.NewClock()
	q := schedule.NewQueue(clock.Now)

	var at []time.Duration
	q.AfterFunc(100*time.Millisecond, func() {
		at = append(at, clock.Since())
		q.AfterFunc(0, func() { at = append(at, clock.Since()) })
		q.AfterFunc(50*time.Millisecond, func() { at = append(at, clock.Since()) })
	})

	clock.Advance(q, time.Second)
	want := []time.Duration{100 * time.Millisecond, 100 * time.Millisecond, 150 * time.Millisecond}
	if !reflect.DeepEqual(at, want) {
		t.Fatalf("fired at %v, want %v", at, want)
	}
}

func TestQueue_Next(t *testing.T) {
	clock := schedtest.NewClock()
	q := schedule.NewQueue(clock.Now)

	if _, ok := q.Next(); ok {
		t.Fatalf("empty queue reported a deadline")
	}
	task := q.AfterFunc(-time.Second, func() {})
	next, ok := q.Next()
	if !ok || !next.Equal(schedtest.Epoch) || !task.Deadline().Equal(schedtest.Epoch) {
		t.Fatalf("negative delay not clamped: %v %v", next, ok)
	}
}
