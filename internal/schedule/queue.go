// Package schedule holds deferred work for a single owning goroutine.
//
// A Queue is not safe for concurrent use. The goroutine that owns it asks
// for the next deadline, sleeps until then, and calls RunDue. Because tasks
// only ever run inside RunDue, stopping a task from the same goroutine can
// never race with it firing.
package schedule

import (
	"container/heap"
	"time"
)

// Task is a function registered on a Queue to run at a deadline.
type Task struct {
	q     *Queue
	at    time.Time
	seq   uint64
	fn    func()
	index int // position in the heap; -1 once fired or stopped
}

// Stop removes the task from its queue. It reports false if the task already
// fired or was stopped before.
func (t *Task) Stop() bool {
	if t == nil || t.index < 0 {
		return false
	}
	heap.Remove(&t.q.tasks, t.index)
	return true
}

// Pending reports whether the task is still waiting to fire.
func (t *Task) Pending() bool {
	return t != nil && t.index >= 0
}

// Deadline returns the time the task is due.
func (t *Task) Deadline() time.Time {
	return t.at
}

// Queue orders tasks by deadline. Tasks sharing a deadline run in the order
// they were scheduled.
type Queue struct {
	now   func() time.Time
	tasks taskHeap
	seq   uint64
}

// NewQueue returns an empty queue using now as its clock. A nil now means
// time.Now.
func NewQueue(now func() time.Time) *Queue {
	if now == nil {
		now = time.Now
	}
	return &Queue{now: now}
}

// Now reads the queue's clock.
func (q *Queue) Now() time.Time {
	return q.now()
}

// AfterFunc schedules fn to run d after the current clock reading.
func (q *Queue) AfterFunc(d time.Duration, fn func()) *Task {
	if d < 0 {
		d = 0
	}
	return q.At(q.now().Add(d), fn)
}

// At schedules fn to run at t.
func (q *Queue) At(t time.Time, fn func()) *Task {
	q.seq++
	task := &Task{q: q, at: t, seq: q.seq, fn: fn}
	heap.Push(&q.tasks, task)
	return task
}

// Len returns the number of pending tasks.
func (q *Queue) Len() int {
	return len(q.tasks)
}

// Next returns the earliest pending deadline.
func (q *Queue) Next() (time.Time, bool) {
	if len(q.tasks) == 0 {
		return time.Time{}, false
	}
	return q.tasks[0].at, true
}

// RunDue runs, in order, every task whose deadline is not after now,
// including tasks scheduled by those tasks. It returns how many ran.
func (q *Queue) RunDue(now time.Time) int {
	n := 0
	for len(q.tasks) > 0 && !q.tasks[0].at.After(now) {
		task := heap.Pop(&q.tasks).(*Task)
		task.fn()
		n++
	}
	return n
}

type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].seq < h[j].seq
	}
	return h[i].at.Before(h[j].at)
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	task := x.(*Task)
	task.index = len(*h)
	*h = append(*h, task)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	task := old[n-1]
	old[n-1] = nil
	task.index = -1
	*h = old[:n-1]
	return task
}
