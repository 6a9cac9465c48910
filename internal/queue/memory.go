package queue

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
)

// MemoryQueue is an in-process JobQueue used for local development and
// tests. It honors the same contracts as the broker-backed queue: tier
// priority ordering, duplicate job-id suppression, and dead-lettering on
// nack without requeue.
type MemoryQueue struct {
	mu     sync.Mutex
	jobs   jobHeap
	seen   map[string]struct{}
	dead   []*Job
	notify chan struct{}
	closed bool
	seq    int
}

// NewMemoryQueue creates an empty in-memory queue
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		seen:   make(map[string]struct{}),
		notify: make(chan struct{}, 1),
	}
}

// Enqueue adds a job; resubmitting a known job id is a no-op
func (q *MemoryQueue) Enqueue(ctx context.Context, job *Job) error {
	if err := job.Validate(); err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return fmt.Errorf("queue closed")
	}
	if _, dup := q.seen[job.dedupKey()]; dup {
		return nil
	}
	q.seen[job.dedupKey()] = struct{}{}
	q.seq++
	heap.Push(&q.jobs, &queuedJob{job: job, seq: q.seq})
	select {
	case q.notify <- struct{}{}:
	default:
	}
	return nil
}

// Dequeue pops the highest-priority ready job, or nil when empty
func (q *MemoryQueue) Dequeue() *Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.jobs.Len() == 0 {
		return nil
	}
	return heap.Pop(&q.jobs).(*queuedJob).job
}

// Consume delivers queued jobs in priority order until ctx is cancelled
func (q *MemoryQueue) Consume(ctx context.Context, prefetchCount int) (<-chan Message, <-chan error, error) {
	if prefetchCount < 1 {
		prefetchCount = 1
	}
	msgChan := make(chan Message, prefetchCount)
	errChan := make(chan error, 1)

	go func() {
		defer close(msgChan)
		defer close(errChan)
		for {
			job := q.Dequeue()
			if job == nil {
				select {
				case <-ctx.Done():
					return
				case <-q.notify:
					continue
				}
			}
			if job.IsExpired() {
				continue
			}
			select {
			case <-ctx.Done():
				// Return the undelivered job
				_ = q.requeue(job)
				return
			case msgChan <- &memoryMessage{queue: q, job: job}:
			}
		}
	}()

	return msgChan, errChan, nil
}

func (q *MemoryQueue) requeue(job *Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return fmt.Errorf("queue closed")
	}
	q.seq++
	heap.Push(&q.jobs, &queuedJob{job: job, seq: q.seq})
	select {
	case q.notify <- struct{}{}:
	default:
	}
	return nil
}

func (q *MemoryQueue) deadLetter(job *Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.dead = append(q.dead, job)
}

// DeadLetters returns jobs that were nacked without requeue
func (q *MemoryQueue) DeadLetters() []*Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*Job, len(q.dead))
	copy(out, q.dead)
	return out
}

// Len returns the number of queued jobs
func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.jobs.Len()
}

// HealthCheck verifies the queue is open
func (q *MemoryQueue) HealthCheck(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return fmt.Errorf("queue closed")
	}
	return nil
}

// Close closes the queue
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	return nil
}

// memoryMessage implements Message for the in-memory queue
type memoryMessage struct {
	queue *MemoryQueue
	job   *Job
}

func (m *memoryMessage) Ack() error { return nil }

func (m *memoryMessage) Nack(requeue bool) error {
	if requeue {
		return m.queue.requeue(m.job)
	}
	m.queue.deadLetter(m.job)
	return nil
}

func (m *memoryMessage) Job() *Job { return m.job }

// queuedJob orders jobs by priority, FIFO within a priority level
type queuedJob struct {
	job *Job
	seq int
}

type jobHeap []*queuedJob

func (h jobHeap) Len() int { return len(h) }

func (h jobHeap) Less(i, j int) bool {
	if h[i].job.Priority() != h[j].job.Priority() {
		return h[i].job.Priority() < h[j].job.Priority()
	}
	return h[i].seq < h[j].seq
}

func (h jobHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *jobHeap) Push(x any) { *h = append(*h, x.(*queuedJob)) }

func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
