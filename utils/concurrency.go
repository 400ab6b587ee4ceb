package utils

import (
	"sync"
	"time"
)

// WorkerPool runs one job per market with bounded concurrency. Job starts are
// spaced out by the politeness delay so a burst of markets does not hammer the
// source sites all at once.
type WorkerPool struct {
	maxWorkers int
	delayMs    int
	semaphore  chan struct{}
	wg         sync.WaitGroup
	mu         sync.Mutex
	lastStart  time.Time
}

// NewWorkerPool creates a WorkerPool with the given concurrency and delay.
func NewWorkerPool(maxWorkers, delayMs int) *WorkerPool {
	return &WorkerPool{
		maxWorkers: maxWorkers,
		delayMs:    delayMs,
		semaphore:  make(chan struct{}, maxWorkers),
		lastStart:  time.Now(),
	}
}

// Submit enqueues a job for execution in the pool.
func (wp *WorkerPool) Submit(job func()) {
	wp.wg.Add(1)
	wp.semaphore <- struct{}{}

	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.semaphore }()

		wp.pace()
		job()
	}()
}

// Wait blocks until all submitted jobs have completed.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

func (wp *WorkerPool) pace() {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	minInterval := time.Duration(wp.delayMs) * time.Millisecond
	elapsed := time.Since(wp.lastStart)
	if elapsed < minInterval {
		time.Sleep(minInterval - elapsed)
	}
	wp.lastStart = time.Now()
}

// URLSet is a thread-safe set used to drop duplicate listing URLs when
// aggregating markets across sources.
type URLSet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewURLSet creates an empty URLSet.
func NewURLSet() *URLSet {
	return &URLSet{seen: make(map[string]struct{})}
}

// Add returns true if the URL was newly added, false if already present.
func (s *URLSet) Add(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[url]; exists {
		return false
	}
	s.seen[url] = struct{}{}
	return true
}

// Contains returns true if the URL has already been seen.
func (s *URLSet) Contains(url string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.seen[url]
	return exists
}

// Size returns the number of unique URLs tracked.
func (s *URLSet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}
