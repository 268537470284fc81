package utils

import (
	"sync"
)

// Job represents a named task to be executed by a worker.
type Job[T any] struct {
	Name string
	Task func() T

	index int
}

// Result is the value a job produced.
type Result[T any] struct {
	Name  string
	Value T
}

// WorkerPool manages a pool of workers to execute jobs and collects their results.
type WorkerPool[T any] struct {
	workers   int
	jobQueue  chan Job[T]
	waitGroup sync.WaitGroup

	mu        sync.Mutex
	submitted int
	results   map[int]Result[T]
}

// NewWorkerPool creates a new WorkerPool with the specified number of workers.
func NewWorkerPool[T any](workers int) *WorkerPool[T] {
	if workers < 1 {
		workers = 1
	}
	pool := &WorkerPool[T]{
		workers:  workers,
		jobQueue: make(chan Job[T], workers),
		results:  make(map[int]Result[T]),
	}

	pool.waitGroup.Add(workers)
	for i := 0; i < workers; i++ {
		go pool.worker()
	}

	return pool
}

// worker processes jobs from the jobQueue.
func (wp *WorkerPool[T]) worker() {
	defer wp.waitGroup.Done()
	for job := range wp.jobQueue {
		value := job.Task()

		wp.mu.Lock()
		wp.results[job.index] = Result[T]{Name: job.Name, Value: value}
		wp.mu.Unlock()
	}
}

// Submit adds a new job to the worker pool. It must not be called after Shutdown.
func (wp *WorkerPool[T]) Submit(name string, task func() T) {
	wp.mu.Lock()
	index := wp.submitted
	wp.submitted++
	wp.mu.Unlock()

	wp.jobQueue <- Job[T]{Name: name, Task: task, index: index}
}

// Shutdown waits for all workers to finish and returns the results in
// submission order.
func (wp *WorkerPool[T]) Shutdown() []Result[T] {
	close(wp.jobQueue)
	wp.waitGroup.Wait()

	wp.mu.Lock()
	defer wp.mu.Unlock()
	out := make([]Result[T], 0, wp.submitted)
	for i := 0; i < wp.submitted; i++ {
		out = append(out, wp.results[i])
	}
	return out
}
