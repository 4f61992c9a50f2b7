package tasks

import (
	"context"
	"log"
	"sync"
)

// WorkerService manages the background ingestion workers for the
// application. Each worker is one goroutine running the coordinator's
// consume loop.
type WorkerService struct {
	coordinator *Coordinator
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	running     bool
	mu          sync.RWMutex
}

// NewWorkerService creates a worker service running workerCount consumers.
func NewWorkerService(coordinator *Coordinator, workerCount int) *WorkerService {
	if workerCount < 1 {
		workerCount = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerService{
		coordinator: coordinator,
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start starts the background workers.
func (ws *WorkerService) Start() {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.running {
		return
	}

	log.Printf("Starting %d ingestion workers...", ws.workerCount)

	for i := 0; i < ws.workerCount; i++ {
		ws.wg.Add(1)
		go func(id int) {
			defer ws.wg.Done()
			log.Printf("Ingestion worker %d started", id)
			ws.coordinator.RunWorker(ws.ctx)
			log.Printf("Ingestion worker %d stopped", id)
		}(i)
	}

	ws.running = true
}

// Stop signals all workers to stop and waits for them to finish.
func (ws *WorkerService) Stop() {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if !ws.running {
		return
	}

	log.Println("Stopping ingestion workers...")
	ws.cancel()
	ws.wg.Wait()
	ws.running = false
	log.Println("Ingestion workers stopped")
}

// IsRunning reports whether the worker service is currently running.
func (ws *WorkerService) IsRunning() bool {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.running
}
