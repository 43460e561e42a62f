package jobqueue

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/chatriver/chatriver/app/models"
	"github.com/chatriver/chatriver/internal/pkg/database"
	"github.com/chatriver/chatriver/internal/pkg/env"
	"github.com/chatriver/chatriver/internal/pkg/ingest"
)

const (
	reconcileBatchSize = 200
	// Rows younger than the grace window are likely still in flight through
	// the regular dispatch path and are left alone.
	reconcileGraceWindow = 10 * time.Minute
)

// unprocessedLister is the slice of the ingest repository the reconciliation
// sweeper needs.
type unprocessedLister interface {
	ListUnprocessedBefore(cutoff time.Time, limit int) ([]models.EventLog, error)
}

// Manager manages the global job queue and background tasks
type Manager struct {
	queue           *Queue
	reconcileTicker *time.Ticker
	repo            unprocessedLister
	stopCh          chan struct{}
	wg              sync.WaitGroup
	mu              sync.Mutex
	running         bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global job queue manager (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		workerCount := 5
		if v, err := strconv.Atoi(env.GetEnv("JOBQUEUE_WORKERS", "5")); err == nil && v > 0 {
			workerCount = v
		}

		globalManager = &Manager{
			queue:  NewQueue(workerCount),
			stopCh: make(chan struct{}),
		}
	})
	return globalManager
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start starts the job queue and background tasks
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[JobQueue Manager] Starting job queue and background tasks")

	// Wire the materializer and the sweep repository against the shared DB
	// unless a test injected its own.
	if m.queue.processor == nil {
		m.queue.SetProcessor(ingest.NewMaterializerFromDB(database.GetDB()))
	}
	if m.repo == nil {
		m.repo = ingest.NewRepository(database.GetDB())
	}

	// Start the job queue
	m.queue.Start()

	// Reconciliation sweeper: re-enqueues logged events whose dispatch was
	// dropped. Materialization is idempotent, so re-enqueueing a row that is
	// already pending is harmless.
	reconcileInterval := 5 * time.Minute
	if v, err := strconv.Atoi(env.GetEnv("RECONCILE_INTERVAL_MINUTES", "5")); err == nil && v > 0 {
		reconcileInterval = time.Duration(v) * time.Minute
	}
	m.reconcileTicker = time.NewTicker(reconcileInterval)
	m.wg.Add(1)
	go m.reconcileWorker()

	log.Info("[JobQueue Manager] Started successfully")
}

// Stop stops the job queue and background tasks
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[JobQueue Manager] Stopping job queue and background tasks...")

	if m.reconcileTicker != nil {
		m.reconcileTicker.Stop()
	}

	// Signal workers to stop. The channel stays closed until the next Start
	// recreates it; nilling it here would race the workers' select.
	close(m.stopCh)
	m.running = false

	// Wait for background workers to finish
	m.wg.Wait()

	// Stop the job queue
	m.queue.Stop()

	log.Info("[JobQueue Manager] Stopped successfully")
}

// reconcileWorker runs periodically to re-enqueue unprocessed events
func (m *Manager) reconcileWorker() {
	defer m.wg.Done()
	log.Info("[JobQueue Manager] Started reconciliation worker")

	for {
		select {
		case <-m.stopCh:
			log.Info("[JobQueue Manager] Reconciliation worker stopping")
			return
		case <-m.reconcileTicker.C:
			log.Debug("[JobQueue Manager] Running reconciliation sweep")
			if err := m.runReconcileSweepOnce(); err != nil {
				log.Errorf("[JobQueue Manager] Reconciliation sweep error: %v", err)
			}
		}
	}
}

func (m *Manager) runReconcileSweepOnce() error {
	if m.repo == nil {
		return errors.New("reconciliation repository not wired, manager not started")
	}

	cutoff := time.Now().Add(-reconcileGraceWindow)
	events, err := m.repo.ListUnprocessedBefore(cutoff, reconcileBatchSize)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	log.Infof("[JobQueue Manager] Reconciling %d unprocessed events", len(events))
	for _, event := range events {
		payload := EventProcessJobPayload{EventLogID: event.ID, TenantID: event.TenantID}
		if _, err := m.queue.EnqueueJob(JobTypeEventProcess, payload.ToMap()); err != nil {
			return err
		}
	}
	return nil
}

// RunReconcileSweepOnce exposes a manual trigger for a single sweep (ops use).
func (m *Manager) RunReconcileSweepOnce() error {
	return m.runReconcileSweepOnce()
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
