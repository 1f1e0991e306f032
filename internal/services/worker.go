package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kavyp12/carrer-guide-new-one/internal/repositories"
)

type Worker interface {
	Start(ctx context.Context)
	Stop()
	Enqueue(submissionID uuid.UUID)
}

// worker runs submission pipelines in the background: a buffered queue drained
// by a fixed number of goroutines, plus a poller that re-enqueues submissions
// the service accepted but never finished (crash recovery). The tracker's
// in-flight guard makes duplicate enqueues harmless.
type worker struct {
	repo         repositories.SubmissionRepository
	pipeline     Pipeline
	jobQueue     chan uuid.UUID
	concurrency  int
	pollInterval time.Duration
	wg           sync.WaitGroup
	stopChan     chan struct{}
}

func NewWorker(repo repositories.SubmissionRepository, pipeline Pipeline, concurrency int) Worker {
	if concurrency <= 0 {
		concurrency = 3
	}
	return &worker{
		repo:         repo,
		pipeline:     pipeline,
		jobQueue:     make(chan uuid.UUID, 100),
		concurrency:  concurrency,
		pollInterval: 10 * time.Second,
		stopChan:     make(chan struct{}),
	}
}

func (w *worker) Start(ctx context.Context) {
	log.Printf("starting %d pipeline workers", w.concurrency)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	w.wg.Add(1)
	go w.pollResumable(ctx)
}

func (w *worker) Stop() {
	log.Println("stopping pipeline workers...")
	close(w.stopChan)
	w.wg.Wait()
	log.Println("pipeline workers stopped")
}

func (w *worker) Enqueue(submissionID uuid.UUID) {
	select {
	case w.jobQueue <- submissionID:
	case <-w.stopChan:
		log.Printf("worker stopped, dropping submission %s", submissionID)
	}
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopChan:
			return
		case submissionID := <-w.jobQueue:
			if err := w.pipeline.Process(ctx, submissionID); err != nil {
				log.Printf("worker #%d: submission %s failed: %v", workerID, submissionID, err)
			}
		}
	}
}

// pollResumable picks up submissions left behind by a restart.
func (w *worker) pollResumable(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			subs, err := w.repo.FindResumable(10)
			if err != nil {
				log.Printf("failed to poll resumable submissions: %v", err)
				continue
			}
			for _, sub := range subs {
				w.Enqueue(sub.ID)
			}
		}
	}
}
