package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"recruitmate/internal/repositories"
)

// Worker indexes attempt resumes in the background. Registration enqueues
// the attempt; the poller catches anything the queue missed (crashes,
// transient embedding failures).
type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueAttempt(sessionID uuid.UUID)
}

type worker struct {
	interviewRepo repositories.InterviewRepository
	matcher       ResumeMatcher
	jobQueue      chan uuid.UUID
	concurrency   int
	pollInterval  time.Duration
	wg            sync.WaitGroup
	stopChan      chan struct{}
}

func NewWorker(
	interviewRepo repositories.InterviewRepository,
	matcher ResumeMatcher,
	concurrency int,
	pollInterval time.Duration,
) Worker {
	return &worker{
		interviewRepo: interviewRepo,
		matcher:       matcher,
		jobQueue:      make(chan uuid.UUID, 100),
		concurrency:   concurrency,
		pollInterval:  pollInterval,
		stopChan:      make(chan struct{}),
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	log.Printf("🚀 Starting resume indexer with %d workers\n", w.concurrency)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	w.wg.Add(1)
	go w.pollUnindexed(ctx)
}

// Stop implements Worker.
func (w *worker) Stop() {
	log.Println("🛑 Stopping resume indexer...")
	close(w.stopChan)
	w.wg.Wait()
	log.Println("✅ Resume indexer stopped")
}

// EnqueueAttempt implements Worker.
func (w *worker) EnqueueAttempt(sessionID uuid.UUID) {
	select {
	case w.jobQueue <- sessionID:
	case <-w.stopChan:
		log.Printf("⚠️  Indexer stopped, cannot enqueue attempt %s\n", sessionID)
	}
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopChan:
			return
		case sessionID := <-w.jobQueue:
			if err := w.matcher.IndexAttempt(ctx, sessionID); err != nil {
				// Leave unindexed; the poller retries later.
				log.Printf("⚠️  Indexer #%d failed on attempt %s: %v\n", workerID, sessionID, err)
				continue
			}
			if err := w.interviewRepo.MarkResumeIndexed(sessionID); err != nil {
				log.Printf("⚠️  Failed to mark attempt %s indexed: %v\n", sessionID, err)
			}
		}
	}
}

func (w *worker) pollUnindexed(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			attempts, err := w.interviewRepo.FindUnindexedAttempts(10)
			if err != nil {
				log.Printf("⚠️  Failed to fetch unindexed attempts: %v\n", err)
				continue
			}
			for _, attempt := range attempts {
				w.EnqueueAttempt(attempt.ID)
			}
		}
	}
}
