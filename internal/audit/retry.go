package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/patrickrooney09/tiba-update-user/internal/logger"
	"github.com/patrickrooney09/tiba-update-user/internal/metrics"
)

const (
	retryQueueKey  = "audit:retry"
	failedQueueKey = "audit:failed"
	maxTries       = 3
)

type retryJob struct {
	Entry   Entry     `json:"entry"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

// RetryWorker drains failed audit appends from a redis list and replays
// them against the store. Everything here is best-effort: a full redis
// outage only costs the retry, never the request path.
type RetryWorker struct {
	redis *redis.Client
	store inserter
}

type inserter interface {
	Insert(ctx context.Context, e Entry) (string, error)
}

func NewRetryWorker(redisClient *redis.Client, store inserter) *RetryWorker {
	return &RetryWorker{
		redis: redisClient,
		store: store,
	}
}

// Enqueue pushes an entry that could not be persisted onto the retry
// queue. Failures are swallowed, matching the append contract.
func (w *RetryWorker) Enqueue(ctx context.Context, e Entry) {
	job := retryJob{Entry: e, Created: time.Now()}
	data, err := json.Marshal(job)
	if err != nil {
		logger.Errorf("audit retry: marshal entry: %v", err)
		return
	}

	if err := w.redis.LPush(ctx, retryQueueKey, data).Err(); err != nil {
		logger.Errorf("audit retry: queue entry for %s: %v", e.MonthlyID, err)
		return
	}
	w.updateQueueGauge(ctx)
}

func (w *RetryWorker) Start(ctx context.Context) {
	logger.Info("audit retry worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("audit retry worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *RetryWorker) processNext(ctx context.Context) {
	result, err := w.redis.BRPop(ctx, 2*time.Second, retryQueueKey).Result()
	if err != nil {
		return
	}

	var job retryJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Errorf("audit retry: bad queue data: %v", err)
		return
	}

	job.Tries++
	if _, err := w.store.Insert(ctx, job.Entry); err != nil {
		logger.Errorf("audit retry: insert failed for %s (attempt %d): %v",
			job.Entry.MonthlyID, job.Tries, err)

		if job.Tries < maxTries {
			time.Sleep(5 * time.Second)
			data, _ := json.Marshal(job)
			w.redis.LPush(context.Background(), retryQueueKey, data)
		} else {
			w.saveFailed(job, err)
		}
		w.updateQueueGauge(ctx)
		return
	}

	logger.Infof("audit retry: entry for %s persisted after %d tries",
		job.Entry.MonthlyID, job.Tries)
	metrics.RecordAuditWrite("retried")
	w.updateQueueGauge(ctx)
}

func (w *RetryWorker) saveFailed(job retryJob, cause error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": cause.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	w.redis.LPush(context.Background(), failedQueueKey, data)
	logger.Errorf("audit retry: entry for %s moved to failed queue after %d attempts",
		job.Entry.MonthlyID, job.Tries)
}

func (w *RetryWorker) QueueLength(ctx context.Context) int64 {
	length, _ := w.redis.LLen(ctx, retryQueueKey).Result()
	return length
}

func (w *RetryWorker) updateQueueGauge(ctx context.Context) {
	metrics.AuditRetryQueueLength.Set(float64(w.QueueLength(ctx)))
}
