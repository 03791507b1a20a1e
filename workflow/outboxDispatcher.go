package workflow

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"bitbucket.org/mmdatafocus/erp_backend/config"
	"bitbucket.org/mmdatafocus/erp_backend/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxPublishBackoff caps retry spacing so a long outage does not push
// failed rows days into the future.
const maxPublishBackoff = 10 * time.Minute

// OutboxDispatcher drains the pub/sub outbox: it claims unpublished rows,
// publishes them to the accounting topic and records the outcome. Several
// replicas can run at once; row claims use SKIP LOCKED plus a lease so two
// dispatchers never publish the same row while both are healthy.
type OutboxDispatcher struct {
	DB       *gorm.DB
	Logger   *logrus.Logger
	WorkerID string

	BatchSize      int
	PollInterval   time.Duration
	LeaseTimeout   time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
}

// NewOutboxDispatcher builds a dispatcher with env-tunable settings:
// OUTBOX_BATCH_SIZE, OUTBOX_POLL_INTERVAL_MS, OUTBOX_LEASE_TIMEOUT_SECONDS,
// OUTBOX_MAX_ATTEMPTS and OUTBOX_INITIAL_BACKOFF_SECONDS.
func NewOutboxDispatcher(db *gorm.DB, logger *logrus.Logger) *OutboxDispatcher {
	return &OutboxDispatcher{
		DB:             db,
		Logger:         logger,
		WorkerID:       "dispatcher-" + uuid.NewString(),
		BatchSize:      envInt("OUTBOX_BATCH_SIZE", 50),
		PollInterval:   time.Duration(envInt("OUTBOX_POLL_INTERVAL_MS", 500)) * time.Millisecond,
		LeaseTimeout:   time.Duration(envInt("OUTBOX_LEASE_TIMEOUT_SECONDS", 30)) * time.Second,
		MaxAttempts:    envInt("OUTBOX_MAX_ATTEMPTS", 20),
		InitialBackoff: time.Duration(envInt("OUTBOX_INITIAL_BACKOFF_SECONDS", 5)) * time.Second,
	}
}

func envInt(name string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(name))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func (d *OutboxDispatcher) Run(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		claimed, err := d.claimBatch(ctx)
		if err != nil {
			config.LogError(d.Logger, "outboxDispatcher.go", "Run", "claimBatch", d.WorkerID, err)
		}
		for _, rec := range claimed {
			d.publishRecord(ctx, rec)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(d.PollInterval):
		}
	}
}

// claimBatch leases a batch of publishable rows to this worker. A row is
// publishable when it is PENDING, FAILED with its retry delay elapsed, or
// PROCESSING under a lease that expired (the holder crashed mid-batch).
// Rows past MaxAttempts are moved to DEAD inside the same transaction.
func (d *OutboxDispatcher) claimBatch(ctx context.Context) ([]models.PubSubMessageRecord, error) {
	if d.DB == nil {
		return nil, nil
	}
	now := time.Now().UTC()
	leaseExpired := now.Add(-d.LeaseTimeout)

	var batch []models.PubSubMessageRecord
	err := d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []models.PubSubMessageRecord
		err := tx.
			Where("is_processed = 0").
			Where(`
				(publish_status IN ? AND (next_attempt_at IS NULL OR next_attempt_at <= ?))
				OR
				(publish_status = ? AND locked_at IS NOT NULL AND locked_at <= ?)
			`, []string{models.OutboxPublishStatusPending, models.OutboxPublishStatusFailed}, now,
				models.OutboxPublishStatusProcessing, leaseExpired).
			Order("id ASC").
			Limit(d.BatchSize).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Find(&rows).Error
		if err != nil {
			return err
		}

		for i := range rows {
			if d.MaxAttempts > 0 && rows[i].PublishAttempts >= d.MaxAttempts {
				if err := d.buryRow(tx, rows[i].ID,
					fmt.Sprintf("max publish attempts exceeded (%d)", d.MaxAttempts)); err != nil {
					return err
				}
				continue
			}

			err := tx.Model(&models.PubSubMessageRecord{}).
				Where("id = ?", rows[i].ID).
				Updates(map[string]interface{}{
					"publish_status":     models.OutboxPublishStatusProcessing,
					"locked_at":          &now,
					"locked_by":          &d.WorkerID,
					"publish_attempts":   gorm.Expr("publish_attempts + 1"),
					"last_publish_error": nil,
					"next_attempt_at":    nil,
				}).Error
			if err != nil {
				return err
			}
			rows[i].PublishAttempts++
			batch = append(batch, rows[i])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

func (d *OutboxDispatcher) publishRecord(ctx context.Context, rec models.PubSubMessageRecord) {
	msg := models.ConvertToPubSubMessage(rec)
	pubID, err := config.PublishAccountingWorkflowWithResult(ctx, rec.BusinessId, msg)
	if err != nil {
		d.markPublishFailed(ctx, rec, err)
		return
	}

	now := time.Now().UTC()
	err = d.DB.WithContext(ctx).Model(&models.PubSubMessageRecord{}).
		Where("id = ?", rec.ID).
		Updates(map[string]interface{}{
			"publish_status":     models.OutboxPublishStatusSent,
			"published_at":       &now,
			"pub_sub_message_id": &pubID,
			"locked_at":          nil,
			"locked_by":          nil,
			"next_attempt_at":    nil,
		}).Error
	if err != nil {
		config.LogError(d.Logger, "outboxDispatcher.go", "publishRecord", "mark SENT", rec.ID, err)
	}
}

func (d *OutboxDispatcher) markPublishFailed(ctx context.Context, rec models.PubSubMessageRecord, pubErr error) {
	db := d.DB.WithContext(ctx)
	now := time.Now().UTC()
	errMsg := pubErr.Error()

	if d.MaxAttempts > 0 && rec.PublishAttempts >= d.MaxAttempts {
		if err := d.buryRow(db, rec.ID, errMsg); err != nil {
			config.LogError(d.Logger, "outboxDispatcher.go", "markPublishFailed", "mark DEAD", rec.ID, err)
		}
		if d.Logger != nil {
			d.Logger.WithFields(logrus.Fields{
				"worker_id":   d.WorkerID,
				"business_id": rec.BusinessId,
				"record_id":   rec.ID,
				"attempt":     rec.PublishAttempts,
			}).Error("[outbox.publish] moved to DEAD after max attempts: " + errMsg)
		}
		return
	}

	next := now.Add(publishBackoff(d.InitialBackoff, rec.PublishAttempts))
	err := db.Model(&models.PubSubMessageRecord{}).
		Where("id = ?", rec.ID).
		Updates(map[string]interface{}{
			"publish_status":     models.OutboxPublishStatusFailed,
			"last_publish_error": &errMsg,
			"next_attempt_at":    &next,
			"locked_at":          nil,
			"locked_by":          nil,
		}).Error
	if err != nil {
		config.LogError(d.Logger, "outboxDispatcher.go", "markPublishFailed", "mark FAILED", rec.ID, err)
	}

	if d.Logger != nil {
		d.Logger.WithFields(logrus.Fields{
			"worker_id":       d.WorkerID,
			"business_id":     rec.BusinessId,
			"record_id":       rec.ID,
			"attempt":         rec.PublishAttempts,
			"next_attempt_at": next.Format(time.RFC3339Nano),
		}).Error("[outbox.publish] failed: " + errMsg)
	}
}

func (d *OutboxDispatcher) buryRow(db *gorm.DB, recordID int, reason string) error {
	return db.Model(&models.PubSubMessageRecord{}).
		Where("id = ?", recordID).
		Updates(map[string]interface{}{
			"publish_status":     models.OutboxPublishStatusDead,
			"last_publish_error": &reason,
			"next_attempt_at":    nil,
			"locked_at":          nil,
			"locked_by":          nil,
		}).Error
}

// publishBackoff doubles the initial delay per prior attempt, capped at
// maxPublishBackoff.
func publishBackoff(initial time.Duration, attempt int) time.Duration {
	backoff := initial
	for i := 1; i < attempt; i++ {
		backoff *= 2
		if backoff >= maxPublishBackoff {
			return maxPublishBackoff
		}
	}
	return backoff
}
