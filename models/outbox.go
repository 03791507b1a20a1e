package models

import (
	"context"
	"encoding/json"
	"time"

	"bitbucket.org/mmdatafocus/erp_backend/config"
	"bitbucket.org/mmdatafocus/erp_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PubSubMessageRecord is the transactional outbox row. Source documents write
// one record inside their own DB transaction; the dispatcher publishes it to
// Pub/Sub after commit and the posting worker marks it processed.
type PubSubMessageRecord struct {
	ID                  int                 `gorm:"primary_key;index:idx_outbox_dispatch,priority:3" json:"id"`
	VoucherId           int                 `json:"voucher_id"`
	BusinessId          string              `gorm:"size:64;not null;index" json:"business_id"`
	TransactionDateTime time.Time           `gorm:"index;not null" json:"transaction_date_time"`
	ReferenceId         int                 `json:"reference_id"`
	ReferenceType       LedgerReferenceType `gorm:"type:enum('JN','IV','PO','COB','SOB')" json:"reference_type"`
	Action              PubSubMessageAction `gorm:"type:enum('C','U','D')" json:"action"`
	OldObj              []byte              `gorm:"type:blob" json:"old_obj"`
	NewObj              []byte              `gorm:"type:blob" json:"new_obj"`
	IsProcessed         bool                `gorm:"index;not null" json:"is_processed"`
	PublishStatus       string              `gorm:"size:20;index;not null;default:'PENDING';index:idx_outbox_dispatch,priority:1" json:"publish_status"` // PENDING|PROCESSING|SENT|FAILED|DEAD
	PublishedAt         *time.Time          `gorm:"index" json:"published_at"`
	PubSubMessageId     *string             `gorm:"size:255" json:"pubsub_message_id"`
	PublishAttempts     int                 `gorm:"not null;default:0" json:"publish_attempts"`
	NextAttemptAt       *time.Time          `gorm:"index;index:idx_outbox_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt            *time.Time          `gorm:"index" json:"locked_at"`
	LockedBy            *string             `gorm:"size:100" json:"locked_by"`
	LastPublishError    *string             `gorm:"type:text" json:"last_publish_error"`
	LastProcessError    *string             `gorm:"type:text" json:"last_process_error"`
	ProcessedAt         *time.Time          `gorm:"index" json:"processed_at"`
	CorrelationId       string              `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt           time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

// PublishToAccounting implements the transactional outbox: it writes the
// message record inside the caller's DB transaction but does NOT publish to
// Pub/Sub. Publishing is performed asynchronously by the outbox dispatcher
// after commit.
func PublishToAccounting(ctx context.Context, db *gorm.DB, businessId string, transactionDateTime time.Time, refId int, refType LedgerReferenceType, obj interface{}, oldObj interface{}, msgAction PubSubMessageAction) error {

	var objInByte []byte
	var oldObjInByte []byte
	var err error

	if msgAction == PubSubMessageActionCreate || msgAction == PubSubMessageActionUpdate {
		objInByte, err = json.Marshal(obj)
		if err != nil {
			return err
		}
	}
	if msgAction == PubSubMessageActionUpdate || msgAction == PubSubMessageActionDelete {
		oldObjInByte, err = json.Marshal(oldObj)
		if err != nil {
			return err
		}
	}

	record := PubSubMessageRecord{
		BusinessId:          businessId,
		TransactionDateTime: transactionDateTime,
		ReferenceId:         refId,
		ReferenceType:       refType,
		Action:              msgAction,
		NewObj:              objInByte,
		OldObj:              oldObjInByte,
		IsProcessed:         false,
		PublishStatus:       OutboxPublishStatusPending,
		CorrelationId:       correlationIdFromContextOrNew(ctx),
	}
	return db.Create(&record).Error
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}

func ConvertToPubSubMessage(record PubSubMessageRecord) config.PubSubMessage {
	return config.PubSubMessage{
		ID:                  record.ID,
		BusinessId:          record.BusinessId,
		TransactionDateTime: record.TransactionDateTime,
		ReferenceId:         record.ReferenceId,
		ReferenceType:       string(record.ReferenceType),
		Action:              string(record.Action),
		OldObj:              record.OldObj,
		NewObj:              record.NewObj,
		CorrelationId:       record.CorrelationId,
	}
}

// OutboxStatusSummary is the ops view of the outbox backlog for one business.
type OutboxStatusSummary struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Sent       int64 `json:"sent"`
	Failed     int64 `json:"failed"`
	Dead       int64 `json:"dead"`
	Unapplied  int64 `json:"unapplied"`
}

func GetOutboxStatusSummary(ctx context.Context, businessId string) (*OutboxStatusSummary, error) {
	db := config.GetDB()
	summary := &OutboxStatusSummary{}

	type row struct {
		PublishStatus string
		Total         int64
	}
	var rows []row
	err := db.WithContext(ctx).Model(&PubSubMessageRecord{}).
		Select("publish_status, COUNT(*) AS total").
		Where("business_id = ?", businessId).
		Group("publish_status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		switch r.PublishStatus {
		case OutboxPublishStatusPending:
			summary.Pending = r.Total
		case OutboxPublishStatusProcessing:
			summary.Processing = r.Total
		case OutboxPublishStatusSent:
			summary.Sent = r.Total
		case OutboxPublishStatusFailed:
			summary.Failed = r.Total
		case OutboxPublishStatusDead:
			summary.Dead = r.Total
		}
	}

	err = db.WithContext(ctx).Model(&PubSubMessageRecord{}).
		Where("business_id = ? AND is_processed = 0 AND publish_status = ?", businessId, OutboxPublishStatusSent).
		Count(&summary.Unapplied).Error
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func GetDeadOutboxRecords(ctx context.Context, businessId string, limit int) ([]*PubSubMessageRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	db := config.GetDB()
	var records []*PubSubMessageRecord
	err := db.WithContext(ctx).
		Where("business_id = ? AND publish_status = ?", businessId, OutboxPublishStatusDead).
		Order("id ASC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ReviveDeadOutboxRecord puts a DEAD record back into the dispatch queue with
// a fresh attempt budget. Used by ops after the underlying fault is fixed.
func ReviveDeadOutboxRecord(ctx context.Context, businessId string, recordId int) error {
	db := config.GetDB()
	result := db.WithContext(ctx).Model(&PubSubMessageRecord{}).
		Where("id = ? AND business_id = ? AND publish_status = ?", recordId, businessId, OutboxPublishStatusDead).
		Updates(map[string]interface{}{
			"publish_status":     OutboxPublishStatusPending,
			"publish_attempts":   0,
			"next_attempt_at":    nil,
			"locked_at":          nil,
			"locked_by":          nil,
			"last_publish_error": nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.ErrorRecordNotFound
	}
	return nil
}

// MarkOutboxProcessed is called by the posting worker after the voucher and
// balance deltas are committed.
func MarkOutboxProcessed(db *gorm.DB, recordId int, voucherId int) error {
	now := time.Now().UTC()
	return db.Model(&PubSubMessageRecord{}).
		Where("id = ?", recordId).
		Updates(map[string]interface{}{
			"is_processed":       true,
			"voucher_id":         voucherId,
			"processed_at":       &now,
			"last_process_error": nil,
		}).Error
}

func MarkOutboxProcessFailed(db *gorm.DB, recordId int, processErr error) error {
	msg := processErr.Error()
	return db.Model(&PubSubMessageRecord{}).
		Where("id = ?", recordId).
		Updates(map[string]interface{}{
			"last_process_error": &msg,
		}).Error
}
