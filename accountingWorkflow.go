package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"

	"bitbucket.org/mmdatafocus/erp_backend/config"
	"bitbucket.org/mmdatafocus/erp_backend/models"
	"bitbucket.org/mmdatafocus/erp_backend/utils"
	"bitbucket.org/mmdatafocus/erp_backend/workflow"
	"cloud.google.com/go/pubsub"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

var (
	businessMutexMap = make(map[string]*sync.Mutex)
	globalMutex      = &sync.Mutex{}
)

// RunAccountingWorkflow starts a pull subscriber that feeds outbox messages
// into the posting pipeline. Cloud Run deployments use the push endpoint
// instead; this path serves long-lived instances.
func RunAccountingWorkflow() error {
	logger := config.GetLogger()
	ctx := context.Background()
	client, err := config.GetClient(ctx)
	if err != nil {
		return err
	}
	topic, err := config.CreateTopicIfNotExists(client, os.Getenv("PUBSUB_TOPIC"))
	if err != nil {
		return err
	}
	sub, err := config.CreateSubscriptionIfNotExists(client, os.Getenv("PUBSUB_SUBSCRIPTION"), topic)
	if err != nil {
		return err
	}
	sub.ReceiveSettings.MaxOutstandingMessages = 10

	callback := func(ctx context.Context, msg *pubsub.Message) {
		m := config.PubSubMessage{}
		err := json.Unmarshal(msg.Data, &m)
		if err != nil {
			config.LogError(logger, "accountingWorkflow.go", "RunAccountingWorkflow", "Unmarshaling pubsub message", msg.Data, err)
			return
		}

		// Serialize in-process by business; the MySQL advisory lock in
		// ProcessMessage covers cross-instance ordering.
		globalMutex.Lock()
		mutex, exists := businessMutexMap[m.BusinessId]
		if !exists {
			mutex = &sync.Mutex{}
			businessMutexMap[m.BusinessId] = mutex
		}
		globalMutex.Unlock()

		mutex.Lock()
		defer mutex.Unlock()

		ctx = context.WithValue(ctx, utils.ContextKeyBusinessId, m.BusinessId)
		ctx = context.WithValue(ctx, utils.ContextKeyUserId, 0)
		ctx = context.WithValue(ctx, utils.ContextKeyUserName, "System")
		if err := ProcessMessage(ctx, logger, m); err != nil {
			logger.WithFields(logrus.Fields{
				"field":          "AccountingWorkflow",
				"business_id":    m.BusinessId,
				"reference_type": m.ReferenceType,
				"reference_id":   m.ReferenceId,
				"message_id":     msg.ID,
			}).Error("pubsub processing failed: " + err.Error())
			msg.Nack()
			return
		}
		msg.Ack()
	}

	go func() {
		err := sub.Receive(ctx, callback)
		if err != nil {
			config.LogError(logger, "accountingWorkflow.go", "RunAccountingWorkflow", "Failed to receive messages", nil, err)
		}
	}()

	return nil
}

// ProcessMessage runs one outbox message through the posting pipeline in a
// single DB transaction: advisory lock, idempotency gate, workflow handler.
func ProcessMessage(ctx context.Context, logger *logrus.Logger, m config.PubSubMessage) error {
	ctx, span := tracer.Start(ctx, "accounting.ProcessMessage",
		trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()

	db := config.GetDB()
	return db.Transaction(func(tx *gorm.DB) error {
		// Enforce strict per-business ordering across instances.
		if err := workflow.AcquireBusinessPostingLock(tx.WithContext(ctx), m.BusinessId); err != nil {
			return err
		}
		defer workflow.ReleaseBusinessPostingLock(tx.WithContext(ctx), m.BusinessId)

		handlerName := m.ReferenceType
		messageId := strconv.Itoa(m.ID)

		skip, err := workflow.BeginIdempotency(tx.WithContext(ctx), m.BusinessId, handlerName, messageId)
		if err != nil {
			return err
		}
		if skip {
			return nil
		}

		if err := ProcessWorkflow(tx.WithContext(ctx), ctx, logger, m); err != nil {
			_ = workflow.MarkIdempotencyFailed(tx.WithContext(ctx), m.BusinessId, handlerName, messageId, err)
			return err
		}
		if err := workflow.MarkIdempotencySucceeded(tx.WithContext(ctx), m.BusinessId, handlerName, messageId); err != nil {
			return err
		}
		return nil
	})
}

func ProcessWorkflow(tx *gorm.DB, ctx context.Context, logger *logrus.Logger, msg config.PubSubMessage) error {
	switch msg.ReferenceType {
	case string(models.LedgerReferenceTypeJournalEntry):
		return workflow.ProcessJournalEntryWorkflow(tx, ctx, logger, msg)
	case string(models.LedgerReferenceTypeSalesInvoice):
		return workflow.ProcessInvoiceWorkflow(tx, ctx, logger, msg)
	case string(models.LedgerReferenceTypePurchaseOrder):
		return workflow.ProcessPurchaseWorkflow(tx, ctx, logger, msg)
	case string(models.LedgerReferenceTypeCustomerOpeningBalance):
		return workflow.ProcessCustomerOpeningBalanceWorkflow(tx, ctx, logger, msg)
	case string(models.LedgerReferenceTypeSupplierOpeningBalance):
		return workflow.ProcessSupplierOpeningBalanceWorkflow(tx, ctx, logger, msg)
	}
	// Returning nil here would ack the message and record a bogus success,
	// leaving the outbox row unprocessed forever.
	return fmt.Errorf("unknown reference type %q", msg.ReferenceType)
}
