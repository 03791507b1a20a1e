package workflow

import (
	"context"
	"encoding/json"
	"fmt"

	"bitbucket.org/mmdatafocus/erp_backend/config"
	"bitbucket.org/mmdatafocus/erp_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ProcessJournalEntryWorkflow applies balance deltas for a posted journal
// entry. The entry itself is the ledger document; no voucher is created, so
// the report dedup rule never sees a mirrored pair from this path.
func ProcessJournalEntryWorkflow(tx *gorm.DB, ctx context.Context, logger *logrus.Logger, msg config.PubSubMessage) error {

	if msg.Action != string(models.PubSubMessageActionCreate) {
		return fmt.Errorf("unsupported action %q for journal entry", msg.Action)
	}

	var entry models.JournalEntry
	if err := json.Unmarshal(msg.NewObj, &entry); err != nil {
		config.LogError(logger, "journalWorkflow.go", "ProcessJournalEntryWorkflow", "Unmarshal msg.NewObj", msg.NewObj, err)
		return err
	}

	if err := ApplyJournalEntryDeltas(tx, ctx, msg.BusinessId, entry.Lines); err != nil {
		config.LogError(logger, "journalWorkflow.go", "ProcessJournalEntryWorkflow", "ApplyJournalEntryDeltas", entry.ID, err)
		return err
	}

	return models.MarkOutboxProcessed(tx, msg.ID, 0)
}
