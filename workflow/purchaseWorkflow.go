package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"bitbucket.org/mmdatafocus/erp_backend/config"
	"bitbucket.org/mmdatafocus/erp_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ProcessPurchaseWorkflow posts the purchase voucher for a received purchase
// order: debit inventory, credit accounts payable. The stock IN movements
// were written when the order was received.
func ProcessPurchaseWorkflow(tx *gorm.DB, ctx context.Context, logger *logrus.Logger, msg config.PubSubMessage) error {

	if msg.Action != string(models.PubSubMessageActionCreate) {
		return fmt.Errorf("unsupported action %q for purchase receipt", msg.Action)
	}

	var receipt models.PurchaseReceipt
	if err := json.Unmarshal(msg.NewObj, &receipt); err != nil {
		config.LogError(logger, "purchaseWorkflow.go", "ProcessPurchaseWorkflow", "Unmarshal msg.NewObj", msg.NewObj, err)
		return err
	}

	systemAccounts, err := models.GetSystemAccounts(msg.BusinessId)
	if err != nil {
		config.LogError(logger, "purchaseWorkflow.go", "ProcessPurchaseWorkflow", "GetSystemAccounts", msg.BusinessId, err)
		return err
	}
	inventoryId, ok := systemAccounts[models.SystemAccountInventory]
	if !ok {
		return errors.New("inventory system account not found")
	}
	payableId, ok := systemAccounts[models.SystemAccountAccountsPayable]
	if !ok {
		return errors.New("accounts payable system account not found")
	}

	entries := []models.NewVoucherEntry{
		{AccountId: inventoryId, Description: receipt.OrderNo, Debit: receipt.TotalAmount},
		{AccountId: payableId, Description: receipt.OrderNo, Credit: receipt.TotalAmount},
	}

	voucher, err := PostVoucher(tx, ctx, logger, msg.BusinessId, models.VoucherTypePurchase,
		msg.TransactionDateTime, "Purchase order "+receipt.OrderNo,
		models.LedgerReferenceTypePurchaseOrder, receipt.ID, entries)
	if err != nil {
		return err
	}

	return models.MarkOutboxProcessed(tx, msg.ID, voucher.ID)
}
