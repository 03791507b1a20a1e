package workflow

import (
	"context"
	"encoding/json"
	"fmt"

	"bitbucket.org/mmdatafocus/erp_backend/config"
	"bitbucket.org/mmdatafocus/erp_backend/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// invoiceVoucherEntries builds the sales voucher legs: receivable against
// revenue for the invoice total, cost of goods sold against inventory for
// the cost of the stock issued. Cost legs are omitted when cost is zero so
// invoices for zero-cost parts stay two-legged.
func invoiceVoucherEntries(receivableId, revenueId, cogsId, inventoryId int, invoiceNo string, total, cost decimal.Decimal) []models.NewVoucherEntry {
	entries := []models.NewVoucherEntry{
		{AccountId: receivableId, Description: invoiceNo, Debit: total},
		{AccountId: revenueId, Description: invoiceNo, Credit: total},
	}
	if cost.IsPositive() {
		entries = append(entries,
			models.NewVoucherEntry{AccountId: cogsId, Description: invoiceNo, Debit: cost},
			models.NewVoucherEntry{AccountId: inventoryId, Description: invoiceNo, Credit: cost},
		)
	}
	return entries
}

// ProcessInvoiceWorkflow posts the sales voucher for a posted invoice.
// Stock was already issued in the invoice's own transaction; the cost it
// carried comes over in the payload and is booked as cost of goods sold.
func ProcessInvoiceWorkflow(tx *gorm.DB, ctx context.Context, logger *logrus.Logger, msg config.PubSubMessage) error {

	if msg.Action != string(models.PubSubMessageActionCreate) {
		return fmt.Errorf("unsupported action %q for invoice posting", msg.Action)
	}

	var posting models.InvoicePosting
	if err := json.Unmarshal(msg.NewObj, &posting); err != nil {
		config.LogError(logger, "invoiceWorkflow.go", "ProcessInvoiceWorkflow", "Unmarshal msg.NewObj", msg.NewObj, err)
		return err
	}

	systemAccounts, err := models.GetSystemAccounts(msg.BusinessId)
	if err != nil {
		config.LogError(logger, "invoiceWorkflow.go", "ProcessInvoiceWorkflow", "GetSystemAccounts", msg.BusinessId, err)
		return err
	}
	receivableId, ok := systemAccounts[models.SystemAccountAccountsReceivable]
	if !ok {
		return fmt.Errorf("system account %s not found", models.SystemAccountAccountsReceivable)
	}
	revenueId, ok := systemAccounts[models.SystemAccountSalesRevenue]
	if !ok {
		return fmt.Errorf("system account %s not found", models.SystemAccountSalesRevenue)
	}

	cogsId := 0
	inventoryId := 0
	if posting.TotalCost.IsPositive() {
		cogsId, ok = systemAccounts[models.SystemAccountCostOfGoodsSold]
		if !ok {
			return fmt.Errorf("system account %s not found", models.SystemAccountCostOfGoodsSold)
		}
		inventoryId, ok = systemAccounts[models.SystemAccountInventory]
		if !ok {
			return fmt.Errorf("system account %s not found", models.SystemAccountInventory)
		}
	}

	entries := invoiceVoucherEntries(receivableId, revenueId, cogsId, inventoryId,
		posting.InvoiceNo, posting.TotalAmount, posting.TotalCost)

	voucher, err := PostVoucher(tx, ctx, logger, msg.BusinessId, models.VoucherTypeSales,
		msg.TransactionDateTime, "Sales invoice "+posting.InvoiceNo,
		models.LedgerReferenceTypeSalesInvoice, posting.ID, entries)
	if err != nil {
		return err
	}

	return models.MarkOutboxProcessed(tx, msg.ID, voucher.ID)
}
