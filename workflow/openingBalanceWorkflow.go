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

// openingBalanceEntries builds the two balanced voucher legs. The partner
// account takes the side its classification naturally grows on, the
// adjustments account takes the other.
func openingBalanceEntries(partnerAccountId, adjustmentsId int, description string, amount decimal.Decimal, partnerSide models.NormalBalance) []models.NewVoucherEntry {
	if partnerSide == models.NormalBalanceDebit {
		return []models.NewVoucherEntry{
			{AccountId: partnerAccountId, Description: description, Debit: amount},
			{AccountId: adjustmentsId, Description: description, Credit: amount},
		}
	}
	return []models.NewVoucherEntry{
		{AccountId: adjustmentsId, Description: description, Debit: amount},
		{AccountId: partnerAccountId, Description: description, Credit: amount},
	}
}

// ProcessCustomerOpeningBalanceWorkflow posts the opening balance voucher for
// a new customer. The customer gets a dedicated receivable account, created
// under the accounts receivable subgroup on first use: debit that account,
// credit opening balance adjustments.
func ProcessCustomerOpeningBalanceWorkflow(tx *gorm.DB, ctx context.Context, logger *logrus.Logger, msg config.PubSubMessage) error {

	if msg.Action != string(models.PubSubMessageActionCreate) {
		return fmt.Errorf("unsupported action %q for customer opening balance", msg.Action)
	}

	var openingBalance models.CustomerOpeningBalance
	if err := json.Unmarshal(msg.NewObj, &openingBalance); err != nil {
		config.LogError(logger, "openingBalanceWorkflow.go", "ProcessCustomerOpeningBalanceWorkflow", "Unmarshal msg.NewObj", msg.NewObj, err)
		return err
	}

	systemAccounts, err := models.GetSystemAccounts(msg.BusinessId)
	if err != nil {
		config.LogError(logger, "openingBalanceWorkflow.go", "ProcessCustomerOpeningBalanceWorkflow", "GetSystemAccounts", msg.BusinessId, err)
		return err
	}
	adjustmentsId, ok := systemAccounts[models.SystemAccountOpeningBalanceAdj]
	if !ok {
		return fmt.Errorf("system account %s not found", models.SystemAccountOpeningBalanceAdj)
	}

	partnerAccount, err := models.EnsurePartnerAccount(tx, ctx, msg.BusinessId,
		openingBalance.CustomerName+" (Receivable)", models.SystemAccountAccountsReceivable)
	if err != nil {
		config.LogError(logger, "openingBalanceWorkflow.go", "ProcessCustomerOpeningBalanceWorkflow", "EnsurePartnerAccount", openingBalance.CustomerName, err)
		return err
	}

	entries := openingBalanceEntries(partnerAccount.ID, adjustmentsId,
		openingBalance.CustomerName, openingBalance.OpeningBalance, models.NormalBalanceDebit)

	voucher, err := PostVoucher(tx, ctx, logger, msg.BusinessId, models.VoucherTypeOpeningBalance,
		msg.TransactionDateTime, "Customer opening balance: "+openingBalance.CustomerName,
		models.LedgerReferenceTypeCustomerOpeningBalance, openingBalance.ID, entries)
	if err != nil {
		return err
	}

	return models.MarkOutboxProcessed(tx, msg.ID, voucher.ID)
}

// ProcessSupplierOpeningBalanceWorkflow mirrors the customer flow on the
// payable side: credit the supplier's dedicated payable account, debit
// opening balance adjustments.
func ProcessSupplierOpeningBalanceWorkflow(tx *gorm.DB, ctx context.Context, logger *logrus.Logger, msg config.PubSubMessage) error {

	if msg.Action != string(models.PubSubMessageActionCreate) {
		return fmt.Errorf("unsupported action %q for supplier opening balance", msg.Action)
	}

	var openingBalance models.SupplierOpeningBalance
	if err := json.Unmarshal(msg.NewObj, &openingBalance); err != nil {
		config.LogError(logger, "openingBalanceWorkflow.go", "ProcessSupplierOpeningBalanceWorkflow", "Unmarshal msg.NewObj", msg.NewObj, err)
		return err
	}

	systemAccounts, err := models.GetSystemAccounts(msg.BusinessId)
	if err != nil {
		config.LogError(logger, "openingBalanceWorkflow.go", "ProcessSupplierOpeningBalanceWorkflow", "GetSystemAccounts", msg.BusinessId, err)
		return err
	}
	adjustmentsId, ok := systemAccounts[models.SystemAccountOpeningBalanceAdj]
	if !ok {
		return fmt.Errorf("system account %s not found", models.SystemAccountOpeningBalanceAdj)
	}

	partnerAccount, err := models.EnsurePartnerAccount(tx, ctx, msg.BusinessId,
		openingBalance.SupplierName+" (Payable)", models.SystemAccountAccountsPayable)
	if err != nil {
		config.LogError(logger, "openingBalanceWorkflow.go", "ProcessSupplierOpeningBalanceWorkflow", "EnsurePartnerAccount", openingBalance.SupplierName, err)
		return err
	}

	entries := openingBalanceEntries(partnerAccount.ID, adjustmentsId,
		openingBalance.SupplierName, openingBalance.OpeningBalance, models.NormalBalanceCredit)

	voucher, err := PostVoucher(tx, ctx, logger, msg.BusinessId, models.VoucherTypeOpeningBalance,
		msg.TransactionDateTime, "Supplier opening balance: "+openingBalance.SupplierName,
		models.LedgerReferenceTypeSupplierOpeningBalance, openingBalance.ID, entries)
	if err != nil {
		return err
	}

	return models.MarkOutboxProcessed(tx, msg.ID, voucher.ID)
}
