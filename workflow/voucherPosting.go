package workflow

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/erp_backend/config"
	"bitbucket.org/mmdatafocus/erp_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PostVoucher is the single write path for account balances. It creates the
// posted voucher from the given entries and applies the balance rule's delta
// to every referenced account, all inside the caller's transaction. Reports
// replaying raw voucher entries must agree with the resulting balances.
func PostVoucher(tx *gorm.DB, ctx context.Context, logger *logrus.Logger, businessId string,
	voucherType models.VoucherType, voucherDate time.Time, narration string,
	refType models.LedgerReferenceType, refId int, entries []models.NewVoucherEntry) (*models.Voucher, error) {

	voucher, err := models.CreateVoucherInTx(tx, ctx, businessId, voucherType, voucherDate, narration, refType, refId, entries)
	if err != nil {
		config.LogError(logger, "voucherPosting.go", "PostVoucher", "CreateVoucherInTx", refId, err)
		return nil, err
	}

	if err := applyBalanceDeltas(tx, ctx, businessId, entries); err != nil {
		config.LogError(logger, "voucherPosting.go", "PostVoucher", "applyBalanceDeltas", voucher.ID, err)
		return nil, err
	}
	return voucher, nil
}

func applyBalanceDeltas(tx *gorm.DB, ctx context.Context, businessId string, entries []models.NewVoucherEntry) error {
	for _, entry := range entries {
		accountType, err := models.AccountTypeFor(tx, ctx, businessId, entry.AccountId)
		if err != nil {
			return err
		}
		delta, err := models.BalanceDelta(entry.Debit, entry.Credit, accountType)
		if err != nil {
			return err
		}
		if delta.IsZero() {
			continue
		}
		err = tx.WithContext(ctx).Model(&models.Account{}).
			Where("business_id = ? AND id = ?", businessId, entry.AccountId).
			Update("current_balance", gorm.Expr("current_balance + ?", delta)).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// ApplyJournalEntryDeltas applies the balance rule for a posted journal
// entry's lines. Journal entries are already ledger documents, so no voucher
// is created; creating one would double-count against the report dedup rule.
func ApplyJournalEntryDeltas(tx *gorm.DB, ctx context.Context, businessId string, lines []models.JournalLine) error {
	entries := make([]models.NewVoucherEntry, 0, len(lines))
	for _, line := range lines {
		entries = append(entries, models.NewVoucherEntry{
			AccountId: line.AccountId,
			Debit:     line.Debit,
			Credit:    line.Credit,
		})
	}
	return applyBalanceDeltas(tx, ctx, businessId, entries)
}
