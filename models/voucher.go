package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/erp_backend/config"
	"bitbucket.org/mmdatafocus/erp_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Voucher is the authoritative double-entry ledger document. Vouchers are
// auto-generated by the posting workflow from source documents (opening
// balances, invoices, purchase receipts) and carry the reference back to
// the document that produced them, so one business transaction maps to at
// most one voucher.
type Voucher struct {
	ID            int                 `gorm:"primary_key" json:"id"`
	BusinessId    string              `gorm:"index;not null;index:idx_voucher_biz_ref,priority:1" json:"business_id"`
	VoucherNumber string              `gorm:"index;size:30;not null" json:"voucher_number"`
	Type          VoucherType         `gorm:"type:enum('Journal','OpeningBalance','Sales','Purchase');index;size:20;not null" json:"type"`
	Status        DocumentStatus      `gorm:"type:enum('Draft','Posted');default:'Posted';index;size:10;not null" json:"status"`
	VoucherDate   time.Time           `gorm:"index;not null" json:"voucher_date"`
	Narration     string              `gorm:"type:text" json:"narration"`
	ReferenceType LedgerReferenceType `gorm:"size:5;index:idx_voucher_biz_ref,priority:2" json:"reference_type"`
	ReferenceId   int                 `gorm:"index:idx_voucher_biz_ref,priority:3" json:"reference_id"`
	TotalDebit    decimal.Decimal     `gorm:"type:decimal(20,4);default:0" json:"total_debit"`
	TotalCredit   decimal.Decimal     `gorm:"type:decimal(20,4);default:0" json:"total_credit"`
	Entries       []VoucherEntry      `gorm:"foreignKey:VoucherId" json:"entries"`
	CreatedAt     time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

type VoucherEntry struct {
	ID          int             `gorm:"primary_key" json:"id"`
	VoucherId   int             `gorm:"index;not null" json:"voucher_id"`
	AccountId   int             `gorm:"index;not null" json:"account_id"`
	Description string          `gorm:"size:255" json:"description"`
	Debit       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"debit"`
	Credit      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"credit"`
}

// NewVoucherEntry is one line of a voucher under construction.
type NewVoucherEntry struct {
	AccountId   int             `json:"account_id" binding:"required"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// Posted ledger documents are immutable.
func (v *Voucher) BeforeUpdate(tx *gorm.DB) error {
	if v.Status == DocumentStatusPosted {
		return errors.New("posted vouchers cannot be updated")
	}
	return nil
}

func (v *Voucher) BeforeDelete(tx *gorm.DB) error {
	if v.Status == DocumentStatusPosted {
		return errors.New("posted vouchers cannot be deleted")
	}
	return nil
}

// CreateVoucherInTx validates, numbers, and writes a posted voucher inside
// the caller's transaction. Callers are responsible for applying balance
// deltas in the same transaction.
func CreateVoucherInTx(tx *gorm.DB, ctx context.Context, businessId string, voucherType VoucherType,
	voucherDate time.Time, narration string, refType LedgerReferenceType, refId int,
	entries []NewVoucherEntry) (*Voucher, error) {

	pairs := make([]DebitCredit, 0, len(entries))
	for _, e := range entries {
		pairs = append(pairs, DebitCredit{Debit: e.Debit, Credit: e.Credit})
	}
	if err := ValidateBalancedLines(pairs); err != nil {
		return nil, err
	}
	totalDebit, totalCredit := SumDebitCredit(pairs)

	// One active voucher per source document.
	var count int64
	if refType != "" && refId > 0 {
		err := tx.WithContext(ctx).Model(&Voucher{}).
			Where("business_id = ? AND reference_type = ? AND reference_id = ?", businessId, refType, refId).
			Count(&count).Error
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, errors.New("a voucher already exists for this document")
		}
	}

	voucherNumber, err := NextNumber(tx, ctx, businessId, "voucher", "VCH")
	if err != nil {
		return nil, err
	}

	voucherEntries := make([]VoucherEntry, 0, len(entries))
	for _, e := range entries {
		voucherEntries = append(voucherEntries, VoucherEntry{
			AccountId:   e.AccountId,
			Description: e.Description,
			Debit:       e.Debit,
			Credit:      e.Credit,
		})
	}

	voucher := Voucher{
		BusinessId:    businessId,
		VoucherNumber: voucherNumber,
		Type:          voucherType,
		Status:        DocumentStatusPosted,
		VoucherDate:   voucherDate,
		Narration:     narration,
		ReferenceType: refType,
		ReferenceId:   refId,
		TotalDebit:    totalDebit,
		TotalCredit:   totalCredit,
		Entries:       voucherEntries,
	}
	if err := tx.WithContext(ctx).Create(&voucher).Error; err != nil {
		return nil, err
	}
	return &voucher, nil
}

func GetVoucher(ctx context.Context, id int) (*Voucher, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[Voucher](ctx, businessId, id, "Entries")
}

func GetVouchers(ctx context.Context, voucherType *string, fromDate, toDate *time.Time) ([]*Voucher, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId).Preload("Entries")
	if voucherType != nil && *voucherType != "" {
		dbCtx = dbCtx.Where("type = ?", *voucherType)
	}
	if fromDate != nil {
		dbCtx = dbCtx.Where("voucher_date >= ?", *fromDate)
	}
	if toDate != nil {
		dbCtx = dbCtx.Where("voucher_date <= ?", *toDate)
	}

	var results []*Voucher
	if err := dbCtx.Order("voucher_date DESC, id DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// PostedVoucherNumbers returns the voucher numbers of posted vouchers in the
// date range. Used by reports to exclude journal entries that mirror an
// already-posted voucher.
func PostedVoucherNumbers(ctx context.Context, businessId string, fromDate, toDate time.Time) (map[string]bool, error) {
	db := config.GetDB()
	var numbers []string
	err := db.WithContext(ctx).Model(&Voucher{}).
		Where("business_id = ? AND status = ? AND voucher_date BETWEEN ? AND ?",
			businessId, DocumentStatusPosted, fromDate, toDate).
		Pluck("voucher_number", &numbers).Error
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(numbers))
	for _, n := range numbers {
		set[n] = true
	}
	return set, nil
}
