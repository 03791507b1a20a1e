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

// JournalEntry is the legacy double-entry ledger document. New postings go
// through Vouchers; journal entries remain writable for manual adjustments
// and are aggregated alongside vouchers with document-number dedup.
type JournalEntry struct {
	ID          int             `gorm:"primary_key" json:"id"`
	BusinessId  string          `gorm:"index;not null" json:"business_id"`
	EntryNo     string          `gorm:"index;size:30;not null" json:"entry_no"`
	EntryDate   time.Time       `gorm:"index;not null" json:"entry_date"`
	Narration   string          `gorm:"type:text" json:"narration"`
	Status      DocumentStatus  `gorm:"type:enum('Draft','Posted');default:'Draft';index;size:10;not null" json:"status"`
	TotalDebit  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_debit"`
	TotalCredit decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_credit"`
	Lines       []JournalLine   `gorm:"foreignKey:JournalEntryId" json:"lines"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type JournalLine struct {
	ID             int             `gorm:"primary_key" json:"id"`
	JournalEntryId int             `gorm:"index;not null" json:"journal_entry_id"`
	AccountId      int             `gorm:"index;not null" json:"account_id"`
	Description    string          `gorm:"size:255" json:"description"`
	Debit          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"debit"`
	Credit         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"credit"`
}

type NewJournalEntry struct {
	EntryDate time.Time        `json:"entry_date" binding:"required"`
	Narration string           `json:"narration"`
	Lines     []NewJournalLine `json:"lines" binding:"required"`
}

type NewJournalLine struct {
	AccountId   int             `json:"account_id" binding:"required"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

type JournalEntriesConnection struct {
	Edges    []*JournalEntriesEdge `json:"edges"`
	PageInfo *PageInfo             `json:"pageInfo"`
}

type JournalEntriesEdge struct {
	Cursor string        `json:"cursor"`
	Node   *JournalEntry `json:"node"`
}

// Posted ledger documents are immutable.
func (j *JournalEntry) BeforeUpdate(tx *gorm.DB) error {
	if j.Status == DocumentStatusPosted {
		return errors.New("posted journal entries cannot be updated")
	}
	return nil
}

func (j *JournalEntry) BeforeDelete(tx *gorm.DB) error {
	if j.Status == DocumentStatusPosted {
		return errors.New("posted journal entries cannot be deleted")
	}
	return nil
}

func (input *NewJournalEntry) validate(ctx context.Context, businessId string) error {
	if len(input.Lines) == 0 {
		return errors.New("journal entry requires lines")
	}
	accountIds := make([]int, 0, len(input.Lines))
	for _, l := range input.Lines {
		accountIds = append(accountIds, l.AccountId)
	}
	if err := utils.ValidateResourcesId[Account](ctx, businessId, accountIds); err != nil {
		return errors.New("account not found")
	}
	return nil
}

// receiveJournalLines converts input lines, enforcing the balanced-document
// precondition before anything is written.
func receiveJournalLines(input *NewJournalEntry) ([]JournalLine, decimal.Decimal, decimal.Decimal, error) {
	pairs := make([]DebitCredit, 0, len(input.Lines))
	for _, l := range input.Lines {
		pairs = append(pairs, DebitCredit{Debit: l.Debit, Credit: l.Credit})
	}
	if err := ValidateBalancedLines(pairs); err != nil {
		return nil, decimal.Zero, decimal.Zero, err
	}

	totalDebit, totalCredit := SumDebitCredit(pairs)
	lines := make([]JournalLine, 0, len(input.Lines))
	for _, l := range input.Lines {
		lines = append(lines, JournalLine{
			AccountId:   l.AccountId,
			Description: l.Description,
			Debit:       l.Debit,
			Credit:      l.Credit,
		})
	}
	return lines, totalDebit, totalCredit, nil
}

// CreateJournalEntry writes the entry as Posted together with its outbox
// record; the posting workflow later applies the balance deltas.
func CreateJournalEntry(ctx context.Context, input *NewJournalEntry) (*JournalEntry, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}
	lines, totalDebit, totalCredit, err := receiveJournalLines(input)
	if err != nil {
		return nil, err
	}

	entry := JournalEntry{
		BusinessId:  businessId,
		EntryDate:   input.EntryDate,
		Narration:   input.Narration,
		Status:      DocumentStatusPosted,
		TotalDebit:  totalDebit,
		TotalCredit: totalCredit,
		Lines:       lines,
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entryNo, err := NextNumber(tx, ctx, businessId, "journal_entry", "JE")
		if err != nil {
			return err
		}
		entry.EntryNo = entryNo
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		return PublishToAccounting(ctx, tx, businessId, entry.EntryDate,
			entry.ID, LedgerReferenceTypeJournalEntry, &entry, nil, PubSubMessageActionCreate)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func GetJournalEntry(ctx context.Context, id int) (*JournalEntry, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[JournalEntry](ctx, businessId, id, "Lines")
}

// PaginateJournalEntries pages entries newest-first using a composite
// (entry_date, id) cursor.
func PaginateJournalEntries(ctx context.Context, limit int, after *string) (*JournalEntriesConnection, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if limit <= 0 {
		limit = 20
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId).Preload("Lines")

	cursorDate, cursorId := DecodeCompositeCursor(after)
	if cursorDate != "" {
		dbCtx = dbCtx.Where("(entry_date < ?) OR (entry_date = ? AND id < ?)", cursorDate, cursorDate, cursorId)
	}

	var entries []*JournalEntry
	if err := dbCtx.Order("entry_date DESC, id DESC").Limit(limit + 1).Find(&entries).Error; err != nil {
		return nil, err
	}

	hasNextPage := len(entries) > limit
	if hasNextPage {
		entries = entries[:limit]
	}

	edges := make([]*JournalEntriesEdge, 0, len(entries))
	for _, e := range entries {
		edges = append(edges, &JournalEntriesEdge{
			Cursor: EncodeCompositeCursor(e.EntryDate.Format("2006-01-02 15:04:05"), e.ID),
			Node:   e,
		})
	}

	pageInfo := &PageInfo{HasNextPage: &hasNextPage}
	if len(edges) > 0 {
		pageInfo.StartCursor = edges[0].Cursor
		pageInfo.EndCursor = edges[len(edges)-1].Cursor
	}
	return &JournalEntriesConnection{Edges: edges, PageInfo: pageInfo}, nil
}
