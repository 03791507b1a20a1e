package models

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// NumberSequence hands out per-business running document numbers
// (entry numbers, voucher numbers, order numbers, invoice numbers).
type NumberSequence struct {
	ID         int       `gorm:"primary_key" json:"id"`
	BusinessId string    `gorm:"uniqueIndex:idx_seq_biz_doc,priority:1;size:64;not null" json:"business_id"`
	DocType    string    `gorm:"uniqueIndex:idx_seq_biz_doc,priority:2;size:30;not null" json:"doc_type"`
	Prefix     string    `gorm:"size:10;not null" json:"prefix"`
	NextValue  int       `gorm:"not null;default:1" json:"next_value"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// FormatDocumentNumber renders a document number as PREFIX-NNNNNN.
// Zero padding keeps lexicographic and numeric order aligned.
func FormatDocumentNumber(prefix string, value int) string {
	return fmt.Sprintf("%s-%06d", prefix, value)
}

// NextNumber allocates the next document number inside the caller's
// transaction. The row lock serializes concurrent allocations; a rolled-back
// caller releases its number back to the sequence.
func NextNumber(tx *gorm.DB, ctx context.Context, businessId string, docType string, prefix string) (string, error) {
	var seq NumberSequence
	err := tx.WithContext(ctx).
		Clauses(lockForUpdate()).
		Where("business_id = ? AND doc_type = ?", businessId, docType).
		First(&seq).Error
	if err == gorm.ErrRecordNotFound {
		seq = NumberSequence{
			BusinessId: businessId,
			DocType:    docType,
			Prefix:     prefix,
			NextValue:  1,
		}
		if err := tx.WithContext(ctx).Create(&seq).Error; err != nil {
			return "", err
		}
	} else if err != nil {
		return "", err
	}

	number := FormatDocumentNumber(seq.Prefix, seq.NextValue)
	err = tx.WithContext(ctx).Model(&NumberSequence{}).
		Where("id = ?", seq.ID).
		Update("next_value", seq.NextValue+1).Error
	if err != nil {
		return "", err
	}
	return number, nil
}
