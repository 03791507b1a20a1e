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

// StockMovement is the append-only inventory ledger. Part.StockQty is a
// projection of these rows, adjusted in the same transaction as each insert.
type StockMovement struct {
	ID            int               `gorm:"primary_key" json:"id"`
	BusinessId    string            `gorm:"index;not null" json:"business_id"`
	PartId        int               `gorm:"index;not null" json:"part_id"`
	MovementType  StockMovementType `gorm:"type:enum('IN','OUT','ADJUST');not null" json:"movement_type"`
	Qty           decimal.Decimal   `gorm:"type:decimal(20,4);not null" json:"qty"`
	ReferenceType string            `gorm:"size:20;index" json:"reference_type"`
	ReferenceId   int               `gorm:"index" json:"reference_id"`
	Remark        string            `gorm:"size:255" json:"remark"`
	MovementDate  time.Time         `gorm:"index;not null" json:"movement_date"`
	CreatedAt     time.Time         `gorm:"autoCreateTime" json:"created_at"`
}

func (m *StockMovement) BeforeUpdate(tx *gorm.DB) error {
	return errors.New("stock movements cannot be updated")
}

func (m *StockMovement) BeforeDelete(tx *gorm.DB) error {
	return errors.New("stock movements cannot be deleted")
}

type NewStockMovement struct {
	PartId       int               `json:"part_id" binding:"required"`
	MovementType StockMovementType `json:"movement_type" binding:"required"`
	Qty          decimal.Decimal   `json:"qty" binding:"required"`
	Remark       string            `json:"remark"`
	MovementDate time.Time         `json:"movement_date" binding:"required"`
}

// ApplyStockMovement inserts the movement row and adjusts the part's stock
// quantity inside the caller's transaction. IN adds, OUT subtracts (rejecting
// negative stock), ADJUST sets the quantity to Qty and records the delta.
func ApplyStockMovement(tx *gorm.DB, ctx context.Context, businessId string, partId int,
	movementType StockMovementType, qty decimal.Decimal, refType string, refId int,
	remark string, movementDate time.Time) (*StockMovement, error) {

	var part Part
	err := tx.WithContext(ctx).
		Clauses(lockForUpdate()).
		Where("business_id = ? AND id = ?", businessId, partId).
		First(&part).Error
	if err != nil {
		return nil, errors.New("part not found")
	}

	var newQty decimal.Decimal
	switch movementType {
	case StockMovementIn:
		if qty.IsNegative() || qty.IsZero() {
			return nil, errors.New("movement qty must be positive")
		}
		newQty = part.StockQty.Add(qty)
	case StockMovementOut:
		if qty.IsNegative() || qty.IsZero() {
			return nil, errors.New("movement qty must be positive")
		}
		newQty = part.StockQty.Sub(qty)
		if newQty.IsNegative() {
			return nil, errors.New("stock cannot go negative")
		}
	case StockMovementAdjust:
		if qty.IsNegative() {
			return nil, errors.New("adjusted stock cannot be negative")
		}
		newQty = qty
	default:
		return nil, errors.New("invalid movement type")
	}

	movement := StockMovement{
		BusinessId:    businessId,
		PartId:        partId,
		MovementType:  movementType,
		Qty:           qty,
		ReferenceType: refType,
		ReferenceId:   refId,
		Remark:        remark,
		MovementDate:  movementDate,
	}
	if err := tx.WithContext(ctx).Create(&movement).Error; err != nil {
		return nil, err
	}

	err = tx.WithContext(ctx).Model(&Part{}).
		Where("business_id = ? AND id = ?", businessId, partId).
		Update("stock_qty", newQty).Error
	if err != nil {
		return nil, err
	}
	return &movement, nil
}

// CreateStockMovement is the manual adjustment entry point.
func CreateStockMovement(ctx context.Context, input *NewStockMovement) (*StockMovement, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	var movement *StockMovement
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		movement, err = ApplyStockMovement(tx, ctx, businessId, input.PartId,
			input.MovementType, input.Qty, "MANUAL", 0, input.Remark, input.MovementDate)
		return err
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

func GetStockMovements(ctx context.Context, partId *int, fromDate, toDate *time.Time) ([]*StockMovement, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if partId != nil && *partId > 0 {
		dbCtx = dbCtx.Where("part_id = ?", *partId)
	}
	if fromDate != nil {
		dbCtx = dbCtx.Where("movement_date >= ?", *fromDate)
	}
	if toDate != nil {
		dbCtx = dbCtx.Where("movement_date <= ?", *toDate)
	}

	var movements []*StockMovement
	if err := dbCtx.Order("movement_date DESC, id DESC").Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}
