package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/erp_backend/config"
	"bitbucket.org/mmdatafocus/erp_backend/utils"
	"github.com/shopspring/decimal"
)

type Part struct {
	ID            int             `gorm:"primary_key" json:"id"`
	BusinessId    string          `gorm:"index;not null" json:"business_id" binding:"required"`
	PartNo        string          `gorm:"size:50;not null;index" json:"part_no" binding:"required"`
	Name          string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Category      string          `gorm:"size:50;index" json:"category"`
	Unit          string          `gorm:"size:20" json:"unit"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"purchase_price"`
	SalePrice     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sale_price"`
	StockQty      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"stock_qty"`
	ReorderLevel  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"reorder_level"`
	ImageUrl      string          `gorm:"size:255" json:"image_url"`
	IsActive      *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPart struct {
	PartNo        string          `json:"part_no" binding:"required"`
	Name          string          `json:"name" binding:"required"`
	Category      string          `json:"category"`
	Unit          string          `json:"unit"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	ReorderLevel  decimal.Decimal `json:"reorder_level"`
	ImageUrl      string          `json:"image_url"`
}

func (input *NewPart) validate(ctx context.Context, businessId string, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Part](ctx, businessId, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateUnique[Part](ctx, businessId, "part_no", input.PartNo, id); err != nil {
		return err
	}
	if input.PurchasePrice.IsNegative() || input.SalePrice.IsNegative() {
		return errors.New("price cannot be negative")
	}
	return nil
}

func CreatePart(ctx context.Context, input *NewPart) (*Part, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	part := Part{
		BusinessId:    businessId,
		PartNo:        input.PartNo,
		Name:          input.Name,
		Category:      input.Category,
		Unit:          input.Unit,
		PurchasePrice: input.PurchasePrice,
		SalePrice:     input.SalePrice,
		ReorderLevel:  input.ReorderLevel,
		ImageUrl:      input.ImageUrl,
		IsActive:      utils.NewTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&part).Error; err != nil {
		return nil, err
	}
	return &part, nil
}

// UpdatePart never touches StockQty; stock changes go through movements.
func UpdatePart(ctx context.Context, id int, input *NewPart) (*Part, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	part, err := utils.FetchModel[Part](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&part).Updates(map[string]interface{}{
		"PartNo":        input.PartNo,
		"Name":          input.Name,
		"Category":      input.Category,
		"Unit":          input.Unit,
		"PurchasePrice": input.PurchasePrice,
		"SalePrice":     input.SalePrice,
		"ReorderLevel":  input.ReorderLevel,
		"ImageUrl":      input.ImageUrl,
	}).Error
	if err != nil {
		return nil, err
	}
	return part, nil
}

// SetPartImage stores the access URL of an uploaded part image.
func SetPartImage(ctx context.Context, id int, imageUrl string) (*Part, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	part, err := utils.FetchModel[Part](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&part).Update("image_url", imageUrl).Error; err != nil {
		return nil, err
	}
	return part, nil
}

func DeletePart(ctx context.Context, id int) (*Part, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	part, err := utils.FetchModel[Part](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	used, err := utils.ResourceCountWhere[StockMovement](ctx, businessId, "part_id = ?", id)
	if err != nil {
		return nil, err
	}
	if used > 0 {
		return nil, errors.New("part has stock movements")
	}
	used, err = utils.ResourceCountWhere[PurchaseOrderItem](ctx, businessId, "part_id = ?", id)
	if err != nil {
		return nil, err
	}
	if used > 0 {
		return nil, errors.New("part is used in purchase orders")
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(&part).Error; err != nil {
		return nil, err
	}
	return part, nil
}

func GetPart(ctx context.Context, id int) (*Part, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[Part](ctx, businessId, id)
}

func GetParts(ctx context.Context, name *string, category *string) ([]*Part, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if name != nil && *name != "" {
		dbCtx = dbCtx.Where("name LIKE ? OR part_no LIKE ?", "%"+*name+"%", "%"+*name+"%")
	}
	if category != nil && *category != "" {
		dbCtx = dbCtx.Where("category = ?", *category)
	}

	var parts []*Part
	if err := dbCtx.Order("part_no ASC").Find(&parts).Error; err != nil {
		return nil, err
	}
	return parts, nil
}

// GetLowStockParts lists parts at or below their reorder level.
func GetLowStockParts(ctx context.Context) ([]*Part, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var parts []*Part
	err := db.WithContext(ctx).
		Where("business_id = ? AND reorder_level > 0 AND stock_qty <= reorder_level", businessId).
		Order("part_no ASC").
		Find(&parts).Error
	if err != nil {
		return nil, err
	}
	return parts, nil
}
