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

type SalesOrder struct {
	ID          int              `gorm:"primary_key" json:"id"`
	BusinessId  string           `gorm:"index;not null" json:"business_id"`
	OrderNo     string           `gorm:"index;size:30;not null" json:"order_no"`
	CustomerId  int              `gorm:"index;not null" json:"customer_id"`
	InquiryId   *int             `gorm:"index" json:"inquiry_id"`
	OrderDate   time.Time        `gorm:"index;not null" json:"order_date"`
	Status      SalesOrderStatus `gorm:"type:enum('Open','Invoiced','Cancelled');default:'Open';index;size:10;not null" json:"status"`
	Remark      string           `gorm:"type:text" json:"remark"`
	TotalAmount decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	Items       []SalesOrderItem `gorm:"foreignKey:SalesOrderId" json:"items"`
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

type SalesOrderItem struct {
	ID           int             `gorm:"primary_key" json:"id"`
	BusinessId   string          `gorm:"index;not null" json:"business_id"`
	SalesOrderId int             `gorm:"index;not null" json:"sales_order_id"`
	PartId       int             `gorm:"index;not null" json:"part_id"`
	Qty          decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"qty"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price"`
	Amount       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
}

type NewSalesOrder struct {
	CustomerId int                  `json:"customer_id" binding:"required"`
	OrderDate  time.Time            `json:"order_date" binding:"required"`
	Remark     string               `json:"remark"`
	Items      []*NewSalesOrderItem `json:"items" binding:"required"`
}

type NewSalesOrderItem struct {
	PartId    int             `json:"part_id" binding:"required"`
	Qty       decimal.Decimal `json:"qty" binding:"required"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func (input *NewSalesOrder) validate(ctx context.Context, businessId string) error {
	if err := utils.ValidateResourceId[Customer](ctx, businessId, input.CustomerId); err != nil {
		return errors.New("customer not found")
	}
	if len(input.Items) == 0 {
		return errors.New("sales order requires items")
	}
	partIds := make([]int, 0, len(input.Items))
	for _, item := range input.Items {
		if item.Qty.IsNegative() || item.Qty.IsZero() {
			return errors.New("item qty must be positive")
		}
		if item.UnitPrice.IsNegative() {
			return errors.New("unit price cannot be negative")
		}
		partIds = append(partIds, item.PartId)
	}
	if err := utils.ValidateResourcesId[Part](ctx, businessId, partIds); err != nil {
		return errors.New("part not found")
	}
	return nil
}

func CreateSalesOrder(ctx context.Context, input *NewSalesOrder) (*SalesOrder, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	total := decimal.Zero
	items := make([]SalesOrderItem, 0, len(input.Items))
	for _, item := range input.Items {
		amount := item.Qty.Mul(item.UnitPrice)
		total = total.Add(amount)
		items = append(items, SalesOrderItem{
			BusinessId: businessId,
			PartId:     item.PartId,
			Qty:        item.Qty,
			UnitPrice:  item.UnitPrice,
			Amount:     amount,
		})
	}

	order := SalesOrder{
		BusinessId:  businessId,
		CustomerId:  input.CustomerId,
		OrderDate:   input.OrderDate,
		Status:      SalesOrderStatusOpen,
		Remark:      input.Remark,
		TotalAmount: total,
		Items:       items,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orderNo, err := NextNumber(tx, ctx, businessId, "sales_order", "SO")
		if err != nil {
			return err
		}
		order.OrderNo = orderNo
		return tx.Create(&order).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func CancelSalesOrder(ctx context.Context, id int) (*SalesOrder, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	order, err := utils.FetchModel[SalesOrder](ctx, businessId, id, "Items")
	if err != nil {
		return nil, err
	}
	if order.Status == SalesOrderStatusInvoiced {
		return nil, errors.New("invoiced sales orders cannot be cancelled")
	}
	if order.Status == SalesOrderStatusCancelled {
		return nil, errors.New("sales order is already cancelled")
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&SalesOrder{}).
		Where("business_id = ? AND id = ?", businessId, id).
		Update("status", SalesOrderStatusCancelled).Error
	if err != nil {
		return nil, err
	}
	order.Status = SalesOrderStatusCancelled
	return order, nil
}

func GetSalesOrder(ctx context.Context, id int) (*SalesOrder, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[SalesOrder](ctx, businessId, id, "Items")
}

func GetSalesOrders(ctx context.Context, status *string, customerId *int) ([]*SalesOrder, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId).Preload("Items")
	if status != nil && *status != "" {
		dbCtx = dbCtx.Where("status = ?", *status)
	}
	if customerId != nil && *customerId > 0 {
		dbCtx = dbCtx.Where("customer_id = ?", *customerId)
	}

	var orders []*SalesOrder
	if err := dbCtx.Order("order_date DESC, id DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
