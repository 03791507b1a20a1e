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

type PurchaseOrder struct {
	ID          int                 `gorm:"primary_key" json:"id"`
	BusinessId  string              `gorm:"index;not null" json:"business_id"`
	OrderNo     string              `gorm:"index;size:30;not null" json:"order_no"`
	SupplierId  int                 `gorm:"index;not null" json:"supplier_id"`
	OrderDate   time.Time           `gorm:"index;not null" json:"order_date"`
	Status      PurchaseOrderStatus `gorm:"type:enum('Draft','Ordered','Received','Cancelled');default:'Draft';index;size:10;not null" json:"status"`
	IsDirect    *bool               `gorm:"not null;default:false" json:"is_direct"`
	Remark      string              `gorm:"type:text" json:"remark"`
	TotalAmount decimal.Decimal     `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	ReceivedAt  *time.Time          `json:"received_at"`
	Items       []PurchaseOrderItem `gorm:"foreignKey:PurchaseOrderId" json:"items"`
	CreatedAt   time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

type PurchaseOrderItem struct {
	ID              int             `gorm:"primary_key" json:"id"`
	BusinessId      string          `gorm:"index;not null" json:"business_id"`
	PurchaseOrderId int             `gorm:"index;not null" json:"purchase_order_id"`
	PartId          int             `gorm:"index;not null" json:"part_id"`
	Qty             decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"qty"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price"`
	Amount          decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
}

// PurchaseReceipt is the outbox payload emitted when an order is received;
// the posting workflow turns it into a Purchase voucher (debit inventory,
// credit payable).
type PurchaseReceipt struct {
	ID          int             `json:"id"`
	OrderNo     string          `json:"order_no"`
	SupplierId  int             `json:"supplier_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ReceivedAt  time.Time       `json:"received_at"`
}

type NewPurchaseOrder struct {
	SupplierId int                     `json:"supplier_id" binding:"required"`
	OrderDate  time.Time               `json:"order_date" binding:"required"`
	IsDirect   bool                    `json:"is_direct"`
	Remark     string                  `json:"remark"`
	Items      []*NewPurchaseOrderItem `json:"items" binding:"required"`
}

type NewPurchaseOrderItem struct {
	PartId    int             `json:"part_id" binding:"required"`
	Qty       decimal.Decimal `json:"qty" binding:"required"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func (input *NewPurchaseOrder) validate(ctx context.Context, businessId string) error {
	if err := utils.ValidateResourceId[Supplier](ctx, businessId, input.SupplierId); err != nil {
		return errors.New("supplier not found")
	}
	if len(input.Items) == 0 {
		return errors.New("purchase order requires items")
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

func receivePurchaseOrderItems(businessId string, input *NewPurchaseOrder) ([]PurchaseOrderItem, decimal.Decimal) {
	total := decimal.Zero
	items := make([]PurchaseOrderItem, 0, len(input.Items))
	for _, item := range input.Items {
		amount := item.Qty.Mul(item.UnitPrice)
		total = total.Add(amount)
		items = append(items, PurchaseOrderItem{
			BusinessId: businessId,
			PartId:     item.PartId,
			Qty:        item.Qty,
			UnitPrice:  item.UnitPrice,
			Amount:     amount,
		})
	}
	return items, total
}

// CreatePurchaseOrder creates a draft order, or for direct orders receives
// stock and queues the purchase voucher in the same transaction.
func CreatePurchaseOrder(ctx context.Context, input *NewPurchaseOrder) (*PurchaseOrder, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	items, total := receivePurchaseOrderItems(businessId, input)
	order := PurchaseOrder{
		BusinessId:  businessId,
		SupplierId:  input.SupplierId,
		OrderDate:   input.OrderDate,
		Status:      PurchaseOrderStatusDraft,
		IsDirect:    &input.IsDirect,
		Remark:      input.Remark,
		TotalAmount: total,
		Items:       items,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orderNo, err := NextNumber(tx, ctx, businessId, "purchase_order", "PO")
		if err != nil {
			return err
		}
		order.OrderNo = orderNo
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		if !input.IsDirect {
			return nil
		}
		return receiveOrderInTx(tx, ctx, businessId, &order)
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// receiveOrderInTx applies IN stock movements, flips the order to Received
// and writes the outbox record for the purchase voucher.
func receiveOrderInTx(tx *gorm.DB, ctx context.Context, businessId string, order *PurchaseOrder) error {
	now := time.Now().UTC()
	for _, item := range order.Items {
		_, err := ApplyStockMovement(tx, ctx, businessId, item.PartId,
			StockMovementIn, item.Qty, string(LedgerReferenceTypePurchaseOrder), order.ID, order.OrderNo, now)
		if err != nil {
			return err
		}
	}

	err := tx.WithContext(ctx).Model(&PurchaseOrder{}).
		Where("business_id = ? AND id = ?", businessId, order.ID).
		Updates(map[string]interface{}{
			"status":      PurchaseOrderStatusReceived,
			"received_at": &now,
		}).Error
	if err != nil {
		return err
	}
	order.Status = PurchaseOrderStatusReceived
	order.ReceivedAt = &now

	receipt := PurchaseReceipt{
		ID:          order.ID,
		OrderNo:     order.OrderNo,
		SupplierId:  order.SupplierId,
		TotalAmount: order.TotalAmount,
		ReceivedAt:  now,
	}
	return PublishToAccounting(ctx, tx, businessId, now,
		order.ID, LedgerReferenceTypePurchaseOrder, receipt, nil, PubSubMessageActionCreate)
}

// ConfirmPurchaseOrder moves a draft order to Ordered.
func ConfirmPurchaseOrder(ctx context.Context, id int) (*PurchaseOrder, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	order, err := utils.FetchModel[PurchaseOrder](ctx, businessId, id, "Items")
	if err != nil {
		return nil, err
	}
	if order.Status != PurchaseOrderStatusDraft {
		return nil, errors.New("only draft orders can be confirmed")
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&PurchaseOrder{}).
		Where("business_id = ? AND id = ?", businessId, id).
		Update("status", PurchaseOrderStatusOrdered).Error
	if err != nil {
		return nil, err
	}
	order.Status = PurchaseOrderStatusOrdered
	return order, nil
}

// ReceivePurchaseOrder receives an ordered PO: stock in, voucher queued.
func ReceivePurchaseOrder(ctx context.Context, id int) (*PurchaseOrder, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	order, err := utils.FetchModel[PurchaseOrder](ctx, businessId, id, "Items")
	if err != nil {
		return nil, err
	}
	if order.Status != PurchaseOrderStatusOrdered {
		return nil, errors.New("only ordered purchase orders can be received")
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return receiveOrderInTx(tx, ctx, businessId, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func CancelPurchaseOrder(ctx context.Context, id int) (*PurchaseOrder, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	order, err := utils.FetchModel[PurchaseOrder](ctx, businessId, id, "Items")
	if err != nil {
		return nil, err
	}
	if order.Status == PurchaseOrderStatusReceived {
		return nil, errors.New("received purchase orders cannot be cancelled")
	}
	if order.Status == PurchaseOrderStatusCancelled {
		return nil, errors.New("purchase order is already cancelled")
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&PurchaseOrder{}).
		Where("business_id = ? AND id = ?", businessId, id).
		Update("status", PurchaseOrderStatusCancelled).Error
	if err != nil {
		return nil, err
	}
	order.Status = PurchaseOrderStatusCancelled
	return order, nil
}

func GetPurchaseOrder(ctx context.Context, id int) (*PurchaseOrder, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[PurchaseOrder](ctx, businessId, id, "Items")
}

func GetPurchaseOrders(ctx context.Context, status *string, supplierId *int) ([]*PurchaseOrder, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId).Preload("Items")
	if status != nil && *status != "" {
		dbCtx = dbCtx.Where("status = ?", *status)
	}
	if supplierId != nil && *supplierId > 0 {
		dbCtx = dbCtx.Where("supplier_id = ?", *supplierId)
	}

	var orders []*PurchaseOrder
	if err := dbCtx.Order("order_date DESC, id DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
