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

type SalesInvoice struct {
	ID           int                `gorm:"primary_key" json:"id"`
	BusinessId   string             `gorm:"index;not null" json:"business_id"`
	InvoiceNo    string             `gorm:"index;size:30;not null" json:"invoice_no"`
	CustomerId   int                `gorm:"index;not null" json:"customer_id"`
	SalesOrderId *int               `gorm:"index" json:"sales_order_id"`
	InvoiceDate  time.Time          `gorm:"index;not null" json:"invoice_date"`
	Status       SalesInvoiceStatus `gorm:"type:enum('Draft','Posted');default:'Draft';index;size:10;not null" json:"status"`
	Remark       string             `gorm:"type:text" json:"remark"`
	TotalAmount  decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	PostedAt     *time.Time         `json:"posted_at"`
	Items        []SalesInvoiceItem `gorm:"foreignKey:SalesInvoiceId" json:"items"`
	CreatedAt    time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

type SalesInvoiceItem struct {
	ID             int             `gorm:"primary_key" json:"id"`
	BusinessId     string          `gorm:"index;not null" json:"business_id"`
	SalesInvoiceId int             `gorm:"index;not null" json:"sales_invoice_id"`
	PartId         int             `gorm:"index;not null" json:"part_id"`
	Qty            decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"qty"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price"`
	Amount         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
}

// InvoicePosting is the outbox payload emitted when an invoice is posted;
// the posting workflow turns it into a Sales voucher (debit receivable,
// credit sales revenue) plus cost relief legs (debit cost of goods sold,
// credit inventory) when TotalCost is non-zero.
type InvoicePosting struct {
	ID          int             `json:"id"`
	InvoiceNo   string          `json:"invoice_no"`
	CustomerId  int             `json:"customer_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	PostedAt    time.Time       `json:"posted_at"`
}

type NewSalesInvoice struct {
	CustomerId   int                    `json:"customer_id" binding:"required"`
	SalesOrderId *int                   `json:"sales_order_id"`
	InvoiceDate  time.Time              `json:"invoice_date" binding:"required"`
	Remark       string                 `json:"remark"`
	Items        []*NewSalesOrderItem   `json:"items" binding:"required"`
}

func (input *NewSalesInvoice) validate(ctx context.Context, businessId string) error {
	if err := utils.ValidateResourceId[Customer](ctx, businessId, input.CustomerId); err != nil {
		return errors.New("customer not found")
	}
	if input.SalesOrderId != nil && *input.SalesOrderId > 0 {
		order, err := utils.FetchModel[SalesOrder](ctx, businessId, *input.SalesOrderId)
		if err != nil {
			return errors.New("sales order not found")
		}
		if order.Status != SalesOrderStatusOpen {
			return errors.New("sales order is not open")
		}
	}
	if len(input.Items) == 0 {
		return errors.New("sales invoice requires items")
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

// Posted invoices are ledger-backed and immutable. Status flips and posting
// metadata go through column updates, which bypass this hook.
func (i *SalesInvoice) BeforeDelete(tx *gorm.DB) error {
	if i.Status == SalesInvoiceStatusPosted {
		return errors.New("posted invoices cannot be deleted")
	}
	return nil
}

func CreateSalesInvoice(ctx context.Context, input *NewSalesInvoice) (*SalesInvoice, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	total := decimal.Zero
	items := make([]SalesInvoiceItem, 0, len(input.Items))
	for _, item := range input.Items {
		amount := item.Qty.Mul(item.UnitPrice)
		total = total.Add(amount)
		items = append(items, SalesInvoiceItem{
			BusinessId: businessId,
			PartId:     item.PartId,
			Qty:        item.Qty,
			UnitPrice:  item.UnitPrice,
			Amount:     amount,
		})
	}

	invoice := SalesInvoice{
		BusinessId:   businessId,
		CustomerId:   input.CustomerId,
		SalesOrderId: input.SalesOrderId,
		InvoiceDate:  input.InvoiceDate,
		Status:       SalesInvoiceStatusDraft,
		Remark:       input.Remark,
		TotalAmount:  total,
		Items:        items,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoiceNo, err := NextNumber(tx, ctx, businessId, "sales_invoice", "INV")
		if err != nil {
			return err
		}
		invoice.InvoiceNo = invoiceNo
		return tx.Create(&invoice).Error
	})
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// PostSalesInvoice issues stock and queues the sales voucher atomically:
// OUT movements, status flip, linked order marked Invoiced, outbox record.
func PostSalesInvoice(ctx context.Context, id int) (*SalesInvoice, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	invoice, err := utils.FetchModel[SalesInvoice](ctx, businessId, id, "Items")
	if err != nil {
		return nil, err
	}
	if invoice.Status != SalesInvoiceStatusDraft {
		return nil, errors.New("only draft invoices can be posted")
	}

	now := time.Now().UTC()
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Cost is captured at posting time from each part's purchase
		// price, before the stock issue mutates the part rows.
		totalCost := decimal.Zero
		for _, item := range invoice.Items {
			var price decimal.Decimal
			err := tx.Model(&Part{}).
				Where("business_id = ? AND id = ?", businessId, item.PartId).
				Select("purchase_price").Scan(&price).Error
			if err != nil {
				return err
			}
			totalCost = totalCost.Add(item.Qty.Mul(price))

			_, err = ApplyStockMovement(tx, ctx, businessId, item.PartId,
				StockMovementOut, item.Qty, string(LedgerReferenceTypeSalesInvoice), invoice.ID, invoice.InvoiceNo, now)
			if err != nil {
				return err
			}
		}

		err := tx.Model(&SalesInvoice{}).
			Where("business_id = ? AND id = ?", businessId, invoice.ID).
			Updates(map[string]interface{}{
				"status":    SalesInvoiceStatusPosted,
				"posted_at": &now,
			}).Error
		if err != nil {
			return err
		}

		if invoice.SalesOrderId != nil && *invoice.SalesOrderId > 0 {
			err = tx.Model(&SalesOrder{}).
				Where("business_id = ? AND id = ?", businessId, *invoice.SalesOrderId).
				Update("status", SalesOrderStatusInvoiced).Error
			if err != nil {
				return err
			}
		}

		posting := InvoicePosting{
			ID:          invoice.ID,
			InvoiceNo:   invoice.InvoiceNo,
			CustomerId:  invoice.CustomerId,
			TotalAmount: invoice.TotalAmount,
			TotalCost:   totalCost,
			PostedAt:    now,
		}
		return PublishToAccounting(ctx, tx, businessId, now,
			invoice.ID, LedgerReferenceTypeSalesInvoice, posting, nil, PubSubMessageActionCreate)
	})
	if err != nil {
		return nil, err
	}
	invoice.Status = SalesInvoiceStatusPosted
	invoice.PostedAt = &now
	return invoice, nil
}

func DeleteSalesInvoice(ctx context.Context, id int) (*SalesInvoice, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	invoice, err := utils.FetchModel[SalesInvoice](ctx, businessId, id, "Items")
	if err != nil {
		return nil, err
	}
	if invoice.Status == SalesInvoiceStatusPosted {
		return nil, errors.New("posted invoices cannot be deleted")
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Select("Items").Delete(&invoice).Error; err != nil {
		return nil, err
	}
	return invoice, nil
}

func GetSalesInvoice(ctx context.Context, id int) (*SalesInvoice, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[SalesInvoice](ctx, businessId, id, "Items")
}

func GetSalesInvoices(ctx context.Context, status *string, customerId *int) ([]*SalesInvoice, error) {

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

	var invoices []*SalesInvoice
	if err := dbCtx.Order("invoice_date DESC, id DESC").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}
