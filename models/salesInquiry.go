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

type SalesInquiry struct {
	ID          int                `gorm:"primary_key" json:"id"`
	BusinessId  string             `gorm:"index;not null" json:"business_id"`
	InquiryNo   string             `gorm:"index;size:30;not null" json:"inquiry_no"`
	CustomerId  int                `gorm:"index;not null" json:"customer_id"`
	InquiryDate time.Time          `gorm:"index;not null" json:"inquiry_date"`
	Status      SalesInquiryStatus `gorm:"type:enum('Open','Converted','Closed');default:'Open';index;size:10;not null" json:"status"`
	Remark      string             `gorm:"type:text" json:"remark"`
	Items       []SalesInquiryItem `gorm:"foreignKey:SalesInquiryId" json:"items"`
	CreatedAt   time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

type SalesInquiryItem struct {
	ID             int             `gorm:"primary_key" json:"id"`
	BusinessId     string          `gorm:"index;not null" json:"business_id"`
	SalesInquiryId int             `gorm:"index;not null" json:"sales_inquiry_id"`
	PartId         int             `gorm:"index;not null" json:"part_id"`
	Qty            decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"qty"`
	QuotedPrice    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quoted_price"`
}

type NewSalesInquiry struct {
	CustomerId  int                    `json:"customer_id" binding:"required"`
	InquiryDate time.Time              `json:"inquiry_date" binding:"required"`
	Remark      string                 `json:"remark"`
	Items       []*NewSalesInquiryItem `json:"items" binding:"required"`
}

type NewSalesInquiryItem struct {
	PartId      int             `json:"part_id" binding:"required"`
	Qty         decimal.Decimal `json:"qty" binding:"required"`
	QuotedPrice decimal.Decimal `json:"quoted_price"`
}

func (input *NewSalesInquiry) validate(ctx context.Context, businessId string) error {
	if err := utils.ValidateResourceId[Customer](ctx, businessId, input.CustomerId); err != nil {
		return errors.New("customer not found")
	}
	if len(input.Items) == 0 {
		return errors.New("sales inquiry requires items")
	}
	partIds := make([]int, 0, len(input.Items))
	for _, item := range input.Items {
		if item.Qty.IsNegative() || item.Qty.IsZero() {
			return errors.New("item qty must be positive")
		}
		partIds = append(partIds, item.PartId)
	}
	if err := utils.ValidateResourcesId[Part](ctx, businessId, partIds); err != nil {
		return errors.New("part not found")
	}
	return nil
}

func CreateSalesInquiry(ctx context.Context, input *NewSalesInquiry) (*SalesInquiry, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	items := make([]SalesInquiryItem, 0, len(input.Items))
	for _, item := range input.Items {
		items = append(items, SalesInquiryItem{
			BusinessId:  businessId,
			PartId:      item.PartId,
			Qty:         item.Qty,
			QuotedPrice: item.QuotedPrice,
		})
	}

	inquiry := SalesInquiry{
		BusinessId:  businessId,
		CustomerId:  input.CustomerId,
		InquiryDate: input.InquiryDate,
		Status:      SalesInquiryStatusOpen,
		Remark:      input.Remark,
		Items:       items,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inquiryNo, err := NextNumber(tx, ctx, businessId, "sales_inquiry", "SI")
		if err != nil {
			return err
		}
		inquiry.InquiryNo = inquiryNo
		return tx.Create(&inquiry).Error
	})
	if err != nil {
		return nil, err
	}
	return &inquiry, nil
}

// ConvertSalesInquiry turns an open inquiry into a sales order carrying the
// quoted prices, marking the inquiry Converted in the same transaction.
func ConvertSalesInquiry(ctx context.Context, id int) (*SalesOrder, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	inquiry, err := utils.FetchModel[SalesInquiry](ctx, businessId, id, "Items")
	if err != nil {
		return nil, err
	}
	if inquiry.Status != SalesInquiryStatusOpen {
		return nil, errors.New("only open inquiries can be converted")
	}

	total := decimal.Zero
	items := make([]SalesOrderItem, 0, len(inquiry.Items))
	for _, item := range inquiry.Items {
		amount := item.Qty.Mul(item.QuotedPrice)
		total = total.Add(amount)
		items = append(items, SalesOrderItem{
			BusinessId: businessId,
			PartId:     item.PartId,
			Qty:        item.Qty,
			UnitPrice:  item.QuotedPrice,
			Amount:     amount,
		})
	}

	order := SalesOrder{
		BusinessId:  businessId,
		CustomerId:  inquiry.CustomerId,
		OrderDate:   time.Now().UTC(),
		Status:      SalesOrderStatusOpen,
		InquiryId:   &inquiry.ID,
		Remark:      inquiry.Remark,
		TotalAmount: total,
		Items:       items,
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orderNo, err := NextNumber(tx, ctx, businessId, "sales_order", "SO")
		if err != nil {
			return err
		}
		order.OrderNo = orderNo
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		return tx.Model(&SalesInquiry{}).
			Where("business_id = ? AND id = ?", businessId, inquiry.ID).
			Update("status", SalesInquiryStatusConverted).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func CloseSalesInquiry(ctx context.Context, id int) (*SalesInquiry, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	inquiry, err := utils.FetchModel[SalesInquiry](ctx, businessId, id, "Items")
	if err != nil {
		return nil, err
	}
	if inquiry.Status != SalesInquiryStatusOpen {
		return nil, errors.New("only open inquiries can be closed")
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&SalesInquiry{}).
		Where("business_id = ? AND id = ?", businessId, id).
		Update("status", SalesInquiryStatusClosed).Error
	if err != nil {
		return nil, err
	}
	inquiry.Status = SalesInquiryStatusClosed
	return inquiry, nil
}

func GetSalesInquiry(ctx context.Context, id int) (*SalesInquiry, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[SalesInquiry](ctx, businessId, id, "Items")
}

func GetSalesInquiries(ctx context.Context, status *string, customerId *int) ([]*SalesInquiry, error) {

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

	var inquiries []*SalesInquiry
	if err := dbCtx.Order("inquiry_date DESC, id DESC").Find(&inquiries).Error; err != nil {
		return nil, err
	}
	return inquiries, nil
}
