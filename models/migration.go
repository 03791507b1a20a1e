package models

import (
	"log"

	"bitbucket.org/mmdatafocus/erp_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&MainGroup{}, &Subgroup{}, &Account{},
		&JournalEntry{}, &JournalLine{},
		&Voucher{}, &VoucherEntry{},
		&Customer{}, &Supplier{},
		&Part{}, &StockMovement{},
		&PurchaseOrder{}, &PurchaseOrderItem{},
		&SalesInquiry{}, &SalesInquiryItem{},
		&SalesOrder{}, &SalesOrderItem{},
		&SalesInvoice{}, &SalesInvoiceItem{},
		&User{},
		&NumberSequence{},
		&PubSubMessageRecord{},
		&IdempotencyKey{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
