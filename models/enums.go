package models

import (
	"fmt"
	"strings"
)

// AccountType is the top-level chart-of-accounts classification.
// The set is closed: anything outside it is rejected wherever
// classification happens, never defaulted.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
	AccountTypeCost      AccountType = "cost"
)

// ParseAccountType canonicalizes a user-supplied type string.
// Input is case-insensitive; storage is always lowercase.
func ParseAccountType(s string) (AccountType, error) {
	switch AccountType(strings.ToLower(strings.TrimSpace(s))) {
	case AccountTypeAsset:
		return AccountTypeAsset, nil
	case AccountTypeLiability:
		return AccountTypeLiability, nil
	case AccountTypeEquity:
		return AccountTypeEquity, nil
	case AccountTypeRevenue:
		return AccountTypeRevenue, nil
	case AccountTypeExpense:
		return AccountTypeExpense, nil
	case AccountTypeCost:
		return AccountTypeCost, nil
	}
	return "", fmt.Errorf("unknown account type %q", s)
}

// NormalBalance is the side on which an account's balance naturally grows.
type NormalBalance string

const (
	NormalBalanceDebit  NormalBalance = "Debit"
	NormalBalanceCredit NormalBalance = "Credit"
)

// DocumentStatus applies to ledger documents. Only Posted documents are
// authoritative for balance computations.
type DocumentStatus string

const (
	DocumentStatusDraft  DocumentStatus = "Draft"
	DocumentStatusPosted DocumentStatus = "Posted"
)

type VoucherType string

const (
	VoucherTypeJournal        VoucherType = "Journal"
	VoucherTypeOpeningBalance VoucherType = "OpeningBalance"
	VoucherTypeSales          VoucherType = "Sales"
	VoucherTypePurchase       VoucherType = "Purchase"
)

type StockMovementType string

const (
	StockMovementIn     StockMovementType = "IN"
	StockMovementOut    StockMovementType = "OUT"
	StockMovementAdjust StockMovementType = "ADJUST"
)

type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft     PurchaseOrderStatus = "Draft"
	PurchaseOrderStatusOrdered   PurchaseOrderStatus = "Ordered"
	PurchaseOrderStatusReceived  PurchaseOrderStatus = "Received"
	PurchaseOrderStatusCancelled PurchaseOrderStatus = "Cancelled"
)

type SalesInquiryStatus string

const (
	SalesInquiryStatusOpen      SalesInquiryStatus = "Open"
	SalesInquiryStatusConverted SalesInquiryStatus = "Converted"
	SalesInquiryStatusClosed    SalesInquiryStatus = "Closed"
)

type SalesOrderStatus string

const (
	SalesOrderStatusOpen      SalesOrderStatus = "Open"
	SalesOrderStatusInvoiced  SalesOrderStatus = "Invoiced"
	SalesOrderStatusCancelled SalesOrderStatus = "Cancelled"
)

type SalesInvoiceStatus string

const (
	SalesInvoiceStatusDraft  SalesInvoiceStatus = "Draft"
	SalesInvoiceStatusPosted SalesInvoiceStatus = "Posted"
)

// LedgerReferenceType tags outbox messages and vouchers with the kind of
// source document that produced them.
type LedgerReferenceType string

const (
	LedgerReferenceTypeJournalEntry           LedgerReferenceType = "JN"
	LedgerReferenceTypeSalesInvoice           LedgerReferenceType = "IV"
	LedgerReferenceTypePurchaseOrder          LedgerReferenceType = "PO"
	LedgerReferenceTypeCustomerOpeningBalance LedgerReferenceType = "COB"
	LedgerReferenceTypeSupplierOpeningBalance LedgerReferenceType = "SOB"
)

type PubSubMessageAction string

const (
	PubSubMessageActionCreate PubSubMessageAction = "C"
	PubSubMessageActionUpdate PubSubMessageAction = "U"
	PubSubMessageActionDelete PubSubMessageAction = "D"
)

// Outbox publish status machine (dispatcher side).
const (
	OutboxPublishStatusPending    = "PENDING"
	OutboxPublishStatusProcessing = "PROCESSING"
	OutboxPublishStatusSent       = "SENT"
	OutboxPublishStatusFailed     = "FAILED"
	OutboxPublishStatusDead       = "DEAD"
)

type IdempotencyStatus string

const (
	IdempotencyStatusStarted   IdempotencyStatus = "STARTED"
	IdempotencyStatusSucceeded IdempotencyStatus = "SUCCEEDED"
	IdempotencyStatusFailed    IdempotencyStatus = "FAILED"
)

// SystemDefaultCode identifies accounts the system creates and posts to on
// its own. Auto-generated vouchers resolve their accounts through these.
type SystemDefaultCode string

const (
	SystemAccountAccountsReceivable SystemDefaultCode = "AccountsReceivable"
	SystemAccountAccountsPayable    SystemDefaultCode = "AccountsPayable"
	SystemAccountSalesRevenue       SystemDefaultCode = "SalesRevenue"
	SystemAccountInventory          SystemDefaultCode = "Inventory"
	SystemAccountCostOfGoodsSold    SystemDefaultCode = "CostOfGoodsSold"
	SystemAccountOpeningBalanceAdj  SystemDefaultCode = "OpeningBalanceAdjustments"
)
