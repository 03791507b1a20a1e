package workflow

import (
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/erp_backend/models"
	"github.com/shopspring/decimal"
)

func sumSides(entries []models.NewVoucherEntry) (decimal.Decimal, decimal.Decimal) {
	debit, credit := decimal.Zero, decimal.Zero
	for _, e := range entries {
		debit = debit.Add(e.Debit)
		credit = credit.Add(e.Credit)
	}
	return debit, credit
}

func TestOpeningBalanceEntries(t *testing.T) {
	amount := decimal.NewFromInt(1500)

	entries := openingBalanceEntries(10, 20, "Acme Ltd", amount, models.NormalBalanceDebit)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].AccountId != 10 || !entries[0].Debit.Equal(amount) {
		t.Errorf("receivable partner must take the debit side, got %+v", entries[0])
	}
	if entries[1].AccountId != 20 || !entries[1].Credit.Equal(amount) {
		t.Errorf("adjustments must take the credit side, got %+v", entries[1])
	}

	entries = openingBalanceEntries(30, 20, "Supply Co", amount, models.NormalBalanceCredit)
	if entries[1].AccountId != 30 || !entries[1].Credit.Equal(amount) {
		t.Errorf("payable partner must take the credit side, got %+v", entries[1])
	}
	debit, credit := sumSides(entries)
	if !debit.Equal(credit) {
		t.Errorf("entries unbalanced: debit %s, credit %s", debit, credit)
	}
}

func TestInvoiceVoucherEntriesWithCost(t *testing.T) {
	total := decimal.NewFromInt(1000)
	cost := decimal.NewFromInt(600)

	entries := invoiceVoucherEntries(1, 2, 3, 4, "INV-000001", total, cost)
	if len(entries) != 4 {
		t.Fatalf("got %d entries, want 4", len(entries))
	}
	if entries[2].AccountId != 3 || !entries[2].Debit.Equal(cost) {
		t.Errorf("cost of goods sold leg wrong: %+v", entries[2])
	}
	if entries[3].AccountId != 4 || !entries[3].Credit.Equal(cost) {
		t.Errorf("inventory relief leg wrong: %+v", entries[3])
	}
	debit, credit := sumSides(entries)
	if !debit.Equal(credit) {
		t.Errorf("entries unbalanced: debit %s, credit %s", debit, credit)
	}
}

func TestInvoiceVoucherEntriesZeroCost(t *testing.T) {
	total := decimal.NewFromInt(500)

	entries := invoiceVoucherEntries(1, 2, 0, 0, "INV-000002", total, decimal.Zero)
	if len(entries) != 2 {
		t.Fatalf("zero cost must omit the cost legs, got %d entries", len(entries))
	}
	debit, credit := sumSides(entries)
	if !debit.Equal(credit) {
		t.Errorf("entries unbalanced: debit %s, credit %s", debit, credit)
	}
}

func TestPublishBackoff(t *testing.T) {
	initial := 5 * time.Second
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 5 * time.Second},
		{2, 10 * time.Second},
		{3, 20 * time.Second},
		{8, maxPublishBackoff},
		{50, maxPublishBackoff},
	}
	for _, tc := range cases {
		if got := publishBackoff(initial, tc.attempt); got != tc.want {
			t.Errorf("publishBackoff(attempt=%d) = %s, want %s", tc.attempt, got, tc.want)
		}
	}
}
