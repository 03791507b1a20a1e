package reports_test

import (
	"testing"

	"bitbucket.org/mmdatafocus/erp_backend/models"
	"bitbucket.org/mmdatafocus/erp_backend/models/reports"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testChart() []reports.ChartAccountRow {
	return []reports.ChartAccountRow{
		{
			MainGroupName: "Assets", DisplayOrder: 1, AccountType: models.AccountTypeAsset,
			SubgroupCode: "10", SubgroupName: "Current Assets",
			AccountId: 1, AccountCode: "1001", AccountName: "Cash", OpeningBalance: dec("1000"),
		},
		{
			MainGroupName: "Assets", DisplayOrder: 1, AccountType: models.AccountTypeAsset,
			SubgroupCode: "10", SubgroupName: "Current Assets",
			AccountId: 2, AccountCode: "1002", AccountName: "Accounts Receivable", OpeningBalance: dec("0"),
		},
		{
			MainGroupName: "Revenue", DisplayOrder: 4, AccountType: models.AccountTypeRevenue,
			SubgroupCode: "40", SubgroupName: "Operating Revenue",
			AccountId: 3, AccountCode: "4001", AccountName: "Sales Revenue", OpeningBalance: dec("0"),
		},
	}
}

func TestTrialBalanceWorkedExamples(t *testing.T) {
	journal := []reports.JournalActivity{
		{AccountId: 1, EntryNo: "JE-000001", Debit: dec("500"), Credit: dec("0")},
		{AccountId: 1, EntryNo: "JE-000001", Debit: dec("0"), Credit: dec("200")},
		{AccountId: 3, EntryNo: "JE-000002", Debit: dec("50"), Credit: dec("2000")},
	}

	rows, err := reports.BuildTrialBalance(testChart(), journal, nil, map[string]bool{})
	if err != nil {
		t.Fatalf("BuildTrialBalance: %v", err)
	}

	cash := findRow(t, rows, "1001")
	if !cash.Debit.Equal(dec("1300")) || !cash.Credit.IsZero() {
		t.Errorf("Cash row = {debit:%s credit:%s}, want {debit:1300 credit:0}", cash.Debit, cash.Credit)
	}

	sales := findRow(t, rows, "4001")
	if !sales.Debit.IsZero() || !sales.Credit.Equal(dec("1950")) {
		t.Errorf("Sales Revenue row = {debit:%s credit:%s}, want {debit:0 credit:1950}", sales.Debit, sales.Credit)
	}
}

func TestTrialBalanceDedupExcludesMirroredJournalEntries(t *testing.T) {
	journal := []reports.JournalActivity{
		// Mirrors voucher VCH-000001; must not be counted.
		{AccountId: 1, EntryNo: "VCH-000001", Debit: dec("999"), Credit: dec("0")},
		{AccountId: 1, EntryNo: "JE-000001", Debit: dec("500"), Credit: dec("0")},
	}
	vouchers := []reports.VoucherActivity{
		{AccountId: 1, Debit: dec("300"), Credit: dec("0")},
	}
	posted := map[string]bool{"VCH-000001": true}

	rows, err := reports.BuildTrialBalance(testChart(), journal, vouchers, posted)
	if err != nil {
		t.Fatalf("BuildTrialBalance: %v", err)
	}

	// opening 1000 + journal 500 + voucher 300; the mirrored 999 is excluded.
	cash := findRow(t, rows, "1001")
	if !cash.Debit.Equal(dec("1800")) {
		t.Errorf("Cash debit = %s, want 1800 (mirrored journal entry double-counted?)", cash.Debit)
	}
}

func TestTrialBalanceHeaderRollup(t *testing.T) {
	journal := []reports.JournalActivity{
		{AccountId: 1, EntryNo: "JE-000001", Debit: dec("500"), Credit: dec("0")},
		{AccountId: 2, EntryNo: "JE-000001", Debit: dec("250"), Credit: dec("0")},
		{AccountId: 3, EntryNo: "JE-000002", Debit: dec("0"), Credit: dec("750")},
	}

	rows, err := reports.BuildTrialBalance(testChart(), journal, nil, map[string]bool{})
	if err != nil {
		t.Fatalf("BuildTrialBalance: %v", err)
	}

	for _, header := range rows {
		if !header.IsSubgroup {
			continue
		}
		var debit, credit decimal.Decimal
		for _, acct := range accountRowsUnder(rows, header) {
			debit = debit.Add(acct.Debit)
			credit = credit.Add(acct.Credit)
		}
		if !header.Debit.Equal(debit) || !header.Credit.Equal(credit) {
			t.Errorf("header %q totals = {%s %s}, children sum = {%s %s}",
				header.Name, header.Debit, header.Credit, debit, credit)
		}
	}
}

func TestTrialBalanceOrderingAndHeaders(t *testing.T) {
	rows, err := reports.BuildTrialBalance(testChart(), nil, nil, map[string]bool{})
	if err != nil {
		t.Fatalf("BuildTrialBalance: %v", err)
	}

	wantNames := []string{
		"Assets", "Current Assets", "Cash", "Accounts Receivable",
		"Revenue", "Operating Revenue", "Sales Revenue",
	}
	if len(rows) != len(wantNames) {
		t.Fatalf("got %d rows, want %d", len(rows), len(wantNames))
	}
	for i, want := range wantNames {
		if rows[i].Name != want {
			t.Errorf("rows[%d].Name = %q, want %q", i, rows[i].Name, want)
		}
	}

	for _, row := range rows {
		if row.IsSubgroup && row.Level != 0 {
			t.Errorf("header %q has level %d, want 0", row.Name, row.Level)
		}
		if !row.IsSubgroup && row.Level != 1 {
			t.Errorf("account %q has level %d, want 1", row.Name, row.Level)
		}
		if !row.Debit.Mul(row.Credit).IsZero() {
			t.Errorf("row %q has both columns set: debit=%s credit=%s", row.Name, row.Debit, row.Credit)
		}
	}
}

func TestTrialBalanceRejectsUnknownAccountType(t *testing.T) {
	chart := []reports.ChartAccountRow{
		{
			MainGroupName: "Mystery", DisplayOrder: 1, AccountType: models.AccountType("contra"),
			SubgroupCode: "90", SubgroupName: "Unknown",
			AccountId: 1, AccountCode: "9001", AccountName: "Mystery Account",
		},
	}
	_, err := reports.BuildTrialBalance(chart, nil, nil, map[string]bool{})
	if err == nil {
		t.Fatal("expected error for unknown account type, got nil")
	}
}

func TestIncomeStatementAmountIsCreditMinusDebit(t *testing.T) {
	journal := []reports.JournalActivity{
		{AccountId: 3, EntryNo: "JE-000001", Debit: dec("50"), Credit: dec("2000")},
	}

	statement, err := reports.BuildIncomeStatement(testChart(), journal, nil, map[string]bool{})
	if err != nil {
		t.Fatalf("BuildIncomeStatement: %v", err)
	}

	if len(statement.Revenue) != 1 {
		t.Fatalf("got %d revenue rows, want 1", len(statement.Revenue))
	}
	if !statement.Revenue[0].Amount.Equal(dec("1950")) {
		t.Errorf("Sales Revenue amount = %s, want 1950", statement.Revenue[0].Amount)
	}
	if len(statement.Cost) != 0 || len(statement.Expenses) != 0 {
		t.Errorf("unexpected cost/expense rows: %d/%d", len(statement.Cost), len(statement.Expenses))
	}
}

func TestIncomeStatementExpenseComesOutNegative(t *testing.T) {
	chart := []reports.ChartAccountRow{
		{
			MainGroupName: "Expenses", DisplayOrder: 5, AccountType: models.AccountTypeExpense,
			SubgroupCode: "50", SubgroupName: "Operating Expenses",
			AccountId: 7, AccountCode: "5001", AccountName: "Rent",
		},
	}
	journal := []reports.JournalActivity{
		{AccountId: 7, EntryNo: "JE-000001", Debit: dec("400"), Credit: dec("0")},
	}

	statement, err := reports.BuildIncomeStatement(chart, journal, nil, map[string]bool{})
	if err != nil {
		t.Fatalf("BuildIncomeStatement: %v", err)
	}
	if len(statement.Expenses) != 1 {
		t.Fatalf("got %d expense rows, want 1", len(statement.Expenses))
	}
	if !statement.Expenses[0].Amount.Equal(dec("-400")) {
		t.Errorf("Rent amount = %s, want -400 (credit minus debit, no family flip)", statement.Expenses[0].Amount)
	}
}

func findRow(t *testing.T, rows []*reports.TrialBalanceRow, code string) *reports.TrialBalanceRow {
	t.Helper()
	for _, row := range rows {
		if !row.IsSubgroup && row.Code == code {
			return row
		}
	}
	t.Fatalf("no account row with code %q", code)
	return nil
}

// accountRowsUnder returns the account rows between a header and the next
// header of the same or shallower scope, following emission order.
func accountRowsUnder(rows []*reports.TrialBalanceRow, header *reports.TrialBalanceRow) []*reports.TrialBalanceRow {
	var result []*reports.TrialBalanceRow
	inScope := false
	mainGroup := header.Code == ""
	for _, row := range rows {
		if row == header {
			inScope = true
			continue
		}
		if !inScope {
			continue
		}
		if row.IsSubgroup {
			// A subgroup header under a main group stays in scope; any other
			// header closes it.
			if mainGroup && row.Code != "" {
				continue
			}
			break
		}
		result = append(result, row)
	}
	return result
}
