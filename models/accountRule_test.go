package models_test

import (
	"testing"

	"bitbucket.org/mmdatafocus/erp_backend/models"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestNormalBalanceFor(t *testing.T) {
	debitNormal := []models.AccountType{models.AccountTypeAsset, models.AccountTypeExpense, models.AccountTypeCost}
	for _, at := range debitNormal {
		normal, err := models.NormalBalanceFor(at)
		if err != nil {
			t.Fatalf("NormalBalanceFor(%s): %v", at, err)
		}
		if normal != models.NormalBalanceDebit {
			t.Errorf("NormalBalanceFor(%s) = %s, want Debit", at, normal)
		}
	}

	creditNormal := []models.AccountType{models.AccountTypeLiability, models.AccountTypeEquity, models.AccountTypeRevenue}
	for _, at := range creditNormal {
		normal, err := models.NormalBalanceFor(at)
		if err != nil {
			t.Fatalf("NormalBalanceFor(%s): %v", at, err)
		}
		if normal != models.NormalBalanceCredit {
			t.Errorf("NormalBalanceFor(%s) = %s, want Credit", at, normal)
		}
	}
}

func TestNormalBalanceForRejectsUnknownType(t *testing.T) {
	if _, err := models.NormalBalanceFor("receivable"); err == nil {
		t.Fatal("expected error for unknown account type, got nil")
	}
	if _, err := models.NormalBalanceFor(""); err == nil {
		t.Fatal("expected error for empty account type, got nil")
	}
}

func TestParseAccountTypeCaseInsensitive(t *testing.T) {
	for _, input := range []string{"Asset", "ASSET", " asset "} {
		at, err := models.ParseAccountType(input)
		if err != nil {
			t.Fatalf("ParseAccountType(%q): %v", input, err)
		}
		if at != models.AccountTypeAsset {
			t.Errorf("ParseAccountType(%q) = %s, want asset", input, at)
		}
	}
	if _, err := models.ParseAccountType("capital"); err == nil {
		t.Fatal("expected error for unknown type string, got nil")
	}
}

func TestAccountBalanceDebitNormal(t *testing.T) {
	cases := []struct {
		accountType models.AccountType
		opening     string
		debit       string
		credit      string
		want        string
	}{
		{models.AccountTypeAsset, "1000", "500", "200", "1300"},
		{models.AccountTypeExpense, "0", "750.25", "50.25", "700"},
		{models.AccountTypeCost, "100", "0", "300", "-200"},
	}
	for _, tc := range cases {
		got, err := models.AccountBalance(dec(tc.opening), dec(tc.debit), dec(tc.credit), tc.accountType)
		if err != nil {
			t.Fatalf("AccountBalance(%s): %v", tc.accountType, err)
		}
		if !got.Equal(dec(tc.want)) {
			t.Errorf("AccountBalance(%s, %s, %s, %s) = %s, want %s",
				tc.opening, tc.debit, tc.credit, tc.accountType, got, tc.want)
		}
	}
}

func TestAccountBalanceCreditNormal(t *testing.T) {
	cases := []struct {
		accountType models.AccountType
		opening     string
		debit       string
		credit      string
		want        string
	}{
		{models.AccountTypeRevenue, "0", "50", "2000", "1950"},
		{models.AccountTypeLiability, "500", "300", "100", "300"},
		{models.AccountTypeEquity, "0", "900", "100", "-800"},
	}
	for _, tc := range cases {
		got, err := models.AccountBalance(dec(tc.opening), dec(tc.debit), dec(tc.credit), tc.accountType)
		if err != nil {
			t.Fatalf("AccountBalance(%s): %v", tc.accountType, err)
		}
		if !got.Equal(dec(tc.want)) {
			t.Errorf("AccountBalance(%s, %s, %s, %s) = %s, want %s",
				tc.opening, tc.debit, tc.credit, tc.accountType, got, tc.want)
		}
	}
}

func TestAccountBalanceRejectsUnknownType(t *testing.T) {
	if _, err := models.AccountBalance(dec("1"), dec("2"), dec("3"), "bank"); err == nil {
		t.Fatal("expected error for unknown account type, got nil")
	}
}

func TestTrialBalanceColumnsMutuallyExclusive(t *testing.T) {
	balances := []string{"1300", "-200", "0", "0.0001", "-99999.9999"}
	for _, b := range balances {
		for _, normal := range []models.NormalBalance{models.NormalBalanceDebit, models.NormalBalanceCredit} {
			debit, credit := models.TrialBalanceColumns(dec(b), normal)
			if !debit.Mul(credit).IsZero() {
				t.Errorf("TrialBalanceColumns(%s, %s) = (%s, %s): columns not mutually exclusive", b, normal, debit, credit)
			}
			if debit.IsNegative() || credit.IsNegative() {
				t.Errorf("TrialBalanceColumns(%s, %s) = (%s, %s): columns must be non-negative", b, normal, debit, credit)
			}
		}
	}
}

func TestTrialBalanceColumnsSignRoundTrip(t *testing.T) {
	balances := []string{"1300", "-200", "0", "42.5"}
	for _, b := range balances {
		debit, credit := models.TrialBalanceColumns(dec(b), models.NormalBalanceDebit)
		if !debit.Sub(credit).Equal(dec(b)) {
			t.Errorf("debit-normal round trip for %s: got %s", b, debit.Sub(credit))
		}

		debit, credit = models.TrialBalanceColumns(dec(b), models.NormalBalanceCredit)
		if !credit.Sub(debit).Equal(dec(b)) {
			t.Errorf("credit-normal round trip for %s: got %s", b, credit.Sub(debit))
		}
	}
}

func TestTrialBalanceColumnsPlacement(t *testing.T) {
	// Cash: asset, opening 1000, debit 500, credit 200 -> {debit: 1300, credit: 0}
	balance, err := models.AccountBalance(dec("1000"), dec("500"), dec("200"), models.AccountTypeAsset)
	if err != nil {
		t.Fatal(err)
	}
	debit, credit := models.TrialBalanceColumns(balance, models.NormalBalanceDebit)
	if !debit.Equal(dec("1300")) || !credit.IsZero() {
		t.Errorf("Cash row = {debit: %s, credit: %s}, want {debit: 1300, credit: 0}", debit, credit)
	}

	// Sales Revenue: revenue, opening 0, debit 50, credit 2000 -> {debit: 0, credit: 1950}
	balance, err = models.AccountBalance(dec("0"), dec("50"), dec("2000"), models.AccountTypeRevenue)
	if err != nil {
		t.Fatal(err)
	}
	debit, credit = models.TrialBalanceColumns(balance, models.NormalBalanceCredit)
	if !debit.IsZero() || !credit.Equal(dec("1950")) {
		t.Errorf("Sales Revenue row = {debit: %s, credit: %s}, want {debit: 0, credit: 1950}", debit, credit)
	}

	// Overdrawn asset flips to the credit column.
	debit, credit = models.TrialBalanceColumns(dec("-200"), models.NormalBalanceDebit)
	if !debit.IsZero() || !credit.Equal(dec("200")) {
		t.Errorf("overdrawn asset = {debit: %s, credit: %s}, want {debit: 0, credit: 200}", debit, credit)
	}
}

func TestBalanceDeltaMatchesAccountBalance(t *testing.T) {
	types := []models.AccountType{
		models.AccountTypeAsset, models.AccountTypeLiability, models.AccountTypeEquity,
		models.AccountTypeRevenue, models.AccountTypeExpense, models.AccountTypeCost,
	}
	for _, at := range types {
		delta, err := models.BalanceDelta(dec("120"), dec("45"), at)
		if err != nil {
			t.Fatalf("BalanceDelta(%s): %v", at, err)
		}
		want, err := models.AccountBalance(decimal.Zero, dec("120"), dec("45"), at)
		if err != nil {
			t.Fatal(err)
		}
		if !delta.Equal(want) {
			t.Errorf("BalanceDelta(%s) = %s, want %s", at, delta, want)
		}
	}
}

func TestValidateBalancedLines(t *testing.T) {
	balanced := []models.DebitCredit{
		{Debit: dec("100"), Credit: decimal.Zero},
		{Debit: decimal.Zero, Credit: dec("60")},
		{Debit: decimal.Zero, Credit: dec("40")},
	}
	if err := models.ValidateBalancedLines(balanced); err != nil {
		t.Fatalf("balanced document rejected: %v", err)
	}

	unbalanced := []models.DebitCredit{
		{Debit: dec("100"), Credit: decimal.Zero},
		{Debit: decimal.Zero, Credit: dec("99.99")},
	}
	if err := models.ValidateBalancedLines(unbalanced); err != models.ErrUnbalancedDocument {
		t.Fatalf("unbalanced document: got %v, want ErrUnbalancedDocument", err)
	}

	emptyLine := []models.DebitCredit{
		{Debit: dec("100"), Credit: decimal.Zero},
		{Debit: decimal.Zero, Credit: decimal.Zero},
	}
	if err := models.ValidateBalancedLines(emptyLine); err == nil {
		t.Fatal("expected error for line with neither debit nor credit")
	}

	bothSides := []models.DebitCredit{
		{Debit: dec("100"), Credit: dec("100")},
		{Debit: decimal.Zero, Credit: decimal.Zero},
	}
	if err := models.ValidateBalancedLines(bothSides); err == nil {
		t.Fatal("expected error for line with both debit and credit")
	}

	if err := models.ValidateBalancedLines([]models.DebitCredit{{Debit: dec("1")}}); err == nil {
		t.Fatal("expected error for single-line document")
	}
}
