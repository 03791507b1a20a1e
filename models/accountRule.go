package models

import (
	"errors"

	"github.com/shopspring/decimal"
)

// The account balance rule is the one place where debit/credit direction is
// decided. Posting and reporting must both go through these functions so the
// two can never disagree.

// NormalBalanceFor classifies an account type into its balance family.
// Unknown types are an error, never a fallback.
func NormalBalanceFor(accountType AccountType) (NormalBalance, error) {
	switch accountType {
	case AccountTypeAsset, AccountTypeExpense, AccountTypeCost:
		return NormalBalanceDebit, nil
	case AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue:
		return NormalBalanceCredit, nil
	}
	return "", errors.New("unknown account type: " + string(accountType))
}

// AccountBalance computes the signed running balance of an account.
// Debit-normal: opening + debit - credit. Credit-normal: opening + credit - debit.
func AccountBalance(opening, totalDebit, totalCredit decimal.Decimal, accountType AccountType) (decimal.Decimal, error) {
	normal, err := NormalBalanceFor(accountType)
	if err != nil {
		return decimal.Zero, err
	}
	if normal == NormalBalanceDebit {
		return opening.Add(totalDebit).Sub(totalCredit), nil
	}
	return opening.Add(totalCredit).Sub(totalDebit), nil
}

// BalanceDelta is the posting-side increment to an account's running balance
// for a single debit/credit pair. It is the same rule as AccountBalance with
// a zero opening balance.
func BalanceDelta(debit, credit decimal.Decimal, accountType AccountType) (decimal.Decimal, error) {
	return AccountBalance(decimal.Zero, debit, credit, accountType)
}

// TrialBalanceColumns places a signed balance into mutually exclusive
// debit/credit report columns. A positive balance lands on the account's
// normal side; a negative balance flips to the opposite side as |balance|.
func TrialBalanceColumns(balance decimal.Decimal, normal NormalBalance) (debitColumn, creditColumn decimal.Decimal) {
	switch {
	case balance.IsZero():
		return decimal.Zero, decimal.Zero
	case normal == NormalBalanceDebit && balance.IsPositive():
		return balance, decimal.Zero
	case normal == NormalBalanceDebit:
		return decimal.Zero, balance.Abs()
	case balance.IsPositive():
		return decimal.Zero, balance
	default:
		return balance.Abs(), decimal.Zero
	}
}

// DebitCredit is one ledger line's activity, shared by journal lines and
// voucher entries for document-level validation.
type DebitCredit struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

var ErrUnbalancedDocument = errors.New("document debits and credits do not balance")

// SumDebitCredit totals a document's lines.
func SumDebitCredit(lines []DebitCredit) (totalDebit, totalCredit decimal.Decimal) {
	totalDebit = decimal.Zero
	totalCredit = decimal.Zero
	for _, l := range lines {
		totalDebit = totalDebit.Add(l.Debit)
		totalCredit = totalCredit.Add(l.Credit)
	}
	return totalDebit, totalCredit
}

// ValidateBalancedLines is the hard precondition for creating any ledger
// document: sum(debit) must equal sum(credit) and each line must carry
// activity on exactly one side.
func ValidateBalancedLines(lines []DebitCredit) error {
	if len(lines) < 2 {
		return errors.New("a ledger document requires at least two lines")
	}
	for _, l := range lines {
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return errors.New("debit and credit amounts cannot be negative")
		}
		if l.Debit.IsZero() && l.Credit.IsZero() {
			return errors.New("each line requires a debit or credit amount")
		}
		if !l.Debit.IsZero() && !l.Credit.IsZero() {
			return errors.New("a line cannot carry both debit and credit amounts")
		}
	}
	totalDebit, totalCredit := SumDebitCredit(lines)
	if !totalDebit.Equal(totalCredit) {
		return ErrUnbalancedDocument
	}
	return nil
}
