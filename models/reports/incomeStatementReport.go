package reports

import (
	"context"
	"errors"
	"sort"
	"time"

	"bitbucket.org/mmdatafocus/erp_backend/models"
	"bitbucket.org/mmdatafocus/erp_backend/utils"
	"github.com/shopspring/decimal"
)

// IncomeStatementRow is one account line of the income statement.
type IncomeStatementRow struct {
	Code   string          `json:"code"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Level  int             `json:"level"`
}

// IncomeStatement groups account rows by statement section.
type IncomeStatement struct {
	Revenue  []*IncomeStatementRow `json:"revenue"`
	Cost     []*IncomeStatementRow `json:"cost"`
	Expenses []*IncomeStatementRow `json:"expenses"`
}

// BuildIncomeStatement computes amount = totalCredit - totalDebit for every
// revenue, cost, and expense account, regardless of the account family. This
// intentionally differs from the trial balance's balance rule: revenue rows
// come out positive and cost/expense rows negative, and the UI renders them
// as-is.
func BuildIncomeStatement(chart []ChartAccountRow, journalLines []JournalActivity, voucherEntries []VoucherActivity, postedVoucherNumbers map[string]bool) (*IncomeStatement, error) {

	sums := sumActivity(journalLines, voucherEntries, postedVoucherNumbers)

	ordered := make([]ChartAccountRow, len(chart))
	copy(ordered, chart)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.DisplayOrder != b.DisplayOrder {
			return a.DisplayOrder < b.DisplayOrder
		}
		if a.SubgroupCode != b.SubgroupCode {
			return a.SubgroupCode < b.SubgroupCode
		}
		return a.AccountCode < b.AccountCode
	})

	statement := &IncomeStatement{
		Revenue:  []*IncomeStatementRow{},
		Cost:     []*IncomeStatementRow{},
		Expenses: []*IncomeStatementRow{},
	}

	for _, acct := range ordered {
		switch acct.AccountType {
		case models.AccountTypeRevenue, models.AccountTypeCost, models.AccountTypeExpense:
		default:
			continue
		}

		activity := sums[acct.AccountId]
		row := &IncomeStatementRow{
			Code:   acct.AccountCode,
			Name:   acct.AccountName,
			Amount: activity.credit.Sub(activity.debit),
			Level:  1,
		}

		switch acct.AccountType {
		case models.AccountTypeRevenue:
			statement.Revenue = append(statement.Revenue, row)
		case models.AccountTypeCost:
			statement.Cost = append(statement.Cost, row)
		case models.AccountTypeExpense:
			statement.Expenses = append(statement.Expenses, row)
		}
	}

	return statement, nil
}

func GetIncomeStatementReport(ctx context.Context, fromDate time.Time, toDate time.Time) (*IncomeStatement, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	chart, err := fetchChartAccounts(ctx, businessId)
	if err != nil {
		return nil, err
	}
	journalLines, err := fetchJournalActivity(ctx, businessId, fromDate, toDate)
	if err != nil {
		return nil, err
	}
	voucherEntries, err := fetchVoucherActivity(ctx, businessId, fromDate, toDate)
	if err != nil {
		return nil, err
	}
	postedVoucherNumbers, err := models.PostedVoucherNumbers(ctx, businessId, fromDate, toDate)
	if err != nil {
		return nil, err
	}

	return BuildIncomeStatement(chart, journalLines, voucherEntries, postedVoucherNumbers)
}
