package reports

import (
	"context"
	"errors"
	"sort"
	"time"

	"bitbucket.org/mmdatafocus/erp_backend/config"
	"bitbucket.org/mmdatafocus/erp_backend/models"
	"bitbucket.org/mmdatafocus/erp_backend/utils"
	"github.com/shopspring/decimal"
)

// TrialBalanceRow is one emitted report row. Header rows (main group and
// subgroup) carry isSubgroup=true level=0; account rows level=1.
type TrialBalanceRow struct {
	Code       string          `json:"code"`
	Name       string          `json:"name"`
	Debit      decimal.Decimal `json:"debit"`
	Credit     decimal.Decimal `json:"credit"`
	IsSubgroup bool            `json:"isSubgroup"`
	Level      int             `json:"level"`
}

// ChartAccountRow is one account of the chart with its ancestry, the unit the
// aggregation walks over.
type ChartAccountRow struct {
	MainGroupName  string
	DisplayOrder   int
	AccountType    models.AccountType
	SubgroupCode   string
	SubgroupName   string
	AccountId      int
	AccountCode    string
	AccountName    string
	OpeningBalance decimal.Decimal
}

// JournalActivity is one journal line of a posted entry in range, tagged with
// its document number for voucher dedup.
type JournalActivity struct {
	AccountId int
	EntryNo   string
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

// VoucherActivity is one voucher entry of a posted voucher in range.
type VoucherActivity struct {
	AccountId int
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

type debitCreditSum struct {
	debit  decimal.Decimal
	credit decimal.Decimal
}

// sumActivity folds journal and voucher activity into per-account totals.
// Journal lines whose entry number matches a posted voucher number are
// dropped: the voucher is the source of truth for that transaction.
func sumActivity(journalLines []JournalActivity, voucherEntries []VoucherActivity, postedVoucherNumbers map[string]bool) map[int]debitCreditSum {
	sums := make(map[int]debitCreditSum)
	for _, line := range journalLines {
		if postedVoucherNumbers[line.EntryNo] {
			continue
		}
		s := sums[line.AccountId]
		s.debit = s.debit.Add(line.Debit)
		s.credit = s.credit.Add(line.Credit)
		sums[line.AccountId] = s
	}
	for _, entry := range voucherEntries {
		s := sums[entry.AccountId]
		s.debit = s.debit.Add(entry.Debit)
		s.credit = s.credit.Add(entry.Credit)
		sums[entry.AccountId] = s
	}
	return sums
}

func headerKey(code, name string) string {
	return code + "|" + name
}

// BuildTrialBalance walks the chart in report order, emits main group and
// subgroup headers on first encounter, computes each account's columns from
// the balance rule, then backfills header totals from their child accounts.
func BuildTrialBalance(chart []ChartAccountRow, journalLines []JournalActivity, voucherEntries []VoucherActivity, postedVoucherNumbers map[string]bool) ([]*TrialBalanceRow, error) {

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

	var rows []*TrialBalanceRow
	headerRows := make(map[string]*TrialBalanceRow)
	headerTotals := make(map[string]*debitCreditSum)
	seenMainGroup := make(map[string]bool)
	seenSubgroup := make(map[string]bool)

	var currentMainKey, currentSubKey string
	for _, acct := range ordered {
		mainKey := headerKey("", acct.MainGroupName)
		if !seenMainGroup[acct.MainGroupName] {
			seenMainGroup[acct.MainGroupName] = true
			header := &TrialBalanceRow{
				Name:       acct.MainGroupName,
				IsSubgroup: true,
				Level:      0,
			}
			rows = append(rows, header)
			headerRows[mainKey] = header
			headerTotals[mainKey] = &debitCreditSum{}
		}
		currentMainKey = mainKey

		subKey := headerKey(acct.SubgroupCode, acct.SubgroupName)
		if !seenSubgroup[subKey] {
			seenSubgroup[subKey] = true
			header := &TrialBalanceRow{
				Code:       acct.SubgroupCode,
				Name:       acct.SubgroupName,
				IsSubgroup: true,
				Level:      0,
			}
			rows = append(rows, header)
			headerRows[subKey] = header
			headerTotals[subKey] = &debitCreditSum{}
		}
		currentSubKey = subKey

		activity := sums[acct.AccountId]
		balance, err := models.AccountBalance(acct.OpeningBalance, activity.debit, activity.credit, acct.AccountType)
		if err != nil {
			return nil, err
		}
		normal, err := models.NormalBalanceFor(acct.AccountType)
		if err != nil {
			return nil, err
		}
		debitCol, creditCol := models.TrialBalanceColumns(balance, normal)

		rows = append(rows, &TrialBalanceRow{
			Code:   acct.AccountCode,
			Name:   acct.AccountName,
			Debit:  debitCol,
			Credit: creditCol,
			Level:  1,
		})

		headerTotals[currentMainKey].debit = headerTotals[currentMainKey].debit.Add(debitCol)
		headerTotals[currentMainKey].credit = headerTotals[currentMainKey].credit.Add(creditCol)
		headerTotals[currentSubKey].debit = headerTotals[currentSubKey].debit.Add(debitCol)
		headerTotals[currentSubKey].credit = headerTotals[currentSubKey].credit.Add(creditCol)
	}

	// Second pass: copy accumulated totals into the already-emitted headers,
	// matched on code+name.
	for key, header := range headerRows {
		if total, ok := headerTotals[key]; ok {
			header.Debit = total.debit
			header.Credit = total.credit
		}
	}

	return rows, nil
}

// GetTrialBalanceReport loads the chart and the posted ledger activity for
// the date range, then runs the aggregation.
func GetTrialBalanceReport(ctx context.Context, fromDate time.Time, toDate time.Time) ([]*TrialBalanceRow, error) {

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

	return BuildTrialBalance(chart, journalLines, voucherEntries, postedVoucherNumbers)
}

func fetchChartAccounts(ctx context.Context, businessId string) ([]ChartAccountRow, error) {
	db := config.GetDB()

	rows, err := db.WithContext(ctx).Raw(`
		SELECT
			mg.name AS main_group_name,
			mg.display_order AS display_order,
			mg.type AS account_type,
			sg.code AS subgroup_code,
			sg.name AS subgroup_name,
			a.id AS account_id,
			a.code AS account_code,
			a.name AS account_name,
			a.opening_balance AS opening_balance
		FROM
			accounts AS a
		JOIN
			subgroups AS sg ON a.subgroup_id = sg.id
		JOIN
			main_groups AS mg ON sg.main_group_id = mg.id
		WHERE
			a.business_id = ?
		ORDER BY
			mg.display_order ASC, sg.code ASC, a.code ASC
	`, businessId).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chart []ChartAccountRow
	for rows.Next() {
		var row ChartAccountRow
		var accountType string
		if err := rows.Scan(
			&row.MainGroupName,
			&row.DisplayOrder,
			&accountType,
			&row.SubgroupCode,
			&row.SubgroupName,
			&row.AccountId,
			&row.AccountCode,
			&row.AccountName,
			&row.OpeningBalance,
		); err != nil {
			return nil, err
		}
		parsed, err := models.ParseAccountType(accountType)
		if err != nil {
			return nil, err
		}
		row.AccountType = parsed
		chart = append(chart, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return chart, nil
}

func fetchJournalActivity(ctx context.Context, businessId string, fromDate, toDate time.Time) ([]JournalActivity, error) {
	db := config.GetDB()

	rows, err := db.WithContext(ctx).Raw(`
		SELECT
			jl.account_id AS account_id,
			je.entry_no AS entry_no,
			jl.debit AS debit,
			jl.credit AS credit
		FROM
			journal_lines AS jl
		JOIN
			journal_entries AS je ON jl.journal_entry_id = je.id
		WHERE
			je.business_id = ?
			AND je.status = 'Posted'
			AND je.entry_date BETWEEN ? AND ?
	`, businessId, fromDate, toDate).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []JournalActivity
	for rows.Next() {
		var line JournalActivity
		if err := rows.Scan(&line.AccountId, &line.EntryNo, &line.Debit, &line.Credit); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func fetchVoucherActivity(ctx context.Context, businessId string, fromDate, toDate time.Time) ([]VoucherActivity, error) {
	db := config.GetDB()

	rows, err := db.WithContext(ctx).Raw(`
		SELECT
			ve.account_id AS account_id,
			ve.debit AS debit,
			ve.credit AS credit
		FROM
			voucher_entries AS ve
		JOIN
			vouchers AS v ON ve.voucher_id = v.id
		WHERE
			v.business_id = ?
			AND v.status = 'Posted'
			AND v.voucher_date BETWEEN ? AND ?
	`, businessId, fromDate, toDate).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []VoucherActivity
	for rows.Next() {
		var entry VoucherActivity
		if err := rows.Scan(&entry.AccountId, &entry.Debit, &entry.Credit); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
