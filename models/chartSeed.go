package models

import (
	"context"

	"bitbucket.org/mmdatafocus/erp_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type seedAccount struct {
	Name       string
	SystemCode SystemDefaultCode
}

type seedSubgroup struct {
	Code     string
	Name     string
	Accounts []seedAccount
}

type seedMainGroup struct {
	Code         string
	Name         string
	Type         AccountType
	DisplayOrder int
	Subgroups    []seedSubgroup
}

// defaultChart is the chart of accounts every new business starts with.
// Accounts that automatic posting resolves by SystemDefaultCode all live
// here; a business with no seeded chart cannot post anything.
func defaultChart() []seedMainGroup {
	return []seedMainGroup{
		{
			Code: "1", Name: "Assets", Type: AccountTypeAsset, DisplayOrder: 1,
			Subgroups: []seedSubgroup{
				{Code: "11", Name: "Current Assets", Accounts: []seedAccount{
					{Name: "Accounts Receivable", SystemCode: SystemAccountAccountsReceivable},
					{Name: "Inventory", SystemCode: SystemAccountInventory},
				}},
			},
		},
		{
			Code: "2", Name: "Liabilities", Type: AccountTypeLiability, DisplayOrder: 2,
			Subgroups: []seedSubgroup{
				{Code: "21", Name: "Current Liabilities", Accounts: []seedAccount{
					{Name: "Accounts Payable", SystemCode: SystemAccountAccountsPayable},
				}},
			},
		},
		{
			Code: "3", Name: "Equity", Type: AccountTypeEquity, DisplayOrder: 3,
			Subgroups: []seedSubgroup{
				{Code: "31", Name: "Owner Equity", Accounts: []seedAccount{
					{Name: "Opening Balance Adjustments", SystemCode: SystemAccountOpeningBalanceAdj},
				}},
			},
		},
		{
			Code: "4", Name: "Revenue", Type: AccountTypeRevenue, DisplayOrder: 4,
			Subgroups: []seedSubgroup{
				{Code: "41", Name: "Sales", Accounts: []seedAccount{
					{Name: "Sales Revenue", SystemCode: SystemAccountSalesRevenue},
				}},
			},
		},
		{
			Code: "5", Name: "Cost of Sales", Type: AccountTypeCost, DisplayOrder: 5,
			Subgroups: []seedSubgroup{
				{Code: "51", Name: "Cost of Sales", Accounts: []seedAccount{
					{Name: "Cost of Goods Sold", SystemCode: SystemAccountCostOfGoodsSold},
				}},
			},
		},
		{
			Code: "6", Name: "Expenses", Type: AccountTypeExpense, DisplayOrder: 6,
			Subgroups: []seedSubgroup{
				{Code: "61", Name: "Operating Expenses", Accounts: []seedAccount{
					{Name: "General Expenses"},
				}},
			},
		},
	}
}

// SeedDefaultChart creates the default chart of accounts for a business.
// Idempotent: a business that already has main groups is left untouched.
// Must run inside the caller's transaction.
func SeedDefaultChart(tx *gorm.DB, ctx context.Context, businessId string) error {
	var count int64
	err := tx.WithContext(ctx).Model(&MainGroup{}).
		Where("business_id = ?", businessId).Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, g := range defaultChart() {
		group := MainGroup{
			BusinessId:   businessId,
			Code:         g.Code,
			Name:         g.Name,
			Type:         g.Type,
			DisplayOrder: g.DisplayOrder,
		}
		if err := tx.WithContext(ctx).Create(&group).Error; err != nil {
			return err
		}
		for _, s := range g.Subgroups {
			subgroup := Subgroup{
				BusinessId:  businessId,
				MainGroupId: group.ID,
				Code:        s.Code,
				Name:        s.Name,
			}
			if err := tx.WithContext(ctx).Create(&subgroup).Error; err != nil {
				return err
			}
			for _, a := range s.Accounts {
				code, err := NextAccountCode(tx, ctx, businessId, subgroup.ID)
				if err != nil {
					return err
				}
				isSystem := utils.NewFalse()
				if a.SystemCode != "" {
					isSystem = utils.NewTrue()
				}
				account := Account{
					BusinessId:        businessId,
					SubgroupId:        subgroup.ID,
					Code:              code,
					Name:              a.Name,
					OpeningBalance:    decimal.Zero,
					CurrentBalance:    decimal.Zero,
					IsActive:          utils.NewTrue(),
					IsSystemDefault:   isSystem,
					SystemDefaultCode: string(a.SystemCode),
				}
				if err := tx.WithContext(ctx).Create(&account).Error; err != nil {
					return err
				}
			}
		}
	}
	return nil
}
