package models

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/erp_backend/config"
	"bitbucket.org/mmdatafocus/erp_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Account is a leaf ledger account under a Subgroup.
//
// CurrentBalance is a memoized projection of the ledger, never an
// independent source of truth. It is written in exactly one place (the
// posting workflow) and always through the account balance rule, so a
// report replaying raw ledger lines must arrive at the same number.
type Account struct {
	ID                int             `gorm:"primary_key" json:"id"`
	BusinessId        string          `gorm:"index;not null" json:"business_id"`
	SubgroupId        int             `gorm:"index;not null" json:"subgroup_id"`
	Code              string          `gorm:"index;size:20;not null" json:"code"`
	Name              string          `gorm:"index;size:100;not null" json:"name"`
	Description       string          `gorm:"type:text" json:"description"`
	OpeningBalance    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"opening_balance"`
	CurrentBalance    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"current_balance"`
	IsActive          *bool           `gorm:"not null;default:true" json:"is_active"`
	IsSystemDefault   *bool           `gorm:"not null;default:false" json:"is_system_default"`
	SystemDefaultCode string          `gorm:"index;size:40" json:"system_default_code"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewAccount struct {
	SubgroupId     int             `json:"subgroup_id" binding:"required"`
	Code           string          `json:"code"`
	Name           string          `json:"name" binding:"required"`
	Description    string          `json:"description"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewAccount) validate(ctx context.Context, businessId string, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Account](ctx, businessId, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateResourceId[Subgroup](ctx, businessId, input.SubgroupId); err != nil {
		return errors.New("subgroup not found")
	}
	if err := utils.ValidateUnique[Account](ctx, businessId, "name", input.Name, id); err != nil {
		return err
	}
	if input.Code != "" {
		if err := utils.ValidateUnique[Account](ctx, businessId, "code", input.Code, id); err != nil {
			return err
		}
	}
	return nil
}

func CreateAccount(ctx context.Context, input *NewAccount) (*Account, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	db := config.GetDB()
	var account Account
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		code := input.Code
		if code == "" {
			var err error
			code, err = NextAccountCode(tx, ctx, businessId, input.SubgroupId)
			if err != nil {
				return err
			}
		}
		account = Account{
			BusinessId:      businessId,
			SubgroupId:      input.SubgroupId,
			Code:            code,
			Name:            input.Name,
			Description:     input.Description,
			OpeningBalance:  input.OpeningBalance,
			CurrentBalance:  decimal.Zero,
			IsActive:        utils.NewTrue(),
			IsSystemDefault: utils.NewFalse(),
		}
		return tx.Create(&account).Error
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// NextAccountCode allocates the next sequential code within the subgroup's
// code prefix, e.g. subgroup "12" with accounts 1201, 1202 yields 1203.
// Must run inside the caller's transaction so concurrent creates serialize.
func NextAccountCode(tx *gorm.DB, ctx context.Context, businessId string, subgroupId int) (string, error) {
	var subgroup Subgroup
	if err := tx.WithContext(ctx).Where("business_id = ?", businessId).First(&subgroup, subgroupId).Error; err != nil {
		return "", errors.New("subgroup not found")
	}

	// Codes are variable length ("1299" then "12100"), so plain string
	// ordering would pick the wrong row past the 99th account.
	var lastCode string
	err := tx.WithContext(ctx).Model(&Account{}).
		Where("business_id = ? AND subgroup_id = ?", businessId, subgroupId).
		Order("LENGTH(code) DESC, code DESC").Limit(1).
		Clauses(lockForUpdate()).
		Select("code").Scan(&lastCode).Error
	if err != nil {
		return "", err
	}
	return nextCodeInSequence(subgroup.Code, lastCode)
}

func nextCodeInSequence(subgroupCode, lastCode string) (string, error) {
	if lastCode == "" {
		return subgroupCode + "01", nil
	}
	seq := strings.TrimPrefix(lastCode, subgroupCode)
	n, err := strconv.Atoi(seq)
	if err != nil {
		return "", fmt.Errorf("cannot derive next code from %q", lastCode)
	}
	return fmt.Sprintf("%s%02d", subgroupCode, n+1), nil
}

func UpdateAccount(ctx context.Context, id int, input *NewAccount) (*Account, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	account, err := utils.FetchModel[Account](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"Name":        input.Name,
		"Description": input.Description,
	}
	if !*account.IsSystemDefault {
		updates["SubgroupId"] = input.SubgroupId
		if input.Code != "" {
			updates["Code"] = input.Code
		}
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&account).Updates(updates).Error; err != nil {
		return nil, err
	}
	return account, nil
}

func MarkAccountActive(ctx context.Context, id int, isActive bool) (*Account, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	account, err := utils.FetchModel[Account](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&account).Updates(Account{IsActive: &isActive}).Error
	if err != nil {
		return nil, err
	}
	return account, nil
}

func DeleteAccount(ctx context.Context, id int) (*Account, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	result, err := utils.FetchModel[Account](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	if result.IsSystemDefault != nil && *result.IsSystemDefault {
		return nil, errors.New("cannot delete system-default account")
	}

	count, err := utils.ResourceCountWhere[JournalLine](ctx, "", "account_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("this account has journal transactions")
	}
	count, err = utils.ResourceCountWhere[VoucherEntry](ctx, "", "account_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("this account has voucher transactions")
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func GetAccount(ctx context.Context, id int) (*Account, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[Account](ctx, businessId, id)
}

func GetAccounts(ctx context.Context, name *string, code *string) ([]*Account, error) {

	db := config.GetDB()
	var results []*Account

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	if code != nil && len(*code) > 0 {
		dbCtx = dbCtx.Where("code LIKE ?", "%"+*code+"%")
	}
	if err := dbCtx.Order("code").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// AccountTypeFor resolves an account's classification by walking up to its
// MainGroup. Used by posting paths that only hold an account id.
func AccountTypeFor(tx *gorm.DB, ctx context.Context, businessId string, accountId int) (AccountType, error) {
	var typeStr string
	err := tx.WithContext(ctx).
		Table("accounts").
		Select("main_groups.type").
		Joins("JOIN subgroups ON subgroups.id = accounts.subgroup_id").
		Joins("JOIN main_groups ON main_groups.id = subgroups.main_group_id").
		Where("accounts.business_id = ? AND accounts.id = ?", businessId, accountId).
		Scan(&typeStr).Error
	if err != nil {
		return "", err
	}
	if typeStr == "" {
		return "", errors.New("account classification not found")
	}
	return ParseAccountType(typeStr)
}

// GetSystemAccounts returns SystemDefaultCode -> account id, redis-cached.
func GetSystemAccounts(businessId string) (map[SystemDefaultCode]int, error) {
	var accounts []*Account
	var sysAccounts map[SystemDefaultCode]int

	exists, err := config.GetRedisObject("SystemAccounts:"+businessId, &sysAccounts)
	if err != nil {
		return nil, err
	}
	if !exists {
		db := config.GetDB()
		if err := db.Select("id", "system_default_code").
			Where("business_id = ?", businessId).
			Where("is_system_default = ?", true).
			Find(&accounts).Error; err != nil {
			return nil, err
		}
		sysAccounts = make(map[SystemDefaultCode]int)
		for _, acc := range accounts {
			if acc.SystemDefaultCode == "" {
				continue
			}
			sysAccounts[SystemDefaultCode(acc.SystemDefaultCode)] = acc.ID
		}
		// An empty map means the chart was never seeded. Caching it would
		// pin the miss until the key is flushed by hand.
		if len(sysAccounts) > 0 {
			if err := config.SetRedisObject("SystemAccounts:"+businessId, &sysAccounts, 0); err != nil {
				return nil, err
			}
		}
	}
	return sysAccounts, nil
}

// EnsurePartnerAccount returns the ledger account dedicated to a partner,
// creating it on first use next to the given system account (same subgroup,
// next code in sequence). Auto-created partner accounts are flagged
// system-default so they cannot be deleted from the chart.
func EnsurePartnerAccount(tx *gorm.DB, ctx context.Context, businessId, name string, systemCode SystemDefaultCode) (*Account, error) {
	var existing Account
	err := tx.WithContext(ctx).
		Where("business_id = ? AND name = ?", businessId, name).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var sibling Account
	err = tx.WithContext(ctx).
		Where("business_id = ? AND system_default_code = ?", businessId, string(systemCode)).
		First(&sibling).Error
	if err != nil {
		return nil, fmt.Errorf("system account %s not found", systemCode)
	}

	code, err := NextAccountCode(tx, ctx, businessId, sibling.SubgroupId)
	if err != nil {
		return nil, err
	}
	account := Account{
		BusinessId:      businessId,
		SubgroupId:      sibling.SubgroupId,
		Code:            code,
		Name:            name,
		OpeningBalance:  decimal.Zero,
		CurrentBalance:  decimal.Zero,
		IsActive:        utils.NewTrue(),
		IsSystemDefault: utils.NewTrue(),
	}
	if err := tx.Create(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}
