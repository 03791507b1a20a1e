package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/erp_backend/config"
	"bitbucket.org/mmdatafocus/erp_backend/utils"
)

// Subgroup is the mid-level classification under a MainGroup.
type Subgroup struct {
	ID          int       `gorm:"primary_key" json:"id"`
	BusinessId  string    `gorm:"index;not null" json:"business_id"`
	MainGroupId int       `gorm:"index;not null" json:"main_group_id"`
	Code        string    `gorm:"index;size:20;not null" json:"code"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Accounts    []Account `gorm:"foreignKey:SubgroupId" json:"accounts,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSubgroup struct {
	MainGroupId int    `json:"main_group_id" binding:"required"`
	Code        string `json:"code" binding:"required"`
	Name        string `json:"name" binding:"required"`
}

func (input *NewSubgroup) validate(ctx context.Context, businessId string, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Subgroup](ctx, businessId, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateResourceId[MainGroup](ctx, businessId, input.MainGroupId); err != nil {
		return errors.New("main group not found")
	}
	if err := utils.ValidateUnique[Subgroup](ctx, businessId, "code", input.Code, id); err != nil {
		return err
	}
	return nil
}

func CreateSubgroup(ctx context.Context, input *NewSubgroup) (*Subgroup, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	subgroup := Subgroup{
		BusinessId:  businessId,
		MainGroupId: input.MainGroupId,
		Code:        input.Code,
		Name:        input.Name,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&subgroup).Error; err != nil {
		return nil, err
	}
	return &subgroup, nil
}

func UpdateSubgroup(ctx context.Context, id int, input *NewSubgroup) (*Subgroup, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	subgroup, err := utils.FetchModel[Subgroup](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&subgroup).Updates(map[string]interface{}{
		"MainGroupId": input.MainGroupId,
		"Code":        input.Code,
		"Name":        input.Name,
	}).Error
	if err != nil {
		return nil, err
	}
	return subgroup, nil
}

func GetSubgroup(ctx context.Context, id int) (*Subgroup, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[Subgroup](ctx, businessId, id, "Accounts")
}

func GetSubgroups(ctx context.Context, mainGroupId *int) ([]*Subgroup, error) {

	db := config.GetDB()
	var results []*Subgroup

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if mainGroupId != nil && *mainGroupId > 0 {
		dbCtx = dbCtx.Where("main_group_id = ?", *mainGroupId)
	}
	if err := dbCtx.Order("code").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func DeleteSubgroup(ctx context.Context, id int) (*Subgroup, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	result, err := utils.FetchModel[Subgroup](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	count, err := utils.ResourceCountWhere[Account](ctx, businessId, "subgroup_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("this subgroup has account(s)")
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}
