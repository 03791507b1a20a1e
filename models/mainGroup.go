package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/erp_backend/config"
	"bitbucket.org/mmdatafocus/erp_backend/utils"
)

// MainGroup is the top-level chart-of-accounts classification node.
// Reference data: created during chart setup, effectively immutable afterwards.
type MainGroup struct {
	ID           int         `gorm:"primary_key" json:"id"`
	BusinessId   string      `gorm:"index;not null" json:"business_id"`
	Code         string      `gorm:"index;size:20;not null" json:"code"`
	Name         string      `gorm:"size:100;not null" json:"name"`
	Type         AccountType `gorm:"type:enum('asset','liability','equity','revenue','expense','cost');index;size:10;not null" json:"type"`
	DisplayOrder int         `gorm:"index;not null" json:"display_order"`
	Subgroups    []Subgroup  `gorm:"foreignKey:MainGroupId" json:"subgroups,omitempty"`
	CreatedAt    time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewMainGroup struct {
	Code         string `json:"code" binding:"required"`
	Name         string `json:"name" binding:"required"`
	Type         string `json:"type" binding:"required"`
	DisplayOrder int    `json:"display_order"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewMainGroup) validate(ctx context.Context, businessId string, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[MainGroup](ctx, businessId, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateUnique[MainGroup](ctx, businessId, "code", input.Code, id); err != nil {
		return err
	}
	if err := utils.ValidateUnique[MainGroup](ctx, businessId, "name", input.Name, id); err != nil {
		return err
	}
	if _, err := ParseAccountType(input.Type); err != nil {
		return err
	}
	return nil
}

func CreateMainGroup(ctx context.Context, input *NewMainGroup) (*MainGroup, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}
	accountType, err := ParseAccountType(input.Type)
	if err != nil {
		return nil, err
	}

	mainGroup := MainGroup{
		BusinessId:   businessId,
		Code:         input.Code,
		Name:         input.Name,
		Type:         accountType,
		DisplayOrder: input.DisplayOrder,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&mainGroup).Error; err != nil {
		return nil, err
	}
	return &mainGroup, nil
}

func UpdateMainGroup(ctx context.Context, id int, input *NewMainGroup) (*MainGroup, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}
	accountType, err := ParseAccountType(input.Type)
	if err != nil {
		return nil, err
	}

	mainGroup, err := utils.FetchModel[MainGroup](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&mainGroup).Updates(map[string]interface{}{
		"Code":         input.Code,
		"Name":         input.Name,
		"Type":         accountType,
		"DisplayOrder": input.DisplayOrder,
	}).Error
	if err != nil {
		return nil, err
	}
	return mainGroup, nil
}

func GetMainGroup(ctx context.Context, id int) (*MainGroup, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[MainGroup](ctx, businessId, id, "Subgroups")
}

func GetMainGroups(ctx context.Context) ([]*MainGroup, error) {

	db := config.GetDB()
	var results []*MainGroup

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	err := db.WithContext(ctx).Where("business_id = ?", businessId).
		Preload("Subgroups").
		Order("display_order, code").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func DeleteMainGroup(ctx context.Context, id int) (*MainGroup, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	result, err := utils.FetchModel[MainGroup](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	count, err := utils.ResourceCountWhere[Subgroup](ctx, businessId, "main_group_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("this main group has subgroup(s)")
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}
