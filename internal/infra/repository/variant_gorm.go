package repository

import (
	"context"
	"errors"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	"gorm.io/gorm"
)

type VariantGormRepository struct {
	db *gorm.DB
}

// DI
func NewVariantGormRepository(db *gorm.DB) *VariantGormRepository {
	return &VariantGormRepository{db: db}
}

func (r *VariantGormRepository) ListByProductID(ctx context.Context, productID string) ([]model.ProductVariant, error) {
	var variants []model.ProductVariant
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at asc").
		Find(&variants).Error; err != nil {
		return []model.ProductVariant{}, err
	}
	return variants, nil
}

func (r *VariantGormRepository) FindByID(ctx context.Context, id string) (model.ProductVariant, error) {
	var v model.ProductVariant
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.ProductVariant{}, repo.ErrNotFound
	}
	if err != nil {
		return model.ProductVariant{}, err
	}
	return v, nil
}

func (r *VariantGormRepository) Create(ctx context.Context, v model.ProductVariant) (model.ProductVariant, error) {
	if err := r.db.WithContext(ctx).Create(&v).Error; err != nil {
		return model.ProductVariant{}, err
	}
	return v, nil
}

func (r *VariantGormRepository) Update(ctx context.Context, v model.ProductVariant) error {
	res := r.db.WithContext(ctx).Model(&model.ProductVariant{}).Where("id = ?", v.ID).Updates(map[string]interface{}{
		"sku":               v.SKU,
		"price":             v.Price,
		"sale_price":        v.SalePrice,
		"stock":             v.Stock,
		"weight":            v.Weight,
		"combinations_json": v.CombinationsJSON,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *VariantGormRepository) DeleteByID(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.ProductVariant{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
