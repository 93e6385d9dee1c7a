package postgres

import (
	"context"
	"errors"
	"fmt"

	"cardAdvisor/domain"

	"gorm.io/gorm"
)

type MerchantRepository struct {
	DB *gorm.DB
}

func NewMerchantRepository(db *gorm.DB) *MerchantRepository {
	return &MerchantRepository{
		DB: db,
	}
}

func (r *MerchantRepository) FindByID(ctx context.Context, id int64) (domain.Merchant, error) {
	if err := ctx.Err(); err != nil {
		return domain.Merchant{}, fmt.Errorf("context error: %w", err)
	}

	var merchant domain.Merchant
	err := r.DB.WithContext(ctx).First(&merchant, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Merchant{}, domain.ErrMerchantNotFound
		}
		return domain.Merchant{}, fmt.Errorf("failed to find merchant: %w", err)
	}

	return merchant, nil
}
