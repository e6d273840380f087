package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/quiz-builder/internal/repositories"
	"gorm.io/gorm"
)

// OrderPostgreSQL writes the order_index column of any ordered table
type OrderPostgreSQL struct {
	db    *gorm.DB
	model interface{}
}

func NewOrderPostgreSQL(db *gorm.DB, model interface{}) *OrderPostgreSQL {
	return &OrderPostgreSQL{db: db, model: model}
}

// UpdateOrder writes the position of one row
func (o *OrderPostgreSQL) UpdateOrder(ctx context.Context, order repositories.ItemOrder) error {
	result := o.db.WithContext(ctx).
		Model(o.model).
		Where("id = ?", order.ID).
		Update("order_index", order.Order)

	if result.Error != nil {
		return fmt.Errorf("failed to update order for item %d: %w", order.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("item %d: %w", order.ID, repositories.ErrNotFound)
	}
	return nil
}
