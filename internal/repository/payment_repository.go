package repository

import (
	"course_bot_backend/internal/model"

	"gorm.io/gorm"
)

type PaymentRepository struct {
	DB *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{DB: db}
}

func (r *PaymentRepository) Create(payment *model.Payment) error {
	return r.DB.Create(payment).Error
}

func (r *PaymentRepository) HasCompleted(userID, courseID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.Payment{}).
		Where("user_id = ? AND course_id = ? AND status = ?", userID, courseID, model.PaymentCompleted).
		Count(&count).Error
	return count > 0, err
}

func (r *PaymentRepository) FindByUser(userID uint) ([]model.Payment, error) {
	var payments []model.Payment
	err := r.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&payments).Error
	return payments, err
}
