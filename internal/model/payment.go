package model

import "time"

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// swagger:model Payment
type Payment struct {
	BaseModel
	UserID   uint          `gorm:"index;type:bigint unsigned;not null" json:"userId"`
	CourseID uint          `gorm:"index;type:bigint unsigned;not null" json:"courseId"`
	Amount   int           `gorm:"not null" json:"amount"`
	Status   PaymentStatus `gorm:"size:20;default:'pending'" json:"status"`
	PaidAt   *time.Time    `json:"paidAt,omitempty"`
}

func (Payment) TableName() string {
	return "payments"
}
