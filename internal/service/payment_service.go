package service

import (
	"errors"
	"time"

	"course_bot_backend/internal/model"
	"course_bot_backend/internal/util"

	"gorm.io/gorm"
)

// PaymentStore 支付记录的数据访问
type PaymentStore interface {
	Create(payment *model.Payment) error
	HasCompleted(userID, courseID uint) (bool, error)
	FindByUser(userID uint) ([]model.Payment, error)
}

// PaymentService 课程准入：免费课放行，付费课看已完成的支付记录。
// 支付渠道对接不在本服务内，确认动作由回调方触发。
type PaymentService struct {
	Payments PaymentStore
	Courses  CourseFinder
}

func NewPaymentService(payments PaymentStore, courses CourseFinder) *PaymentService {
	return &PaymentService{Payments: payments, Courses: courses}
}

func (s *PaymentService) CanAccessCourse(userID, courseID uint) (bool, error) {
	course, err := s.Courses.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, util.ErrCourseNotFound
		}
		return false, err
	}
	if course.IsFree {
		return true, nil
	}
	return s.Payments.HasCompleted(userID, courseID)
}

// RecordPurchase 支付渠道确认到账后登记一笔完成的支付
func (s *PaymentService) RecordPurchase(userID, courseID uint) (*model.Payment, error) {
	course, err := s.Courses.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	now := time.Now()
	payment := &model.Payment{
		UserID:   userID,
		CourseID: courseID,
		Amount:   course.Price,
		Status:   model.PaymentCompleted,
		PaidAt:   &now,
	}
	if err := s.Payments.Create(payment); err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *PaymentService) ListByUser(userID uint) ([]model.Payment, error) {
	return s.Payments.FindByUser(userID)
}
