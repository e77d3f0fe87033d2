package repository

import (
	"course_bot_backend/internal/model"

	"gorm.io/gorm"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) Find(userID, lessonID uint) (*model.ProgressRecord, error) {
	var record model.ProgressRecord
	err := r.DB.Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *ProgressRepository) Create(record *model.ProgressRecord) error {
	return r.DB.Create(record).Error
}

// CountByUserAndCourse 只数仍属于课程的课时，保证 completed <= total
func (r *ProgressRepository) CountByUserAndCourse(userID, courseID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.ProgressRecord{}).
		Joins("JOIN lessons l ON l.id = progress_records.lesson_id").
		Where("progress_records.user_id = ? AND l.course_id = ? AND l.deleted_at IS NULL", userID, courseID).
		Count(&count).Error
	return count, err
}
