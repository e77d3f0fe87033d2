package repository

import (
	"course_bot_backend/internal/model"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) Create(course *model.Course) error {
	return r.DB.Create(course).Error
}

func (r *CourseRepository) FindByID(id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.
		Preload("Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&course, id).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepository) FindAll() ([]model.Course, error) {
	var courses []model.Course
	err := r.DB.Where("is_published = ?", true).Order("id ASC").Find(&courses).Error
	return courses, err
}

// AddLesson 追加课时：顺序位取现存最大顺序位 +1，删除留下的空洞不回填，
// 保证课程内顺序位不重复
func (r *CourseRepository) AddLesson(lesson *model.Lesson) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var next int
		if err := tx.Model(&model.Lesson{}).
			Where("course_id = ?", lesson.CourseID).
			Select("COALESCE(MAX(position), -1) + 1").
			Scan(&next).Error; err != nil {
			return err
		}
		lesson.Position = next
		return tx.Create(lesson).Error
	})
}

func (r *CourseRepository) FindLessonByID(id uint) (*model.Lesson, error) {
	var lesson model.Lesson
	if err := r.DB.First(&lesson, id).Error; err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *CourseRepository) LessonsByCourse(courseID uint) ([]model.Lesson, error) {
	var lessons []model.Lesson
	err := r.DB.Where("course_id = ?", courseID).Order("position ASC").Find(&lessons).Error
	return lessons, err
}

// CountLessonsBefore 课程内顺序位更靠前的现存课时数，即该课时的当前序位。
// 删除课时会让存储的顺序位出现空洞，门禁判定看序位而不是顺序位本身。
func (r *CourseRepository) CountLessonsBefore(courseID uint, position int) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Lesson{}).
		Where("course_id = ? AND position < ?", courseID, position).
		Count(&count).Error
	return count, err
}

func (r *CourseRepository) CountLessonsByCourse(courseID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Lesson{}).Where("course_id = ?", courseID).Count(&count).Error
	return count, err
}

// DeleteLesson 管理端删除课时，级联清掉进度账本（账本行仅此一种删除途径）
func (r *CourseRepository) DeleteLesson(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lesson_id = ?", id).Delete(&model.ProgressRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Lesson{}, id).Error
	})
}
