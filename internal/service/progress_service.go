package service

import (
	"errors"
	"time"

	"course_bot_backend/internal/model"
	"course_bot_backend/internal/util"

	"gorm.io/gorm"
)

// ProgressStore 进度账本的数据访问
type ProgressStore interface {
	Find(userID, lessonID uint) (*model.ProgressRecord, error)
	Create(record *model.ProgressRecord) error
	CountByUserAndCourse(userID, courseID uint) (int64, error)
}

// LessonCatalog 课时归属与课时总数
type LessonCatalog interface {
	FindLessonByID(id uint) (*model.Lesson, error)
	CountLessonsByCourse(courseID uint) (int64, error)
}

// ProgressService 进度账本：每个 (学员, 课时) 只记一次完成，
// 课程完成度临时派生，不落缓存。
type ProgressService struct {
	Records ProgressStore
	Lessons LessonCatalog
}

func NewProgressService(records ProgressStore, lessons LessonCatalog) *ProgressService {
	return &ProgressService{Records: records, Lessons: lessons}
}

// RecordCompletion 幂等写入：已有记录时静默返回，即使并发重复提交
func (s *ProgressService) RecordCompletion(userID, lessonID uint) error {
	if _, err := s.Lessons.FindLessonByID(lessonID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrLessonNotFound
		}
		return err
	}

	if _, err := s.Records.Find(userID, lessonID); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	err := s.Records.Create(&model.ProgressRecord{
		UserID:      userID,
		LessonID:    lessonID,
		CompletedAt: time.Now(),
	})
	if err != nil {
		// 并发的重复提交会撞唯一索引，此时记录已在，视为成功
		if _, findErr := s.Records.Find(userID, lessonID); findErr == nil {
			return nil
		}
		return err
	}
	return nil
}

func (s *ProgressService) GetProgress(userID, courseID uint) (*model.ProgressSummary, error) {
	total, err := s.Lessons.CountLessonsByCourse(courseID)
	if err != nil {
		return nil, err
	}
	completed, err := s.Records.CountByUserAndCourse(userID, courseID)
	if err != nil {
		return nil, err
	}
	return &model.ProgressSummary{
		Completed: int(completed),
		Total:     int(total),
	}, nil
}
