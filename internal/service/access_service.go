package service

import (
	"errors"

	"course_bot_backend/internal/model"
	"course_bot_backend/internal/util"

	"gorm.io/gorm"
)

// UserFinder 学员存在性校验
type UserFinder interface {
	FindByID(id uint) (*model.User, error)
}

// LessonFinder 课时查找（带课程归属与顺序位）。
// CountLessonsBefore 给出课时在现存课时序列里的序位，删除造成的顺序位空洞不影响门禁。
type LessonFinder interface {
	FindLessonByID(id uint) (*model.Lesson, error)
	CountLessonsBefore(courseID uint, position int) (int64, error)
}

// CourseAccessGate 课程级准入（免费课，或已完成支付的付费课）
type CourseAccessGate interface {
	CanAccessCourse(userID, courseID uint) (bool, error)
}

// AccessService 顺序解锁的纯判定，无任何副作用。
// 序位 0 的课时看课程准入；序位 k（k>0）要求已完成课时数 >= k，
// 不允许靠测验成绩跳关。序位按现存课时序列算，不是存储的顺序位。
type AccessService struct {
	Users    UserFinder
	Lessons  LessonFinder
	Progress *ProgressService
	Gate     CourseAccessGate
}

func NewAccessService(users UserFinder, lessons LessonFinder, progress *ProgressService, gate CourseAccessGate) *AccessService {
	return &AccessService{
		Users:    users,
		Lessons:  lessons,
		Progress: progress,
		Gate:     gate,
	}
}

func (s *AccessService) CanAccessLesson(userID, lessonID uint) (bool, error) {
	if _, err := s.Users.FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, util.ErrUserNotFound
		}
		return false, err
	}

	lesson, err := s.Lessons.FindLessonByID(lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, util.ErrLessonNotFound
		}
		return false, err
	}

	rank, err := s.Lessons.CountLessonsBefore(lesson.CourseID, lesson.Position)
	if err != nil {
		return false, err
	}
	if rank == 0 {
		return s.Gate.CanAccessCourse(userID, lesson.CourseID)
	}

	progress, err := s.Progress.GetProgress(userID, lesson.CourseID)
	if err != nil {
		return false, err
	}
	return int64(progress.Completed) >= rank, nil
}

// CanAccessQuiz 绑定课时的测验继承该课时的门禁；综合测验看课程准入
func (s *AccessService) CanAccessQuiz(userID, courseID uint, lessonID *uint) (bool, error) {
	if lessonID == nil {
		return s.Gate.CanAccessCourse(userID, courseID)
	}
	return s.CanAccessLesson(userID, *lessonID)
}
