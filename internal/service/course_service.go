package service

import (
	"errors"

	"course_bot_backend/internal/model"
	"course_bot_backend/internal/repository"
	"course_bot_backend/internal/util"

	"gorm.io/gorm"
)

// CourseService 课程/课时/测验的内容管理与课时下发。
// 下发路径一律先过 AccessService 的顺序门禁。
type CourseService struct {
	Courses  *repository.CourseRepository
	Quizzes  *repository.QuizRepository
	Access   *AccessService
	Progress *ProgressService
}

func NewCourseService(courses *repository.CourseRepository, quizzes *repository.QuizRepository, access *AccessService, progress *ProgressService) *CourseService {
	return &CourseService{
		Courses:  courses,
		Quizzes:  quizzes,
		Access:   access,
		Progress: progress,
	}
}

type CourseCreateRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	IsFree      bool   `json:"isFree"`
	Price       int    `json:"price"`
	IsPublished bool   `json:"isPublished"`
}

type LessonCreateRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content"`
}

type QuizQuestionRequest struct {
	Text          string   `json:"text" binding:"required"`
	Options       []string `json:"options" binding:"required"`
	CorrectOption int      `json:"correctOption"`
	Explanation   string   `json:"explanation"`
}

type QuizCreateRequest struct {
	Title     string                `json:"title" binding:"required"`
	LessonID  *uint                 `json:"lessonId"`
	Questions []QuizQuestionRequest `json:"questions" binding:"required"`
}

func (s *CourseService) CreateCourse(req CourseCreateRequest) (*model.Course, error) {
	if req.Title == "" {
		return nil, util.ErrInvalidInput
	}
	course := &model.Course{
		Title:       req.Title,
		Description: req.Description,
		IsFree:      req.IsFree,
		Price:       req.Price,
		IsPublished: req.IsPublished,
	}
	if err := s.Courses.Create(course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) AddLesson(courseID uint, req LessonCreateRequest) (*model.Lesson, error) {
	if _, err := s.Courses.FindByID(courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	lesson := &model.Lesson{
		CourseID: courseID,
		Title:    req.Title,
		Content:  req.Content,
	}
	if err := s.Courses.AddLesson(lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

func (s *CourseService) AddQuiz(courseID uint, req QuizCreateRequest) (*model.Quiz, error) {
	if _, err := s.Courses.FindByID(courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	if len(req.Questions) == 0 {
		return nil, util.ErrInvalidInput
	}
	if req.LessonID != nil {
		lesson, err := s.Courses.FindLessonByID(*req.LessonID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, util.ErrLessonNotFound
			}
			return nil, err
		}
		if lesson.CourseID != courseID {
			return nil, util.ErrInvalidInput
		}
	}

	quiz := &model.Quiz{
		CourseID: courseID,
		LessonID: req.LessonID,
		Title:    req.Title,
	}
	for i, q := range req.Questions {
		if q.CorrectOption < 0 || q.CorrectOption >= len(q.Options) {
			return nil, util.ErrInvalidInput
		}
		question := model.QuizQuestion{
			Position:      i,
			Text:          q.Text,
			CorrectOption: q.CorrectOption,
			Explanation:   q.Explanation,
		}
		question.SetOptions(q.Options)
		quiz.Questions = append(quiz.Questions, question)
	}
	if err := s.Quizzes.Create(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *CourseService) ListCourses() ([]model.Course, error) {
	return s.Courses.FindAll()
}

func (s *CourseService) GetCourse(id uint) (*model.Course, error) {
	course, err := s.Courses.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	return course, nil
}

// GetLesson 课时下发：未解锁的课时只回 ErrLessonLocked，不带内容
func (s *CourseService) GetLesson(userID, lessonID uint) (*model.Lesson, error) {
	allowed, err := s.Access.CanAccessLesson(userID, lessonID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, util.ErrLessonLocked
	}
	return s.Courses.FindLessonByID(lessonID)
}

// CompleteLesson 学完打卡：先过门禁，再幂等记账
func (s *CourseService) CompleteLesson(userID, lessonID uint) error {
	allowed, err := s.Access.CanAccessLesson(userID, lessonID)
	if err != nil {
		return err
	}
	if !allowed {
		return util.ErrLessonLocked
	}
	return s.Progress.RecordCompletion(userID, lessonID)
}

// DeleteLesson 管理端删除课时（级联清进度账本）
func (s *CourseService) DeleteLesson(lessonID uint) error {
	if _, err := s.Courses.FindLessonByID(lessonID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrLessonNotFound
		}
		return err
	}
	return s.Courses.DeleteLesson(lessonID)
}
