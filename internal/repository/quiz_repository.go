package repository

import (
	"course_bot_backend/internal/model"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

// Create 卷子的顺序位取课程内现存最大顺序位 +1，决定 Restart 的开卷顺序
func (r *QuizRepository) Create(quiz *model.Quiz) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var next int
		if err := tx.Model(&model.Quiz{}).
			Where("course_id = ?", quiz.CourseID).
			Select("COALESCE(MAX(position), -1) + 1").
			Scan(&next).Error; err != nil {
			return err
		}
		quiz.Position = next
		return tx.Create(quiz).Error
	})
}

func (r *QuizRepository) FindByID(id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&quiz, id).Error
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *QuizRepository) FindByCourse(courseID uint) ([]model.Quiz, error) {
	var quizzes []model.Quiz
	err := r.DB.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("course_id = ?", courseID).
		Order("position ASC, id ASC").
		Find(&quizzes).Error
	return quizzes, err
}

func (r *QuizRepository) CountQuestionsByCourse(courseID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.QuizQuestion{}).
		Joins("JOIN quizzes q ON q.id = quiz_questions.quiz_id").
		Where("q.course_id = ? AND q.deleted_at IS NULL", courseID).
		Count(&count).Error
	return count, err
}

func (r *QuizRepository) SaveResult(result *model.QuizResult) error {
	return r.DB.Create(result).Error
}

func (r *QuizRepository) FindResult(userID, quizID uint, questionIndex int) (*model.QuizResult, error) {
	var result model.QuizResult
	err := r.DB.
		Where("user_id = ? AND quiz_id = ? AND question_index = ?", userID, quizID, questionIndex).
		First(&result).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *QuizRepository) ResultsByUserAndQuiz(userID, quizID uint) ([]model.QuizResult, error) {
	var results []model.QuizResult
	err := r.DB.
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Order("question_index ASC").
		Find(&results).Error
	return results, err
}

func (r *QuizRepository) ResultsByUserAndCourse(userID, courseID uint) ([]model.QuizResult, error) {
	var results []model.QuizResult
	err := r.DB.
		Joins("JOIN quizzes q ON q.id = quiz_results.quiz_id").
		Where("quiz_results.user_id = ? AND q.course_id = ? AND q.deleted_at IS NULL", userID, courseID).
		Order("quiz_results.quiz_id ASC, quiz_results.question_index ASC").
		Find(&results).Error
	return results, err
}

// AnsweredQuizIDs 该用户在课程内已有作答记录的测验集合
func (r *QuizRepository) AnsweredQuizIDs(userID, courseID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.QuizResult{}).
		Joins("JOIN quizzes q ON q.id = quiz_results.quiz_id").
		Where("quiz_results.user_id = ? AND q.course_id = ? AND q.deleted_at IS NULL", userID, courseID).
		Distinct("quiz_results.quiz_id").
		Pluck("quiz_results.quiz_id", &ids).Error
	return ids, err
}

// DeleteResultsByUserAndCourse 重开课程测验时清空该用户在课程内的全部作答
func (r *QuizRepository) DeleteResultsByUserAndCourse(userID, courseID uint) error {
	return r.DB.
		Where("user_id = ? AND quiz_id IN (?)",
			userID,
			r.DB.Model(&model.Quiz{}).Select("id").Where("course_id = ?", courseID),
		).
		Delete(&model.QuizResult{}).Error
}
