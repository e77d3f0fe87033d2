package repository

import (
	"testing"

	"course_bot_backend/internal/model"
	"course_bot_backend/pkg/database"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB 每个测试一份独立的 sqlite 内存库，建表走生产同一套迁移
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func seedCourse(t *testing.T, db *gorm.DB, lessonCount int) *model.Course {
	t.Helper()
	course := &model.Course{Title: "course", IsFree: true, IsPublished: true}
	require.NoError(t, db.Create(course).Error)
	for i := 0; i < lessonCount; i++ {
		lesson := &model.Lesson{CourseID: course.ID, Position: i, Title: "lesson"}
		require.NoError(t, db.Create(lesson).Error)
	}
	return course
}

func seedQuiz(t *testing.T, db *gorm.DB, courseID uint, position, questions int) *model.Quiz {
	t.Helper()
	quiz := &model.Quiz{CourseID: courseID, Position: position, Title: "quiz"}
	for i := 0; i < questions; i++ {
		q := model.QuizQuestion{Position: i, Text: "q", CorrectOption: 0}
		q.SetOptions([]string{"a", "b"})
		quiz.Questions = append(quiz.Questions, q)
	}
	require.NoError(t, db.Create(quiz).Error)
	return quiz
}
