package service

import (
	"context"
	"testing"

	"course_bot_backend/internal/model"
	"course_bot_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScorePercent(t *testing.T) {
	assert.Equal(t, 0, ScorePercent(0, 0))
	assert.Equal(t, 0, ScorePercent(0, 5))
	assert.Equal(t, 40, ScorePercent(2, 5))
	assert.Equal(t, 60, ScorePercent(3, 5))
	assert.Equal(t, 67, ScorePercent(2, 3))
	assert.Equal(t, 33, ScorePercent(1, 3))
	assert.Equal(t, 100, ScorePercent(5, 5))
}

func TestPassed(t *testing.T) {
	assert.False(t, Passed(2, 5))
	assert.True(t, Passed(3, 5))
	assert.True(t, Passed(2, 3)) // 67%，四舍五入后过线
	assert.False(t, Passed(0, 0))
}

func answerAll(store *fakeQuizStore, userID uint, correctCount int) {
	answered := 0
	for _, quiz := range store.quizzes {
		for i, q := range quiz.Questions {
			selected := q.CorrectOption
			if answered >= correctCount {
				selected = q.CorrectOption + 1
			}
			store.results = append(store.results, model.QuizResult{
				UserID:        userID,
				QuizID:        quiz.ID,
				QuestionIndex: i,
				Selected:      selected,
				IsCorrect:     answered < correctCount,
			})
			answered++
		}
	}
}

func TestCompletion_NoQuizzes(t *testing.T) {
	svc := NewCompletionService(newFakeQuizStore(), &fakeIssuer{})
	_, err := svc.OnCourseQuizzesExhausted(context.Background(), 5, 10)
	assert.ErrorIs(t, err, util.ErrQuizNotFound)
}

func TestCompletion_QuizzesRemaining(t *testing.T) {
	store := newFakeQuizStore(makeQuiz(1, 10, 0, 0), makeQuiz(2, 10, 1, 0))
	store.results = append(store.results, model.QuizResult{UserID: 5, QuizID: 1, QuestionIndex: 0, IsCorrect: true})
	svc := NewCompletionService(store, &fakeIssuer{})

	_, err := svc.OnCourseQuizzesExhausted(context.Background(), 5, 10)
	assert.ErrorIs(t, err, util.ErrQuizzesRemaining)
}

func TestCompletion_BelowThreshold(t *testing.T) {
	store := newFakeQuizStore(makeQuiz(1, 10, 0, 0, 0, 0, 0, 0))
	answerAll(store, 5, 2)
	issuer := &fakeIssuer{}
	svc := NewCompletionService(store, issuer)

	outcome, err := svc.OnCourseQuizzesExhausted(context.Background(), 5, 10)
	require.NoError(t, err)
	assert.False(t, outcome.Passed)
	assert.True(t, outcome.CanRestart)
	assert.Equal(t, 2, outcome.Correct)
	assert.Equal(t, 5, outcome.TotalQuestions)
	assert.Equal(t, 40, outcome.ScorePercent)
	assert.Nil(t, outcome.Certificate)
	assert.Zero(t, issuer.calls, "no certificate below the threshold")
}

func TestCompletion_PassIssuesCertificateOnce(t *testing.T) {
	store := newFakeQuizStore(makeQuiz(1, 10, 0, 0, 0, 0, 0, 0))
	answerAll(store, 5, 4)
	issuer := &fakeIssuer{}
	svc := NewCompletionService(store, issuer)
	ctx := context.Background()

	outcome, err := svc.OnCourseQuizzesExhausted(ctx, 5, 10)
	require.NoError(t, err)
	assert.True(t, outcome.Passed)
	assert.False(t, outcome.CanRestart)
	assert.Equal(t, 80, outcome.ScorePercent)
	require.NotNil(t, outcome.Certificate)

	// 重复触发返回同一张证书
	again, err := svc.OnCourseQuizzesExhausted(ctx, 5, 10)
	require.NoError(t, err)
	assert.Same(t, outcome.Certificate, again.Certificate)
}

func TestCompletion_SpansMultipleQuizzes(t *testing.T) {
	// 两张卷子共 4 题，答对 3 题 = 75%
	store := newFakeQuizStore(makeQuiz(1, 10, 0, 0, 0), makeQuiz(2, 10, 1, 0, 0))
	answerAll(store, 5, 3)
	issuer := &fakeIssuer{}
	svc := NewCompletionService(store, issuer)

	outcome, err := svc.OnCourseQuizzesExhausted(context.Background(), 5, 10)
	require.NoError(t, err)
	assert.True(t, outcome.Passed)
	assert.Equal(t, 3, outcome.Correct)
	assert.Equal(t, 4, outcome.TotalQuestions)
}
