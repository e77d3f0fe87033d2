package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"course_bot_backend/internal/model"
	"course_bot_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeQuizStore 同时充当 QuizStore 与 CompletionQuizStore
type fakeQuizStore struct {
	quizzes map[uint]*model.Quiz
	results []model.QuizResult
	// saveErr 用来模拟落库失败
	saveErr error
}

func newFakeQuizStore(quizzes ...*model.Quiz) *fakeQuizStore {
	s := &fakeQuizStore{quizzes: make(map[uint]*model.Quiz)}
	for _, q := range quizzes {
		s.quizzes[q.ID] = q
	}
	return s
}

func (s *fakeQuizStore) FindByID(id uint) (*model.Quiz, error) {
	q, ok := s.quizzes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return q, nil
}

func (s *fakeQuizStore) FindByCourse(courseID uint) ([]model.Quiz, error) {
	var out []model.Quiz
	for _, q := range s.quizzes {
		if q.CourseID == courseID {
			out = append(out, *q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (s *fakeQuizStore) CountQuestionsByCourse(courseID uint) (int64, error) {
	var n int64
	for _, q := range s.quizzes {
		if q.CourseID == courseID {
			n += int64(len(q.Questions))
		}
	}
	return n, nil
}

func (s *fakeQuizStore) SaveResult(result *model.QuizResult) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.results = append(s.results, *result)
	return nil
}

func (s *fakeQuizStore) FindResult(userID, quizID uint, questionIndex int) (*model.QuizResult, error) {
	for i := range s.results {
		r := s.results[i]
		if r.UserID == userID && r.QuizID == quizID && r.QuestionIndex == questionIndex {
			return &r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeQuizStore) ResultsByUserAndQuiz(userID, quizID uint) ([]model.QuizResult, error) {
	var out []model.QuizResult
	for _, r := range s.results {
		if r.UserID == userID && r.QuizID == quizID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeQuizStore) ResultsByUserAndCourse(userID, courseID uint) ([]model.QuizResult, error) {
	var out []model.QuizResult
	for _, r := range s.results {
		if r.UserID != userID {
			continue
		}
		if q, ok := s.quizzes[r.QuizID]; ok && q.CourseID == courseID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeQuizStore) AnsweredQuizIDs(userID, courseID uint) ([]uint, error) {
	seen := make(map[uint]bool)
	var out []uint
	for _, r := range s.results {
		if r.UserID != userID || seen[r.QuizID] {
			continue
		}
		if q, ok := s.quizzes[r.QuizID]; ok && q.CourseID == courseID {
			seen[r.QuizID] = true
			out = append(out, r.QuizID)
		}
	}
	return out, nil
}

func (s *fakeQuizStore) DeleteResultsByUserAndCourse(userID, courseID uint) error {
	kept := s.results[:0]
	for _, r := range s.results {
		q, ok := s.quizzes[r.QuizID]
		if r.UserID == userID && ok && q.CourseID == courseID {
			continue
		}
		kept = append(kept, r)
	}
	s.results = kept
	return nil
}

type fakeIssuer struct {
	issued map[[2]uint]*model.Certificate
	calls  int
}

func (f *fakeIssuer) IssueOrGet(ctx context.Context, userID, courseID uint) (*model.Certificate, error) {
	f.calls++
	if f.issued == nil {
		f.issued = make(map[[2]uint]*model.Certificate)
	}
	key := [2]uint{userID, courseID}
	if cert, ok := f.issued[key]; ok {
		return cert, nil
	}
	cert := &model.Certificate{UserID: userID, CourseID: courseID, Serial: "serial", IssuedAt: time.Now()}
	f.issued[key] = cert
	return cert, nil
}

// makeQuiz 每题三个选项，correct 给出各题的正确选项
func makeQuiz(id, courseID uint, position int, correct ...int) *model.Quiz {
	quiz := &model.Quiz{CourseID: courseID, Position: position, Title: "quiz"}
	quiz.ID = id
	for i, c := range correct {
		q := model.QuizQuestion{QuizID: id, Position: i, Text: "q", CorrectOption: c, Explanation: "because"}
		q.SetOptions([]string{"a", "b", "c"})
		quiz.Questions = append(quiz.Questions, q)
	}
	return quiz
}

// fakeQuizGate 默认放行；locked 时模拟未解锁的课程
type fakeQuizGate struct {
	locked bool
}

func (f *fakeQuizGate) CanAccessQuiz(userID, courseID uint, lessonID *uint) (bool, error) {
	return !f.locked, nil
}

func newQuizService(store *fakeQuizStore) (*QuizService, *fakeIssuer) {
	issuer := &fakeIssuer{}
	completion := NewCompletionService(store, issuer)
	return NewQuizService(store, NewMemorySessionStore(), &fakeQuizGate{}, completion), issuer
}

func TestQuizService_Start(t *testing.T) {
	store := newFakeQuizStore(makeQuiz(1, 10, 0, 0, 1))
	svc, _ := newQuizService(store)
	ctx := context.Background()

	view, err := svc.Start(ctx, 5, 1)
	require.NoError(t, err)
	assert.Equal(t, uint(1), view.QuizID)
	assert.Equal(t, 0, view.Index)
	assert.Equal(t, 2, view.Total)
	assert.Equal(t, []string{"a", "b", "c"}, view.Options)

	sess, err := svc.Sessions.Get(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, 0, sess.Question)
}

func TestQuizService_StartUnknownQuiz(t *testing.T) {
	svc, _ := newQuizService(newFakeQuizStore())
	_, err := svc.Start(context.Background(), 5, 99)
	assert.ErrorIs(t, err, util.ErrQuizNotFound)
}

func TestQuizService_StartEmptyQuiz(t *testing.T) {
	svc, _ := newQuizService(newFakeQuizStore(makeQuiz(1, 10, 0)))
	_, err := svc.Start(context.Background(), 5, 1)
	assert.ErrorIs(t, err, util.ErrInvalidInput)
}

func TestQuizService_StartOverwritesExistingSession(t *testing.T) {
	store := newFakeQuizStore(makeQuiz(1, 10, 0, 0, 1), makeQuiz(2, 10, 1, 2))
	svc, _ := newQuizService(store)
	ctx := context.Background()

	_, err := svc.Start(ctx, 5, 1)
	require.NoError(t, err)
	_, err = svc.Start(ctx, 5, 2)
	require.NoError(t, err)

	sess, err := svc.Sessions.Get(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, uint(2), sess.QuizID)
	assert.Equal(t, 0, sess.Question)
}

func TestQuizService_SubmitAdvancesSession(t *testing.T) {
	store := newFakeQuizStore(makeQuiz(1, 10, 0, 0, 1))
	svc, _ := newQuizService(store)
	ctx := context.Background()

	_, err := svc.Start(ctx, 5, 1)
	require.NoError(t, err)

	fb, err := svc.Submit(ctx, 5, 1, 0, 0)
	require.NoError(t, err)
	assert.True(t, fb.Correct)
	assert.Equal(t, 1, fb.NextIndex)
	assert.False(t, fb.Finished)
	assert.Equal(t, "because", fb.Explanation)

	sess, err := svc.Sessions.Get(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, sess.Question)
	assert.Len(t, store.results, 1)
	assert.True(t, store.results[0].IsCorrect)
}

func TestQuizService_SubmitWithoutSession(t *testing.T) {
	store := newFakeQuizStore(makeQuiz(1, 10, 0, 0))
	svc, _ := newQuizService(store)

	_, err := svc.Submit(context.Background(), 5, 1, 0, 0)
	assert.ErrorIs(t, err, util.ErrNoActiveSession)
	assert.Empty(t, store.results)
}

func TestQuizService_SubmitStaleIndexRejected(t *testing.T) {
	store := newFakeQuizStore(makeQuiz(1, 10, 0, 0, 1))
	svc, _ := newQuizService(store)
	ctx := context.Background()

	_, err := svc.Start(ctx, 5, 1)
	require.NoError(t, err)
	_, err = svc.Submit(ctx, 5, 1, 0, 0)
	require.NoError(t, err)

	// 第 0 题的按钮再按一次（不同选项）：陈旧事件，拒绝且不落库
	_, err = svc.Submit(ctx, 5, 1, 0, 1)
	assert.ErrorIs(t, err, util.ErrInvalidSessionState)

	sess, err := svc.Sessions.Get(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, sess.Question)
	assert.Len(t, store.results, 1)
}

func TestQuizService_SubmitWrongQuizRejected(t *testing.T) {
	store := newFakeQuizStore(makeQuiz(1, 10, 0, 0), makeQuiz(2, 10, 1, 0))
	svc, _ := newQuizService(store)
	ctx := context.Background()

	_, err := svc.Start(ctx, 5, 1)
	require.NoError(t, err)

	_, err = svc.Submit(ctx, 5, 2, 0, 0)
	assert.ErrorIs(t, err, util.ErrInvalidSessionState)
}

func TestQuizService_SubmitOptionOutOfRange(t *testing.T) {
	store := newFakeQuizStore(makeQuiz(1, 10, 0, 0))
	svc, _ := newQuizService(store)
	ctx := context.Background()

	_, err := svc.Start(ctx, 5, 1)
	require.NoError(t, err)

	_, err = svc.Submit(ctx, 5, 1, 0, 3)
	assert.ErrorIs(t, err, util.ErrInvalidInput)
	assert.Empty(t, store.results)
}

// 上一次提交在落库之后、推进会话之前断掉：同选项重试被当作幂等重放
func TestQuizService_SubmitRetryAfterPartialFailure(t *testing.T) {
	store := newFakeQuizStore(makeQuiz(1, 10, 0, 1, 1))
	svc, _ := newQuizService(store)
	ctx := context.Background()

	_, err := svc.Start(ctx, 5, 1)
	require.NoError(t, err)

	// 预置第 0 题的作答记录，会话仍指向第 0 题
	store.results = append(store.results, model.QuizResult{
		UserID: 5, QuizID: 1, QuestionIndex: 0, Selected: 1, IsCorrect: true,
	})

	fb, err := svc.Submit(ctx, 5, 1, 0, 1)
	require.NoError(t, err)
	assert.True(t, fb.Correct)
	assert.Equal(t, 1, fb.NextIndex)
	assert.Len(t, store.results, 1, "retry must not create a second row")

	// 异选项的重试按陈旧事件拒绝
	_, err = svc.Submit(ctx, 5, 1, 0, 0)
	assert.ErrorIs(t, err, util.ErrInvalidSessionState)
}

func TestQuizService_SubmitSaveFailureLeavesSessionUnchanged(t *testing.T) {
	store := newFakeQuizStore(makeQuiz(1, 10, 0, 0))
	svc, _ := newQuizService(store)
	ctx := context.Background()

	_, err := svc.Start(ctx, 5, 1)
	require.NoError(t, err)

	store.saveErr = errors.New("db down")
	_, err = svc.Submit(ctx, 5, 1, 0, 0)
	require.Error(t, err)

	sess, err := svc.Sessions.Get(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, sess.Question, "failed submit must not advance")

	// 故障恢复后原样重试成功
	store.saveErr = nil
	fb, err := svc.Submit(ctx, 5, 1, 0, 0)
	require.NoError(t, err)
	assert.True(t, fb.Finished)
}

func TestQuizService_FinishBelowThreshold(t *testing.T) {
	// 5 题答对 2：40%，不通过
	store := newFakeQuizStore(makeQuiz(1, 10, 0, 0, 0, 0, 0, 0))
	svc, issuer := newQuizService(store)
	ctx := context.Background()

	_, err := svc.Start(ctx, 5, 1)
	require.NoError(t, err)

	answers := []int{0, 0, 1, 1, 1}
	var fb *SubmitFeedback
	for i, a := range answers {
		fb, err = svc.Submit(ctx, 5, 1, i, a)
		require.NoError(t, err)
	}

	require.True(t, fb.Finished)
	assert.Equal(t, 2, fb.QuizScore)
	assert.Equal(t, 5, fb.QuizTotal)
	require.NotNil(t, fb.Course)
	assert.False(t, fb.Course.Passed)
	assert.True(t, fb.Course.CanRestart)
	assert.Equal(t, 40, fb.Course.ScorePercent)
	assert.Nil(t, fb.Course.Certificate)
	assert.Zero(t, issuer.calls)

	// 终态会话已移除
	sess, err := svc.Sessions.Get(ctx, 5)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestQuizService_FinishAtThresholdIssuesCertificate(t *testing.T) {
	// 5 题答对 3：60%，恰好达线
	store := newFakeQuizStore(makeQuiz(1, 10, 0, 0, 0, 0, 0, 0))
	svc, issuer := newQuizService(store)
	ctx := context.Background()

	_, err := svc.Start(ctx, 5, 1)
	require.NoError(t, err)

	answers := []int{0, 0, 0, 1, 1}
	var fb *SubmitFeedback
	for i, a := range answers {
		fb, err = svc.Submit(ctx, 5, 1, i, a)
		require.NoError(t, err)
	}

	require.True(t, fb.Finished)
	require.NotNil(t, fb.Course)
	assert.True(t, fb.Course.Passed)
	assert.Equal(t, 60, fb.Course.ScorePercent)
	require.NotNil(t, fb.Course.Certificate)
	assert.Equal(t, 1, issuer.calls)
}

func TestQuizService_FinishPointsToNextQuiz(t *testing.T) {
	store := newFakeQuizStore(makeQuiz(1, 10, 0, 0), makeQuiz(2, 10, 1, 0))
	svc, issuer := newQuizService(store)
	ctx := context.Background()

	_, err := svc.Start(ctx, 5, 1)
	require.NoError(t, err)

	fb, err := svc.Submit(ctx, 5, 1, 0, 0)
	require.NoError(t, err)
	require.True(t, fb.Finished)
	assert.Equal(t, uint(2), fb.NextQuizID)
	assert.Nil(t, fb.Course, "completion must wait for the whole course")
	assert.Zero(t, issuer.calls)
}

func TestQuizService_Next(t *testing.T) {
	store := newFakeQuizStore(makeQuiz(1, 10, 0, 0, 1))
	svc, _ := newQuizService(store)
	ctx := context.Background()

	_, err := svc.Start(ctx, 5, 1)
	require.NoError(t, err)
	_, err = svc.Submit(ctx, 5, 1, 0, 0)
	require.NoError(t, err)

	view, err := svc.Next(ctx, 5, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Index)

	// 过期题号被拦
	_, err = svc.Next(ctx, 5, 1, 0)
	assert.ErrorIs(t, err, util.ErrInvalidSessionState)
}

func TestQuizService_Restart(t *testing.T) {
	store := newFakeQuizStore(makeQuiz(1, 10, 0, 0), makeQuiz(2, 10, 1, 0))
	svc, _ := newQuizService(store)
	ctx := context.Background()

	_, err := svc.Start(ctx, 5, 1)
	require.NoError(t, err)
	_, err = svc.Submit(ctx, 5, 1, 0, 1)
	require.NoError(t, err)
	require.Len(t, store.results, 1)

	view, err := svc.Restart(ctx, 5, 10)
	require.NoError(t, err)
	assert.Equal(t, uint(1), view.QuizID, "restart begins at the first quiz")
	assert.Equal(t, 0, view.Index)
	assert.Empty(t, store.results, "restart clears previous answers")
}

// 重考和开卷走同一道课程准入：未解锁的课程拿不到会话，作答记录也不会被清
func TestQuizService_RestartRequiresCourseAccess(t *testing.T) {
	store := newFakeQuizStore(makeQuiz(1, 10, 0, 0))
	svc, _ := newQuizService(store)
	ctx := context.Background()

	store.results = append(store.results, model.QuizResult{UserID: 5, QuizID: 1, QuestionIndex: 0})

	svc.Gate = &fakeQuizGate{locked: true}
	_, err := svc.Restart(ctx, 5, 10)
	assert.ErrorIs(t, err, util.ErrLessonLocked)
	assert.Len(t, store.results, 1, "locked restart must not clear answers")

	sess, err := svc.Sessions.Get(ctx, 5)
	require.NoError(t, err)
	assert.Nil(t, sess, "locked restart must not open a session")
}

func TestQuizService_RestartCourseWithoutQuizzes(t *testing.T) {
	svc, _ := newQuizService(newFakeQuizStore())
	_, err := svc.Restart(context.Background(), 5, 10)
	assert.ErrorIs(t, err, util.ErrQuizNotFound)
}

func TestQuizService_SubmitQuizBulk(t *testing.T) {
	store := newFakeQuizStore(makeQuiz(1, 10, 0, 0, 1, 2))
	svc, issuer := newQuizService(store)
	ctx := context.Background()

	res, err := svc.SubmitQuiz(ctx, 5, 1, []int{0, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Score)
	assert.Equal(t, 3, res.Total)
	assert.Len(t, store.results, 3)

	// 课程测验已全部答完：整卷路径同样触发结业判定（2/3 = 67%，达线）
	require.NotNil(t, res.Course)
	assert.True(t, res.Course.Passed)
	assert.Equal(t, 67, res.Course.ScorePercent)
	assert.Equal(t, 1, issuer.calls)

	// 已作答过的卷子拒绝重复提交
	_, err = svc.SubmitQuiz(ctx, 5, 1, []int{0, 1, 2})
	assert.ErrorIs(t, err, util.ErrQuizAlreadyTaken)
}

// 课程还有卷子没答时，整卷提交只给出下一张，不做结业判定
func TestQuizService_SubmitQuizBulkPointsToNextQuiz(t *testing.T) {
	store := newFakeQuizStore(makeQuiz(1, 10, 0, 0), makeQuiz(2, 10, 1, 0))
	svc, issuer := newQuizService(store)

	res, err := svc.SubmitQuiz(context.Background(), 5, 1, []int{0})
	require.NoError(t, err)
	assert.Equal(t, uint(2), res.NextQuizID)
	assert.Nil(t, res.Course)
	assert.Zero(t, issuer.calls)
}

func TestQuizService_SubmitQuizValidation(t *testing.T) {
	store := newFakeQuizStore(makeQuiz(1, 10, 0, 0, 1))
	svc, _ := newQuizService(store)
	ctx := context.Background()

	_, err := svc.SubmitQuiz(ctx, 5, 1, []int{0})
	assert.ErrorIs(t, err, util.ErrInvalidInput)

	_, err = svc.SubmitQuiz(ctx, 5, 1, []int{0, 9})
	assert.ErrorIs(t, err, util.ErrInvalidInput)
	assert.Empty(t, store.results)
}

func TestQuizService_NextUnansweredQuiz(t *testing.T) {
	store := newFakeQuizStore(makeQuiz(1, 10, 0, 0), makeQuiz(2, 10, 1, 0))
	svc, _ := newQuizService(store)

	quiz, err := svc.NextUnansweredQuiz(5, 10)
	require.NoError(t, err)
	require.NotNil(t, quiz)
	assert.Equal(t, uint(1), quiz.ID)

	store.results = append(store.results, model.QuizResult{UserID: 5, QuizID: 1, QuestionIndex: 0})
	quiz, err = svc.NextUnansweredQuiz(5, 10)
	require.NoError(t, err)
	require.NotNil(t, quiz)
	assert.Equal(t, uint(2), quiz.ID)

	store.results = append(store.results, model.QuizResult{UserID: 5, QuizID: 2, QuestionIndex: 0})
	quiz, err = svc.NextUnansweredQuiz(5, 10)
	require.NoError(t, err)
	assert.Nil(t, quiz)
}

func TestQuizService_BindMessage(t *testing.T) {
	store := newFakeQuizStore(makeQuiz(1, 10, 0, 0))
	svc, _ := newQuizService(store)
	ctx := context.Background()

	_, err := svc.Start(ctx, 5, 1)
	require.NoError(t, err)

	require.NoError(t, svc.BindMessage(ctx, 5, 1, 4242))
	sess, err := svc.Sessions.Get(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(4242), sess.LastMessage)

	assert.ErrorIs(t, svc.BindMessage(ctx, 5, 99, 1), util.ErrInvalidSessionState)
}
