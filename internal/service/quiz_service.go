package service

import (
	"context"
	"errors"
	"time"

	"course_bot_backend/internal/model"
	"course_bot_backend/internal/util"
	"course_bot_backend/pkg/logger"
	"course_bot_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QuizStore 测验内容与作答记录的数据访问
type QuizStore interface {
	FindByID(id uint) (*model.Quiz, error)
	FindByCourse(courseID uint) ([]model.Quiz, error)
	CountQuestionsByCourse(courseID uint) (int64, error)
	SaveResult(result *model.QuizResult) error
	FindResult(userID, quizID uint, questionIndex int) (*model.QuizResult, error)
	ResultsByUserAndQuiz(userID, quizID uint) ([]model.QuizResult, error)
	AnsweredQuizIDs(userID, courseID uint) ([]uint, error)
	DeleteResultsByUserAndCourse(userID, courseID uint) error
}

// QuestionView 渲染一道题所需的内容（不含答案）
type QuestionView struct {
	QuizID    uint     `json:"quizId"`
	QuizTitle string   `json:"quizTitle"`
	Index     int      `json:"index"`
	Total     int      `json:"total"`
	Text      string   `json:"text"`
	Options   []string `json:"options"`
}

// SubmitFeedback 一次作答的反馈；Finished 时附带整卷小结
type SubmitFeedback struct {
	Correct     bool   `json:"correct"`
	Selected    int    `json:"selected"`
	Explanation string `json:"explanation,omitempty"`
	NextIndex   int    `json:"nextIndex"`

	Finished  bool `json:"finished"`
	QuizScore int  `json:"quizScore,omitempty"`
	QuizTotal int  `json:"quizTotal,omitempty"`
	// NextQuizID 本卷答完但课程还有未作答的测验时，给出下一张卷子
	NextQuizID uint `json:"nextQuizId,omitempty"`
	// Course 课程测验全部答完时的结业判定
	Course *CompletionOutcome `json:"course,omitempty"`
}

// BulkResult 整卷一次性提交的结果
type BulkResult struct {
	Score        int      `json:"score"`
	Total        int      `json:"total"`
	Explanations []string `json:"explanations"`
	// NextQuizID 课程内还有未作答的卷子时，给出下一张
	NextQuizID uint `json:"nextQuizId,omitempty"`
	// Course 课程测验全部答完时的结业判定
	Course *CompletionOutcome `json:"course,omitempty"`
}

// QuizGate 开卷类操作的课程准入判定；AccessService 满足该接口
type QuizGate interface {
	CanAccessQuiz(userID, courseID uint, lessonID *uint) (bool, error)
}

// QuizService 答题会话状态机。陈旧/重放的按钮回调靠
// (quizID, questionIndex) 比对拦截，而不是靠锁或去重队列。
type QuizService struct {
	Quizzes    QuizStore
	Sessions   SessionStore
	Gate       QuizGate
	Completion *CompletionService
}

func NewQuizService(quizzes QuizStore, sessions SessionStore, gate QuizGate, completion *CompletionService) *QuizService {
	return &QuizService{
		Quizzes:    quizzes,
		Sessions:   sessions,
		Gate:       gate,
		Completion: completion,
	}
}

func (s *QuizService) loadQuiz(quizID uint) (*model.Quiz, error) {
	quiz, err := s.Quizzes.FindByID(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	return quiz, nil
}

// GetQuiz 取卷子元信息（归属课程/课时），供入口做门禁判定
func (s *QuizService) GetQuiz(quizID uint) (*model.Quiz, error) {
	return s.loadQuiz(quizID)
}

func questionView(quiz *model.Quiz, index int) *QuestionView {
	q := quiz.Questions[index]
	return &QuestionView{
		QuizID:    quiz.ID,
		QuizTitle: quiz.Title,
		Index:     index,
		Total:     len(quiz.Questions),
		Text:      q.Text,
		Options:   q.OptionList(),
	}
}

// Start 开卷。学员已有的会话（哪怕是别的测验）直接覆盖丢弃。
func (s *QuizService) Start(ctx context.Context, userID, quizID uint) (*QuestionView, error) {
	quiz, err := s.loadQuiz(quizID)
	if err != nil {
		return nil, err
	}
	if len(quiz.Questions) == 0 {
		return nil, util.ErrInvalidInput
	}

	sess := &QuizSession{
		QuizID:   quizID,
		Question: 0,
		Answers:  []int{},
	}
	if err := s.Sessions.Put(ctx, userID, sess); err != nil {
		return nil, err
	}

	logger.Log.Info("quiz session started",
		zap.Uint("userId", userID),
		zap.Uint("quizId", quizID),
	)
	return questionView(quiz, 0), nil
}

// Submit 提交一题。只有 (quizID, questionIndex) 与活动会话完全一致才接受；
// 落库失败时会话不动，学员可以原样重试。瞬断后带着相同选项的重试被当作
// 幂等重放放行，带着不同选项的重试按陈旧事件拒绝。
func (s *QuizService) Submit(ctx context.Context, userID, quizID uint, questionIndex, option int) (*SubmitFeedback, error) {
	if questionIndex < 0 || option < 0 {
		return nil, util.ErrInvalidInput
	}

	quiz, err := s.loadQuiz(quizID)
	if err != nil {
		return nil, err
	}

	var fb *SubmitFeedback
	err = s.Sessions.Update(ctx, userID, func(sess *QuizSession) (*QuizSession, error) {
		if sess == nil {
			return nil, util.ErrNoActiveSession
		}
		if sess.QuizID != quizID || sess.Question != questionIndex {
			return nil, util.ErrInvalidSessionState
		}
		if questionIndex >= len(quiz.Questions) {
			return nil, util.ErrInvalidSessionState
		}

		question := quiz.Questions[questionIndex]
		if option >= len(question.OptionList()) {
			return nil, util.ErrInvalidInput
		}
		correct := option == question.CorrectOption

		// 上一次提交可能在落库之后、推进会话之前断掉，此处先查重：
		// 同选项视为重试放行（不再落第二行），异选项拒绝
		prev, findErr := s.Quizzes.FindResult(userID, quizID, questionIndex)
		switch {
		case findErr == nil:
			if prev.Selected != option {
				return nil, util.ErrInvalidSessionState
			}
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			saveErr := s.Quizzes.SaveResult(&model.QuizResult{
				UserID:        userID,
				QuizID:        quizID,
				QuestionIndex: questionIndex,
				Selected:      option,
				IsCorrect:     correct,
				CreatedAt:     time.Now(),
			})
			if saveErr != nil {
				return nil, saveErr
			}
		default:
			return nil, findErr
		}

		sess.Answers = append(sess.Answers, option)
		sess.Question = questionIndex + 1

		fb = &SubmitFeedback{
			Correct:     correct,
			Selected:    option,
			Explanation: question.Explanation,
			NextIndex:   sess.Question,
		}

		if sess.Question >= len(quiz.Questions) {
			fb.Finished = true
			return nil, nil // 终态，移除会话
		}
		return sess, nil
	})
	if err != nil {
		if errors.Is(err, util.ErrInvalidSessionState) || errors.Is(err, util.ErrNoActiveSession) {
			monitoring.StaleCallbacks.Inc()
			logger.Log.Debug("stale quiz callback ignored",
				zap.Uint("userId", userID),
				zap.Uint("quizId", quizID),
				zap.Int("questionIndex", questionIndex),
			)
		}
		return nil, err
	}

	if fb.Correct {
		monitoring.QuizSubmissions.WithLabelValues("correct").Inc()
	} else {
		monitoring.QuizSubmissions.WithLabelValues("incorrect").Inc()
	}

	if fb.Finished {
		if err := s.finishQuiz(ctx, userID, quiz, fb); err != nil {
			// 作答已全部落库，会话已关；结业判定可以从课程小结接口重试
			return nil, err
		}
	}
	return fb, nil
}

// Next 翻到当前待答题，不记录任何作答（反馈与下一题分开渲染时用）
func (s *QuizService) Next(ctx context.Context, userID, quizID uint, questionIndex int) (*QuestionView, error) {
	if questionIndex < 0 {
		return nil, util.ErrInvalidInput
	}

	quiz, err := s.loadQuiz(quizID)
	if err != nil {
		return nil, err
	}

	var view *QuestionView
	err = s.Sessions.Update(ctx, userID, func(sess *QuizSession) (*QuizSession, error) {
		if sess == nil {
			return nil, util.ErrNoActiveSession
		}
		if sess.QuizID != quizID || sess.Question != questionIndex {
			return nil, util.ErrInvalidSessionState
		}
		if questionIndex >= len(quiz.Questions) {
			return nil, util.ErrInvalidSessionState
		}
		view = questionView(quiz, questionIndex)
		return sess, nil
	})
	if err != nil {
		if errors.Is(err, util.ErrInvalidSessionState) || errors.Is(err, util.ErrNoActiveSession) {
			monitoring.StaleCallbacks.Inc()
		}
		return nil, err
	}
	return view, nil
}

// Restart 清空该学员在课程内的全部作答，再从第一张卷子开卷。
// 和开卷一样先过课程准入，未解锁的课程拿不到会话。
func (s *QuizService) Restart(ctx context.Context, userID, courseID uint) (*QuestionView, error) {
	allowed, err := s.Gate.CanAccessQuiz(userID, courseID, nil)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, util.ErrLessonLocked
	}

	quizzes, err := s.Quizzes.FindByCourse(courseID)
	if err != nil {
		return nil, err
	}
	if len(quizzes) == 0 {
		return nil, util.ErrQuizNotFound
	}

	if err := s.Quizzes.DeleteResultsByUserAndCourse(userID, courseID); err != nil {
		return nil, err
	}
	if err := s.Sessions.Delete(ctx, userID); err != nil {
		return nil, err
	}

	logger.Log.Info("course quiz attempt restarted",
		zap.Uint("userId", userID),
		zap.Uint("courseId", courseID),
	)
	return s.Start(ctx, userID, quizzes[0].ID)
}

// SubmitQuiz 整卷提交（非交互式入口），与逐题提交共用同一判分规则，
// 落库后同样触发课程结业判定。已作答过的卷子拒绝重复提交，重考走 Restart。
func (s *QuizService) SubmitQuiz(ctx context.Context, userID, quizID uint, answers []int) (*BulkResult, error) {
	quiz, err := s.loadQuiz(quizID)
	if err != nil {
		return nil, err
	}
	if len(answers) != len(quiz.Questions) {
		return nil, util.ErrInvalidInput
	}

	if existing, err := s.Quizzes.ResultsByUserAndQuiz(userID, quizID); err != nil {
		return nil, err
	} else if len(existing) > 0 {
		return nil, util.ErrQuizAlreadyTaken
	}

	for i, question := range quiz.Questions {
		if answers[i] < 0 || answers[i] >= len(question.OptionList()) {
			return nil, util.ErrInvalidInput
		}
	}

	res := &BulkResult{Total: len(quiz.Questions)}
	now := time.Now()
	for i, question := range quiz.Questions {
		correct := answers[i] == question.CorrectOption
		if err := s.Quizzes.SaveResult(&model.QuizResult{
			UserID:        userID,
			QuizID:        quizID,
			QuestionIndex: i,
			Selected:      answers[i],
			IsCorrect:     correct,
			CreatedAt:     now,
		}); err != nil {
			return nil, err
		}
		if correct {
			res.Score++
		}
		res.Explanations = append(res.Explanations, question.Explanation)
	}

	next, err := s.NextUnansweredQuiz(userID, quiz.CourseID)
	if err != nil {
		return nil, err
	}
	if next != nil {
		res.NextQuizID = next.ID
		return res, nil
	}
	outcome, err := s.Completion.OnCourseQuizzesExhausted(ctx, userID, quiz.CourseID)
	if err != nil {
		// 作答已全部落库，结业判定可以从课程小结接口重试
		return nil, err
	}
	res.Course = outcome
	return res, nil
}

// NextUnansweredQuiz 跳过已有作答记录的卷子，找出课程里的下一张
func (s *QuizService) NextUnansweredQuiz(userID, courseID uint) (*model.Quiz, error) {
	quizzes, err := s.Quizzes.FindByCourse(courseID)
	if err != nil {
		return nil, err
	}
	answered, err := s.Quizzes.AnsweredQuizIDs(userID, courseID)
	if err != nil {
		return nil, err
	}
	taken := make(map[uint]bool, len(answered))
	for _, id := range answered {
		taken[id] = true
	}
	for i := range quizzes {
		if !taken[quizzes[i].ID] {
			return &quizzes[i], nil
		}
	}
	return nil, nil
}

// BindMessage 记录聊天端最后渲染的消息句柄，便于原地编辑消息
func (s *QuizService) BindMessage(ctx context.Context, userID, quizID uint, handle int64) error {
	return s.Sessions.Update(ctx, userID, func(sess *QuizSession) (*QuizSession, error) {
		if sess == nil {
			return nil, util.ErrNoActiveSession
		}
		if sess.QuizID != quizID {
			return nil, util.ErrInvalidSessionState
		}
		sess.LastMessage = handle
		return sess, nil
	})
}

func (s *QuizService) finishQuiz(ctx context.Context, userID uint, quiz *model.Quiz, fb *SubmitFeedback) error {
	results, err := s.Quizzes.ResultsByUserAndQuiz(userID, quiz.ID)
	if err != nil {
		return err
	}
	for _, r := range results {
		if r.IsCorrect {
			fb.QuizScore++
		}
	}
	fb.QuizTotal = len(quiz.Questions)

	next, err := s.NextUnansweredQuiz(userID, quiz.CourseID)
	if err != nil {
		return err
	}
	if next != nil {
		fb.NextQuizID = next.ID
		return nil
	}

	outcome, err := s.Completion.OnCourseQuizzesExhausted(ctx, userID, quiz.CourseID)
	if err != nil {
		return err
	}
	fb.Course = outcome
	return nil
}
