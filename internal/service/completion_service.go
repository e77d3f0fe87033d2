package service

import (
	"context"
	"math"

	"course_bot_backend/internal/model"
	"course_bot_backend/internal/util"
	"course_bot_backend/pkg/logger"

	"go.uber.org/zap"
)

// PassThresholdPercent 课程结业线。取整规则固定为四舍五入：
// 3/5 题 = 60% 通过，2/5 题 = 40% 不通过。
const PassThresholdPercent = 60

// CertificateIssuer 证书签发（幂等：已签发则返回已有证书）
type CertificateIssuer interface {
	IssueOrGet(ctx context.Context, userID, courseID uint) (*model.Certificate, error)
}

// CompletionQuizStore 结业判定需要的作答数据
type CompletionQuizStore interface {
	FindByCourse(courseID uint) ([]model.Quiz, error)
	CountQuestionsByCourse(courseID uint) (int64, error)
	AnsweredQuizIDs(userID, courseID uint) ([]uint, error)
	ResultsByUserAndCourse(userID, courseID uint) ([]model.QuizResult, error)
}

// CompletionOutcome 结业判定结果
type CompletionOutcome struct {
	Passed         bool               `json:"passed"`
	ScorePercent   int                `json:"scorePercent"`
	Correct        int                `json:"correct"`
	TotalQuestions int                `json:"totalQuestions"`
	CanRestart     bool               `json:"canRestart"`
	Certificate    *model.Certificate `json:"certificate,omitempty"`
}

// CompletionService 课程测验集答满后的结业判定与证书触发
type CompletionService struct {
	Quizzes CompletionQuizStore
	Issuer  CertificateIssuer
}

func NewCompletionService(quizzes CompletionQuizStore, issuer CertificateIssuer) *CompletionService {
	return &CompletionService{Quizzes: quizzes, Issuer: issuer}
}

// Passed 判分规则的唯一出处，交互式与整卷提交共用
func Passed(correct, total int) bool {
	return ScorePercent(correct, total) >= PassThresholdPercent
}

func ScorePercent(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}

// OnCourseQuizzesExhausted 前置条件：课程内每张卷子都有该学员的作答记录。
// 达线签发证书（重复触发返回同一张）；未达线给出重考入口，不签发。
func (s *CompletionService) OnCourseQuizzesExhausted(ctx context.Context, userID, courseID uint) (*CompletionOutcome, error) {
	quizzes, err := s.Quizzes.FindByCourse(courseID)
	if err != nil {
		return nil, err
	}
	if len(quizzes) == 0 {
		return nil, util.ErrQuizNotFound
	}

	answered, err := s.Quizzes.AnsweredQuizIDs(userID, courseID)
	if err != nil {
		return nil, err
	}
	taken := make(map[uint]bool, len(answered))
	for _, id := range answered {
		taken[id] = true
	}
	for _, quiz := range quizzes {
		if !taken[quiz.ID] {
			return nil, util.ErrQuizzesRemaining
		}
	}

	results, err := s.Quizzes.ResultsByUserAndCourse(userID, courseID)
	if err != nil {
		return nil, err
	}
	correct := 0
	for _, r := range results {
		if r.IsCorrect {
			correct++
		}
	}

	total, err := s.Quizzes.CountQuestionsByCourse(courseID)
	if err != nil {
		return nil, err
	}

	outcome := &CompletionOutcome{
		Correct:        correct,
		TotalQuestions: int(total),
		ScorePercent:   ScorePercent(correct, int(total)),
	}

	if !Passed(correct, int(total)) {
		outcome.CanRestart = true
		logger.Log.Info("course below mastery threshold",
			zap.Uint("userId", userID),
			zap.Uint("courseId", courseID),
			zap.Int("scorePercent", outcome.ScorePercent),
		)
		return outcome, nil
	}

	cert, err := s.Issuer.IssueOrGet(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	outcome.Passed = true
	outcome.Certificate = cert

	logger.Log.Info("course completed",
		zap.Uint("userId", userID),
		zap.Uint("courseId", courseID),
		zap.Int("scorePercent", outcome.ScorePercent),
		zap.String("certificateSerial", cert.Serial),
	)
	return outcome, nil
}
