package util

import "errors"

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrCourseNotFound  = errors.New("course not found")
	ErrLessonNotFound  = errors.New("lesson not found")
	ErrQuizNotFound    = errors.New("quiz not found")
	ErrEmailRegistered = errors.New("email already registered")

	// ErrLessonLocked 顺序解锁未满足（可恢复提示，不是故障）
	ErrLessonLocked       = errors.New("lesson locked")
	ErrCourseNotPurchased = errors.New("course not purchased")

	// ErrInvalidSessionState 过期/重放的答题事件：忽略该事件，会话保持不变
	ErrInvalidSessionState = errors.New("invalid session state")
	ErrNoActiveSession     = errors.New("no active quiz session")
	ErrInvalidInput        = errors.New("invalid input")

	// ErrQuizAlreadyTaken 整卷提交不允许覆盖已有作答，重考走课程级 Restart
	ErrQuizAlreadyTaken = errors.New("quiz already taken")

	// ErrQuizzesRemaining 课程内仍有未作答的测验，结业判定尚不可用
	ErrQuizzesRemaining = errors.New("course quizzes remaining")
	ErrCourseNotPassed  = errors.New("course not passed")
)
