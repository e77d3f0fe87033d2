package service

import (
	"context"
	"sync"
)

// QuizSession 每个学员同一时刻至多一份进行中的答题会话。
// Question 是当前待答题序；Answers 与已答题序一一对应。
type QuizSession struct {
	QuizID   uint  `json:"quizId"`
	Question int   `json:"question"`
	Answers  []int `json:"answers"`
	// LastMessage 聊天端最后一次渲染的消息句柄，翻新消息时用
	LastMessage int64 `json:"lastMessage"`
}

// MutateFunc 在会话上执行一次校验+变更。入参为 nil 表示当前没有会话；
// 返回 (nil, nil) 删除会话，返回错误则会话保持原样。
type MutateFunc func(sess *QuizSession) (*QuizSession, error)

// SessionStore 答题会话存储。Update 必须对同一学员做原子的
// 读-校验-写，避免两次陈旧按钮并发时的丢失更新。
type SessionStore interface {
	Get(ctx context.Context, userID uint) (*QuizSession, error)
	Put(ctx context.Context, userID uint, sess *QuizSession) error
	Delete(ctx context.Context, userID uint) error
	Update(ctx context.Context, userID uint, fn MutateFunc) error
}

// MemorySessionStore 单实例部署用的进程内实现。
// 互斥按学员分key，互不相关的学员不会串行化。
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[uint]QuizSession
	locks    map[uint]*sync.Mutex
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[uint]QuizSession),
		locks:    make(map[uint]*sync.Mutex),
	}
}

func (s *MemorySessionStore) keyLock(userID uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

func (s *MemorySessionStore) Get(ctx context.Context, userID uint) (*QuizSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, nil
	}
	cp := sess
	cp.Answers = append([]int(nil), sess.Answers...)
	return &cp, nil
}

func (s *MemorySessionStore) Put(ctx context.Context, userID uint, sess *QuizSession) error {
	l := s.keyLock(userID)
	l.Lock()
	defer l.Unlock()

	s.mu.Lock()
	s.sessions[userID] = *sess
	s.mu.Unlock()
	return nil
}

func (s *MemorySessionStore) Delete(ctx context.Context, userID uint) error {
	l := s.keyLock(userID)
	l.Lock()
	defer l.Unlock()

	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
	return nil
}

func (s *MemorySessionStore) Update(ctx context.Context, userID uint, fn MutateFunc) error {
	l := s.keyLock(userID)
	l.Lock()
	defer l.Unlock()

	s.mu.Lock()
	stored, ok := s.sessions[userID]
	s.mu.Unlock()

	var cur *QuizSession
	if ok {
		cp := stored
		cp.Answers = append([]int(nil), stored.Answers...)
		cur = &cp
	}

	next, err := fn(cur)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if next == nil {
		delete(s.sessions, userID)
	} else {
		s.sessions[userID] = *next
	}
	s.mu.Unlock()
	return nil
}
