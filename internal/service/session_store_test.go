package service

import (
	"context"
	"sync"
	"testing"

	"course_bot_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionStore_GetPutDelete(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	sess, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, sess)

	require.NoError(t, store.Put(ctx, 1, &QuizSession{QuizID: 7, Question: 2, Answers: []int{0, 1}}))

	sess, err = store.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, uint(7), sess.QuizID)
	assert.Equal(t, 2, sess.Question)
	assert.Equal(t, []int{0, 1}, sess.Answers)

	// 其他学员互不可见
	other, err := store.Get(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, other)

	require.NoError(t, store.Delete(ctx, 1))
	sess, err = store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestMemorySessionStore_GetReturnsCopy(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, 1, &QuizSession{QuizID: 7, Answers: []int{0}}))

	sess, err := store.Get(ctx, 1)
	require.NoError(t, err)
	sess.Question = 99
	sess.Answers[0] = 99

	fresh, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.Question)
	assert.Equal(t, []int{0}, fresh.Answers)
}

func TestMemorySessionStore_UpdateSemantics(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	// 无会话时 fn 收到 nil
	err := store.Update(ctx, 1, func(sess *QuizSession) (*QuizSession, error) {
		assert.Nil(t, sess)
		return nil, util.ErrNoActiveSession
	})
	assert.ErrorIs(t, err, util.ErrNoActiveSession)

	require.NoError(t, store.Put(ctx, 1, &QuizSession{QuizID: 7, Question: 0}))

	// 返回错误时会话保持原样
	err = store.Update(ctx, 1, func(sess *QuizSession) (*QuizSession, error) {
		sess.Question = 5
		return nil, util.ErrInvalidSessionState
	})
	assert.ErrorIs(t, err, util.ErrInvalidSessionState)
	sess, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, sess.Question)

	// 正常推进
	require.NoError(t, store.Update(ctx, 1, func(sess *QuizSession) (*QuizSession, error) {
		sess.Question++
		return sess, nil
	}))
	sess, err = store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, sess.Question)

	// 返回 (nil, nil) 删除会话
	require.NoError(t, store.Update(ctx, 1, func(sess *QuizSession) (*QuizSession, error) {
		return nil, nil
	}))
	sess, err = store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

// 两次陈旧事件并发抢同一会话时，只有一次能通过校验推进
func TestMemorySessionStore_ConcurrentUpdateIsAtomic(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, 1, &QuizSession{QuizID: 7, Question: 0}))

	const attempts = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Update(ctx, 1, func(sess *QuizSession) (*QuizSession, error) {
				if sess.Question != 0 {
					return nil, util.ErrInvalidSessionState
				}
				sess.Question = 1
				return sess, nil
			})
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
	sess, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, sess.Question)
}
