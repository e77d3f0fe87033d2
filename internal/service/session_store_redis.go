package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisSessionStore 多实例部署时的会话存储。Update 用 WATCH 事务做
// 按 key 的乐观并发控制，与内存实现的逐学员互斥等价。
type RedisSessionStore struct {
	Client    *redis.Client
	KeyPrefix string
}

func NewRedisSessionStore(client *redis.Client, keyPrefix string) *RedisSessionStore {
	if keyPrefix == "" {
		keyPrefix = "quiz_session"
	}
	return &RedisSessionStore{Client: client, KeyPrefix: keyPrefix}
}

const redisUpdateRetries = 3

func (s *RedisSessionStore) key(userID uint) string {
	return fmt.Sprintf("%s:%d", s.KeyPrefix, userID)
}

func (s *RedisSessionStore) Get(ctx context.Context, userID uint) (*QuizSession, error) {
	raw, err := s.Client.Get(ctx, s.key(userID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sess QuizSession
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *RedisSessionStore) Put(ctx context.Context, userID uint, sess *QuizSession) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	// 会话不过期：陈旧会话由下一次 Start 覆盖（显式设计，不做超时）
	return s.Client.Set(ctx, s.key(userID), raw, 0).Err()
}

func (s *RedisSessionStore) Delete(ctx context.Context, userID uint) error {
	return s.Client.Del(ctx, s.key(userID)).Err()
}

func (s *RedisSessionStore) Update(ctx context.Context, userID uint, fn MutateFunc) error {
	key := s.key(userID)

	txf := func(tx *redis.Tx) error {
		var cur *QuizSession
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil && err != redis.Nil {
			return err
		}
		if err == nil {
			var sess QuizSession
			if err := json.Unmarshal(raw, &sess); err != nil {
				return err
			}
			cur = &sess
		}

		next, err := fn(cur)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if next == nil {
				pipe.Del(ctx, key)
				return nil
			}
			out, err := json.Marshal(next)
			if err != nil {
				return err
			}
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		return err
	}

	var err error
	for i := 0; i < redisUpdateRetries; i++ {
		err = s.Client.Watch(ctx, txf, key)
		if err != redis.TxFailedErr {
			return err
		}
	}
	return err
}
