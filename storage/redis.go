package storage

import (
	"errors"

	"github.com/gomodule/redigo/redis"
)

// RedisKV stores items as plain Redis strings
type RedisKV struct {
	pool *redis.Pool
}

// NewRedisKV creates a KV on top of pool
func NewRedisKV(pool *redis.Pool) *RedisKV {
	return &RedisKV{pool: pool}
}

func (r *RedisKV) GetItem(key string) (string, bool, error) {
	conn := r.pool.Get()
	defer conn.Close()

	v, err := redis.String(conn.Do("GET", key))
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			return "", false, nil
		}
		return "", false, err
	}
	return v, true, nil
}

func (r *RedisKV) SetItem(key, value string) error {
	conn := r.pool.Get()
	defer conn.Close()

	_, err := conn.Do("SET", key, value)
	return err
}

func (r *RedisKV) RemoveItem(key string) error {
	conn := r.pool.Get()
	defer conn.Close()

	_, err := conn.Do("DEL", key)
	return err
}
