package connections

import (
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/RxRoster/rxroster/config"
)

// NewRedis creates the pool backing workspace storage
func NewRedis(cfg config.Config) *redis.Pool {
	opts := []redis.DialOption{redis.DialConnectTimeout(5 * time.Second)}
	if cfg.RedisPassword != "" {
		opts = append(opts, redis.DialPassword(cfg.RedisPassword))
	}

	return &redis.Pool{
		MaxIdle:     10,
		IdleTimeout: 240 * time.Second,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", cfg.RedisAddr, opts...)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}
