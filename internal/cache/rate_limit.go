package cache

import (
	"context"
	"fmt"
	"time"
)

// RateLimitRule is a fixed-window counting rule with a penalty block.
type RateLimitRule struct {
	Window      time.Duration
	MaxAttempts int
	Block       time.Duration
}

func rateLimitKey(scope, subject string) string {
	return fmt.Sprintf("ratelimit:%s:%s", scope, subject)
}

func rateLimitBlockKey(scope, subject string) string {
	return fmt.Sprintf("ratelimit:block:%s:%s", scope, subject)
}

// AllowRate counts one attempt for (scope, subject) and reports whether it
// is allowed. Exceeding MaxAttempts inside the window sets a block key for
// the penalty period. With the cache disabled every attempt is allowed.
func AllowRate(ctx context.Context, scope, subject string, rule RateLimitRule) (bool, error) {
	if !Enabled() || rule.MaxAttempts <= 0 || rule.Window <= 0 {
		return true, nil
	}

	blocked, err := redisClient.Exists(ctx, buildKey(rateLimitBlockKey(scope, subject))).Result()
	if err != nil {
		return true, err
	}
	if blocked > 0 {
		return false, nil
	}

	key := buildKey(rateLimitKey(scope, subject))
	count, err := redisClient.Incr(ctx, key).Result()
	if err != nil {
		return true, err
	}
	if count == 1 {
		if err := redisClient.Expire(ctx, key, rule.Window).Err(); err != nil {
			return true, err
		}
	}
	if count <= int64(rule.MaxAttempts) {
		return true, nil
	}

	block := rule.Block
	if block <= 0 {
		block = rule.Window
	}
	if err := redisClient.Set(ctx, buildKey(rateLimitBlockKey(scope, subject)), 1, block).Err(); err != nil {
		return false, err
	}
	return false, nil
}

// ResetRate clears the counter and block for (scope, subject). Used after a
// successful login so earlier failures stop counting.
func ResetRate(ctx context.Context, scope, subject string) error {
	if !Enabled() {
		return nil
	}
	if err := redisClient.Del(ctx, buildKey(rateLimitKey(scope, subject))).Err(); err != nil {
		return err
	}
	return redisClient.Del(ctx, buildKey(rateLimitBlockKey(scope, subject))).Err()
}
