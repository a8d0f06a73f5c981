package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Healthcheck returns a probe that pings the server and verifies that the
// rollout keys under prefix are either absent or of the type the stores use.
// A key clash with another application shows up here instead of as silent
// override misses.
func Healthcheck(client redis.UniversalClient, prefix string) func(context.Context) error {
	want := map[string]string{
		prefix + overridesKey: "hash",
		prefix + auditKey:     "list",
	}
	return func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Join(ErrUnreachable, err)
		}
		for key, typ := range want {
			got, err := client.Type(ctx, key).Result()
			if err != nil {
				return errors.Join(ErrUnreachable, err)
			}
			if got != "none" && got != typ {
				return fmt.Errorf("%w: %s is a %s, want %s", ErrWrongKeyType, key, got, typ)
			}
		}
		return nil
	}
}
