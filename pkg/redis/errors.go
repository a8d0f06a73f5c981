package redis

import "errors"

var (
	ErrInvalidURL   = errors.New("redis: REDIS_URL is not a valid redis:// or rediss:// URL")
	ErrNotReady     = errors.New("redis: server did not answer PING before the connect timeout")
	ErrUnreachable  = errors.New("redis: rollout backend unreachable")
	ErrWrongKeyType = errors.New("redis: rollout key holds an unexpected type")
	ErrCorruptEvent = errors.New("redis: audit entry is not a valid event")
)
