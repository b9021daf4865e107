package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	revokedTokenPrefix = "auth:revoked:"
	userCutoffPrefix   = "auth:revoked_before:"
)

// Revocations is the Redis denylist for access tokens. Keys expire with the tokens they cover.
type Revocations struct {
	Rdb *redis.Client
}

// RevokeToken denies the token id jti for ttl. A non-positive ttl means the token already expired.
func (r *Revocations) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.Rdb.Set(ctx, revokedTokenPrefix+jti, 1, ttl).Err()
}

// RevokeUser denies every token of userID issued before at. ttl should cover the token lifetime.
func (r *Revocations) RevokeUser(ctx context.Context, userID uuid.UUID, at time.Time, ttl time.Duration) error {
	return r.Rdb.Set(ctx, userCutoffPrefix+userID.String(), at.Unix(), ttl).Err()
}

// Check returns ErrTokenRevoked if c was revoked on its own or by a user-wide cutoff.
func (r *Revocations) Check(ctx context.Context, c *Claims) error {
	n, err := r.Rdb.Exists(ctx, revokedTokenPrefix+c.ID).Result()
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrTokenRevoked
	}

	raw, err := r.Rdb.Get(ctx, userCutoffPrefix+c.UserID.String()).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	cutoff, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	if c.IssuedAt == nil || c.IssuedAt.Unix() < cutoff {
		return ErrTokenRevoked
	}
	return nil
}
