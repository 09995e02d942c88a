package redisstore

import (
	"context"
	"strconv"
	"time"

	apperrors "github.com/jrsteele09/go-tenant-guard/internal/errors"
	"github.com/jrsteele09/go-tenant-guard/token/refresh"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "tenantguard:refresh:"

const (
	redeemStatusNotFound int64 = 0
	redeemStatusConsumed int64 = 1
	redeemStatusExpired  int64 = 2
	redeemStatusRotated  int64 = 3
)

// KEYS[1] presented credential, KEYS[2] replacement credential.
// ARGV: replacement id, expires_at ms, created_at ms, ttl ms, user index prefix, now ms.
const redeemScript = `
local cur = redis.call("HMGET", KEYS[1], "user_id", "consumed", "expires_at")
if not cur[1] then
  return {0}
end
if cur[2] == "1" then
  return {1}
end
if tonumber(cur[3]) <= tonumber(ARGV[6]) then
  return {2}
end
redis.call("HSET", KEYS[1], "consumed", "1")
redis.call("HSET", KEYS[2], "id", ARGV[1], "user_id", cur[1], "expires_at", ARGV[2], "created_at", ARGV[3], "consumed", "0")
redis.call("PEXPIRE", KEYS[2], ARGV[4])
local index = ARGV[5] .. cur[1]
redis.call("SADD", index, KEYS[2])
redis.call("PEXPIRE", index, ARGV[4])
return {3, cur[1]}
`

var redeemLua = redis.NewScript(redeemScript)

const revokeAllScript = `
local members = redis.call("SMEMBERS", KEYS[1])
for _, key in ipairs(members) do
  if redis.call("EXISTS", key) == 1 then
    redis.call("HSET", key, "consumed", "1")
  end
end
redis.call("DEL", KEYS[1])
return #members
`

var revokeAllLua = redis.NewScript(revokeAllScript)

// Store keeps refresh credentials as Redis hashes keyed by token hash, with a per-user
// set index for RevokeAll. Rotation runs as a single Lua script.
type Store struct {
	redis  redis.UniversalClient
	policy refresh.Policy
	prefix string
}

var _ refresh.Store = (*Store)(nil)

type Option func(*Store)

func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

func New(client redis.UniversalClient, policy refresh.Policy, opts ...Option) *Store {
	s := &Store{
		redis:  client,
		policy: policy,
		prefix: defaultPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Issue(ctx context.Context, userID string) (*refresh.Credential, error) {
	c, err := s.policy.Mint(userID)
	if err != nil {
		return nil, errors.Wrap(err, "[Store.Issue]")
	}
	key := s.credentialKey(c.TokenHash)
	index := s.userKey(userID)
	ttl := s.policy.TTL()

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]any{
			"id":         c.ID,
			"user_id":    c.UserID,
			"expires_at": c.ExpiresAt.UnixMilli(),
			"created_at": c.CreatedAt.UnixMilli(),
			"consumed":   "0",
		})
		pipe.PExpire(ctx, key, ttl)
		pipe.SAdd(ctx, index, key)
		pipe.PExpire(ctx, index, ttl)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "[Store.Issue] redis")
	}
	return c, nil
}

func (s *Store) Redeem(ctx context.Context, token string) (*refresh.Credential, error) {
	// user id is filled in from the stored credential
	replacement, err := s.policy.Mint("")
	if err != nil {
		return nil, errors.Wrap(err, "[Store.Redeem]")
	}

	result, err := redeemLua.Run(
		ctx,
		s.redis,
		[]string{s.credentialKey(refresh.HashToken(token)), s.credentialKey(replacement.TokenHash)},
		replacement.ID,
		replacement.ExpiresAt.UnixMilli(),
		replacement.CreatedAt.UnixMilli(),
		s.policy.TTL().Milliseconds(),
		s.prefix+"user:",
		s.policy.Now().UnixMilli(),
	).Result()
	if err != nil {
		return nil, errors.Wrap(err, "[Store.Redeem] redis")
	}

	parts, ok := result.([]interface{})
	if !ok || len(parts) == 0 {
		return nil, errors.New("[Store.Redeem] invalid script response")
	}
	status, ok := parts[0].(int64)
	if !ok {
		return nil, errors.New("[Store.Redeem] invalid script status")
	}

	switch status {
	case redeemStatusNotFound, redeemStatusConsumed, redeemStatusExpired:
		return nil, apperrors.ErrRefreshInvalid
	case redeemStatusRotated:
		if len(parts) < 2 {
			return nil, errors.New("[Store.Redeem] missing user id")
		}
		userID, ok := parts[1].(string)
		if !ok {
			return nil, errors.New("[Store.Redeem] invalid user id")
		}
		replacement.UserID = userID
		return replacement, nil
	default:
		return nil, errors.Errorf("[Store.Redeem] unknown script status %s", strconv.FormatInt(status, 10))
	}
}

func (s *Store) RevokeAll(ctx context.Context, userID string) error {
	if err := revokeAllLua.Run(ctx, s.redis, []string{s.userKey(userID)}).Err(); err != nil {
		return errors.Wrap(err, "[Store.RevokeAll] redis")
	}
	return nil
}

// Get loads the stored view of a credential by its opaque token, for inspection.
func (s *Store) Get(ctx context.Context, token string) (*refresh.Credential, error) {
	hash := refresh.HashToken(token)
	values, err := s.redis.HGetAll(ctx, s.credentialKey(hash)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "[Store.Get] redis")
	}
	if len(values) == 0 {
		return nil, apperrors.ErrNotFound
	}
	expires, err := strconv.ParseInt(values["expires_at"], 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, "[Store.Get] expires_at")
	}
	created, err := strconv.ParseInt(values["created_at"], 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, "[Store.Get] created_at")
	}
	return &refresh.Credential{
		ID:        values["id"],
		UserID:    values["user_id"],
		TokenHash: hash,
		ExpiresAt: time.UnixMilli(expires).UTC(),
		CreatedAt: time.UnixMilli(created).UTC(),
		Consumed:  values["consumed"] == "1",
	}, nil
}

func (s *Store) credentialKey(hash string) string {
	return s.prefix + "cred:" + hash
}

func (s *Store) userKey(userID string) string {
	return s.prefix + "user:" + userID
}
