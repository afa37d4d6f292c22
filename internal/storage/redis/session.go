// Package redis stores sessions in Redis so they survive restarts and are
// shared between API replicas.
package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/xenking/storefront/internal/domain/auth"
)

const (
	defaultPrefix      = "storefront:session:"
	maxRefreshAttempts = 3
)

var _ auth.SessionStore = (*SessionStore)(nil)

// SessionStore keeps each session in a hash that expires with the session.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewClient parses redisURL and checks connectivity.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}
	return client, nil
}

// NewSessionStore creates a SessionStore. An empty prefix uses
// "storefront:session:".
func NewSessionStore(client redis.UniversalClient, prefix string) *SessionStore {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &SessionStore{client: client, prefix: prefix, now: time.Now}
}

func (s *SessionStore) key(id string) string {
	return s.prefix + id
}

func (s *SessionStore) Save(ctx context.Context, sess *auth.Session) error {
	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return errors.Errorf("session %s already expired", sess.ID)
	}

	fields := userFields(sess.User)
	fields["id_token"] = sess.IDToken
	fields["created_at"] = strconv.FormatInt(sess.CreatedAt.Unix(), 10)
	fields["expires_at"] = strconv.FormatInt(sess.ExpiresAt.Unix(), 10)

	key := s.key(sess.ID)
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fields)
	pipe.ExpireAt(ctx, key, sess.ExpiresAt)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "save session")
	}
	return nil
}

// Refresh rewrites the user fields under WATCH. A Delete racing with it
// aborts the write.
func (s *SessionStore) Refresh(ctx context.Context, sess *auth.Session) error {
	key := s.key(sess.ID)
	refresh := func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return errors.Wrap(err, "check session")
		}
		if n == 0 {
			return auth.ErrSessionNotFound
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, userFields(sess.User))
			return nil
		})
		return err
	}

	for range maxRefreshAttempts {
		err := s.client.Watch(ctx, refresh, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil && !errors.Is(err, auth.ErrSessionNotFound) {
			return errors.Wrap(err, "refresh session")
		}
		return err
	}
	return errors.Errorf("refresh session %s: too many concurrent writes", sess.ID)
}

func (s *SessionStore) Get(ctx context.Context, id string) (*auth.Session, error) {
	fields, err := s.client.HGetAll(ctx, s.key(id)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "get session")
	}
	if len(fields) == 0 {
		return nil, auth.ErrSessionNotFound
	}

	sess := &auth.Session{
		ID: id,
		User: auth.User{
			UID:         fields["uid"],
			Email:       fields["email"],
			DisplayName: fields["display_name"],
			PhotoURL:    fields["photo_url"],
		},
		IDToken: fields["id_token"],
	}
	if sess.User.EmailVerified, err = strconv.ParseBool(fields["email_verified"]); err != nil {
		return nil, errors.Wrap(err, "parse email_verified")
	}
	if sess.CreatedAt, err = parseUnix(fields["created_at"]); err != nil {
		return nil, errors.Wrap(err, "parse created_at")
	}
	if sess.ExpiresAt, err = parseUnix(fields["expires_at"]); err != nil {
		return nil, errors.Wrap(err, "parse expires_at")
	}
	return sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return errors.Wrap(err, "delete session")
	}
	return nil
}

// Ping checks connectivity for readiness probes.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func userFields(u auth.User) map[string]any {
	return map[string]any{
		"uid":            u.UID,
		"email":          u.Email,
		"display_name":   u.DisplayName,
		"photo_url":      u.PhotoURL,
		"email_verified": strconv.FormatBool(u.EmailVerified),
	}
}

func parseUnix(v string) (time.Time, error) {
	sec, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(sec, 0).UTC(), nil
}
