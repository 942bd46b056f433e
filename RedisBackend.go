package mailview

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/go-redis/redis/v8"
)

const emailIDKey = "email_id"

// RedisBackend stores one key per recipient alias and message, named
// "<alias>:<id>". Expiry is left to Redis.
type RedisBackend struct {
	client           *redis.Client
	acceptedDomains  []string
	acceptSubdomains bool
	ctx              context.Context
	expiration       time.Duration
}

func NewRedisBackend(addr string, password string, db int, acceptedDomains []string, acceptSubdomains bool, retentionHours int) *RedisBackend {
	backend := &RedisBackend{
		acceptedDomains:  acceptedDomains,
		acceptSubdomains: acceptSubdomains,
		ctx:              context.Background(),
		expiration:       time.Duration(retentionHours) * time.Hour,
	}

	backend.client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return backend
}

// Ping checks that the Redis server is reachable.
func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *RedisBackend) Close() error {
	return b.client.Close()
}

func (backend *RedisBackend) AnonymousLogin(c *smtp.ConnectionState) (smtp.Session, error) {
	Log.WithField("remote", c.RemoteAddr).Debug("anonymous login")
	return NewSession(backend, c.RemoteAddr), nil
}

func (backend *RedisBackend) Login(_ *smtp.ConnectionState, username, password string) (smtp.Session, error) {
	return nil, smtp.ErrAuthUnsupported
}

func (b *RedisBackend) GetEmailById(id uint64) *EMail {
	emails := b.scan(fmt.Sprintf("*:%d", id), 1)
	if len(emails) == 0 {
		return nil
	}
	return emails[0]
}

func (b *RedisBackend) GetEmailsByAlias(alias string) []*EMail {
	return sortNewestFirst(b.scan(fmt.Sprintf("%s:*", escapeGlob(alias)), 0))
}

var globEscaper = strings.NewReplacer(
	`\`, `\\`,
	`*`, `\*`,
	`?`, `\?`,
	`[`, `\[`,
	`]`, `\]`,
)

// escapeGlob quotes the characters SCAN MATCH treats as pattern syntax.
func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}

// scan loads every message under keys matching pattern, stopping after limit
// messages when limit is positive.
func (b *RedisBackend) scan(pattern string, limit int) []*EMail {
	emails := make([]*EMail, 0)

	scanComplete := false
	for cursor := uint64(0); !scanComplete; {
		var keys []string
		var err error
		keys, cursor, err = b.client.Scan(b.ctx, cursor, pattern, 100).Result()
		if err != nil {
			Log.WithError(err).WithField("pattern", pattern).Error("redis scan failed")
			break
		}

		for _, key := range keys {
			mailData, err := b.client.Get(b.ctx, key).Bytes()
			if err != nil {
				// expired between SCAN and GET
				continue
			}
			email := &EMail{}
			if err := json.Unmarshal(mailData, email); err != nil {
				Log.WithError(err).WithField("key", key).Warn("error unmarshalling email")
				continue
			}
			emails = append(emails, email)
			if limit > 0 && len(emails) >= limit {
				return emails
			}
		}
		if cursor == 0 {
			scanComplete = true
		}
	}
	return emails
}

func (b *RedisBackend) GetProcessedEmails() int {
	currentId, err := b.client.Get(b.ctx, emailIDKey).Int()
	if err != nil {
		return 0
	}
	return currentId
}

func (b *RedisBackend) IsAcceptedDomain(email string) bool {
	return isAcceptedDomain(b.acceptedDomains, b.acceptSubdomains, email)
}

func (b *RedisBackend) SaveEmail(email *EMail) {
	emailId, err := b.client.Incr(b.ctx, emailIDKey).Result()
	if err != nil {
		Log.WithError(err).Error("redis backend could not allocate an id")
		return
	}
	email.ID = uint64(emailId)

	mailData, err := json.Marshal(email)
	if err != nil {
		Log.WithError(err).Error("error marshalling email")
		return
	}

	for _, to := range email.To {
		key := fmt.Sprintf("%s:%d", getAlias(to), email.ID)
		if err := b.client.Set(b.ctx, key, mailData, b.expiration).Err(); err != nil {
			Log.WithError(err).WithField("key", key).Error("redis backend could not store email")
			return
		}
	}
}

func (b *RedisBackend) Cleanup(deadline time.Time) {
	// keys carry their own expiration
}
