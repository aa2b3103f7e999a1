package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"civicdesk/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// EventsChannel carries JSON-encoded models.ComplaintEvent values.
const EventsChannel = "complaints:events"

const (
	revokedKeyPrefix = "auth:revoked:"
	linkKeyPrefix    = "telegram:link:"
)

// PublishEvent fans an event out to every API replica.
func (s *Service) PublishEvent(ctx context.Context, ev models.ComplaintEvent) error {
	if s.Redis == nil {
		if s.LocalEvents != nil {
			s.LocalEvents(ev)
		}
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return wrap("encode event", err)
	}
	return wrap("publish event", s.Redis.Publish(ctx, EventsChannel, payload).Err())
}

// SubscribeEvents subscribes to the events channel. Callers close the PubSub.
func (s *Service) SubscribeEvents(ctx context.Context) (*redis.PubSub, error) {
	if s.Redis == nil {
		return nil, errors.New("storage: redis is not configured")
	}
	return s.Redis.Subscribe(ctx, EventsChannel), nil
}

// RevokeToken marks a token id as revoked for ttl.
func (s *Service) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if s.Redis != nil {
		return wrap("revoke token", s.Redis.Set(ctx, revokedKeyPrefix+jti, 1, ttl).Err())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revoked == nil {
		s.revoked = make(map[string]time.Time)
	}
	now := time.Now()
	for id, exp := range s.revoked {
		if now.After(exp) {
			delete(s.revoked, id)
		}
	}
	s.revoked[jti] = now.Add(ttl)
	return nil
}

func (s *Service) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	if s.Redis != nil {
		n, err := s.Redis.Exists(ctx, revokedKeyPrefix+jti).Result()
		if err != nil {
			return false, wrap("check revoked token", err)
		}
		return n > 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.revoked[jti]
	return ok && time.Now().Before(exp), nil
}

// SaveTelegramLinkCode remembers which chat asked for code, for ttl.
func (s *Service) SaveTelegramLinkCode(ctx context.Context, code string, chatID int64, ttl time.Duration) error {
	if s.Redis != nil {
		return wrap("save link code", s.Redis.Set(ctx, linkKeyPrefix+code, chatID, ttl).Err())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.links == nil {
		s.links = make(map[string]linkCode)
	}
	now := time.Now()
	for c, l := range s.links {
		if now.After(l.expires) {
			delete(s.links, c)
		}
	}
	s.links[code] = linkCode{chatID: chatID, expires: now.Add(ttl)}
	return nil
}

// ConsumeTelegramLinkCode returns the chat behind code and forgets the code.
// Unknown and expired codes are ErrNotFound.
func (s *Service) ConsumeTelegramLinkCode(ctx context.Context, code string) (int64, error) {
	if s.Redis != nil {
		chatID, err := s.Redis.GetDel(ctx, linkKeyPrefix+code).Int64()
		if errors.Is(err, redis.Nil) {
			return 0, &PersistenceError{Op: "consume link code", Err: ErrNotFound}
		}
		if err != nil {
			return 0, wrap("consume link code", err)
		}
		return chatID, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.links[code]
	delete(s.links, code)
	if !ok || time.Now().After(l.expires) {
		return 0, &PersistenceError{Op: "consume link code", Err: ErrNotFound}
	}
	return l.chatID, nil
}
