package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"SermoProject/tools/errs"
)

// Presence/typing state lives in Redis with per-key TTLs, on two independent
// namespaces so that online tracking and typing indicators expire on their
// own schedules:
//
//	presence:<user>:<channel>  value "online"  TTL 60s
//	typing:<channel>:<user>    value "typing"  TTL 5s
//
// Typing entries are never deleted explicitly; they self-heal via expiry once
// the client stops refreshing.
const (
	presencePrefix = "presence:"
	typingPrefix   = "typing:"

	DefaultPresenceTTL = 60 * time.Second
	DefaultTypingTTL   = 5 * time.Second
)

// PresenceStore is the single owner of liveness/typing state. All operations
// are idempotent and safe to call concurrently; the redis client handles its
// own pooling.
type PresenceStore struct {
	rdb         *redis.Client
	presenceTTL time.Duration
	typingTTL   time.Duration
}

func NewPresenceStore(rdb *redis.Client) *PresenceStore {
	return &PresenceStore{
		rdb:         rdb,
		presenceTTL: DefaultPresenceTTL,
		typingTTL:   DefaultTypingTTL,
	}
}

// NewPresenceStoreWithTTL overrides the expiry windows (tests inject short ones).
func NewPresenceStoreWithTTL(rdb *redis.Client, presenceTTL, typingTTL time.Duration) *PresenceStore {
	s := NewPresenceStore(rdb)
	if presenceTTL > 0 {
		s.presenceTTL = presenceTTL
	}
	if typingTTL > 0 {
		s.typingTTL = typingTTL
	}
	return s
}

func presenceKey(userID int64, channelID int64) string {
	return fmt.Sprintf("%s%d:%d", presencePrefix, userID, channelID)
}

func typingKey(channelID int64, userID int64) string {
	return fmt.Sprintf("%s%d:%d", typingPrefix, channelID, userID)
}

// SetOnline upserts the presence entry with a fresh TTL.
func (s *PresenceStore) SetOnline(ctx context.Context, userID, channelID int64) error {
	err := s.rdb.Set(ctx, presenceKey(userID, channelID), "online", s.presenceTTL).Err()
	return errs.WrapMsg(err, "presence set online", "user", userID, "channel", channelID)
}

// SetOffline removes presence for the user across every channel it was marked
// online in: scan-then-delete over presence:<user>:*. Cost scales with the
// number of channels the user has touched.
func (s *PresenceStore) SetOffline(ctx context.Context, userID int64) error {
	pattern := fmt.Sprintf("%s%d:*", presencePrefix, userID)
	iter := s.rdb.Scan(ctx, 0, pattern, 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return errs.WrapMsg(err, "presence scan", "user", userID)
	}
	if len(keys) == 0 {
		return nil
	}
	err := s.rdb.Del(ctx, keys...).Err()
	return errs.WrapMsg(err, "presence delete", "user", userID)
}

// IsOnline reports whether a non-expired presence entry exists; an expired
// entry reads as offline with no cleanup needed here.
func (s *PresenceStore) IsOnline(ctx context.Context, userID, channelID int64) (bool, error) {
	n, err := s.rdb.Exists(ctx, presenceKey(userID, channelID)).Result()
	if err != nil {
		return false, errs.WrapMsg(err, "presence exists", "user", userID, "channel", channelID)
	}
	return n > 0, nil
}

// SetTyping upserts the typing entry with a fresh TTL.
func (s *PresenceStore) SetTyping(ctx context.Context, userID, channelID int64) error {
	err := s.rdb.Set(ctx, typingKey(channelID, userID), "typing", s.typingTTL).Err()
	return errs.WrapMsg(err, "typing set", "user", userID, "channel", channelID)
}

// GetTypingUsers enumerates users with a live typing entry in the channel.
func (s *PresenceStore) GetTypingUsers(ctx context.Context, channelID int64) ([]int64, error) {
	pattern := fmt.Sprintf("%s%d:*", typingPrefix, channelID)
	iter := s.rdb.Scan(ctx, 0, pattern, 100).Iterator()

	var users []int64
	for iter.Next(ctx) {
		key := iter.Val()
		idx := strings.LastIndex(key, ":")
		if idx < 0 {
			continue
		}
		uid, err := strconv.ParseInt(key[idx+1:], 10, 64)
		if err != nil {
			continue
		}
		users = append(users, uid)
	}
	if err := iter.Err(); err != nil {
		return nil, errs.WrapMsg(err, "typing scan", "channel", channelID)
	}
	return users, nil
}
