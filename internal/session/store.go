// Package session keeps the per-call dialogue state alive between webhook
// deliveries. A session is keyed by the telephony call SID and expires on
// its own once the caller goes quiet.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mikhlas911/medizap-ai/internal/conversation"
)

// CallSession is the durable state of one phone call.
type CallSession struct {
	// CallID is the telephony provider's call SID.
	CallID string `json:"call_id"`
	// ClinicID is the clinic that owns the called number.
	ClinicID string `json:"clinic_id"`
	// CallerPhone is the caller in E.164.
	CallerPhone string `json:"caller_phone"`
	// StartedAt is when the first webhook for this call arrived.
	StartedAt time.Time `json:"started_at"`
	// State is the dialogue position and the slots filled so far.
	State conversation.State `json:"state"`
}

// Store persists call sessions between webhook turns.
type Store interface {
	// GetOrCreate loads the session for callID, creating a fresh one at
	// the greeting step if none exists. The bool reports creation.
	GetOrCreate(ctx context.Context, callID string) (*CallSession, bool, error)
	// Save writes the session back and refreshes its TTL.
	Save(ctx context.Context, s *CallSession) error
	// Complete removes the session and returns how long the call ran.
	// Calling it again for the same callID is a no-op with found=false.
	Complete(ctx context.Context, callID string) (elapsed time.Duration, found bool, err error)
}

const sessionKeyPrefix = "call:session:"

func sessionKey(callID string) string {
	return sessionKeyPrefix + callID
}

// RedisStore keeps sessions in Redis so any instance behind the load
// balancer can continue a call.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisStore{rdb: rdb, ttl: ttl, now: time.Now}
}

func (s *RedisStore) GetOrCreate(ctx context.Context, callID string) (*CallSession, bool, error) {
	if callID == "" {
		return nil, false, fmt.Errorf("session: call id required")
	}
	data, err := s.rdb.Get(ctx, sessionKey(callID)).Bytes()
	if err == nil {
		var sess CallSession
		if err := json.Unmarshal(data, &sess); err != nil {
			return nil, false, fmt.Errorf("session: unmarshal %s: %w", callID, err)
		}
		return &sess, false, nil
	}
	if err != redis.Nil {
		return nil, false, fmt.Errorf("session: get %s: %w", callID, err)
	}

	sess := &CallSession{
		CallID:    callID,
		StartedAt: s.now().UTC(),
		State:     conversation.NewState(),
	}
	if err := s.Save(ctx, sess); err != nil {
		return nil, false, err
	}
	return sess, true, nil
}

func (s *RedisStore) Save(ctx context.Context, sess *CallSession) error {
	if sess == nil || sess.CallID == "" {
		return fmt.Errorf("session: call id required")
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: marshal %s: %w", sess.CallID, err)
	}
	return s.rdb.Set(ctx, sessionKey(sess.CallID), data, s.ttl).Err()
}

func (s *RedisStore) Complete(ctx context.Context, callID string) (time.Duration, bool, error) {
	data, err := s.rdb.GetDel(ctx, sessionKey(callID)).Bytes()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("session: complete %s: %w", callID, err)
	}
	var sess CallSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return 0, false, fmt.Errorf("session: unmarshal %s: %w", callID, err)
	}
	elapsed := s.now().UTC().Sub(sess.StartedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	return elapsed, true, nil
}
