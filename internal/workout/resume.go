package workout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const (
	resumeKeyPrefix   = "workout::resume::"
	resumeSessionsKey = "workout::resume::sessions"
	DefaultResumeTTL  = 6 * time.Hour
)

var ErrNoResumePoint = errors.New("no resume point for session")

// ResumeStore remembers which exercise each open session is at, so a
// session view can be restored after the service restarts.
type ResumeStore struct {
	ttl         time.Duration
	redisClient *redis.Client
}

func NewResumeStore(ttl time.Duration, redisClient *redis.Client) *ResumeStore {
	if ttl <= 0 {
		ttl = DefaultResumeTTL
	}
	return &ResumeStore{
		ttl:         ttl,
		redisClient: redisClient,
	}
}

func resumeKey(sessionID int) string {
	return resumeKeyPrefix + strconv.Itoa(sessionID)
}

func (s *ResumeStore) Save(ctx context.Context, sessionID, order int) error {
	if cmd := s.redisClient.Set(ctx, resumeKey(sessionID), order, s.ttl); cmd.Err() != nil {
		return fmt.Errorf("save resume point %d: %w", sessionID, cmd.Err())
	}
	if cmd := s.redisClient.SAdd(ctx, resumeSessionsKey, sessionID); cmd.Err() != nil {
		return fmt.Errorf("add resumable session %d: %w", sessionID, cmd.Err())
	}
	return nil
}

// Get returns the exercise order the session was last at.
func (s *ResumeStore) Get(ctx context.Context, sessionID int) (int, error) {
	cmd := s.redisClient.Get(ctx, resumeKey(sessionID))
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrNoResumePoint
		}
		return 0, fmt.Errorf("get resume point %d: %w", sessionID, err)
	}

	order, err := strconv.Atoi(cmd.Val())
	if err != nil {
		return 0, fmt.Errorf("parse resume point %d [%s]: %w", sessionID, cmd.Val(), err)
	}
	return order, nil
}

func (s *ResumeStore) Delete(ctx context.Context, sessionID int) error {
	if cmd := s.redisClient.Del(ctx, resumeKey(sessionID)); cmd.Err() != nil {
		return fmt.Errorf("delete resume point %d: %w", sessionID, cmd.Err())
	}
	if cmd := s.redisClient.SRem(ctx, resumeSessionsKey, sessionID); cmd.Err() != nil {
		return fmt.Errorf("remove resumable session %d: %w", sessionID, cmd.Err())
	}
	return nil
}

// List returns the ids of the sessions that can still be resumed, sorted.
// Sessions whose resume point expired are pruned on the way.
func (s *ResumeStore) List(ctx context.Context) ([]int, error) {
	cmd := s.redisClient.SMembers(ctx, resumeSessionsKey)
	if err := cmd.Err(); err != nil {
		return nil, fmt.Errorf("list resumable sessions: %w", err)
	}

	var sessionIDs []int
	for _, member := range cmd.Val() {
		sessionID, err := strconv.Atoi(member)
		if err != nil {
			log.Warnf("resume store: invalid session id [%s] in set", member)
			continue
		}

		if _, err := s.Get(ctx, sessionID); err != nil {
			if !errors.Is(err, ErrNoResumePoint) {
				return nil, err
			}
			if cmd := s.redisClient.SRem(ctx, resumeSessionsKey, sessionID); cmd.Err() != nil {
				log.Errorf("resume store: prune session %d: %s", sessionID, cmd.Err())
			}
			continue
		}
		sessionIDs = append(sessionIDs, sessionID)
	}

	sort.Ints(sessionIDs)
	return sessionIDs, nil
}
