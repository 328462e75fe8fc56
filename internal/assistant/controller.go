package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"secdash/internal/logger"
	"secdash/internal/metrics"
	"secdash/pkg/models"
)

// State is the workflow position for one conversation subject.
type State string

const (
	StateIdle            State = "idle"
	StateThreadCreated   State = "thread_created"
	StateMessagePosted   State = "message_posted"
	StateRunQueued       State = "run_queued"
	StateRunInProgress   State = "run_in_progress"
	StateRunCompleted    State = "run_completed"
	StateRunFailed       State = "run_failed"
	StateRunTimedOut     State = "run_timed_out"
	StateMessagesFetched State = "messages_fetched"
)

var (
	// ErrRunFailed means the provider reported the run as failed. Surfaced
	// inline in the conversation; never retried automatically.
	ErrRunFailed = errors.New("assistant run failed")
	// ErrRunTimedOut means the run never reached a terminal status within
	// the attempt budget. The caller should offer a retry.
	ErrRunTimedOut = errors.New("assistant run timed out")
)

// API is the summarization provider surface the controller drives. Client
// implements it; tests substitute fakes.
type API interface {
	CreateThread(ctx context.Context) (string, error)
	PostMessage(ctx context.Context, threadID, text string) error
	StartRun(ctx context.Context, threadID string) (string, error)
	GetRunStatus(ctx context.Context, threadID, runID string) (RunStatus, error)
	ListMessages(ctx context.Context, threadID string) ([]models.Message, error)
}

// ControllerConfig bounds the run-status poll loop.
type ControllerConfig struct {
	PollInterval    time.Duration
	MaxPollAttempts int
}

// Controller manages the per-subject conversation workflow. Each subject is
// independent: a hung run for one subject never blocks another subject's
// workflow.
type Controller struct {
	api   API
	cache ThreadCache
	cfg   ControllerConfig

	mu       sync.Mutex
	subjects map[string]*subjectState
}

type subjectState struct {
	mu    sync.Mutex
	state State
	seen  map[string]struct{}
}

// NewController creates a workflow controller.
func NewController(api API, cache ThreadCache, cfg ControllerConfig) *Controller {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 1500 * time.Millisecond
	}
	if cfg.MaxPollAttempts <= 0 {
		cfg.MaxPollAttempts = 40
	}
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Controller{
		api:      api,
		cache:    cache,
		cfg:      cfg,
		subjects: make(map[string]*subjectState),
	}
}

// State reports the last observed workflow state for a subject.
func (c *Controller) State(subject string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.subjects[subject]; ok {
		return s.state
	}
	return StateIdle
}

// Summarize runs one full workflow cycle for a subject: resolve (or create)
// its thread, post the prompt with a size-bounded payload, start a run,
// poll until terminal, then fetch and return the assistant messages not yet
// surfaced, oldest first. Cancellation of ctx stops the poll loop.
func (c *Controller) Summarize(ctx context.Context, subject, prompt string, payload interface{}) ([]models.Message, error) {
	sub := c.subject(subject)
	sub.mu.Lock()
	defer sub.mu.Unlock()

	threadID, err := c.resolveThread(ctx, subject, sub)
	if err != nil {
		return nil, err
	}

	text := prompt
	if payload != nil {
		encoded, err := json.Marshal(TruncatePayload(payload))
		if err != nil {
			return nil, fmt.Errorf("encode summary payload: %w", err)
		}
		text = prompt + "\n\n" + string(encoded)
	}

	if err := c.api.PostMessage(ctx, threadID, text); err != nil {
		sub.state = StateIdle
		return nil, err
	}
	sub.state = StateMessagePosted

	runID, err := c.api.StartRun(ctx, threadID)
	if err != nil {
		sub.state = StateIdle
		return nil, err
	}
	sub.state = StateRunQueued

	started := time.Now()
	err = c.awaitRun(ctx, threadID, runID, sub)
	metrics.AssistantRunDuration.Observe(time.Since(started).Seconds())
	metrics.AssistantRuns.WithLabelValues(runOutcome(err)).Inc()
	if err != nil {
		return nil, err
	}
	sub.state = StateRunCompleted

	fresh, err := c.fetchNewMessages(ctx, threadID, sub)
	if err != nil {
		return nil, err
	}
	sub.state = StateMessagesFetched
	return fresh, nil
}

func (c *Controller) subject(key string) *subjectState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.subjects[key]
	if !ok {
		s = &subjectState{state: StateIdle, seen: make(map[string]struct{})}
		c.subjects[key] = s
	}
	return s
}

// resolveThread returns the cached thread for the subject, creating and
// caching one on first use. The caller holds the subject lock, so the
// check-then-write on the cache is atomic per subject.
func (c *Controller) resolveThread(ctx context.Context, subject string, sub *subjectState) (string, error) {
	threadID, ok, err := c.cache.Get(ctx, subject)
	if err != nil {
		return "", err
	}
	if ok {
		return threadID, nil
	}

	threadID, err = c.api.CreateThread(ctx)
	if err != nil {
		return "", err
	}
	if err := c.cache.Set(ctx, subject, threadID); err != nil {
		logger.Warnf("Failed to cache thread for subject %s: %v", subject, err)
	}
	sub.state = StateThreadCreated
	logger.Debugf("Created assistant thread %s for subject %s", threadID, subject)
	return threadID, nil
}

func runOutcome(err error) string {
	switch {
	case err == nil:
		return "completed"
	case errors.Is(err, ErrRunTimedOut):
		return "timed_out"
	case errors.Is(err, ErrRunFailed):
		return "failed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}

// awaitRun polls run status at a fixed interval until the run reaches a
// terminal status, the attempt budget is exhausted, or ctx is cancelled.
func (c *Controller) awaitRun(ctx context.Context, threadID, runID string, sub *subjectState) error {
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for attempt := 0; attempt < c.cfg.MaxPollAttempts; attempt++ {
		status, err := c.api.GetRunStatus(ctx, threadID, runID)
		if err != nil {
			sub.state = StateRunFailed
			return err
		}

		switch status {
		case RunCompleted:
			return nil
		case RunFailed, RunCancelled, RunExpired:
			sub.state = StateRunFailed
			return fmt.Errorf("%w: status %s", ErrRunFailed, status)
		case RunInProgress:
			sub.state = StateRunInProgress
		default:
			sub.state = StateRunQueued
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}

	sub.state = StateRunTimedOut
	return fmt.Errorf("%w after %d attempts", ErrRunTimedOut, c.cfg.MaxPollAttempts)
}

// fetchNewMessages returns assistant messages not yet surfaced for this
// subject, sorted by creation time ascending, and marks them seen so a
// repeated fetch never shows duplicates.
func (c *Controller) fetchNewMessages(ctx context.Context, threadID string, sub *subjectState) ([]models.Message, error) {
	all, err := c.api.ListMessages(ctx, threadID)
	if err != nil {
		return nil, err
	}

	fresh := make([]models.Message, 0, len(all))
	for _, m := range all {
		if m.Role != models.RoleAssistant {
			continue
		}
		if _, ok := sub.seen[m.ID]; ok {
			continue
		}
		fresh = append(fresh, m)
	}
	sort.Slice(fresh, func(i, j int) bool { return fresh[i].CreatedAt.Before(fresh[j].CreatedAt) })

	for i := range fresh {
		sub.seen[fresh[i].ID] = struct{}{}
		fresh[i].Seen = true
	}
	return fresh, nil
}
