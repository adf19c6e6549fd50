package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"property-assistant/internal/apperr"
	"property-assistant/internal/config"
	"property-assistant/internal/metrics"

	"go.uber.org/zap"
)

// Run statuses reported by the assistants API
const (
	RunQueued         = "queued"
	RunInProgress     = "in_progress"
	RunCompleted      = "completed"
	RunRequiresAction = "requires_action"
	RunCancelling     = "cancelling"
	RunCancelled      = "cancelled"
	RunFailed         = "failed"
	RunExpired        = "expired"
	RunIncomplete     = "incomplete"
)

// Assistant answers non-search prompts through a hosted assistant thread
type Assistant struct {
	api    ThreadsAPI
	cfg    config.AssistantConfig
	logger *zap.Logger
}

// NewAssistant creates a new fallback assistant
func NewAssistant(api ThreadsAPI, cfg config.AssistantConfig, logger *zap.Logger) *Assistant {
	return &Assistant{api: api, cfg: cfg, logger: logger}
}

// Reply posts prompt to a fresh thread and waits for the run to complete.
// The wait is bounded by cfg.MaxPolls and cfg.Timeout and ends early when
// ctx is cancelled.
func (a *Assistant) Reply(ctx context.Context, prompt, lang string) (string, error) {
	const op = "assistant"

	if strings.TrimSpace(prompt) == "" {
		return "", apperr.InvalidInput(op, "prompt must not be empty")
	}
	if a.cfg.ID == "" {
		return "", apperr.Upstream(op, errors.New("OPENAI_ASSISTANT_ID is not set"), "assistant is not configured")
	}

	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	threadID, err := a.api.CreateThread(ctx)
	if err != nil {
		return "", a.callError(ctx, op, err, "could not create thread")
	}
	if err := a.api.CreateMessage(ctx, threadID, "user", prompt); err != nil {
		return "", a.callError(ctx, op, err, "could not post message")
	}
	run, err := a.api.CreateRun(ctx, threadID, a.cfg.ID)
	if err != nil {
		return "", a.callError(ctx, op, err, "could not start run")
	}

	log := a.logger.With(zap.String("thread_id", threadID), zap.String("run_id", run.ID))

	if err := a.waitForCompletion(ctx, threadID, run, log); err != nil {
		return "", err
	}

	messages, err := a.api.ListMessages(ctx, threadID)
	if err != nil {
		return "", a.callError(ctx, op, err, "could not list messages")
	}
	for _, m := range messages {
		if m.Role != "assistant" {
			continue
		}
		if text := strings.TrimSpace(m.Text()); text != "" {
			return text, nil
		}
	}

	log.Warn("assistant run completed without a reply")
	return phrasesFor(lang).NoAnswer, nil
}

func (a *Assistant) waitForCompletion(ctx context.Context, threadID string, run *Run, log *zap.Logger) error {
	const op = "assistant"

	timer := time.NewTimer(a.cfg.PollInterval)
	defer timer.Stop()

	status := run.Status
	for polls := 0; ; {
		switch status {
		case RunCompleted:
			metrics.AssistantPolls.Observe(float64(polls))
			log.Debug("assistant run completed", zap.Int("polls", polls))
			return nil
		case RunFailed, RunCancelled, RunExpired, RunIncomplete, RunRequiresAction:
			msg := "run ended with status " + status
			if run.LastError != nil && run.LastError.Message != "" {
				msg += ": " + run.LastError.Message
			}
			return apperr.Upstream(op, errors.New(msg), "assistant run did not complete")
		}

		if polls >= a.cfg.MaxPolls {
			return apperr.Timeout(op, fmt.Errorf("run still %q after %d polls", status, polls), "assistant did not answer in time")
		}

		select {
		case <-ctx.Done():
			return apperr.Timeout(op, ctx.Err(), "assistant did not answer in time")
		case <-timer.C:
		}

		polls++
		next, err := a.api.GetRun(ctx, threadID, run.ID)
		if err != nil {
			return a.callError(ctx, op, err, "could not poll run")
		}
		run = next
		status = run.Status
		timer.Reset(a.cfg.PollInterval)
	}
}

// callError maps an API failure to Timeout when the deadline caused it
func (a *Assistant) callError(ctx context.Context, op string, err error, msg string) error {
	if ctx.Err() != nil {
		return apperr.Timeout(op, err, "assistant did not answer in time")
	}
	return apperr.Upstream(op, err, msg)
}
