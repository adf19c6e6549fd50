package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"property-assistant/internal/apperr"
	"property-assistant/internal/config"
	"property-assistant/internal/model"

	"go.uber.org/zap"
)

// Localizer summarizes and/or translates listing text into the user's language.
// The mode is fixed at construction: config.LocalizeSummarize or
// config.LocalizeTranslate.
type Localizer struct {
	chat   ChatCompleter
	model  string
	mode   string
	cache  TextCache
	logger *zap.Logger
}

// NewLocalizer creates a new localizer. cache may be nil.
func NewLocalizer(chat ChatCompleter, chatModel, mode string, cache TextCache, logger *zap.Logger) *Localizer {
	if mode != config.LocalizeTranslate {
		mode = config.LocalizeSummarize
	}
	return &Localizer{chat: chat, model: chatModel, mode: mode, cache: cache, logger: logger}
}

// Localize returns text rendered in lang. Empty text yields "" without a call.
func (l *Localizer) Localize(ctx context.Context, text, lang string) (string, error) {
	const op = "localize"

	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	key := l.cacheKey(text, lang)
	if l.cache != nil {
		if cached, ok, err := l.cache.Get(ctx, key); err != nil {
			l.logger.Warn("localize cache read failed", zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	resp, err := l.chat.ChatCompletion(ctx, ChatCompletionRequest{
		Model:       l.model,
		Messages:    []ChatMessage{{Role: "user", Content: l.prompt(text, lang)}},
		Temperature: float64Ptr(0),
	})
	if err != nil {
		return "", apperr.Upstream(op, err, "localization call failed")
	}

	out := strings.TrimSpace(resp.FirstContent())
	if out != "" && l.cache != nil {
		if err := l.cache.Set(ctx, key, out); err != nil {
			l.logger.Warn("localize cache write failed", zap.Error(err))
		}
	}
	return out, nil
}

func (l *Localizer) prompt(text, lang string) string {
	name := model.Languages[lang]
	if name == "" {
		name = lang
	}
	if l.mode == config.LocalizeTranslate {
		return fmt.Sprintf("Translate the following text into %s. Reply with the translation only:\n\n%s", name, text)
	}
	return fmt.Sprintf("Summarize the following text in at most 4 sentences and translate it into %s. Reply with the summary only:\n\n%s", name, text)
}

func (l *Localizer) cacheKey(text, lang string) string {
	sum := sha256.Sum256([]byte(text))
	return l.mode + ":" + lang + ":" + hex.EncodeToString(sum[:])
}
