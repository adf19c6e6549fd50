package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"property-assistant/internal/apperr"
	"property-assistant/internal/config"
	"property-assistant/internal/metrics"
	"property-assistant/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// State is a step of the search pipeline
type State string

const (
	StateClassifying State = "CLASSIFYING"
	StateEmbedding   State = "EMBEDDING"
	StateRetrieving  State = "RETRIEVING"
	StateLocalizing  State = "LOCALIZING"
	StateFormatting  State = "FORMATTING"
	StateFallback    State = "FALLBACK"
	StateDone        State = "DONE"
	StateFailed      State = "FAILED"
)

// IntentDetector classifies a prompt
type IntentDetector interface {
	Classify(ctx context.Context, prompt string) (*model.IntentResult, error)
}

// TextEmbedder embeds a prompt
type TextEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ListingFinder retrieves candidate listings
type ListingFinder interface {
	Retrieve(ctx context.Context, embedding []float32, filters model.IntentFilters) ([]model.Listing, error)
}

// TextLocalizer renders text in a target language
type TextLocalizer interface {
	Localize(ctx context.Context, text, lang string) (string, error)
}

// FallbackAgent answers prompts that are not property searches
type FallbackAgent interface {
	Reply(ctx context.Context, prompt, lang string) (string, error)
}

// SearchDeps are the collaborators of SearchService. SearchLog is optional.
type SearchDeps struct {
	Classifier IntentDetector
	Embedder   TextEmbedder
	Retriever  ListingFinder
	Localizer  TextLocalizer
	Agent      FallbackAgent
	Formatter  *Formatter
	SearchLog  SearchLogger
}

// SearchService runs the prompt → reply pipeline
type SearchService struct {
	deps        SearchDeps
	layout      string
	concurrency int
	logger      *zap.Logger
}

// NewSearchService creates a new search service
func NewSearchService(deps SearchDeps, searchCfg config.SearchConfig, logger *zap.Logger) *SearchService {
	if deps.Formatter == nil {
		deps.Formatter = NewFormatter()
	}
	concurrency := searchCfg.LocalizeConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &SearchService{
		deps:        deps,
		layout:      searchCfg.ResponseLayout,
		concurrency: concurrency,
		logger:      logger,
	}
}

// searchTrace collects what one run learned, for logging and the audit row
type searchTrace struct {
	requestID string
	prompt    string
	intent    *model.IntentResult
	listings  []model.Listing
	state     State
}

// Search runs the whole pipeline. It never returns an error or panics: every
// outcome is a response typed properties, agent or error.
func (s *SearchService) Search(ctx context.Context, prompt string) (resp *model.SearchResponse) {
	start := time.Now()
	trace := &searchTrace{requestID: uuid.NewString(), prompt: prompt}
	log := s.logger.With(zap.String("request_id", trace.requestID))

	defer func() {
		if r := recover(); r != nil {
			log.Error("search panicked",
				zap.Any("panic", r),
				zap.String("state", string(trace.state)),
				zap.Stack("stack"))
			resp = s.fail(trace, log, apperr.New(apperr.KindInternal, "search", fmt.Sprintf("unexpected failure: %v", r)))
		}

		metrics.SearchResponses.WithLabelValues(resp.Type).Inc()
		took := time.Since(start)
		log.Info("search finished",
			zap.String("type", resp.Type),
			zap.Int("items", len(resp.Items)),
			zap.Duration("took", took))
		s.logSearch(trace, resp, took)
	}()

	resp, err := s.run(ctx, trace, log)
	if err != nil {
		return s.fail(trace, log, err)
	}
	s.enter(trace, log, StateDone)
	return resp
}

func (s *SearchService) run(ctx context.Context, trace *searchTrace, log *zap.Logger) (*model.SearchResponse, error) {
	s.enter(trace, log, StateClassifying)
	intent, err := timed(StateClassifying, func() (*model.IntentResult, error) {
		return s.deps.Classifier.Classify(ctx, trace.prompt)
	})
	if err != nil {
		return nil, err
	}
	trace.intent = intent

	if !intent.IsPropertySearch() {
		s.enter(trace, log, StateFallback)
		reply, err := timed(StateFallback, func() (string, error) {
			return s.deps.Agent.Reply(ctx, trace.prompt, intent.Language)
		})
		if err != nil {
			return nil, err
		}
		return model.AgentResponse(reply), nil
	}

	s.enter(trace, log, StateEmbedding)
	embedding, err := timed(StateEmbedding, func() ([]float32, error) {
		return s.deps.Embedder.Embed(ctx, trace.prompt)
	})
	if err != nil {
		return nil, err
	}

	s.enter(trace, log, StateRetrieving)
	listings, err := timed(StateRetrieving, func() ([]model.Listing, error) {
		return s.deps.Retriever.Retrieve(ctx, embedding, intent.Filters)
	})
	if err != nil {
		return nil, err
	}
	trace.listings = listings
	metrics.ListingsReturned.Observe(float64(len(listings)))

	s.enter(trace, log, StateLocalizing)
	localized, _ := timed(StateLocalizing, func() ([]model.LocalizedListing, error) {
		return s.localize(ctx, listings, intent.Language, log), nil
	})

	s.enter(trace, log, StateFormatting)
	items := s.deps.Formatter.Captions(localized, intent.Language)
	var text string
	if s.layout == config.LayoutBlock {
		text = s.deps.Formatter.Block(localized, intent.Language)
	}
	return model.PropertiesResponse(items, text), nil
}

// localize fans out one localization per listing and joins before returning.
// Each goroutine owns its slot, so output order equals retrieval order. A
// failed localization keeps the source text.
func (s *SearchService) localize(ctx context.Context, listings []model.Listing, lang string, log *zap.Logger) []model.LocalizedListing {
	out := make([]model.LocalizedListing, len(listings))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := range listings {
		i := i
		g.Go(func() error {
			l := listings[i]
			item := model.LocalizedListing{Listing: l}

			item.LocalizedDescription = s.localizeOrKeep(gctx, deref(l.Description), lang, deref(l.Ref), log)
			if s.layout == config.LayoutBlock && len(l.Features) > 0 {
				item.LocalizedFeatures = s.localizeOrKeep(gctx, strings.Join(l.Features, ", "), lang, deref(l.Ref), log)
			}

			out[i] = item
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (s *SearchService) localizeOrKeep(ctx context.Context, text, lang, ref string, log *zap.Logger) string {
	localized, err := s.deps.Localizer.Localize(ctx, text, lang)
	if err != nil {
		log.Warn("localization failed, keeping source text",
			zap.String("ref", ref),
			zap.Error(err))
		return text
	}
	if localized == "" {
		return text
	}
	return localized
}

func (s *SearchService) fail(trace *searchTrace, log *zap.Logger, err error) *model.SearchResponse {
	failedIn := trace.state
	s.enter(trace, log, StateFailed)

	kind := apperr.KindOf(err)
	metrics.SearchErrors.WithLabelValues(string(kind)).Inc()
	log.Error("search failed",
		zap.String("state", string(failedIn)),
		zap.String("kind", string(kind)),
		zap.Error(err))

	return model.ErrorResponse(apperr.UserMessage(err))
}

func (s *SearchService) enter(trace *searchTrace, log *zap.Logger, state State) {
	trace.state = state
	log.Debug("search state", zap.String("state", string(state)))
}

// logSearch writes the audit row in the background so it never delays the reply
func (s *SearchService) logSearch(trace *searchTrace, resp *model.SearchResponse, took time.Duration) {
	if s.deps.SearchLog == nil {
		return
	}

	entry := model.SearchLogEntry{
		RequestID:    trace.requestID,
		Prompt:       trace.prompt,
		ResponseType: resp.Type,
		ResultCount:  len(resp.Items),
		ResponseTime: took.Milliseconds(),
	}
	if trace.intent != nil {
		entry.Language = trace.intent.Language
		entry.Intent = trace.intent.Intent
		filters := trace.intent.Filters
		entry.Filters = &filters
	}
	for _, l := range trace.listings {
		if l.Ref != nil {
			entry.ListingRefs = append(entry.ListingRefs, *l.Ref)
		}
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.deps.SearchLog.LogSearch(ctx, entry); err != nil {
			s.logger.Warn("failed to write search log",
				zap.String("request_id", entry.RequestID),
				zap.Error(err))
		}
	}()
}

// timed runs fn and records its duration under stage
func timed[T any](stage State, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	metrics.StageDuration.WithLabelValues(string(stage)).Observe(time.Since(start).Seconds())
	return v, err
}
