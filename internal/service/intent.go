package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"property-assistant/internal/apperr"
	"property-assistant/internal/model"
	"property-assistant/internal/utils"

	"go.uber.org/zap"
)

const classifyPromptTemplate = `You are an intent detector for a real-estate search assistant.
Understand %s.

Reply with exactly one JSON object and nothing else, in this shape:
{
  "taal": %s,
  "intentie": "algemene vraag" | "vastgoedzoekopdracht",
  "filters": {
    "min_slaapkamers": integer or null,
    "min_badkamers": integer or null,
    "zwembad": 1 or 0 or null,
    "max_prijs": number or null,
    "locatie": string or null
  }
}

Rules:
- "taal" is the language the user wrote in.
- "intentie" is "vastgoedzoekopdracht" when the user is looking for a property to buy or rent,
  otherwise "algemene vraag".
- Prices are plain numbers: "350k" = 350000, "1.2M" = 1200000.
- Use null for anything the user did not mention.`

var classifySystemPrompt = fmt.Sprintf(classifyPromptTemplate, languageNames(), languageChoices())

// intentSchema is the strict contract for classifier output
var intentSchema = utils.MustCompileSchema(fmt.Sprintf(`{
	"type": "object",
	"required": ["taal", "intentie", "filters"],
	"properties": {
		"taal": {"enum": %s},
		"intentie": {"enum": ["algemene vraag", "vastgoedzoekopdracht"]},
		"filters": {
			"type": "object",
			"properties": {
				"min_slaapkamers": {"type": ["integer", "null"], "minimum": 0},
				"min_badkamers": {"type": ["integer", "null"], "minimum": 0},
				"zwembad": {"type": ["integer", "boolean", "null"], "enum": [0, 1, true, false, null]},
				"max_prijs": {"type": ["number", "null"], "minimum": 0},
				"locatie": {"type": ["string", "null"]}
			}
		}
	}
}`, languageEnum()))

func languageEnum() string {
	codes, _ := json.Marshal(model.LanguageCodes)
	return string(codes)
}

func languageChoices() string {
	quoted := make([]string, len(model.LanguageCodes))
	for i, code := range model.LanguageCodes {
		quoted[i] = `"` + code + `"`
	}
	return strings.Join(quoted, " | ")
}

func languageNames() string {
	names := make([]string, len(model.LanguageCodes))
	for i, code := range model.LanguageCodes {
		names[i] = model.Languages[code]
	}
	last := len(names) - 1
	return strings.Join(names[:last], ", ") + " and " + names[last]
}

// IntentClassifier classifies prompts into an IntentResult using a chat model
type IntentClassifier struct {
	chat   ChatCompleter
	model  string
	logger *zap.Logger
}

// NewIntentClassifier creates a new intent classifier
func NewIntentClassifier(chat ChatCompleter, chatModel string, logger *zap.Logger) *IntentClassifier {
	return &IntentClassifier{chat: chat, model: chatModel, logger: logger}
}

// Classify detects language, intent and filters of prompt. Empty prompts fail
// before any call is made; output that does not match the schema is a
// ParseError.
func (c *IntentClassifier) Classify(ctx context.Context, prompt string) (*model.IntentResult, error) {
	const op = "classify"

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, apperr.InvalidInput(op, "prompt must not be empty")
	}

	resp, err := c.chat.ChatCompletion(ctx, ChatCompletionRequest{
		Model: c.model,
		Messages: []ChatMessage{
			{Role: "system", Content: classifySystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: float64Ptr(0),
	})
	if err != nil {
		return nil, apperr.Upstream(op, err, "intent classification call failed")
	}

	content := resp.FirstContent()
	var result model.IntentResult
	if err := utils.ParseAIJSON(content, intentSchema, &result); err != nil {
		c.logger.Warn("unparseable classifier output",
			zap.Error(err),
			zap.String("content", content))
		return nil, apperr.Parse(op, err, "could not understand the classifier output")
	}

	c.logger.Info("intent detected",
		zap.String("language", result.Language),
		zap.String("intent", result.Intent),
		zap.Any("filters", result.Filters))

	return &result, nil
}
