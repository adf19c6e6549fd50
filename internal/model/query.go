package model

import "encoding/json"

// Response types
const (
	ResponseProperties = "properties"
	ResponseAgent      = "agent"
	ResponseError      = "error"
)

// SearchRequest is the inbound request body
type SearchRequest struct {
	Prompt *string `json:"prompt"`
}

// ResultItem is one listing rendered for the caller
type ResultItem struct {
	Caption  string `json:"caption"`
	ImageURL string `json:"imageUrl"`
}

// SearchResponse is the single response produced for every request
type SearchResponse struct {
	Type    string       `json:"type"`
	Items   []ResultItem `json:"items,omitempty"`
	Text    string       `json:"text,omitempty"`
	Message string       `json:"message,omitempty"`
}

// MarshalJSON always writes items for a properties response, even when empty
func (r SearchResponse) MarshalJSON() ([]byte, error) {
	type plain SearchResponse
	if r.Type != ResponseProperties {
		return json.Marshal(plain(r))
	}
	items := r.Items
	if items == nil {
		items = []ResultItem{}
	}
	return json.Marshal(struct {
		Type  string       `json:"type"`
		Items []ResultItem `json:"items"`
		Text  string       `json:"text,omitempty"`
	}{r.Type, items, r.Text})
}

// PropertiesResponse builds a retrieval-branch response. items is never nil
// so an empty result still serializes as "items": [].
func PropertiesResponse(items []ResultItem, text string) *SearchResponse {
	if items == nil {
		items = []ResultItem{}
	}
	return &SearchResponse{Type: ResponseProperties, Items: items, Text: text}
}

// AgentResponse builds a fallback-branch response
func AgentResponse(message string) *SearchResponse {
	return &SearchResponse{Type: ResponseAgent, Message: message}
}

// ErrorResponse builds a failure response
func ErrorResponse(message string) *SearchResponse {
	return &SearchResponse{Type: ResponseError, Message: message}
}

// SearchLogEntry is one row of the search audit log
type SearchLogEntry struct {
	RequestID    string
	Prompt       string
	Language     string
	Intent       string
	Filters      *IntentFilters
	ResponseType string
	ResultCount  int
	ListingRefs  []string
	ResponseTime int64 // milliseconds
}
