package research

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/keepmind9/praxi/internal/logger"
	"github.com/keepmind9/praxi/pkg/constants"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// ErrNoFinalMessage is returned when an agent result carries no usable last message
var ErrNoFinalMessage = errors.New("agent result has no final message")

// Agent runs a research query to completion
type Agent interface {
	Invoke(ctx context.Context, query AgentQuery) (*AgentResult, error)
}

// AgentQuery is the per-request input of the agent
type AgentQuery struct {
	Query                   string
	MaxResearchLoops        int
	InitialSearchQueryCount int
}

// NewAgentQuery builds a query with the fixed loop budget and search breadth
func NewAgentQuery(query string) AgentQuery {
	return AgentQuery{
		Query:                   query,
		MaxResearchLoops:        constants.MaxResearchLoops,
		InitialSearchQueryCount: constants.InitialSearchQueryCount,
	}
}

// AgentMessage is one chat message in the agent's input
type AgentMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AgentInput is the graph input shape expected by the agent
type AgentInput struct {
	Messages                []AgentMessage `json:"messages"`
	MaxResearchLoops        int            `json:"max_research_loops"`
	InitialSearchQueryCount int            `json:"initial_search_query_count"`
}

// Input renders the query into the agent's graph input
func (q AgentQuery) Input() AgentInput {
	return AgentInput{
		Messages:                []AgentMessage{{Role: "user", Content: q.Query}},
		MaxResearchLoops:        q.MaxResearchLoops,
		InitialSearchQueryCount: q.InitialSearchQueryCount,
	}
}

// AgentResult is the agent's final state. Its schema belongs to the agent;
// only the last message is ever read.
type AgentResult struct {
	Raw json.RawMessage
}

// FinalMessage returns the text of the last entry of "messages". Content may
// be a plain string or a list of typed parts, whose text parts are joined.
func (r *AgentResult) FinalMessage() (string, error) {
	if r == nil || !gjson.ValidBytes(r.Raw) {
		return "", fmt.Errorf("%w: invalid result", ErrNoFinalMessage)
	}

	messages := gjson.GetBytes(r.Raw, "messages")
	if !messages.IsArray() {
		return "", fmt.Errorf("%w: messages missing", ErrNoFinalMessage)
	}
	items := messages.Array()
	if len(items) == 0 {
		return "", fmt.Errorf("%w: messages empty", ErrNoFinalMessage)
	}

	content := items[len(items)-1].Get("content")
	switch {
	case content.Type == gjson.String:
		return content.String(), nil
	case content.IsArray():
		var parts []string
		for _, part := range content.Array() {
			if part.Type == gjson.String {
				parts = append(parts, part.String())
				continue
			}
			if t := part.Get("type").String(); t == "" || t == "text" {
				if text := part.Get("text"); text.Exists() {
					parts = append(parts, text.String())
				}
			}
		}
		if len(parts) == 0 {
			return "", fmt.Errorf("%w: no text parts", ErrNoFinalMessage)
		}
		return strings.Join(parts, ""), nil
	default:
		return "", fmt.Errorf("%w: unsupported content", ErrNoFinalMessage)
	}
}

// HTTPAgentConfig configures the remote agent client
type HTTPAgentConfig struct {
	URL         string // Base URL of the agent server
	AssistantID string // Graph to run
	APIKey      string // Optional, sent as X-Api-Key
	HTTPClient  *http.Client
}

// HTTPAgent invokes a LangGraph-style agent server and waits for the run to finish
type HTTPAgent struct {
	endpoint    string
	assistantID string
	apiKey      string
	httpClient  *http.Client
}

type runRequest struct {
	AssistantID string     `json:"assistant_id"`
	Input       AgentInput `json:"input"`
}

// NewHTTPAgent creates an agent client for cfg.URL
func NewHTTPAgent(cfg HTTPAgentConfig) (*HTTPAgent, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("agent url is required")
	}
	assistantID := cfg.AssistantID
	if assistantID == "" {
		assistantID = constants.DefaultAssistantID
	}
	client := cfg.HTTPClient
	if client == nil {
		// No client timeout: the caller bounds each run through its context
		client = &http.Client{}
	}
	return &HTTPAgent{
		endpoint:    strings.TrimRight(cfg.URL, "/") + "/runs/wait",
		assistantID: assistantID,
		apiKey:      cfg.APIKey,
		httpClient:  client,
	}, nil
}

// Invoke blocks until the agent run completes or ctx is done
func (a *HTTPAgent) Invoke(ctx context.Context, query AgentQuery) (*AgentResult, error) {
	body, err := json.Marshal(runRequest{AssistantID: a.assistantID, Input: query.Input()})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal agent request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create agent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if a.apiKey != "" {
		req.Header.Set("X-Api-Key", a.apiKey)
	}

	logger.WithFields(logrus.Fields{
		"endpoint":     a.endpoint,
		"assistant_id": a.assistantID,
		"query_length": len(query.Query),
	}).Debug("invoking-agent")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("agent request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// one byte past the limit tells a truncated body from an exact fit
		body, _ := io.ReadAll(io.LimitReader(resp.Body, constants.MaxErrorBodyLength+1))
		return nil, fmt.Errorf("agent returned status %d: %s", resp.StatusCode, excerpt(body, constants.MaxErrorBodyLength))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read agent response: %w", err)
	}

	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("agent returned invalid json")
	}

	return &AgentResult{Raw: data}, nil
}

// excerpt cuts body to at most limit bytes without splitting a UTF-8 sequence
func excerpt(body []byte, limit int) string {
	if len(body) <= limit {
		return string(body)
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return string(body[:cut]) + "..."
}
