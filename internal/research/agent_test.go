package research

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAgentQuery_UsesFixedBudget(t *testing.T) {
	q := NewAgentQuery("weather in Tokyo")

	assert.Equal(t, "weather in Tokyo", q.Query)
	assert.Equal(t, 2, q.MaxResearchLoops)
	assert.Equal(t, 3, q.InitialSearchQueryCount)

	data, err := json.Marshal(q.Input())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"messages": [{"role": "user", "content": "weather in Tokyo"}],
		"max_research_loops": 2,
		"initial_search_query_count": 3
	}`, string(data))
}

func TestAgentResult_FinalMessage(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
		wantErr  bool
	}{
		{
			name:     "string content",
			raw:      `{"messages":[{"type":"human","content":"q"},{"type":"ai","content":"**Sunny**, 25°C"}]}`,
			expected: "**Sunny**, 25°C",
		},
		{
			name:     "content parts",
			raw:      `{"messages":[{"content":[{"type":"text","text":"Hello "},{"type":"image_url","image_url":"x"},{"type":"text","text":"world"}]}]}`,
			expected: "Hello world",
		},
		{
			name:     "bare string parts",
			raw:      `{"messages":[{"content":["a","b"]}]}`,
			expected: "ab",
		},
		{
			name:     "empty string content is valid",
			raw:      `{"messages":[{"content":""}]}`,
			expected: "",
		},
		{name: "no messages key", raw: `{"sources":[]}`, wantErr: true},
		{name: "empty messages", raw: `{"messages":[]}`, wantErr: true},
		{name: "numeric content", raw: `{"messages":[{"content":42}]}`, wantErr: true},
		{name: "parts without text", raw: `{"messages":[{"content":[{"type":"image_url"}]}]}`, wantErr: true},
		{name: "invalid json", raw: `{"messages":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := &AgentResult{Raw: json.RawMessage(tt.raw)}
			got, err := result.FinalMessage()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoFinalMessage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestAgentResult_FinalMessage_Nil(t *testing.T) {
	var result *AgentResult
	_, err := result.FinalMessage()
	assert.ErrorIs(t, err, ErrNoFinalMessage)
}

func TestNewHTTPAgent_RequiresURL(t *testing.T) {
	_, err := NewHTTPAgent(HTTPAgentConfig{})
	assert.ErrorContains(t, err, "agent url is required")
}

func TestHTTPAgent_Invoke(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Api-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[{"content":"done"}]}`))
	}))
	defer server.Close()

	agent, err := NewHTTPAgent(HTTPAgentConfig{URL: server.URL + "/", APIKey: "secret"})
	require.NoError(t, err)

	result, err := agent.Invoke(context.Background(), NewAgentQuery("deep dive on X"))
	require.NoError(t, err)

	text, err := result.FinalMessage()
	require.NoError(t, err)
	assert.Equal(t, "done", text)

	assert.Equal(t, "/runs/wait", gotPath)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "agent", gotBody["assistant_id"])
	input := gotBody["input"].(map[string]interface{})
	assert.Equal(t, float64(2), input["max_research_loops"])
	assert.Equal(t, float64(3), input["initial_search_query_count"])
}

func TestHTTPAgent_Invoke_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(strings.Repeat("x", 2000)))
	}))
	defer server.Close()

	agent, err := NewHTTPAgent(HTTPAgentConfig{URL: server.URL, AssistantID: "researcher"})
	require.NoError(t, err)

	_, err = agent.Invoke(context.Background(), NewAgentQuery("q"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
	assert.Less(t, len(err.Error()), 600)
}

func TestHTTPAgent_Invoke_ErrorStatus_MultiByteBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		// 3-byte runes never line up with the 512 byte limit
		_, _ = w.Write([]byte("x" + strings.Repeat("研", 1000)))
	}))
	defer server.Close()

	agent, err := NewHTTPAgent(HTTPAgentConfig{URL: server.URL})
	require.NoError(t, err)

	_, err = agent.Invoke(context.Background(), NewAgentQuery("q"))
	require.Error(t, err)
	assert.True(t, utf8.ValidString(err.Error()), "excerpt split a rune")
	assert.True(t, strings.HasSuffix(err.Error(), "..."))
}

func TestExcerpt(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		limit int
		want  string
	}{
		{"short", "oops", 10, "oops"},
		{"exact", "abcd", 4, "abcd"},
		{"ascii cut", "abcdef", 4, "abcd..."},
		{"rune boundary", "ab研究", 5, "ab研..."},
		{"inside first rune", "研究", 2, "..."},
		{"empty", "", 4, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := excerpt([]byte(tt.body), tt.limit)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestHTTPAgent_Invoke_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	agent, err := NewHTTPAgent(HTTPAgentConfig{URL: server.URL})
	require.NoError(t, err)

	_, err = agent.Invoke(context.Background(), NewAgentQuery("q"))
	assert.ErrorContains(t, err, "invalid json")
}

func TestHTTPAgent_Invoke_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	agent, err := NewHTTPAgent(HTTPAgentConfig{URL: server.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = agent.Invoke(ctx, NewAgentQuery("q"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
