package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"secdash/pkg/models"
)

func TestClientSendsAuthAndVersionHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.Equal(t, "assistants=v2", r.Header.Get("OpenAI-Beta"))
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/threads", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"id": "thread_abc"})
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{URL: server.URL, Token: "sk-test"})
	require.NoError(t, err)

	threadID, err := client.CreateThread(context.Background())
	require.NoError(t, err)
	require.Equal(t, "thread_abc", threadID)
}

func TestClientRejectsEmptyURL(t *testing.T) {
	_, err := NewClient(ClientConfig{})
	require.Error(t, err)
}

func TestPostMessageSendsUserRole(t *testing.T) {
	var captured map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/threads/thread_abc/messages", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{URL: server.URL})
	require.NoError(t, err)

	require.NoError(t, client.PostMessage(context.Background(), "thread_abc", "hello"))
	require.Equal(t, "user", captured["role"])
	require.Equal(t, "hello", captured["content"])
}

func TestStartRunAndGetRunStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/threads/t1/runs":
			json.NewEncoder(w).Encode(map[string]string{"id": "run_1", "status": "queued"})
		case r.Method == http.MethodGet && r.URL.Path == "/threads/t1/runs/run_1":
			json.NewEncoder(w).Encode(map[string]string{"status": "in_progress"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{URL: server.URL})
	require.NoError(t, err)

	runID, err := client.StartRun(context.Background(), "t1")
	require.NoError(t, err)
	require.Equal(t, "run_1", runID)

	status, err := client.GetRunStatus(context.Background(), "t1", "run_1")
	require.NoError(t, err)
	require.Equal(t, RunInProgress, status)
	require.False(t, status.Terminal())
	require.True(t, RunCompleted.Terminal())
}

func TestListMessagesFlattensContentParts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/threads/t1/messages", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{
					"id":         "msg_1",
					"role":       "assistant",
					"created_at": 1767225600,
					"content": []map[string]interface{}{
						{"text": map[string]string{"value": "Summary: "}},
						{"text": map[string]string{"value": "all clear."}},
					},
				},
			},
		})
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{URL: server.URL})
	require.NoError(t, err)

	msgs, err := client.ListMessages(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, "msg_1", msgs[0].ID)
	require.Equal(t, models.RoleAssistant, msgs[0].Role)
	require.Equal(t, "Summary: all clear.", msgs[0].Text)
	require.Equal(t, int64(1767225600), msgs[0].CreatedAt.Unix())
}

func TestClientSurfacesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{URL: server.URL})
	require.NoError(t, err)

	_, err = client.CreateThread(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
}
