package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testErrorSignature = "Sorry, I encountered an error"

func TestDispatchSendsPayloadAndAuth(t *testing.T) {
	var gotAuth, gotContentType string
	var gotBody map[string]string
	requests := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL, "shared-secret", testErrorSignature, 0)
	outcome, err := d.Dispatch(context.Background(), "nb-1", "hello", "user-1")
	require.NoError(t, err)

	assert.Equal(t, 1, requests)
	assert.Equal(t, "shared-secret", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "nb-1", gotBody["session_id"])
	assert.Equal(t, "hello", gotBody["message"])
	assert.Equal(t, "user-1", gotBody["user_id"])

	ts, parseErr := time.Parse(time.RFC3339, gotBody["timestamp"])
	require.NoError(t, parseErr)
	assert.WithinDuration(t, time.Now().UTC(), ts, time.Minute)

	assert.Equal(t, OutcomeSuccess, outcome.Class)
	assert.Equal(t, "ok", outcome.Body)
}

func TestDispatchTransportError(t *testing.T) {
	d := NewDispatcher("http://127.0.0.1:1", "secret", testErrorSignature, 0)
	_, err := d.Dispatch(context.Background(), "nb-1", "hello", "")
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	d := NewDispatcher("http://example.com/webhook", "secret", testErrorSignature, 0)

	tests := []struct {
		name   string
		status int
		body   string
		want   OutcomeClass
	}{
		{
			name:   "canned apology is a semantic failure",
			status: 200,
			body:   `{"output":[{"text":"Sorry, I encountered an error talking to the model","citations":[]}]}`,
			want:   OutcomeSemanticFailure,
		},
		{
			name:   "genuine answer is success",
			status: 200,
			body:   `{"output":[{"text":"Paris is the capital of France","citations":[]}]}`,
			want:   OutcomeSuccess,
		},
		{
			name:   "non-2xx is a transport failure regardless of body",
			status: 503,
			body:   `{"output":[{"text":"Paris","citations":[]}]}`,
			want:   OutcomeTransportFailure,
		},
		{
			name:   "error field is a semantic failure",
			status: 200,
			body:   `{"error":"workflow blew up"}`,
			want:   OutcomeSemanticFailure,
		},
		{
			name:   "non-JSON 2xx body is an opaque success",
			status: 200,
			body:   "plain text reply",
			want:   OutcomeSuccess,
		},
		{
			name:   "empty 2xx body is success",
			status: 204,
			body:   "",
			want:   OutcomeSuccess,
		},
		{
			name:   "JSON without error markers is success",
			status: 200,
			body:   `{"result":"fine"}`,
			want:   OutcomeSuccess,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := d.classify(tt.status, tt.body)
			assert.Equal(t, tt.want, outcome.Class)
			assert.Equal(t, tt.status, outcome.StatusCode)
			assert.Equal(t, tt.body, outcome.Body)
		})
	}
}
