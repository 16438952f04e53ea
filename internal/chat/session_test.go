package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSession_Defaults(t *testing.T) {
	var raw map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat/sessions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, _ = w.Write([]byte(`{"session_id":"abc","status":"active","context_type":"api_design","websocket_url":"/ws/chat/abc","message_count":0}`))
	}))
	defer srv.Close()

	sess, err := NewSessions(srv.URL).CreateSession(context.Background(), "api_design", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "abc", sess.SessionID)
	assert.Equal(t, "active", sess.Status)
	assert.Equal(t, "/ws/chat/abc", sess.WebsocketURL)

	require.Contains(t, raw, "session_config")
	assert.NotContains(t, raw, "config")
	assert.JSONEq(t, `"api_design"`, string(raw["context_type"]))
	assert.JSONEq(t, `"`+DefaultUserID+`"`, string(raw["user_id"]))
	assert.JSONEq(t, `{}`, string(raw["initial_context"]))
	assert.JSONEq(t, `{"max_questions":10,"timeout_minutes":30,"auto_finalize":true,"temperature":0.7,"model":"gpt-4o-mini"}`, string(raw["session_config"]))
}

func TestCreateSession_CustomConfig(t *testing.T) {
	var raw map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, _ = w.Write([]byte(`{"session_id":"x"}`))
	}))
	defer srv.Close()

	cfg := SessionConfig{MaxQuestions: 3, TimeoutMinutes: 5, Temperature: 0.2, Model: "llama3"}
	_, err := NewSessions(srv.URL+"/").CreateSession(context.Background(), "custom", map[string]any{"k": "v"}, &cfg)
	require.NoError(t, err)

	require.Contains(t, raw, "session_config")
	var got SessionConfig
	require.NoError(t, json.Unmarshal(raw["session_config"], &got))
	assert.Equal(t, cfg, got)
	assert.JSONEq(t, `{"k":"v"}`, string(raw["initial_context"]))
}

func TestCreateSession_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewSessions(srv.URL).CreateSession(context.Background(), "custom", nil, nil)
	require.Error(t, err)
	assert.Equal(t, "failed to create chat session: Service Unavailable", err.Error())
}

func TestContextTypeForStep(t *testing.T) {
	want := map[int]string{
		1: "requirements_improvement",
		2: "api_design",
		3: "data_modeling",
		4: "schema_design",
		5: "business_logic",
		6: "testing_strategy",
		0: "custom",
		7: "custom",
	}
	for step, ct := range want {
		assert.Equal(t, ct, ContextTypeForStep(step), "step %d", step)
	}
}

func TestInitialContext(t *testing.T) {
	in := ContextInput{
		ProjectName:         "payments",
		BoilerplateTemplate: "REST API Service",
		Requirements:        "Build a payment API",
		ExistingSchema:      "CREATE TABLE t();",
	}

	assert.Equal(t, map[string]any{
		"requirements_text": "Build a payment API",
		"project_name":      "payments",
		"boilerplate":       "REST API Service",
	}, InitialContext(1, in))

	schema := InitialContext(4, in)
	assert.Equal(t, "PostgreSQL", schema["database_type"])
	assert.Equal(t, "CREATE TABLE t();", schema["existing_schema"])
	assert.Equal(t, "Build a payment API", schema["requirements"])

	in.DatabaseType = "MySQL"
	assert.Equal(t, "MySQL", InitialContext(4, in)["database_type"])

	assert.Equal(t, map[string]any{
		"requirements": "Build a payment API",
		"project_name": "payments",
	}, InitialContext(3, in))
}
