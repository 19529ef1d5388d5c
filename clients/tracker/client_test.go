package tracker

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mmjira/config"
	"mmjira/core"
	"mmjira/models"
)

type recordedCalls struct {
	mu    sync.Mutex
	calls []models.TrackerCall
}

func (r *recordedCalls) RecordTrackerCall(_ context.Context, call models.TrackerCall) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *recordedCalls) all() []models.TrackerCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.TrackerCall{}, r.calls...)
}

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate ...func(*Options)) (*Client, *recordedCalls) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts := Options{
		BaseURL:       server.URL,
		APIUserEmail:  "bot@example.com",
		APIToken:      "secret-token",
		DefaultLabels: []string{"public-submitted"},
	}
	for _, m := range mutate {
		m(&opts)
	}

	recorder := &recordedCalls{}
	return NewClient(opts, server.Client(), recorder), recorder
}

func TestClient_Request_BasicAuthAndQuery(t *testing.T) {
	client, recorder := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		expected := "Basic " + base64.StdEncoding.EncodeToString([]byte("bot@example.com:secret-token"))
		assert.Equal(t, expected, r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "/rest/api/2/user/search", r.URL.Path)
		assert.Equal(t, "jane@example.com", r.URL.Query().Get("query"))
		w.Write([]byte(`[]`))
	})

	raw, err := client.Request(context.Background(), http.MethodGet, "/rest/api/2/user/search", map[string]string{"query": "jane@example.com"})
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))

	calls := recorder.all()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodGet, calls[0].Method)
	assert.Equal(t, http.StatusOK, calls[0].ResponseCode)
	assert.Equal(t, "Basic [REDACTED]", calls[0].RequestHeaders["Authorization"])
	assert.NotContains(t, calls[0].URL, "secret-token")
}

func TestClient_Request_BearerWhenNoEmail(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}, func(o *Options) { o.APIUserEmail = "" })

	raw, err := client.Request(context.Background(), http.MethodPut, "/rest/api/2/issue/OPS-1/assignee", models.AssigneeRequest{AccountID: "abc"})
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestClient_Request_FailsClosedWithoutCredentials(t *testing.T) {
	called := false
	client, recorder := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	}, func(o *Options) { o.APIToken = "" })

	_, err := client.Request(context.Background(), http.MethodGet, "/rest/api/2/project", nil)

	var configErr *core.ConfigurationError
	require.True(t, errors.As(err, &configErr))
	assert.False(t, called)
	assert.Empty(t, recorder.all())
}

func TestClient_Request_FailsClosedWithoutBaseURL(t *testing.T) {
	client := NewClient(Options{APIToken: "t"}, nil, nil)

	_, err := client.Request(context.Background(), http.MethodGet, "/rest/api/2/project", nil)

	var configErr *core.ConfigurationError
	assert.True(t, errors.As(err, &configErr))
}

func TestClient_Request_ErrorMessagePriority(t *testing.T) {
	testCases := []struct {
		name     string
		status   int
		body     string
		expected string
	}{
		{
			name:     "errorMessages array wins",
			status:   http.StatusBadRequest,
			body:     `{"errorMessages":["Issue does not exist","Second"],"errors":{"summary":"required"}}`,
			expected: "Issue does not exist, Second",
		},
		{
			name:     "errors map joined by field",
			status:   http.StatusBadRequest,
			body:     `{"errorMessages":[],"errors":{"summary":"You must specify a summary","issuetype":"required"}}`,
			expected: "issuetype: required, summary: You must specify a summary",
		},
		{
			name:     "short plain body",
			status:   http.StatusBadGateway,
			body:     `<html><body>Bad gateway</body></html>`,
			expected: "Bad gateway",
		},
		{
			name:     "long plain body falls back",
			status:   http.StatusInternalServerError,
			body:     strings.Repeat("x", 250),
			expected: "Jira API error",
		},
		{
			name:     "empty json falls back",
			status:   http.StatusInternalServerError,
			body:     `{}`,
			expected: "Jira API error",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client, recorder := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})

			_, err := client.Request(context.Background(), http.MethodGet, "/rest/api/2/issue/OPS-1", nil)

			var apiErr *core.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tc.status, apiErr.Status)
			assert.Equal(t, tc.expected, apiErr.Message)
			assert.Equal(t, tc.body, apiErr.Body)

			calls := recorder.all()
			require.Len(t, calls, 1)
			assert.Equal(t, tc.status, calls[0].ResponseCode)
			assert.Error(t, calls[0].Err)
		})
	}
}

func TestClient_Request_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	recorder := &recordedCalls{}
	client := NewClient(Options{BaseURL: server.URL, APIToken: "t"}, nil, recorder)

	_, err := client.Request(context.Background(), http.MethodGet, "/rest/api/2/project", nil)

	var transportErr *core.TransportError
	require.True(t, errors.As(err, &transportErr))
	calls := recorder.all()
	require.Len(t, calls, 1)
	assert.Equal(t, 0, calls[0].ResponseCode)
}

func TestClient_Request_IgnoresCallerCancellation(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"accountId":"me"}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	user, err := client.Myself(ctx)
	require.NoError(t, err)
	assert.Equal(t, "me", user.AccountID)
}

func TestClient_CreateIssue_Payload(t *testing.T) {
	var payload map[string]map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/api/2/issue", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"10001","key":"OPS-42","self":"https://x/rest/api/2/issue/10001"}`))
	})

	created, err := client.CreateIssue(context.Background(), models.IssueInput{
		ProjectKey:        "OPS",
		Summary:           "  Fix login  ",
		Description:       "Users cannot log in",
		IssueType:         "Bug",
		Labels:            []string{"mattermost", "public-submitted"},
		ReporterAccountID: "acc-1",
		SubmitterName:     "Jane",
		SubmitterEmail:    "jane@example.com",
		Vertical:          "Retail",
		Impact:            "high_impact",
	})
	require.NoError(t, err)
	assert.Equal(t, "OPS-42", created.Key)

	fields := payload["fields"]
	assert.Equal(t, map[string]any{"key": "OPS"}, fields["project"])
	assert.Equal(t, "Fix login", fields["summary"])
	assert.Equal(t, map[string]any{"name": "Bug"}, fields["issuetype"])
	assert.Equal(t, map[string]any{"accountId": "acc-1"}, fields["reporter"])
	assert.Equal(t, []any{"public-submitted", "mattermost"}, fields["labels"])
	assert.Equal(t,
		"Users cannot log in\n\n--- Submitted By ---\nName: Jane\nEmail: jane@example.com\nVertical: Retail\nImpact: High impact",
		fields["description"])
}

func TestClient_CreateIssue_CustomFieldFallback(t *testing.T) {
	attempts := 0
	client, recorder := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		body, _ := io.ReadAll(r.Body)
		if strings.Contains(string(body), "customfield_") {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"errorMessages":[],"errors":{"customfield_10050":"Field 'customfield_10050' cannot be set."}}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"10002","key":"OPS-43"}`))
	}, func(o *Options) {
		o.CustomFieldVerticalID = "customfield_10050"
		o.CustomFieldImpactID = "10051"
	})

	created, err := client.CreateIssue(context.Background(), models.IssueInput{
		ProjectKey:  "OPS",
		Summary:     "Checkout broken",
		Description: "Details",
		Vertical:    "Retail",
		Impact:      "critical",
	})
	require.NoError(t, err)
	assert.Equal(t, "OPS-43", created.Key)
	assert.Equal(t, 2, attempts)

	calls := recorder.all()
	require.Len(t, calls, 2)

	var first map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(calls[0].RequestBody), &first))
	assert.Equal(t, "Retail", first["fields"]["customfield_10050"])
	assert.Equal(t, "Critical", first["fields"]["customfield_10051"])
	assert.Equal(t, "Details", first["fields"]["description"])

	var second map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(calls[1].RequestBody), &second))
	for key := range second["fields"] {
		assert.False(t, strings.HasPrefix(key, "customfield_"), "unexpected key %s in retried payload", key)
	}
	assert.Equal(t, "Details\nVertical: Retail\nImpact: Critical", second["fields"]["description"])
}

func TestClient_CreateIssue_NoRetryForOtherErrors(t *testing.T) {
	attempts := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errors":{"summary":"required"}}`))
	}, func(o *Options) { o.CustomFieldVerticalID = "customfield_1" })

	_, err := client.CreateIssue(context.Background(), models.IssueInput{ProjectKey: "OPS", Summary: "x", Vertical: "Retail"})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestClient_CreateIssue_RequiresProject(t *testing.T) {
	client, recorder := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := client.CreateIssue(context.Background(), models.IssueInput{Summary: "x"})

	var configErr *core.ConfigurationError
	assert.True(t, errors.As(err, &configErr))
	assert.Empty(t, recorder.all())
}

func TestClient_GetIssueTypes_FallsThroughEndpoints(t *testing.T) {
	var paths []string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/rest/api/3/project/OPS" {
			w.Write([]byte(`{"key":"OPS","issueTypes":[{"id":"1","name":"Bug"},{"id":"2","name":"Story"}]}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"errorMessages":["not here"]}`))
	})

	types, err := client.GetIssueTypes(context.Background(), "OPS")
	require.NoError(t, err)
	require.Len(t, types, 2)
	assert.Equal(t, "Bug", types[0].Name)
	assert.Equal(t, []string{
		"/rest/api/3/issue/createmeta/OPS/issuetypes",
		"/rest/api/2/issue/createmeta/OPS/issuetypes",
		"/rest/api/3/project/OPS",
	}, paths)
}

func TestClient_GetIssueTypes_ValuesShape(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"values":[{"id":"3","name":"Task"}],"total":1}`))
	})

	types, err := client.GetIssueTypes(context.Background(), "OPS")
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, "Task", types[0].Name)
}

func TestClient_GetIssueTypes_StatusClassification(t *testing.T) {
	testCases := []struct {
		status   int
		sentinel error
	}{
		{status: http.StatusNotFound, sentinel: core.ErrProjectNotFound},
		{status: http.StatusForbidden, sentinel: core.ErrPermissionDenied},
		{status: http.StatusUnauthorized, sentinel: core.ErrAuthenticationFailed},
	}

	for _, tc := range testCases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				// message text deliberately carries no status number
				w.Write([]byte(`{"errorMessages":["nope"]}`))
			})

			_, err := client.GetIssueTypes(context.Background(), "OPS")
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.sentinel)

			var apiErr *core.APIError
			assert.True(t, errors.As(err, &apiErr))
		})
	}
}

func TestClient_ValidateIssueType(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"values":[{"id":"1","name":"Bug"},{"id":"2","name":"Task"}]}`))
	})

	issueType, err := client.ValidateIssueType(context.Background(), "OPS", "bug")
	require.NoError(t, err)
	assert.Equal(t, "1", issueType.ID)

	_, err = client.ValidateIssueType(context.Background(), "OPS", "Epic")
	var validationErr *core.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Contains(t, validationErr.Message, "Available types: Bug, Task")
}

func TestClient_SearchIssues(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req models.IssueSearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, `project = OPS AND summary ~ "login"`, req.JQL)
		assert.Equal(t, 5, req.MaxResults)
		assert.Equal(t, []string{"summary", "key"}, req.Fields)
		w.Write([]byte(`{"total":1,"issues":[{"id":"1","key":"OPS-1","fields":{"summary":"Login broken"}}]}`))
	})

	result, err := client.SearchIssues(context.Background(), `project = OPS AND summary ~ "login"`, 0)
	require.NoError(t, err)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "Login broken", result.Issues[0].Fields.Summary)
}

func TestClient_Directory(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/api/2/user/search":
			assert.Equal(t, "jane@example.com", r.URL.Query().Get("query"))
			w.Write([]byte(`[{"accountId":"abc","emailAddress":"jane@example.com","displayName":"Jane"}]`))
		case "/rest/api/2/project":
			w.Write([]byte(`[{"id":"1","key":"OPS","name":"Operations"}]`))
		case "/rest/api/2/myself":
			w.Write([]byte(`{"accountId":"bot","displayName":"Jira Bot"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	users, err := client.SearchUsers(ctx, "jane@example.com")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "abc", users[0].AccountID)

	projects, err := client.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Operations", projects[0].Name)

	me, err := client.Myself(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Jira Bot", me.DisplayName)
}

func TestClient_UploadAttachment(t *testing.T) {
	client, recorder := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/2/issue/OPS-1/attachments", r.URL.Path)
		assert.Equal(t, "no-check", r.Header.Get("X-Atlassian-Token"))
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data; boundary=----MMJiraFormBoundary"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		content, _ := io.ReadAll(file)
		assert.Equal(t, "screenshot.txt", header.Filename)
		assert.Equal(t, "hello", string(content))

		w.Write([]byte(`[{"id":"900","filename":"screenshot.txt","size":5}]`))
	})

	path := filepath.Join(t.TempDir(), "screenshot.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	attachments, err := client.UploadAttachment(context.Background(), "OPS-1", path)
	require.NoError(t, err)
	require.Len(t, attachments, 1)
	assert.Equal(t, "900", attachments[0].ID)

	calls := recorder.all()
	require.Len(t, calls, 1)
	assert.Equal(t, "[multipart upload: screenshot.txt, 5 bytes]", calls[0].RequestBody)
}

func TestClient_UploadAttachment_FileNotFound(t *testing.T) {
	called := false
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	_, err := client.UploadAttachment(context.Background(), "OPS-1", filepath.Join(t.TempDir(), "missing.png"))

	var fileErr *core.FileNotFoundError
	require.True(t, errors.As(err, &fileErr))
	assert.False(t, called)
}

func TestClient_GetIssue_StoryPoints(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "renderedFields", r.URL.Query().Get("expand"))
		w.Write([]byte(`{"id":"1","key":"OPS-1","fields":{"summary":"Fix","status":{"name":"To Do"},"customfield_10016":null,"customfield_10008":3}}`))
	})

	issue, err := client.GetIssue(context.Background(), "OPS-1")
	require.NoError(t, err)
	assert.Equal(t, "Fix", issue.Fields.Summary)
	assert.Equal(t, "To Do", issue.Fields.Status.Name)

	points, ok := issue.StoryPoints()
	assert.True(t, ok)
	assert.Equal(t, 3.0, points)
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(config.TrackerConfig{Domain: "https://acme.atlassian.net/", APIToken: "t"})
	assert.Equal(t, "https://acme.atlassian.net", opts.BaseURL)

	opts = OptionsFromConfig(config.TrackerConfig{Domain: "not-a-host", APIToken: "t"})
	assert.Empty(t, opts.BaseURL)
}
