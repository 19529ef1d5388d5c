package tracker

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"mmjira/clients"
	"mmjira/config"
	"mmjira/core"
	"mmjira/models"
	"mmjira/utils"
)

const (
	DefaultTimeout       = 30 * time.Second
	DefaultUploadTimeout = 60 * time.Second

	genericAPIErrorMessage = "Jira API error"
	maxPlainErrorBodyLen   = 200
)

// HTTPDoer is satisfied by *http.Client
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Options struct {
	BaseURL               string
	APIUserEmail          string
	APIToken              string
	DefaultLabels         []string
	CustomFieldVerticalID string
	CustomFieldImpactID   string
	Timeout               time.Duration
	UploadTimeout         time.Duration
}

// OptionsFromConfig builds client options from the JIRA_* settings. An invalid
// domain leaves BaseURL empty so every request fails with a configuration error.
func OptionsFromConfig(cfg config.TrackerConfig) Options {
	opts := Options{
		APIUserEmail:          cfg.APIUserEmail,
		APIToken:              cfg.APIToken,
		DefaultLabels:         cfg.DefaultLabels,
		CustomFieldVerticalID: cfg.CustomFieldVerticalID,
		CustomFieldImpactID:   cfg.CustomFieldImpactID,
	}

	if cfg.Domain != "" {
		host, err := utils.CleanTrackerDomain(cfg.Domain, cfg.DomainSuffix)
		if err != nil {
			log.Printf("⚠️ Ignoring Jira domain: %v", err)
		} else {
			opts.BaseURL = "https://" + host
		}
	}

	return opts
}

var _ clients.TrackerClient = (*Client)(nil)

type Client struct {
	opts       Options
	httpClient HTTPDoer
	recorder   clients.CallRecorder
}

// NewClient creates a Jira REST client. httpClient and recorder may be nil.
func NewClient(opts Options, httpClient HTTPDoer, recorder clients.CallRecorder) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UploadTimeout <= 0 {
		opts.UploadTimeout = DefaultUploadTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")

	return &Client{
		opts:       opts,
		httpClient: httpClient,
		recorder:   recorder,
	}
}

func (c *Client) BaseURL() string {
	return c.opts.BaseURL
}

type outboundRequest struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	logBody     string
	contentType string
	headers     map[string]string
	timeout     time.Duration
}

// Request sends a JSON request to a path relative to the base URL. For GET
// requests body may be a map[string]string or url.Values and is merged into
// the query string. A 2xx response with an empty body yields a nil payload.
func (c *Client) Request(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	req := outboundRequest{
		method:  method,
		path:    path,
		timeout: c.opts.Timeout,
	}

	if body != nil {
		switch method {
		case http.MethodGet, http.MethodDelete:
			query, err := toQuery(body)
			if err != nil {
				return nil, err
			}
			req.query = query
		default:
			encoded, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("failed to encode request body: %w", err)
			}
			req.body = encoded
			req.logBody = string(encoded)
			req.contentType = "application/json"
		}
	}

	return c.do(ctx, req)
}

func toQuery(body any) (url.Values, error) {
	switch params := body.(type) {
	case url.Values:
		return params, nil
	case map[string]string:
		query := url.Values{}
		for key, value := range params {
			query.Set(key, value)
		}
		return query, nil
	default:
		return nil, fmt.Errorf("unsupported query parameters type %T", body)
	}
}

func (c *Client) authorizationHeader() (string, error) {
	if c.opts.APIToken == "" {
		return "", core.NewConfigurationError("JIRA_API_TOKEN", "Jira API credentials not configured")
	}
	if c.opts.APIUserEmail != "" {
		credentials := c.opts.APIUserEmail + ":" + c.opts.APIToken
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials)), nil
	}
	return "Bearer " + c.opts.APIToken, nil
}

func (c *Client) buildURL(path string, query url.Values) (string, error) {
	if c.opts.BaseURL == "" {
		return "", core.NewConfigurationError("JIRA_DOMAIN", "Jira domain not configured")
	}

	u, err := url.Parse(c.opts.BaseURL + path)
	if err != nil {
		return "", fmt.Errorf("failed to build request url: %w", err)
	}
	if len(query) > 0 {
		merged := u.Query()
		for key, values := range query {
			for _, value := range values {
				merged.Add(key, value)
			}
		}
		u.RawQuery = merged.Encode()
	}
	return u.String(), nil
}

func (c *Client) do(ctx context.Context, r outboundRequest) (json.RawMessage, error) {
	authHeader, err := c.authorizationHeader()
	if err != nil {
		return nil, err
	}
	fullURL, err := c.buildURL(r.path, r.query)
	if err != nil {
		return nil, err
	}

	// Outbound calls run to completion or timeout even if the caller goes away.
	reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	var bodyReader io.Reader
	if r.body != nil {
		bodyReader = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(reqCtx, r.method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", authHeader)
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	for key, value := range r.headers {
		req.Header.Set(key, value)
	}

	call := models.TrackerCall{
		Method:         r.method,
		URL:            fullURL,
		RequestHeaders: redactHeaders(req.Header),
		RequestBody:    r.logBody,
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		call.Duration = time.Since(start)
		call.Err = &core.TransportError{Method: r.method, URL: fullURL, Err: err}
		c.record(ctx, call)
		log.Printf("❌ Jira %s %s failed: %v", r.method, r.path, err)
		return nil, call.Err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	call.Duration = time.Since(start)
	call.ResponseCode = resp.StatusCode
	call.ResponseHeaders = flattenHeaders(resp.Header)
	call.ResponseBody = string(respBody)
	if err != nil {
		call.Err = &core.TransportError{Method: r.method, URL: fullURL, Err: err}
		c.record(ctx, call)
		return nil, call.Err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := parseAPIError(resp.StatusCode, respBody)
		call.Err = apiErr
		c.record(ctx, call)
		log.Printf("❌ Jira %s %s returned %d: %s", r.method, r.path, resp.StatusCode, apiErr.Message)
		return nil, apiErr
	}

	c.record(ctx, call)

	trimmed := bytes.TrimSpace(respBody)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if !json.Valid(trimmed) {
		return nil, &core.APIError{Message: "invalid JSON in Jira response", Status: resp.StatusCode, Body: string(respBody)}
	}
	return json.RawMessage(trimmed), nil
}

func (c *Client) record(ctx context.Context, call models.TrackerCall) {
	if c.recorder == nil {
		return
	}
	c.recorder.RecordTrackerCall(ctx, call)
}

// parseAPIError derives a message from errorMessages, then the errors map,
// then a short plain body, then a generic fallback.
func parseAPIError(status int, body []byte) *core.APIError {
	apiErr := &core.APIError{Status: status, Body: string(body), Message: genericAPIErrorMessage}

	var payload struct {
		ErrorMessages []string       `json:"errorMessages"`
		Errors        map[string]any `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		var messages []string
		for _, message := range payload.ErrorMessages {
			if strings.TrimSpace(message) != "" {
				messages = append(messages, message)
			}
		}
		if len(messages) > 0 {
			apiErr.Message = strings.Join(messages, ", ")
			return apiErr
		}

		if len(payload.Errors) > 0 {
			fields := make([]string, 0, len(payload.Errors))
			for field := range payload.Errors {
				fields = append(fields, field)
			}
			sort.Strings(fields)

			parts := make([]string, 0, len(fields))
			for _, field := range fields {
				parts = append(parts, fmt.Sprintf("%s: %v", field, payload.Errors[field]))
			}
			apiErr.Message = strings.Join(parts, ", ")
		}
		return apiErr
	}

	text := strings.TrimSpace(utils.StripTags(string(body)))
	if text != "" && len(body) < maxPlainErrorBodyLen {
		apiErr.Message = text
	}
	return apiErr
}

func redactHeaders(header http.Header) map[string]string {
	out := flattenHeaders(header)
	if auth, ok := out["Authorization"]; ok {
		scheme, _, _ := strings.Cut(auth, " ")
		out["Authorization"] = scheme + " [REDACTED]"
	}
	return out
}

func flattenHeaders(header http.Header) map[string]string {
	out := make(map[string]string, len(header))
	for key, values := range header {
		out[key] = strings.Join(values, ", ")
	}
	return out
}

func decode[T any](raw json.RawMessage, what string) (T, error) {
	var out T
	if len(raw) == 0 {
		return out, &core.APIError{Message: "empty response for " + what, Status: http.StatusOK}
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("failed to decode %s: %w", what, err)
	}
	return out, nil
}

func isConfigurationError(err error) bool {
	var configErr *core.ConfigurationError
	return errors.As(err, &configErr)
}
