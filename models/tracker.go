package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

type ProjectRef struct {
	Key string `json:"key"`
}

type IssueTypeRef struct {
	Name string `json:"name"`
}

type AccountRef struct {
	AccountID string `json:"accountId"`
}

// IssueFields is the `fields` object of an issue create request. Custom holds
// customfield_* entries which are flattened next to the standard fields.
type IssueFields struct {
	Project     ProjectRef     `json:"project"`
	Summary     string         `json:"summary"`
	Description string         `json:"description,omitempty"`
	IssueType   IssueTypeRef   `json:"issuetype"`
	Labels      []string       `json:"labels,omitempty"`
	Reporter    *AccountRef    `json:"reporter,omitempty"`
	Custom      map[string]any `json:"-"`
}

func (f IssueFields) MarshalJSON() ([]byte, error) {
	type standardFields IssueFields
	standard, err := json.Marshal(standardFields(f))
	if err != nil {
		return nil, err
	}
	if len(f.Custom) == 0 {
		return standard, nil
	}

	merged := make(map[string]any, len(f.Custom)+6)
	if err := json.Unmarshal(standard, &merged); err != nil {
		return nil, err
	}
	for key, value := range f.Custom {
		if _, clash := merged[key]; clash {
			return nil, fmt.Errorf("custom field %s collides with a standard field", key)
		}
		merged[key] = value
	}
	return json.Marshal(merged)
}

// WithoutCustomFields returns a copy with every customfield_* entry removed.
func (f IssueFields) WithoutCustomFields() IssueFields {
	out := f
	out.Custom = nil
	for key, value := range f.Custom {
		if strings.HasPrefix(key, "customfield_") {
			continue
		}
		if out.Custom == nil {
			out.Custom = map[string]any{}
		}
		out.Custom[key] = value
	}
	return out
}

type IssueCreateRequest struct {
	Fields IssueFields `json:"fields"`
}

type IssueCreateResponse struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`
}

// IssueInput is what callers hand to the tracker client to create an issue.
type IssueInput struct {
	ProjectKey        string
	Summary           string
	Description       string
	IssueType         string
	Labels            []string
	ReporterAccountID string
	SubmitterName     string
	SubmitterEmail    string
	Vertical          string
	Impact            string
}

type AssigneeRequest struct {
	AccountID string `json:"accountId"`
}

type IssueSearchRequest struct {
	JQL        string   `json:"jql"`
	MaxResults int      `json:"maxResults"`
	Fields     []string `json:"fields"`
}

type IssueSearchResponse struct {
	Total  int                   `json:"total"`
	Issues []TrackerIssueSummary `json:"issues"`
}

type TrackerIssueSummary struct {
	ID     string `json:"id"`
	Key    string `json:"key"`
	Fields struct {
		Summary string `json:"summary"`
	} `json:"fields"`
}

type NamedField struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type TrackerUser struct {
	AccountID    string            `json:"accountId"`
	AccountType  string            `json:"accountType,omitempty"`
	EmailAddress string            `json:"emailAddress"`
	DisplayName  string            `json:"displayName"`
	Active       bool              `json:"active"`
	TimeZone     string            `json:"timeZone"`
	Self         string            `json:"self"`
	AvatarURLs   map[string]string `json:"avatarUrls,omitempty"`
}

type TrackerComment struct {
	ID      string       `json:"id"`
	Author  *TrackerUser `json:"author"`
	Body    string       `json:"body"`
	Created string       `json:"created"`
}

type TrackerIssueFields struct {
	Summary     string           `json:"summary"`
	Description string           `json:"description"`
	IssueType   *NamedField      `json:"issuetype"`
	Status      *NamedField      `json:"status"`
	Priority    *NamedField      `json:"priority"`
	Assignee    *TrackerUser     `json:"assignee"`
	Reporter    *TrackerUser     `json:"reporter"`
	Labels      []string         `json:"labels"`
	Components  []NamedField     `json:"components"`
	Created     string           `json:"created"`
	Updated     string           `json:"updated"`
	Comment     *struct {
		Comments []TrackerComment `json:"comments"`
		Total    int              `json:"total"`
	} `json:"comment"`
}

type TrackerIssue struct {
	ID     string             `json:"id"`
	Key    string             `json:"key"`
	Fields TrackerIssueFields `json:"fields"`
	// RawFields keeps the untyped fields object so instance specific
	// custom fields (story points) can be looked up.
	RawFields map[string]json.RawMessage `json:"-"`
}

func (i *TrackerIssue) UnmarshalJSON(data []byte) error {
	type plainIssue TrackerIssue
	var aux struct {
		plainIssue
		Fields json.RawMessage `json:"fields"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*i = TrackerIssue(aux.plainIssue)
	if len(aux.Fields) == 0 {
		return nil
	}
	if err := json.Unmarshal(aux.Fields, &i.Fields); err != nil {
		return err
	}
	return json.Unmarshal(aux.Fields, &i.RawFields)
}

var storyPointFields = []string{"customfield_10016", "customfield_10008", "customfield_10004", "customfield_10002"}

// StoryPoints returns the first story point estimate found among the
// commonly used custom fields.
func (i *TrackerIssue) StoryPoints() (float64, bool) {
	for _, field := range storyPointFields {
		raw, ok := i.RawFields[field]
		if !ok {
			continue
		}
		var points *float64
		if err := json.Unmarshal(raw, &points); err == nil && points != nil {
			return *points, true
		}
	}
	return 0, false
}

type TrackerProject struct {
	ID             string `json:"id"`
	Key            string `json:"key"`
	Name           string `json:"name"`
	ProjectTypeKey string `json:"projectTypeKey"`
}

type TrackerIssueType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IconURL     string `json:"iconUrl"`
	Subtask     bool   `json:"subtask"`
}

// IssueTypesResponse covers both createmeta (`values`) and project (`issueTypes`) shapes.
type IssueTypesResponse struct {
	Values     []TrackerIssueType `json:"values"`
	IssueTypes []TrackerIssueType `json:"issueTypes"`
}

func (r IssueTypesResponse) Types() []TrackerIssueType {
	if len(r.Values) > 0 {
		return r.Values
	}
	return r.IssueTypes
}

type AttachmentResponse struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
	Content  string `json:"content"`
}
