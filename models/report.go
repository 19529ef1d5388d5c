package models

// Report is a public bug/feature submission turned into a tracker issue.
type Report struct {
	ProjectKey      string   `json:"project_key"`
	IssueType       string   `json:"issue_type"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Vertical        string   `json:"vertical"`
	Impact          string   `json:"impact"`
	Labels          []string `json:"labels"`
	AttachmentPaths []string `json:"attachment_paths"`
	// SkipDuplicateCheck creates the issue even when similar ones exist.
	SkipDuplicateCheck bool `json:"skip_duplicate_check"`
}

type ReportResult struct {
	Created            *IssueCreateResponse  `json:"created,omitempty"`
	IssueURL           string                `json:"issue_url,omitempty"`
	PossibleDuplicates []TrackerIssueSummary `json:"possible_duplicates,omitempty"`
	Attachments        []AttachmentResponse  `json:"attachments,omitempty"`
	AttachmentErrors   []string              `json:"attachment_errors,omitempty"`
}

// UserMatches splits a user search into exact email matches and partial
// email or display name matches.
type UserMatches struct {
	Query   string        `json:"query"`
	Exact   []TrackerUser `json:"exact"`
	Partial []TrackerUser `json:"partial"`
}
