package models

type Subcommand string

const (
	SubcommandCreate   Subcommand = "create"
	SubcommandAssign   Subcommand = "assign"
	SubcommandView     Subcommand = "view"
	SubcommandFind     Subcommand = "find"
	SubcommandBind     Subcommand = "bind"
	SubcommandUnbind   Subcommand = "unbind"
	SubcommandStatus   Subcommand = "status"
	SubcommandLink     Subcommand = "link"
	SubcommandBoard    Subcommand = "board"
	SubcommandProjects Subcommand = "projects"
	SubcommandHelp     Subcommand = "help"
)

// ParsedCommand is the tokenized form of a slash command body.
type ParsedCommand struct {
	Subcommand         Subcommand
	ProjectKey         string
	IssueKey           string
	IssueType          string
	Title              string
	AssigneeIdentifier string
	// Args holds the raw tokens after the subcommand, e.g. the board view for `board`.
	Args []string
}

// SlashCommandRequest is the inbound webhook payload.
type SlashCommandRequest struct {
	Token       string `json:"token"`
	ChannelID   string `json:"channel_id"`
	ChannelName string `json:"channel_name"`
	UserName    string `json:"user_name"`
	Command     string `json:"command"`
	Text        string `json:"text"`
}

type Visibility string

const (
	VisibilityChannel Visibility = "channel"
	VisibilityPrivate Visibility = "private"
)

type CommandResponse struct {
	Visibility Visibility
	Text       string
}

// ResponseType renders the visibility the way Mattermost expects it.
func (r *CommandResponse) ResponseType() string {
	if r.Visibility == VisibilityChannel {
		return "in_channel"
	}
	return "ephemeral"
}

func ChannelResponse(text string) *CommandResponse {
	return &CommandResponse{Visibility: VisibilityChannel, Text: text}
}

func PrivateResponse(text string) *CommandResponse {
	return &CommandResponse{Visibility: VisibilityPrivate, Text: text}
}
