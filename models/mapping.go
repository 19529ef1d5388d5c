package models

import "time"

// ChannelProjectMapping binds a chat channel to a tracker project key.
type ChannelProjectMapping struct {
	ID          string    `json:"id"           db:"id"`
	ChannelID   string    `json:"channel_id"   db:"channel_id"`
	ChannelName string    `json:"channel_name" db:"channel_name"`
	ProjectKey  string    `json:"project_key"  db:"project_key"`
	CreatedAt   time.Time `json:"created_at"   db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"   db:"updated_at"`
}
