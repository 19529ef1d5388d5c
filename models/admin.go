package models

// Admin is the caller of the admin API as identified by the auth provider.
type Admin struct {
	AuthProvider   string `json:"auth_provider"`
	AuthProviderID string `json:"auth_provider_id"`
}
