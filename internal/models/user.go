package models

// UserStatus pairs a known username with its current presence.
type UserStatus struct {
	Username string `json:"username"`
	Online   bool   `json:"online"`
}
