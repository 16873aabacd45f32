package auth

import "time"

// Token is a companion server API token issued for this application.
type Token struct {
	Value    string    `json:"token"`
	AppID    string    `json:"app_id"`
	IssuedAt time.Time `json:"issued_at"`
}

// Valid reports whether the token carries a value.
func (t *Token) Valid() bool {
	return t != nil && t.Value != ""
}
