// Package domain defines the entities of the e-invoicing console.
// These models mirror the backend JSON contract and are shared by the
// API client, the session store, the services and the views.
package domain

import "strings"

// ============================================================
// Session
// ============================================================

// UserInfo identifies the signed-in operator.
type UserInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session is the persisted client state. Only these four fields are ever
// written to storage.
type Session struct {
	Token           string           `json:"token"`
	User            *UserInfo        `json:"user"`
	Onboarded       bool             `json:"onboarded"`
	BusinessProfile *BusinessProfile `json:"businessProfile"`
}

// Authenticated reports whether a bearer token is present.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// UserFromEmail derives the display user the way the console does after login:
// the name is the local part of the address.
func UserFromEmail(email string) *UserInfo {
	name, _, _ := strings.Cut(email, "@")
	return &UserInfo{Name: name, Email: email}
}
