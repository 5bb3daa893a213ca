// Package model defines the data structures used throughout the application.
package model

import "time"

// Identity is the result of verifying a bearer credential with the external
// identity provider. It is attached to the request context by the auth
// middleware and is the only source of the user id for every write path.
type Identity struct {
	UID     string `json:"uid"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// User is the persisted user record, keyed by the provider uid.
//
// CreatedAt is write-once: it is set on the first login and never touched
// again. Name, Email, Picture and LastLogin are refreshed on every login,
// since the provider profile can change between sessions.
type User struct {
	UID       string    `json:"uid"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Picture   string    `json:"picture"`
	CreatedAt time.Time `json:"createdAt"`
	LastLogin time.Time `json:"lastLogin"`
}
