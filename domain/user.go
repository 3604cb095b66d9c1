// Package domain contains core concepts of the chat system.
// No runtime, network, or UI logic should be added here.
package domain

// User is the identity referenced by sessions, memberships and messages.
// Credentials live in the repository layer, never here.
type User struct {
	ID       string
	Nickname string
}

// Participant is the projection of a session member returned alongside
// messages so clients can render the membership list.
type Participant struct {
	ID       string `json:"id"`
	Nickname string `json:"nick_name"`
}
