// Package event defines the events fanned out to live connections.
// Event names are the wire names pushed to clients.
package event

import "chat-server/domain"

type DomainEvent interface {
	Event() string
}

// PublicMessage is broadcast to every online identity, not just session
// members: there is exactly one implicit public room.
type PublicMessage struct {
	Message      domain.Message
	Participants []domain.Participant
}

func (PublicMessage) Event() string { return "newPublicMessage" }

// PrivateMessage is delivered to the sender and the receiver only.
type PrivateMessage struct {
	Message      domain.Message
	Participants []domain.Participant
}

func (PrivateMessage) Event() string { return "newPrivateMessage" }

// ActiveUsers carries the updated online-identity list after a presence
// change.
type ActiveUsers struct {
	UserIDs []string
}

func (ActiveUsers) Event() string { return "activeUsers" }

// TokenUpdated acknowledges a successful token refresh to one connection.
type TokenUpdated struct {
	AccessToken string
}

func (TokenUpdated) Event() string { return "tokenUpdated" }
