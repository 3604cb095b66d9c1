//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"chat-server/contract"
	"chat-server/domain"
	"chat-server/domain/event"
	"chat-server/errors"
	"chat-server/moderation"
	"chat-server/repositories"
	"chat-server/search"
	"context"
	"fmt"
	"log/slog"

	"github.com/abadojack/whatlanggo"
)

// searchResultLimit caps one substring search. Search has no pagination
// contract; history does.
const searchResultLimit = 100

type IChatService interface {
	InitializeSession(name string, isPrivate bool, participantIDs []string, creatorID string) (domain.Session, []domain.Participant, error)
	SendMessage(ctx context.Context, sessionID, senderID, text string, receiverID *string) (domain.Message, []domain.Participant, error)
	GetHistory(sessionID, requesterID string, filter domain.HistoryFilter) ([]domain.Message, error)
	SearchMessages(ctx context.Context, sessionID, substring string) ([]domain.Message, error)
	AddParticipant(sessionID, targetUserID, requesterID string, sessionIsPrivate bool) ([]domain.Participant, error)
	RemoveParticipant(sessionID, targetUserID string) error
	ListParticipants(sessionID string) ([]domain.Participant, error)
	EditMessage(messageID uint64, newText string) error
	ListOnline() []string
}

// ChatService is the fan-out engine: the only path that couples membership
// authorization, persistence and delivery into one unit of work.
type ChatService struct {
	log       *slog.Logger
	sessions  repositories.ISessionRepository
	messages  repositories.IMessageRepository
	index     search.IMessageIndex
	presence  contract.IPresence
	moderator *moderation.Moderator
	toIndex   chan domain.Message
}

func NewChatService(
	log *slog.Logger,
	sessions repositories.ISessionRepository,
	messages repositories.IMessageRepository,
	index search.IMessageIndex,
	presence contract.IPresence,
	moderator *moderation.Moderator,
	toIndex chan domain.Message,
) *ChatService {
	return &ChatService{
		log:       log,
		sessions:  sessions,
		messages:  messages,
		index:     index,
		presence:  presence,
		moderator: moderator,
		toIndex:   toIndex,
	}
}

func (s *ChatService) InitializeSession(name string, isPrivate bool, participantIDs []string, creatorID string) (domain.Session, []domain.Participant, error) {
	session, err := s.sessions.InitializeSession(name, isPrivate, participantIDs, creatorID)
	if err != nil {
		return domain.Session{}, nil, err
	}
	participants, err := s.sessions.ListParticipants(session.ID)
	if err != nil {
		return domain.Session{}, nil, err
	}
	return session, participants, nil
}

// SendMessage validates, persists and delivers one message.
//
// Persistence and the sender-membership check are one atomic unit inside the
// message store. Delivery never fails the operation: a recipient being
// offline is normal control flow. The public audience is every online
// identity, not just session members; there is exactly one implicit public
// room.
func (s *ChatService) SendMessage(ctx context.Context, sessionID, senderID, text string, receiverID *string) (domain.Message, []domain.Participant, error) {
	if text == "" {
		return domain.Message{}, nil, fmt.Errorf("%w: message text is empty", errors.ErrValidation)
	}

	if s.moderator != nil {
		text = s.moderator.Censor(text)
	}
	lang := whatlanggo.Detect(text).Lang.Iso6391()

	message, err := s.messages.Append(sessionID, senderID, text, lang, receiverID)
	if err != nil {
		return domain.Message{}, nil, err
	}

	// Index feed is best-effort and off the send path.
	select {
	case s.toIndex <- message:
	default:
		s.log.Warn("search index queue full, message not indexed", "message_id", message.ID)
	}

	// The message is already persisted; a failed enrichment must not
	// surface as a send failure.
	participants, err := s.sessions.ListParticipants(sessionID)
	if err != nil {
		s.log.Error("failed to list participants after persist",
			"session_id", sessionID, "error", err)
		participants = nil
	}

	s.deliver(ctx, message, participants)

	s.log.Info("message sent", "session_id", sessionID, "sender_id", senderID, "is_public", message.IsPublic)
	return message, participants, nil
}

func (s *ChatService) deliver(ctx context.Context, message domain.Message, participants []domain.Participant) {
	if message.IsPublic {
		evt := event.PublicMessage{Message: message, Participants: participants}
		for _, userID := range s.presence.ListOnline() {
			s.push(ctx, userID, evt)
		}
		return
	}

	evt := event.PrivateMessage{Message: message, Participants: participants}
	s.push(ctx, message.SenderID, evt) // sender always receives its own echo
	if message.ReceiverID != nil && *message.ReceiverID != message.SenderID {
		s.push(ctx, *message.ReceiverID, evt)
	}
}

func (s *ChatService) push(ctx context.Context, userID string, evt event.DomainEvent) {
	sink, ok := s.presence.Lookup(userID)
	if !ok {
		return // offline is not an error
	}
	if err := sink.Consume(ctx, evt); err != nil {
		s.log.Debug("delivery dropped", "user_id", userID, "error", err)
	}
}

// GetHistory returns the session's messages newest first. The session must
// exist; filters narrow but never widen the result.
func (s *ChatService) GetHistory(sessionID, requesterID string, filter domain.HistoryFilter) ([]domain.Message, error) {
	if _, err := s.sessions.GetSession(sessionID); err != nil {
		return nil, err
	}
	filter.RequesterID = requesterID
	return s.messages.History(sessionID, filter)
}

// SearchMessages runs a case-sensitive substring search, ascending by
// created_at. The index trails the store by the indexer queue, which is
// acceptable for a search surface.
func (s *ChatService) SearchMessages(ctx context.Context, sessionID, substring string) ([]domain.Message, error) {
	if _, err := s.sessions.GetSession(sessionID); err != nil {
		return nil, err
	}
	if substring == "" {
		return nil, fmt.Errorf("%w: search string is empty", errors.ErrValidation)
	}

	keys, err := s.index.SearchText(ctx, sessionID, substring, searchResultLimit)
	if err != nil {
		return nil, err
	}
	return s.messages.LoadByKeys(keys)
}

func (s *ChatService) AddParticipant(sessionID, targetUserID, requesterID string, sessionIsPrivate bool) ([]domain.Participant, error) {
	if sessionIsPrivate {
		return s.sessions.AddToPrivateSession(sessionID, targetUserID, requesterID)
	}
	return s.sessions.AddToPublicSession(sessionID, targetUserID)
}

func (s *ChatService) RemoveParticipant(sessionID, targetUserID string) error {
	return s.sessions.RemoveFromSession(sessionID, targetUserID)
}

func (s *ChatService) ListParticipants(sessionID string) ([]domain.Participant, error) {
	return s.sessions.ListParticipants(sessionID)
}

// EditMessage is the administrative edit path; it also refreshes the search
// index synchronously so the stale text stops matching.
func (s *ChatService) EditMessage(messageID uint64, newText string) error {
	message, err := s.messages.UpdateText(messageID, newText)
	if err != nil {
		return err
	}
	if err := s.index.Index(message); err != nil {
		s.log.Error("failed to reindex edited message", "message_id", messageID, "error", err)
	}
	return nil
}

func (s *ChatService) ListOnline() []string {
	return s.presence.ListOnline()
}
