package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"rental-service/internal/models"
	"rental-service/internal/observability"
	"rental-service/internal/repositories"
)

var tracer = otel.Tracer("rental-service/services")

// Pusher delivers best-effort events to the live connections of users.
type Pusher interface {
	PushToUsers(userIDs []int64, event any)
}

type noopPusher struct{}

func (noopPusher) PushToUsers([]int64, any) {}

// ConversationService keeps one conversation per (room, member pair), appends
// messages and serves the inbox projection.
type ConversationService struct {
	convRepo repositories.ConversationRepository
	msgRepo  repositories.MessageRepository
	roomRepo repositories.RoomRepository
	userRepo repositories.UserRepository
	appRepo  repositories.ApplicationRepository
	pusher   Pusher
	locks    *keyedMutex
}

// NewConversationService builds a ConversationService. A nil pusher disables live delivery.
func NewConversationService(convRepo repositories.ConversationRepository, msgRepo repositories.MessageRepository, roomRepo repositories.RoomRepository, userRepo repositories.UserRepository, appRepo repositories.ApplicationRepository, pusher Pusher) *ConversationService {
	if pusher == nil {
		pusher = noopPusher{}
	}
	return &ConversationService{
		convRepo: convRepo,
		msgRepo:  msgRepo,
		roomRepo: roomRepo,
		userRepo: userRepo,
		appRepo:  appRepo,
		pusher:   pusher,
		locks:    newKeyedMutex(),
	}
}

func pairKey(roomID, userA, userB int64) string {
	low, high := models.MemberPair(userA, userB)
	return fmt.Sprintf("%d:%d:%d", roomID, low, high)
}

// FindOrCreate returns the conversation for the room and member pair,
// creating it with convType when absent. Creation is serialized per key in
// process, and the store's unique key coalesces races across processes.
func (s *ConversationService) FindOrCreate(ctx context.Context, roomID, userA, userB int64, convType models.ConversationType) (models.Conversation, error) {
	ctx, span := tracer.Start(ctx, "conversation.find_or_create", trace.WithAttributes(attribute.Int64("room.id", roomID)))
	defer span.End()

	if userA == userB {
		return models.Conversation{}, invalid(repositories.ErrSelfConversation)
	}

	unlock := s.locks.Lock(pairKey(roomID, userA, userB))
	defer unlock()

	conv, created, err := s.convRepo.FindOrCreate(ctx, roomID, userA, userB, convType)
	if err != nil {
		span.RecordError(err)
		return models.Conversation{}, fmt.Errorf("find or create conversation: %w", err)
	}
	if created {
		log.Printf("conversation created id=%d room_id=%d type=%s", conv.ID, roomID, convType)
	}
	return conv, nil
}

// Open is the explicit find-or-create entry point. A student opens a thread
// with the room's landlord; a landlord must name the student.
func (s *ConversationService) Open(ctx context.Context, actor Actor, roomID, otherID int64) (models.Conversation, error) {
	room, err := s.roomRepo.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, repositories.ErrRoomNotFound) {
			return models.Conversation{}, notFound("room", roomID)
		}
		return models.Conversation{}, err
	}

	counterpart := room.LandlordID
	if actor.ID == room.LandlordID {
		if otherID == 0 {
			return models.Conversation{}, invalid(errors.New("other_user_id is required for the room's landlord"))
		}
		counterpart = otherID
	} else if otherID != 0 && otherID != room.LandlordID {
		return models.Conversation{}, ErrForbidden
	}
	return s.FindOrCreate(ctx, room.ID, actor.ID, counterpart, models.ConversationInquiry)
}

// PostMessage appends a message, points the conversation at it and pushes it
// to both members.
func (s *ConversationService) PostMessage(ctx context.Context, conv models.Conversation, senderID int64, draft models.MessageDraft) (models.Message, error) {
	if err := draft.Validate(); err != nil {
		return models.Message{}, invalid(err)
	}

	msg, err := s.msgRepo.CreateMessage(ctx, conv.ID, senderID, draft)
	if err != nil {
		return models.Message{}, fmt.Errorf("store message: %w", err)
	}

	if err := s.convRepo.Touch(ctx, conv.ID, msg.ID); err != nil {
		log.Printf("conversation touch failed conversation_id=%d message_id=%d: %v", conv.ID, msg.ID, err)
		observability.IncSideEffectFailure("conversation_touch")
	}

	s.pusher.PushToUsers(conv.Members(), models.ConversationEvent{Type: "message", ConversationID: conv.ID, Message: &msg})
	return msg, nil
}

// Send posts a text message typed by a member.
func (s *ConversationService) Send(ctx context.Context, conversationID, senderID int64, text string) (models.Message, error) {
	conv, err := s.memberConversation(ctx, conversationID, senderID)
	if err != nil {
		return models.Message{}, err
	}
	return s.PostMessage(ctx, conv, senderID, models.MessageDraft{Type: models.MessageText, Text: text})
}

// PostSystemMessage narrates an event in the conversation between two users
// about a room. It returns nil without error when no such conversation exists.
func (s *ConversationService) PostSystemMessage(ctx context.Context, roomID, userA, userB, senderID int64, text string) (*models.Message, error) {
	conv, err := s.convRepo.Find(ctx, roomID, userA, userB)
	if errors.Is(err, repositories.ErrConversationNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	msg, err := s.PostMessage(ctx, conv, senderID, models.MessageDraft{Type: models.MessageText, Text: text, IsSystem: true})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// SyncBookingStatus echoes an application's status into its booking_request
// message. It fails with ErrMessageNotFound when no such message was stored.
func (s *ConversationService) SyncBookingStatus(ctx context.Context, applicationID int64, status models.ApplicationStatus) error {
	updated, err := s.msgRepo.UpdateBookingStatus(ctx, applicationID, status)
	if err != nil {
		return err
	}
	if updated == 0 {
		return fmt.Errorf("%w: no booking_request for application %d", repositories.ErrMessageNotFound, applicationID)
	}
	return nil
}

// MarkRead acknowledges every message in the conversation not sent by the reader.
func (s *ConversationService) MarkRead(ctx context.Context, conversationID, readerID int64) (int64, error) {
	conv, err := s.memberConversation(ctx, conversationID, readerID)
	if err != nil {
		return 0, err
	}
	updated, err := s.msgRepo.MarkRead(ctx, conv.ID, readerID)
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	if updated > 0 {
		s.pusher.PushToUsers(conv.Members(), models.ConversationEvent{Type: "read", ConversationID: conv.ID, ReaderID: readerID})
	}
	return updated, nil
}

// Messages returns the conversation's messages in chronological order.
func (s *ConversationService) Messages(ctx context.Context, conversationID, viewerID int64) ([]models.Message, error) {
	conv, err := s.memberConversation(ctx, conversationID, viewerID)
	if err != nil {
		return nil, err
	}
	return s.msgRepo.ListMessages(ctx, conv.ID)
}

// Get returns a conversation the viewer belongs to.
func (s *ConversationService) Get(ctx context.Context, conversationID, viewerID int64) (models.Conversation, error) {
	return s.memberConversation(ctx, conversationID, viewerID)
}

// Inbox lists the user's conversations filtered by derived role.
func (s *ConversationService) Inbox(ctx context.Context, userID int64, role string) ([]models.ConversationView, error) {
	if role != "" && role != RoleFilterStudent && role != RoleFilterLandlord {
		return nil, invalid(fmt.Errorf("unknown role %q", role))
	}
	rows, err := s.convRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	users, err := s.resolveUsers(ctx, memberIDs(rows))
	if err != nil {
		return nil, err
	}
	return BuildInbox(userID, role, rows, users), nil
}

// Detail returns one conversation with its correlated application.
func (s *ConversationService) Detail(ctx context.Context, conversationID, viewerID int64) (models.ConversationDetail, error) {
	row, err := s.convRepo.GetRow(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repositories.ErrConversationNotFound) {
			return models.ConversationDetail{}, notFound("conversation", conversationID)
		}
		return models.ConversationDetail{}, err
	}
	if !row.HasMember(viewerID) {
		return models.ConversationDetail{}, ErrForbidden
	}

	users, err := s.resolveUsers(ctx, row.Members())
	if err != nil {
		return models.ConversationDetail{}, err
	}
	detail := models.ConversationDetail{ConversationView: BuildConversationView(viewerID, row, users)}

	app, err := s.appRepo.FindLatestForPair(ctx, row.RoomID, studentOf(row), row.RoomLandlordID)
	switch {
	case err == nil:
		detail.Application = SummarizeApplication(app)
	case errors.Is(err, repositories.ErrApplicationNotFound):
	default:
		return models.ConversationDetail{}, fmt.Errorf("load application: %w", err)
	}
	return detail, nil
}

func (s *ConversationService) memberConversation(ctx context.Context, conversationID, userID int64) (models.Conversation, error) {
	conv, err := s.convRepo.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repositories.ErrConversationNotFound) {
			return models.Conversation{}, notFound("conversation", conversationID)
		}
		return models.Conversation{}, err
	}
	if !conv.HasMember(userID) {
		return models.Conversation{}, ErrForbidden
	}
	return conv, nil
}

func (s *ConversationService) resolveUsers(ctx context.Context, ids []int64) (map[int64]models.User, error) {
	users, err := s.userRepo.BulkUsers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	byID := make(map[int64]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return byID, nil
}
