package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"rental-service/internal/models"
)

type ApplicationRepositoryMock struct {
	mock.Mock
}

func (m *ApplicationRepositoryMock) CreateApplication(ctx context.Context, app models.Application) (models.Application, error) {
	args := m.Called(ctx, app)
	return applicationArg(args, 0), args.Error(1)
}

func (m *ApplicationRepositoryMock) GetApplication(ctx context.Context, id int64) (models.Application, error) {
	args := m.Called(ctx, id)
	return applicationArg(args, 0), args.Error(1)
}

func (m *ApplicationRepositoryMock) UpdateStatus(ctx context.Context, id int64, from []models.ApplicationStatus, to models.ApplicationStatus) (models.Application, error) {
	args := m.Called(ctx, id, from, to)
	return applicationArg(args, 0), args.Error(1)
}

func (m *ApplicationRepositoryMock) UpdateDetails(ctx context.Context, id int64, details models.ApplicationDetails) (models.Application, error) {
	args := m.Called(ctx, id, details)
	return applicationArg(args, 0), args.Error(1)
}

func (m *ApplicationRepositoryMock) ListByStudent(ctx context.Context, studentID int64) ([]models.Application, error) {
	args := m.Called(ctx, studentID)
	var list []models.Application
	if val := args.Get(0); val != nil {
		list = val.([]models.Application)
	}
	return list, args.Error(1)
}

func (m *ApplicationRepositoryMock) ListByLandlord(ctx context.Context, landlordID int64) ([]models.Application, error) {
	args := m.Called(ctx, landlordID)
	var list []models.Application
	if val := args.Get(0); val != nil {
		list = val.([]models.Application)
	}
	return list, args.Error(1)
}

func (m *ApplicationRepositoryMock) FindLatestForPair(ctx context.Context, roomID, studentID, landlordID int64) (models.Application, error) {
	args := m.Called(ctx, roomID, studentID, landlordID)
	return applicationArg(args, 0), args.Error(1)
}

func applicationArg(args mock.Arguments, i int) models.Application {
	var app models.Application
	if val := args.Get(i); val != nil {
		app = val.(models.Application)
	}
	return app
}

type ConversationRepositoryMock struct {
	mock.Mock
}

func (m *ConversationRepositoryMock) FindOrCreate(ctx context.Context, roomID, userA, userB int64, convType models.ConversationType) (models.Conversation, bool, error) {
	args := m.Called(ctx, roomID, userA, userB, convType)
	return conversationArg(args, 0), args.Bool(1), args.Error(2)
}

func (m *ConversationRepositoryMock) Find(ctx context.Context, roomID, userA, userB int64) (models.Conversation, error) {
	args := m.Called(ctx, roomID, userA, userB)
	return conversationArg(args, 0), args.Error(1)
}

func (m *ConversationRepositoryMock) GetConversation(ctx context.Context, id int64) (models.Conversation, error) {
	args := m.Called(ctx, id)
	return conversationArg(args, 0), args.Error(1)
}

func (m *ConversationRepositoryMock) Touch(ctx context.Context, id int64, lastMessageID int64) error {
	args := m.Called(ctx, id, lastMessageID)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) ListForUser(ctx context.Context, userID int64) ([]models.ConversationRow, error) {
	args := m.Called(ctx, userID)
	var rows []models.ConversationRow
	if val := args.Get(0); val != nil {
		rows = val.([]models.ConversationRow)
	}
	return rows, args.Error(1)
}

func (m *ConversationRepositoryMock) GetRow(ctx context.Context, id int64) (models.ConversationRow, error) {
	args := m.Called(ctx, id)
	var row models.ConversationRow
	if val := args.Get(0); val != nil {
		row = val.(models.ConversationRow)
	}
	return row, args.Error(1)
}

func conversationArg(args mock.Arguments, i int) models.Conversation {
	var conv models.Conversation
	if val := args.Get(i); val != nil {
		conv = val.(models.Conversation)
	}
	return conv
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, conversationID int64, senderID int64, draft models.MessageDraft) (models.Message, error) {
	args := m.Called(ctx, conversationID, senderID, draft)
	return messageArg(args, 0), args.Error(1)
}

func (m *MessageRepositoryMock) ListMessages(ctx context.Context, conversationID int64) ([]models.Message, error) {
	args := m.Called(ctx, conversationID)
	var list []models.Message
	if val := args.Get(0); val != nil {
		list = val.([]models.Message)
	}
	return list, args.Error(1)
}

func (m *MessageRepositoryMock) UpdateBookingStatus(ctx context.Context, applicationID int64, status models.ApplicationStatus) (int64, error) {
	args := m.Called(ctx, applicationID, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MessageRepositoryMock) MarkRead(ctx context.Context, conversationID int64, readerID int64) (int64, error) {
	args := m.Called(ctx, conversationID, readerID)
	return args.Get(0).(int64), args.Error(1)
}

func messageArg(args mock.Arguments, i int) models.Message {
	var msg models.Message
	if val := args.Get(i); val != nil {
		msg = val.(models.Message)
	}
	return msg
}

type RoomRepositoryMock struct {
	mock.Mock
}

func (m *RoomRepositoryMock) GetRoom(ctx context.Context, id int64) (models.Room, error) {
	args := m.Called(ctx, id)
	var room models.Room
	if val := args.Get(0); val != nil {
		room = val.(models.Room)
	}
	return room, args.Error(1)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) BulkUsers(ctx context.Context, ids []int64) ([]models.User, error) {
	args := m.Called(ctx, ids)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

type NotificationRepositoryMock struct {
	mock.Mock
}

func (m *NotificationRepositoryMock) CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error) {
	args := m.Called(ctx, n)
	var out models.Notification
	if val := args.Get(0); val != nil {
		out = val.(models.Notification)
	}
	return out, args.Error(1)
}

func (m *NotificationRepositoryMock) ListForUser(ctx context.Context, userID int64, limit int) ([]models.Notification, error) {
	args := m.Called(ctx, userID, limit)
	var list []models.Notification
	if val := args.Get(0); val != nil {
		list = val.([]models.Notification)
	}
	return list, args.Error(1)
}

func (m *NotificationRepositoryMock) MarkNotificationRead(ctx context.Context, id int64, userID int64) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}
