package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"rental-service/internal/models"
	"rental-service/internal/repositories"
)

// memStore is an in-memory stand-in for the Postgres repositories with the
// same conflict semantics.
type memStore struct {
	mu           sync.Mutex
	now          time.Time
	nextID       int64
	rooms        map[int64]models.Room
	users        map[int64]models.User
	apps         map[int64]models.Application
	convs        map[int64]models.Conversation
	msgs         []models.Message
	createCalls  int
	failMessages error
	failTouch    error
}

func newMemStore() *memStore {
	return &memStore{
		now:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		rooms: map[int64]models.Room{},
		users: map[int64]models.User{},
		apps:  map[int64]models.Application{},
		convs: map[int64]models.Conversation{},
	}
}

func (s *memStore) tick() time.Time {
	s.now = s.now.Add(time.Second)
	return s.now
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) addRoom(id, landlordID int64, title string) {
	s.rooms[id] = models.Room{ID: id, LandlordID: landlordID, Title: title, Images: []string{"img-" + title}}
}

func (s *memStore) addUser(id int64, name string, roles ...string) {
	s.users[id] = models.User{ID: id, Name: name, Roles: roles}
}

func (s *memStore) messagesIn(convID int64) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Message
	for _, m := range s.msgs {
		if m.ConversationID == convID {
			out = append(out, m)
		}
	}
	return out
}

func (s *memStore) conversationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.convs)
}

// RoomRepository

func (s *memStore) GetRoom(_ context.Context, id int64) (models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return models.Room{}, repositories.ErrRoomNotFound
	}
	return room, nil
}

// UserRepository

func (s *memStore) BulkUsers(_ context.Context, ids []int64) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// ApplicationRepository

func (s *memStore) CreateApplication(_ context.Context, app models.Application) (models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app.ID = s.id()
	app.CreatedAt = s.tick()
	app.UpdatedAt = app.CreatedAt
	s.apps[app.ID] = app
	return app, nil
}

func (s *memStore) GetApplication(_ context.Context, id int64) (models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[id]
	if !ok {
		return models.Application{}, repositories.ErrApplicationNotFound
	}
	return app, nil
}

func (s *memStore) UpdateStatus(_ context.Context, id int64, from []models.ApplicationStatus, to models.ApplicationStatus) (models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[id]
	if !ok {
		return models.Application{}, repositories.ErrApplicationNotFound
	}
	for _, st := range from {
		if app.Status == st {
			app.Status = to
			app.UpdatedAt = s.tick()
			s.apps[id] = app
			return app, nil
		}
	}
	return models.Application{}, repositories.ErrStatusConflict
}

func (s *memStore) UpdateDetails(_ context.Context, id int64, details models.ApplicationDetails) (models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[id]
	if !ok {
		return models.Application{}, repositories.ErrApplicationNotFound
	}
	if app.Status != models.StatusPending {
		return models.Application{}, repositories.ErrStatusConflict
	}
	app.Details = details
	app.IsUpdated = true
	app.UpdatedAt = s.tick()
	s.apps[id] = app
	return app, nil
}

func (s *memStore) listApps(match func(models.Application) bool) []models.Application {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Application
	for _, app := range s.apps {
		if match(app) {
			out = append(out, app)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *memStore) ListByStudent(_ context.Context, studentID int64) ([]models.Application, error) {
	return s.listApps(func(a models.Application) bool { return a.StudentID == studentID }), nil
}

func (s *memStore) ListByLandlord(_ context.Context, landlordID int64) ([]models.Application, error) {
	return s.listApps(func(a models.Application) bool { return a.LandlordID == landlordID }), nil
}

func (s *memStore) FindLatestForPair(_ context.Context, roomID, studentID, landlordID int64) (models.Application, error) {
	apps := s.listApps(func(a models.Application) bool {
		return a.RoomID == roomID && a.StudentID == studentID && a.LandlordID == landlordID
	})
	for _, app := range apps {
		if app.Type() == models.ApplicationRequest {
			return app, nil
		}
	}
	if len(apps) > 0 {
		return apps[0], nil
	}
	return models.Application{}, repositories.ErrApplicationNotFound
}

// ConversationRepository

func (s *memStore) findLocked(roomID, userA, userB int64) (models.Conversation, bool) {
	low, high := models.MemberPair(userA, userB)
	for _, c := range s.convs {
		if c.RoomID == roomID && c.MemberLow == low && c.MemberHigh == high {
			return c, true
		}
	}
	return models.Conversation{}, false
}

func (s *memStore) FindOrCreate(_ context.Context, roomID, userA, userB int64, convType models.ConversationType) (models.Conversation, bool, error) {
	if userA == userB {
		return models.Conversation{}, false, repositories.ErrSelfConversation
	}
	s.mu.Lock()
	s.createCalls++
	s.mu.Unlock()
	// Yield between the lookup and the insert so unsynchronized callers would race.
	s.mu.Lock()
	existing, ok := s.findLocked(roomID, userA, userB)
	s.mu.Unlock()
	if ok {
		return existing, false, nil
	}
	time.Sleep(time.Millisecond)

	s.mu.Lock()
	defer s.mu.Unlock()
	low, high := models.MemberPair(userA, userB)
	conv := models.Conversation{ID: s.id(), RoomID: roomID, MemberLow: low, MemberHigh: high, Type: convType, CreatedAt: s.tick()}
	conv.UpdatedAt = conv.CreatedAt
	s.convs[conv.ID] = conv
	return conv, true, nil
}

func (s *memStore) Find(_ context.Context, roomID, userA, userB int64) (models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.findLocked(roomID, userA, userB)
	if !ok {
		return models.Conversation{}, repositories.ErrConversationNotFound
	}
	return conv, nil
}

func (s *memStore) GetConversation(_ context.Context, id int64) (models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.convs[id]
	if !ok {
		return models.Conversation{}, repositories.ErrConversationNotFound
	}
	return conv, nil
}

func (s *memStore) Touch(_ context.Context, id int64, lastMessageID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failTouch != nil {
		return s.failTouch
	}
	conv, ok := s.convs[id]
	if !ok {
		return repositories.ErrConversationNotFound
	}
	conv.LastMessageID = &lastMessageID
	conv.UpdatedAt = s.tick()
	s.convs[id] = conv
	return nil
}

func (s *memStore) rowLocked(conv models.Conversation) models.ConversationRow {
	room := s.rooms[conv.RoomID]
	row := models.ConversationRow{Conversation: conv, RoomTitle: room.Title, RoomLandlordID: room.LandlordID}
	if len(room.Images) > 0 {
		img := room.Images[0]
		row.RoomImage = &img
	}
	if conv.LastMessageID != nil {
		for _, m := range s.msgs {
			if m.ID == *conv.LastMessageID {
				text, typ, at := m.Text, string(m.Type), m.CreatedAt
				row.LastText, row.LastType, row.LastCreatedAt = &text, &typ, &at
			}
		}
	}
	return row
}

func (s *memStore) ListForUser(_ context.Context, userID int64) ([]models.ConversationRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rows []models.ConversationRow
	for _, conv := range s.convs {
		if conv.HasMember(userID) {
			rows = append(rows, s.rowLocked(conv))
		}
	}
	return rows, nil
}

func (s *memStore) GetRow(_ context.Context, id int64) (models.ConversationRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.convs[id]
	if !ok {
		return models.ConversationRow{}, repositories.ErrConversationNotFound
	}
	return s.rowLocked(conv), nil
}

// MessageRepository

func (s *memStore) CreateMessage(_ context.Context, conversationID int64, senderID int64, draft models.MessageDraft) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failMessages != nil {
		return models.Message{}, s.failMessages
	}
	msg := models.Message{
		ID:             s.id(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Type:           draft.Type,
		Text:           draft.Text,
		IsSystem:       draft.IsSystem,
		ReadBy:         []int64{},
		CreatedAt:      s.tick(),
	}
	if draft.BookingRequest != nil {
		snap := *draft.BookingRequest
		msg.BookingRequest = &snap
	}
	s.msgs = append(s.msgs, msg)
	return msg, nil
}

func (s *memStore) ListMessages(_ context.Context, conversationID int64) ([]models.Message, error) {
	return s.messagesIn(conversationID), nil
}

func (s *memStore) UpdateBookingStatus(_ context.Context, applicationID int64, status models.ApplicationStatus) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failMessages != nil {
		return 0, s.failMessages
	}
	var n int64
	for i := range s.msgs {
		if s.msgs[i].BookingRequest != nil && s.msgs[i].BookingRequest.ApplicationID == applicationID {
			s.msgs[i].BookingRequest.Status = status
			n++
		}
	}
	return n, nil
}

func (s *memStore) MarkRead(_ context.Context, conversationID int64, readerID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for i := range s.msgs {
		m := &s.msgs[i]
		if m.ConversationID != conversationID || m.SenderID == readerID || m.IsReadBy(readerID) {
			continue
		}
		m.ReadBy = append(m.ReadBy, readerID)
		n++
	}
	return n, nil
}

var errStoreDown = errors.New("store unavailable")
