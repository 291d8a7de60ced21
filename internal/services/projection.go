package services

import (
	"sort"

	"rental-service/internal/models"
)

// Inbox role filters. A user is the landlord of a conversation iff they own
// its room; otherwise they are the student.
const (
	RoleFilterStudent  = "student"
	RoleFilterLandlord = "landlord"
)

// ConversationRole derives the user's role in a conversation from the room's landlord.
func ConversationRole(userID int64, row models.ConversationRow) string {
	if row.RoomLandlordID == userID {
		return RoleFilterLandlord
	}
	return RoleFilterStudent
}

// BuildInbox turns joined conversation rows into inbox entries for userID.
// Rows the user is not a member of, or whose derived role does not match the
// filter, are skipped. An empty filter keeps every role.
func BuildInbox(userID int64, role string, rows []models.ConversationRow, users map[int64]models.User) []models.ConversationView {
	views := make([]models.ConversationView, 0, len(rows))
	for _, row := range rows {
		if !row.HasMember(userID) {
			continue
		}
		if role != "" && ConversationRole(userID, row) != role {
			continue
		}
		views = append(views, BuildConversationView(userID, row, users))
	}
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].UpdatedAt.After(views[j].UpdatedAt)
	})
	return views
}

// BuildConversationView denormalizes a single conversation row for userID.
func BuildConversationView(userID int64, row models.ConversationRow, users map[int64]models.User) models.ConversationView {
	view := models.ConversationView{
		ID:   row.ID,
		Type: row.Type,
		Role: ConversationRole(userID, row),
		Room: models.RoomSummary{
			ID:    row.RoomID,
			Title: row.RoomTitle,
		},
		UpdatedAt: row.UpdatedAt,
	}
	if row.RoomImage != nil {
		view.Room.Image = *row.RoomImage
	}

	for _, id := range row.Members() {
		summary := models.UserSummary{ID: id}
		if u, ok := users[id]; ok {
			summary = u.Summary()
		}
		view.Members = append(view.Members, summary)
	}
	for i := range view.Members {
		if view.Members[i].ID != userID {
			other := view.Members[i]
			view.OtherParticipant = &other
			break
		}
	}

	if row.LastCreatedAt != nil {
		last := &models.LastMessage{CreatedAt: *row.LastCreatedAt}
		if row.LastText != nil {
			last.Text = *row.LastText
		}
		if row.LastType != nil {
			last.Type = models.MessageType(*row.LastType)
		}
		view.LastMessage = last
	}
	return view
}

// SummarizeApplication extracts the fields shown next to a conversation.
func SummarizeApplication(app models.Application) *models.ApplicationSummary {
	summary := &models.ApplicationSummary{
		ID:        app.ID,
		Type:      app.Type(),
		Status:    app.Status,
		IsUpdated: app.IsUpdated,
	}
	if req, ok := app.Request(); ok {
		checkIn, checkOut, occupants := req.CheckIn, req.CheckOut, req.Occupants
		summary.FullName = req.FullName
		summary.MobileNumber = req.MobileNumber
		summary.ProfileType = req.ProfileType
		summary.CheckIn = &checkIn
		summary.CheckOut = &checkOut
		summary.Occupants = &occupants
	}
	return summary
}

// memberIDs collects the distinct member ids across rows.
func memberIDs(rows []models.ConversationRow) []int64 {
	seen := map[int64]struct{}{}
	ids := make([]int64, 0, len(rows)*2)
	for _, row := range rows {
		for _, id := range row.Members() {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// studentOf returns the member who is not the room's landlord.
func studentOf(row models.ConversationRow) int64 {
	if row.MemberLow == row.RoomLandlordID {
		return row.MemberHigh
	}
	return row.MemberLow
}
