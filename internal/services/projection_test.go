package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-service/internal/models"
)

func row(id, roomID, a, b, landlord int64, updated time.Time) models.ConversationRow {
	low, high := models.MemberPair(a, b)
	return models.ConversationRow{
		Conversation:   models.Conversation{ID: id, RoomID: roomID, MemberLow: low, MemberHigh: high, UpdatedAt: updated},
		RoomTitle:      "room",
		RoomLandlordID: landlord,
	}
}

func TestBuildInboxFiltersAndOrders(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []models.ConversationRow{
		row(1, 1, 5, 6, 5, base),
		row(2, 2, 5, 7, 7, base.Add(time.Hour)),
		row(3, 3, 8, 9, 8, base.Add(2*time.Hour)),
	}
	users := map[int64]models.User{6: {ID: 6, Name: "Six"}}

	all := BuildInbox(5, "", rows, users)
	require.Len(t, all, 2)
	assert.Equal(t, int64(2), all[0].ID)
	assert.Equal(t, RoleFilterStudent, all[0].Role)
	assert.Equal(t, RoleFilterLandlord, all[1].Role)
	assert.Equal(t, "Six", all[1].OtherParticipant.Name)
	assert.Nil(t, all[1].LastMessage)

	landlordOnly := BuildInbox(5, RoleFilterLandlord, rows, users)
	require.Len(t, landlordOnly, 1)
	assert.Equal(t, int64(1), landlordOnly[0].ID)
}

func TestBuildConversationViewUnknownUser(t *testing.T) {
	view := BuildConversationView(5, row(1, 1, 5, 6, 5, time.Now()), nil)
	require.NotNil(t, view.OtherParticipant)
	assert.Equal(t, int64(6), view.OtherParticipant.ID)
	assert.Len(t, view.Members, 2)
}

func TestSummarizeApplication(t *testing.T) {
	inquiry := SummarizeApplication(models.Application{ID: 1, Status: models.StatusPending, Details: models.InquiryDetails{Message: "hi"}})
	assert.Equal(t, models.ApplicationInquiry, inquiry.Type)
	assert.Nil(t, inquiry.CheckIn)

	request := SummarizeApplication(models.Application{ID: 2, Status: models.StatusApproved, Details: validRequest()})
	assert.Equal(t, models.ApplicationRequest, request.Type)
	require.NotNil(t, request.Occupants)
	assert.Equal(t, 1, request.Occupants.Adults)
}
