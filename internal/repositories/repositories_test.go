package repositories

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-service/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })
	return sqlx.NewDb(raw, "postgres"), mock
}

var conversationCols = []string{"id", "room_id", "member_low", "member_high", "conversation_type", "last_message_id", "created_at", "updated_at"}

func TestFindOrCreateInsertsNewConversation(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`ON CONFLICT (room_id, member_low, member_high) DO NOTHING`)).
		WithArgs(1, 10, 20, "booking").
		WillReturnRows(sqlmock.NewRows(conversationCols).AddRow(3, 1, 10, 20, "booking", nil, now, now))

	conv, created, err := NewConversationRepo(db).FindOrCreate(context.Background(), 1, 20, 10, models.ConversationBooking)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(3), conv.ID)
	assert.Equal(t, int64(10), conv.MemberLow)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindOrCreateFallsBackToExistingRowOnConflict(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO conversations`)).
		WithArgs(1, 10, 20, "inquiry").
		WillReturnRows(sqlmock.NewRows(conversationCols))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM conversations WHERE room_id=$1 AND member_low=$2 AND member_high=$3`)).
		WithArgs(1, 10, 20).
		WillReturnRows(sqlmock.NewRows(conversationCols).AddRow(3, 1, 10, 20, "booking", 8, now, now))

	conv, created, err := NewConversationRepo(db).FindOrCreate(context.Background(), 1, 10, 20, models.ConversationInquiry)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(3), conv.ID)
	assert.Equal(t, models.ConversationBooking, conv.Type)
	require.NotNil(t, conv.LastMessageID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindOrCreateRejectsSelfConversation(t *testing.T) {
	db, mock := newMockDB(t)

	_, _, err := NewConversationRepo(db).FindOrCreate(context.Background(), 1, 10, 10, models.ConversationInquiry)
	assert.ErrorIs(t, err, ErrSelfConversation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTouchMissingConversation(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE conversations SET last_message_id=$2`)).
		WithArgs(9, 4).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewConversationRepo(db).Touch(context.Background(), 9, 4)
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

var applicationCols = []string{"id", "room_id", "student_id", "landlord_id", "type", "status", "is_updated", "details", "created_at", "updated_at"}

func TestUpdateStatusGuardsSourceStates(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now()
	from := []models.ApplicationStatus{models.StatusPending, models.StatusApproved}

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id=$1 AND status = ANY($3)`)).
		WithArgs(5, "cancelled", pq.StringArray{"pending", "approved"}).
		WillReturnRows(sqlmock.NewRows(applicationCols).
			AddRow(5, 1, 20, 10, "inquiry", "cancelled", false, []byte(`{"message":"hi"}`), now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id=$1 AND status = ANY($3)`)).
		WithArgs(5, "cancelled", pq.StringArray{"pending", "approved"}).
		WillReturnError(sql.ErrNoRows)

	repo := NewApplicationRepo(db)
	app, err := repo.UpdateStatus(context.Background(), 5, from, models.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, app.Status)
	assert.Equal(t, models.InquiryDetails{Message: "hi"}, app.Details)

	_, err = repo.UpdateStatus(context.Background(), 5, from, models.StatusCancelled)
	assert.ErrorIs(t, err, ErrStatusConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBookingStatusReportsAffectedMessages(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta(`jsonb_set(booking_request, '{status}', to_jsonb($2::TEXT))`)).
		WithArgs(5, "approved").
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := NewMessageRepo(db).UpdateBookingStatus(context.Background(), 5, models.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkReadAppendsReader(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta(`SET read_by = array_append(read_by, $2)`)).
		WithArgs(3, 20).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`NOT ($2 = ANY(read_by))`)).
		WithArgs(3, 20).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewMessageRepo(db)
	n, err := repo.MarkRead(context.Background(), 3, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = repo.MarkRead(context.Background(), 3, 20)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
