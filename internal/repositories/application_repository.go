package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"

	"rental-service/internal/models"
)

var (
	ErrApplicationNotFound = errors.New("application not found")
	// ErrStatusConflict means the row was not in an expected status when the
	// conditional update ran.
	ErrStatusConflict = errors.New("application status changed concurrently")
)

// ApplicationRepository abstracts application persistence.
type ApplicationRepository interface {
	CreateApplication(ctx context.Context, app models.Application) (models.Application, error)
	GetApplication(ctx context.Context, id int64) (models.Application, error)
	UpdateStatus(ctx context.Context, id int64, from []models.ApplicationStatus, to models.ApplicationStatus) (models.Application, error)
	UpdateDetails(ctx context.Context, id int64, details models.ApplicationDetails) (models.Application, error)
	ListByStudent(ctx context.Context, studentID int64) ([]models.Application, error)
	ListByLandlord(ctx context.Context, landlordID int64) ([]models.Application, error)
	FindLatestForPair(ctx context.Context, roomID, studentID, landlordID int64) (models.Application, error)
}

// ApplicationRepo is a sqlx implementation of ApplicationRepository.
type ApplicationRepo struct {
	db *sqlx.DB
}

// NewApplicationRepo constructs an ApplicationRepo.
func NewApplicationRepo(db *sqlx.DB) *ApplicationRepo {
	return &ApplicationRepo{db: db}
}

const applicationColumns = `id, room_id, student_id, landlord_id, type, status, is_updated, details, created_at, updated_at`

type applicationRow struct {
	ID         int64          `db:"id"`
	RoomID     int64          `db:"room_id"`
	StudentID  int64          `db:"student_id"`
	LandlordID int64          `db:"landlord_id"`
	Type       string         `db:"type"`
	Status     string         `db:"status"`
	IsUpdated  bool           `db:"is_updated"`
	Details    types.JSONText `db:"details"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

func (r applicationRow) toModel() (models.Application, error) {
	details, err := models.DecodeDetails(models.ApplicationType(r.Type), r.Details)
	if err != nil {
		return models.Application{}, err
	}
	return models.Application{
		ID:         r.ID,
		RoomID:     r.RoomID,
		StudentID:  r.StudentID,
		LandlordID: r.LandlordID,
		Status:     models.ApplicationStatus(r.Status),
		IsUpdated:  r.IsUpdated,
		Details:    details,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}, nil
}

func toModels(rows []applicationRow) ([]models.Application, error) {
	apps := make([]models.Application, 0, len(rows))
	for _, row := range rows {
		app, err := row.toModel()
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, nil
}

// CreateApplication inserts a new application and returns the stored record.
func (r *ApplicationRepo) CreateApplication(ctx context.Context, app models.Application) (models.Application, error) {
	details, err := json.Marshal(app.Details)
	if err != nil {
		return models.Application{}, fmt.Errorf("encode details: %w", err)
	}
	var row applicationRow
	err = r.db.QueryRowxContext(ctx, `INSERT INTO applications (room_id, student_id, landlord_id, type, status, details)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+applicationColumns,
		app.RoomID, app.StudentID, app.LandlordID, string(app.Type()), string(app.Status), types.JSONText(details)).
		StructScan(&row)
	if err != nil {
		return models.Application{}, err
	}
	return row.toModel()
}

// GetApplication fetches an application by id.
func (r *ApplicationRepo) GetApplication(ctx context.Context, id int64) (models.Application, error) {
	var row applicationRow
	err := r.db.GetContext(ctx, &row, `SELECT `+applicationColumns+` FROM applications WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Application{}, ErrApplicationNotFound
	}
	if err != nil {
		return models.Application{}, err
	}
	return row.toModel()
}

// UpdateStatus moves an application to a new status only while it is in one
// of the given source states.
func (r *ApplicationRepo) UpdateStatus(ctx context.Context, id int64, from []models.ApplicationStatus, to models.ApplicationStatus) (models.Application, error) {
	sources := make(pq.StringArray, 0, len(from))
	for _, s := range from {
		sources = append(sources, string(s))
	}
	var row applicationRow
	err := r.db.QueryRowxContext(ctx, `UPDATE applications SET status=$2, updated_at=NOW()
        WHERE id=$1 AND status = ANY($3) RETURNING `+applicationColumns, id, string(to), sources).
		StructScan(&row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Application{}, ErrStatusConflict
	}
	if err != nil {
		return models.Application{}, err
	}
	return row.toModel()
}

// UpdateDetails replaces the payload of a pending application and flags it as revised.
func (r *ApplicationRepo) UpdateDetails(ctx context.Context, id int64, details models.ApplicationDetails) (models.Application, error) {
	raw, err := json.Marshal(details)
	if err != nil {
		return models.Application{}, fmt.Errorf("encode details: %w", err)
	}
	var row applicationRow
	err = r.db.QueryRowxContext(ctx, `UPDATE applications SET details=$2, is_updated=TRUE, updated_at=NOW()
        WHERE id=$1 AND status='pending' RETURNING `+applicationColumns, id, types.JSONText(raw)).
		StructScan(&row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Application{}, ErrStatusConflict
	}
	if err != nil {
		return models.Application{}, err
	}
	return row.toModel()
}

// ListByStudent returns the student's applications, newest first.
func (r *ApplicationRepo) ListByStudent(ctx context.Context, studentID int64) ([]models.Application, error) {
	var rows []applicationRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+applicationColumns+` FROM applications WHERE student_id=$1 ORDER BY created_at DESC`, studentID); err != nil {
		return nil, err
	}
	return toModels(rows)
}

// ListByLandlord returns applications received by the landlord, newest first.
func (r *ApplicationRepo) ListByLandlord(ctx context.Context, landlordID int64) ([]models.Application, error) {
	var rows []applicationRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+applicationColumns+` FROM applications WHERE landlord_id=$1 ORDER BY created_at DESC`, landlordID); err != nil {
		return nil, err
	}
	return toModels(rows)
}

// FindLatestForPair returns the most recent application between a student and
// a landlord about a room, preferring booking requests over inquiries.
func (r *ApplicationRepo) FindLatestForPair(ctx context.Context, roomID, studentID, landlordID int64) (models.Application, error) {
	var row applicationRow
	err := r.db.GetContext(ctx, &row, `SELECT `+applicationColumns+` FROM applications
        WHERE room_id=$1 AND student_id=$2 AND landlord_id=$3
        ORDER BY (type = 'request') DESC, created_at DESC LIMIT 1`, roomID, studentID, landlordID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Application{}, ErrApplicationNotFound
	}
	if err != nil {
		return models.Application{}, err
	}
	return row.toModel()
}
