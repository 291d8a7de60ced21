package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"rental-service/internal/models"
	"rental-service/internal/observability"
	"rental-service/internal/repositories"
	"rental-service/internal/telemetry"
)

// Coordinator is the part of the conversation service the booking lifecycle writes through.
type Coordinator interface {
	FindOrCreate(ctx context.Context, roomID, userA, userB int64, convType models.ConversationType) (models.Conversation, error)
	PostMessage(ctx context.Context, conv models.Conversation, senderID int64, draft models.MessageDraft) (models.Message, error)
	PostSystemMessage(ctx context.Context, roomID, userA, userB, senderID int64, text string) (*models.Message, error)
	SyncBookingStatus(ctx context.Context, applicationID int64, status models.ApplicationStatus) error
}

// Notifier accepts notifications for asynchronous delivery. It never reports
// failures to the caller.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification)
}

// BookingService drives the application lifecycle. The application write
// always commits first; the conversation echo, system narration and
// notifications that follow are best effort and never undo it.
type BookingService struct {
	apps   repositories.ApplicationRepository
	rooms  repositories.RoomRepository
	convs  Coordinator
	notify Notifier
	audit  *telemetry.AuditEmitter
}

// NewBookingService builds a BookingService. audit may be nil.
func NewBookingService(apps repositories.ApplicationRepository, rooms repositories.RoomRepository, convs Coordinator, notify Notifier, audit *telemetry.AuditEmitter) *BookingService {
	return &BookingService{apps: apps, rooms: rooms, convs: convs, notify: notify, audit: audit}
}

// CreateInquiry records a question from a student about a room. No
// conversation is required for an inquiry.
func (s *BookingService) CreateInquiry(ctx context.Context, studentID, roomID int64, message string) (models.Application, error) {
	ctx, span := tracer.Start(ctx, "booking.create_inquiry", trace.WithAttributes(attribute.Int64("room.id", roomID)))
	defer span.End()

	room, err := s.loadRoom(ctx, roomID)
	if err != nil {
		return models.Application{}, err
	}
	if room.LandlordID == studentID {
		return models.Application{}, ErrSelfInquiry
	}

	app, err := s.apps.CreateApplication(ctx, models.Application{
		RoomID:     room.ID,
		StudentID:  studentID,
		LandlordID: room.LandlordID,
		Status:     models.StatusPending,
		Details:    models.InquiryDetails{Message: message},
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return models.Application{}, fmt.Errorf("store inquiry: %w", err)
	}

	s.notify.Notify(ctx, models.Notification{
		UserID:  room.LandlordID,
		Title:   "New inquiry",
		Message: fmt.Sprintf("A student asked about %q.", room.Title),
		Link:    applicationLink(app.ID),
	})
	s.audit.Emit(ctx, "INFO", fmt.Sprintf("inquiry %d created for room %d", app.ID, room.ID), studentID)
	return app, nil
}

// CreateApplication records a booking request, then opens the booking
// conversation and posts a booking_request message snapshotting it.
func (s *BookingService) CreateApplication(ctx context.Context, studentID, roomID int64, details models.RequestDetails) (models.Application, error) {
	ctx, span := tracer.Start(ctx, "booking.create_application", trace.WithAttributes(attribute.Int64("room.id", roomID)))
	defer span.End()

	if roomID == 0 {
		return models.Application{}, invalid(models.FieldError{Field: "room", Reason: "is required"})
	}
	if err := details.Validate(); err != nil {
		return models.Application{}, invalid(err)
	}

	room, err := s.loadRoom(ctx, roomID)
	if err != nil {
		return models.Application{}, err
	}
	if room.LandlordID == studentID {
		return models.Application{}, ErrSelfInquiry
	}

	app, err := s.apps.CreateApplication(ctx, models.Application{
		RoomID:     room.ID,
		StudentID:  studentID,
		LandlordID: room.LandlordID,
		Status:     models.StatusPending,
		Details:    details,
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return models.Application{}, fmt.Errorf("store application: %w", err)
	}

	if err := s.postBookingRequest(ctx, app, room); err != nil {
		sideEffectFailed("booking_request_message", app.ID, err)
	}

	s.notify.Notify(ctx, models.Notification{
		UserID:  room.LandlordID,
		Title:   "New booking request",
		Message: fmt.Sprintf("%s requested to book %q.", details.FullName, room.Title),
		Link:    applicationLink(app.ID),
	})
	s.audit.Emit(ctx, "INFO", fmt.Sprintf("booking request %d created for room %d", app.ID, room.ID), studentID)
	return app, nil
}

func (s *BookingService) postBookingRequest(ctx context.Context, app models.Application, room models.Room) error {
	conv, err := s.convs.FindOrCreate(ctx, room.ID, app.StudentID, app.LandlordID, models.ConversationBooking)
	if err != nil {
		return err
	}
	snapshot, err := models.NewBookingSnapshot(app, room.Title)
	if err != nil {
		return err
	}
	_, err = s.convs.PostMessage(ctx, conv, app.StudentID, models.MessageDraft{
		Type:           models.MessageBookingRequest,
		BookingRequest: &snapshot,
	})
	return err
}

// Approve accepts a pending application on behalf of its landlord.
func (s *BookingService) Approve(ctx context.Context, actor Actor, applicationID int64) (models.Application, error) {
	return s.decide(ctx, actor, applicationID, models.TransitionApprove, "")
}

// Reject declines a pending application on behalf of its landlord.
func (s *BookingService) Reject(ctx context.Context, actor Actor, applicationID int64, reason string) (models.Application, error) {
	return s.decide(ctx, actor, applicationID, models.TransitionReject, strings.TrimSpace(reason))
}

func (s *BookingService) decide(ctx context.Context, actor Actor, applicationID int64, t models.Transition, reason string) (models.Application, error) {
	ctx, span := tracer.Start(ctx, "booking."+string(t), trace.WithAttributes(attribute.Int64("application.id", applicationID)))
	defer span.End()

	app, err := s.loadApplication(ctx, applicationID)
	if err != nil {
		return models.Application{}, err
	}
	if actor.ID != app.LandlordID {
		return models.Application{}, ErrForbidden
	}
	if !models.CanTransition(app.Status, t) {
		observability.IncBookingTransition(string(t), "already_processed")
		return models.Application{}, ErrAlreadyProcessed
	}

	updated, err := s.apps.UpdateStatus(ctx, app.ID, []models.ApplicationStatus{models.StatusPending}, t.Target())
	if errors.Is(err, repositories.ErrStatusConflict) {
		observability.IncBookingTransition(string(t), "already_processed")
		return models.Application{}, ErrAlreadyProcessed
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return models.Application{}, fmt.Errorf("update application status: %w", err)
	}

	s.afterTransition(ctx, actor.ID, updated, t, reason)
	return updated, nil
}

// Cancel withdraws an application on behalf of its student. Cancelling an
// already cancelled application is a no-op.
func (s *BookingService) Cancel(ctx context.Context, actor Actor, applicationID int64) (models.Application, error) {
	return s.settle(ctx, actor, applicationID, models.TransitionCancel)
}

// ConfirmPayment marks an application paid on behalf of its landlord.
// Confirming an already confirmed application is a no-op.
func (s *BookingService) ConfirmPayment(ctx context.Context, actor Actor, applicationID int64) (models.Application, error) {
	return s.settle(ctx, actor, applicationID, models.TransitionConfirmPayment)
}

func (s *BookingService) settle(ctx context.Context, actor Actor, applicationID int64, t models.Transition) (models.Application, error) {
	ctx, span := tracer.Start(ctx, "booking."+string(t), trace.WithAttributes(attribute.Int64("application.id", applicationID)))
	defer span.End()

	app, err := s.loadApplication(ctx, applicationID)
	if err != nil {
		return models.Application{}, err
	}

	owner := app.StudentID
	if t == models.TransitionConfirmPayment {
		owner = app.LandlordID
	}
	if actor.ID != owner && !actor.IsAdmin() {
		return models.Application{}, ErrForbidden
	}

	target := t.Target()
	if app.Status == target {
		observability.IncBookingTransition(string(t), "noop")
		return app, nil
	}
	if !models.CanTransition(app.Status, t) {
		observability.IncBookingTransition(string(t), "invalid_state")
		return models.Application{}, fmt.Errorf("%w: cannot %s a %s application", ErrInvalidState, strings.ReplaceAll(string(t), "_", " "), app.Status)
	}

	updated, err := s.apps.UpdateStatus(ctx, app.ID, []models.ApplicationStatus{models.StatusPending, models.StatusApproved}, target)
	if errors.Is(err, repositories.ErrStatusConflict) {
		current, getErr := s.loadApplication(ctx, app.ID)
		if getErr == nil && current.Status == target {
			return current, nil
		}
		observability.IncBookingTransition(string(t), "invalid_state")
		return models.Application{}, ErrInvalidState
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return models.Application{}, fmt.Errorf("update application status: %w", err)
	}

	s.afterTransition(ctx, actor.ID, updated, t, "")
	return updated, nil
}

// Update merges a student's revision into a pending application.
func (s *BookingService) Update(ctx context.Context, actor Actor, applicationID int64, patch models.ApplicationPatch) (models.Application, error) {
	ctx, span := tracer.Start(ctx, "booking.update", trace.WithAttributes(attribute.Int64("application.id", applicationID)))
	defer span.End()

	app, err := s.loadApplication(ctx, applicationID)
	if err != nil {
		return models.Application{}, err
	}
	if actor.ID != app.StudentID {
		return models.Application{}, ErrForbidden
	}
	if app.Status != models.StatusPending {
		return models.Application{}, ErrAlreadyProcessed
	}

	revised, err := patch.Apply(app.Details)
	if err != nil {
		return models.Application{}, invalid(err)
	}

	updated, err := s.apps.UpdateDetails(ctx, app.ID, revised)
	if errors.Is(err, repositories.ErrStatusConflict) {
		return models.Application{}, ErrAlreadyProcessed
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return models.Application{}, fmt.Errorf("update application: %w", err)
	}

	title := s.roomTitle(ctx, updated.RoomID)
	text := fmt.Sprintf("The booking request for %q was updated by the student.", title)
	if _, err := s.convs.PostSystemMessage(ctx, updated.RoomID, updated.StudentID, updated.LandlordID, actor.ID, text); err != nil {
		sideEffectFailed("system_message", updated.ID, err)
	}
	s.notify.Notify(ctx, models.Notification{
		UserID:  updated.LandlordID,
		Title:   "Booking request updated",
		Message: text,
		Link:    applicationLink(updated.ID),
	})
	s.audit.Emit(ctx, "INFO", fmt.Sprintf("application %d updated", updated.ID), actor.ID)
	return updated, nil
}

// Get returns an application visible to its student, its landlord or an admin.
func (s *BookingService) Get(ctx context.Context, actor Actor, applicationID int64) (models.Application, error) {
	app, err := s.loadApplication(ctx, applicationID)
	if err != nil {
		return models.Application{}, err
	}
	if actor.ID != app.StudentID && actor.ID != app.LandlordID && !actor.IsAdmin() {
		return models.Application{}, ErrForbidden
	}
	return app, nil
}

// ListForStudent returns the applications a student submitted.
func (s *BookingService) ListForStudent(ctx context.Context, studentID int64) ([]models.Application, error) {
	return s.apps.ListByStudent(ctx, studentID)
}

// ListForLandlord returns the applications a landlord received.
func (s *BookingService) ListForLandlord(ctx context.Context, landlordID int64) ([]models.Application, error) {
	return s.apps.ListByLandlord(ctx, landlordID)
}

// afterTransition runs the dependent writes of a committed status change.
// Each one fails on its own without affecting the others or the caller.
func (s *BookingService) afterTransition(ctx context.Context, actorID int64, app models.Application, t models.Transition, reason string) {
	observability.IncBookingTransition(string(t), "ok")

	if app.Type() == models.ApplicationRequest {
		if err := s.convs.SyncBookingStatus(ctx, app.ID, app.Status); err != nil {
			sideEffectFailed("booking_status_sync", app.ID, err)
		}
	}

	title := s.roomTitle(ctx, app.RoomID)
	text, recipient, heading := narrate(t, title, reason, app)
	if _, err := s.convs.PostSystemMessage(ctx, app.RoomID, app.StudentID, app.LandlordID, actorID, text); err != nil {
		sideEffectFailed("system_message", app.ID, err)
	}

	s.notify.Notify(ctx, models.Notification{
		UserID:  recipient,
		Title:   heading,
		Message: text,
		Link:    applicationLink(app.ID),
	})
	s.audit.Emit(ctx, "INFO", fmt.Sprintf("application %d %s", app.ID, app.Status), actorID)
}

// narrate returns the system message text, the notified user and the
// notification title for a transition.
func narrate(t models.Transition, title, reason string, app models.Application) (string, int64, string) {
	switch t {
	case models.TransitionApprove:
		return fmt.Sprintf("Your booking request for %q has been approved.", title), app.StudentID, "Booking approved"
	case models.TransitionReject:
		text := fmt.Sprintf("Your booking request for %q has been rejected.", title)
		if reason != "" {
			text += " Reason: " + reason
		}
		return text, app.StudentID, "Booking rejected"
	case models.TransitionCancel:
		return fmt.Sprintf("The booking request for %q was cancelled by the student.", title), app.LandlordID, "Booking cancelled"
	case models.TransitionConfirmPayment:
		return fmt.Sprintf("Payment for %q has been confirmed.", title), app.StudentID, "Payment confirmed"
	}
	return fmt.Sprintf("The booking request for %q changed to %s.", title, app.Status), app.StudentID, "Booking updated"
}

func (s *BookingService) loadRoom(ctx context.Context, roomID int64) (models.Room, error) {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if errors.Is(err, repositories.ErrRoomNotFound) {
		return models.Room{}, notFound("room", roomID)
	}
	return room, err
}

func (s *BookingService) loadApplication(ctx context.Context, id int64) (models.Application, error) {
	app, err := s.apps.GetApplication(ctx, id)
	if errors.Is(err, repositories.ErrApplicationNotFound) {
		return models.Application{}, notFound("application", id)
	}
	return app, err
}

// roomTitle is used for narration only, so a lookup failure falls back to a generic label.
func (s *BookingService) roomTitle(ctx context.Context, roomID int64) string {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		log.Printf("room lookup for narration failed room_id=%d: %v", roomID, err)
		return fmt.Sprintf("room #%d", roomID)
	}
	return room.Title
}

func applicationLink(id int64) string {
	return fmt.Sprintf("/applications/%d", id)
}

func sideEffectFailed(kind string, applicationID int64, err error) {
	log.Printf("booking side effect failed kind=%s application_id=%d: %v", kind, applicationID, err)
	observability.IncSideEffectFailure(kind)
}
