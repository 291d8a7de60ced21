package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ApplicationType discriminates the payload carried by an Application.
type ApplicationType string

const (
	ApplicationInquiry ApplicationType = "inquiry"
	ApplicationRequest ApplicationType = "request"
)

// ApplicationStatus is the lifecycle state of an Application.
type ApplicationStatus string

const (
	StatusPending   ApplicationStatus = "pending"
	StatusApproved  ApplicationStatus = "approved"
	StatusRejected  ApplicationStatus = "rejected"
	StatusCancelled ApplicationStatus = "cancelled"
	StatusConfirmed ApplicationStatus = "confirmed"
)

// Transition names an action that moves an Application between states.
type Transition string

const (
	TransitionApprove        Transition = "approve"
	TransitionReject         Transition = "reject"
	TransitionCancel         Transition = "cancel"
	TransitionConfirmPayment Transition = "confirm_payment"
)

// Target returns the state a transition leads to.
func (t Transition) Target() ApplicationStatus {
	switch t {
	case TransitionApprove:
		return StatusApproved
	case TransitionReject:
		return StatusRejected
	case TransitionCancel:
		return StatusCancelled
	case TransitionConfirmPayment:
		return StatusConfirmed
	}
	return ""
}

// transitionSources lists the states each transition may start from.
// Approve and reject are landlord decisions and only apply to pending
// applications. Cancel and confirm-payment also accept approved ones.
var transitionSources = map[Transition][]ApplicationStatus{
	TransitionApprove:        {StatusPending},
	TransitionReject:         {StatusPending},
	TransitionCancel:         {StatusPending, StatusApproved},
	TransitionConfirmPayment: {StatusPending, StatusApproved},
}

// CanTransition reports whether t is allowed from the given status.
func CanTransition(from ApplicationStatus, t Transition) bool {
	for _, s := range transitionSources[t] {
		if s == from {
			return true
		}
	}
	return false
}

// Occupants counts the people covered by a booking request.
type Occupants struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Males    int `json:"males"`
	Females  int `json:"females"`
}

// ApplicationDetails is the type-specific payload of an Application.
// Implementations are InquiryDetails and RequestDetails.
type ApplicationDetails interface {
	Type() ApplicationType
	Validate() error
}

// InquiryDetails is the payload of an inquiry: a free-form question.
type InquiryDetails struct {
	Message string `json:"message"`
}

func (InquiryDetails) Type() ApplicationType { return ApplicationInquiry }

func (d InquiryDetails) Validate() error { return nil }

// RequestDetails is the payload of a formal booking request.
type RequestDetails struct {
	FullName     string    `json:"fullName"`
	MobileNumber string    `json:"mobileNumber"`
	ProfileType  string    `json:"profileType"`
	CheckIn      time.Time `json:"checkIn"`
	CheckOut     time.Time `json:"checkOut"`
	Occupants    Occupants `json:"occupants"`
	Message      string    `json:"message,omitempty"`
}

func (RequestDetails) Type() ApplicationType { return ApplicationRequest }

// FieldError names a request field that failed validation.
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Validate checks the fields that are mandatory for a booking request.
func (d RequestDetails) Validate() error {
	var errs []error
	if strings.TrimSpace(d.FullName) == "" {
		errs = append(errs, FieldError{Field: "fullName", Reason: "is required"})
	}
	if strings.TrimSpace(d.MobileNumber) == "" {
		errs = append(errs, FieldError{Field: "mobileNumber", Reason: "is required"})
	}
	if strings.TrimSpace(d.ProfileType) == "" {
		errs = append(errs, FieldError{Field: "profileType", Reason: "is required"})
	}
	if d.CheckIn.IsZero() {
		errs = append(errs, FieldError{Field: "checkIn", Reason: "is required"})
	}
	if d.CheckOut.IsZero() {
		errs = append(errs, FieldError{Field: "checkOut", Reason: "is required"})
	}
	if !d.CheckIn.IsZero() && !d.CheckOut.IsZero() && !d.CheckOut.After(d.CheckIn) {
		errs = append(errs, FieldError{Field: "checkOut", Reason: "must be after checkIn"})
	}
	if d.Occupants.Adults < 1 {
		errs = append(errs, FieldError{Field: "occupants.adults", Reason: "must be at least 1"})
	}
	if d.Occupants.Children < 0 || d.Occupants.Males < 0 || d.Occupants.Females < 0 {
		errs = append(errs, FieldError{Field: "occupants", Reason: "counts cannot be negative"})
	}
	return errors.Join(errs...)
}

// Application is a tenant's inquiry or booking request against a room.
type Application struct {
	ID         int64              `json:"id"`
	RoomID     int64              `json:"room_id"`
	StudentID  int64              `json:"student_id"`
	LandlordID int64              `json:"landlord_id"`
	Status     ApplicationStatus  `json:"status"`
	IsUpdated  bool               `json:"is_updated"`
	Details    ApplicationDetails `json:"details"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// Type returns the variant of the application payload.
func (a Application) Type() ApplicationType {
	if a.Details == nil {
		return ""
	}
	return a.Details.Type()
}

// Request returns the booking request payload when the application is a request.
func (a Application) Request() (RequestDetails, bool) {
	d, ok := a.Details.(RequestDetails)
	return d, ok
}

// MarshalJSON flattens the variant so clients see an explicit type tag.
func (a Application) MarshalJSON() ([]byte, error) {
	type alias Application
	return json.Marshal(struct {
		alias
		Type ApplicationType `json:"type"`
	}{alias: alias(a), Type: a.Type()})
}

// DecodeDetails restores a variant payload from its stored JSON form.
func DecodeDetails(t ApplicationType, raw []byte) (ApplicationDetails, error) {
	switch t {
	case ApplicationInquiry:
		var d InquiryDetails
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &d); err != nil {
				return nil, fmt.Errorf("decode inquiry details: %w", err)
			}
		}
		return d, nil
	case ApplicationRequest:
		var d RequestDetails
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("decode request details: %w", err)
		}
		return d, nil
	}
	return nil, fmt.Errorf("unknown application type %q", t)
}

// ApplicationPatch carries the fields a student may revise while pending.
// Nil fields are left untouched.
type ApplicationPatch struct {
	FullName     *string    `json:"fullName"`
	MobileNumber *string    `json:"mobileNumber"`
	ProfileType  *string    `json:"profileType"`
	CheckIn      *Date      `json:"checkIn"`
	CheckOut     *Date      `json:"checkOut"`
	Occupants    *Occupants `json:"occupants"`
	Message      *string    `json:"message"`
}

// Apply merges the patch into details and returns the revised payload.
func (p ApplicationPatch) Apply(details ApplicationDetails) (ApplicationDetails, error) {
	switch d := details.(type) {
	case InquiryDetails:
		if p.Message != nil {
			d.Message = *p.Message
		}
		return d, nil
	case RequestDetails:
		if p.FullName != nil {
			d.FullName = *p.FullName
		}
		if p.MobileNumber != nil {
			d.MobileNumber = *p.MobileNumber
		}
		if p.ProfileType != nil {
			d.ProfileType = *p.ProfileType
		}
		if p.CheckIn != nil {
			d.CheckIn = p.CheckIn.Time
		}
		if p.CheckOut != nil {
			d.CheckOut = p.CheckOut.Time
		}
		if p.Occupants != nil {
			d.Occupants = *p.Occupants
		}
		if p.Message != nil {
			d.Message = *p.Message
		}
		return d, d.Validate()
	}
	return nil, fmt.Errorf("unsupported application details %T", details)
}
