package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus is the registration payment lifecycle state.
type PaymentStatus string

const (
	// PaymentStatusPending is the state every registration is created in.
	PaymentStatusPending PaymentStatus = "pending"
	// PaymentStatusPaid is reached exactly once, via the reconciliation
	// conditional write. Terminal for the reconciliation core.
	PaymentStatusPaid PaymentStatus = "paid"
	// PaymentStatusFailed records a gateway-reported failure.
	PaymentStatusFailed PaymentStatus = "failed"
	// PaymentStatusAbandoned classifies stale pending registrations. Only the
	// administrative sweep produces it, never the reconciliation core.
	PaymentStatusAbandoned PaymentStatus = "abandoned"
)

// Category is the attendee registration category. Doctors split into junior
// and senior pricing by YearsInPractice; the category value itself stays
// "doctor" to match the submission form.
type Category string

const (
	CategoryStudent          Category = "student"
	CategoryDoctor           Category = "doctor"
	CategoryDoctorWithSpouse Category = "doctor-with-spouse"
)

// IsValid reports whether c is one of the enumerated categories.
func (c Category) IsValid() bool {
	switch c {
	case CategoryStudent, CategoryDoctor, CategoryDoctorWithSpouse:
		return true
	}
	return false
}

// YearsInPractice buckets for doctor pricing.
const (
	YearsLessThanFive = "less-than-5"
	YearsFiveAndAbove = "5-and-above"
)

// Registration is the central aggregate.
//
// Invariants:
//   - PaymentReference is assigned at creation and immutable once a payment
//     has been verified against it. The single exception is the gateway
//     metadata fallback, where reconciliation assigns the externally
//     confirmed reference to a registration found by ID.
//   - TotalAmount = BaseFee + LateFee, computed once at creation from the
//     pricing rule in effect at submission time. Never recomputed.
//   - Status transitions to paid happen exclusively through the store's
//     conditional write, so concurrent webhook/callback/requery invocations
//     observe at most one transition.
type Registration struct {
	ID               uuid.UUID `json:"id"`
	MemberID         string    `json:"member_id"`
	Email            string    `json:"email"`
	Surname          string    `json:"surname"`
	FirstName        string    `json:"first_name"`
	OtherNames       string    `json:"other_names,omitempty"`
	Age              int       `json:"age"`
	Sex              string    `json:"sex"`
	Phone            string    `json:"phone"`
	Chapter          string    `json:"chapter"`
	Category         Category  `json:"category"`
	YearsInPractice  string    `json:"years_in_practice,omitempty"`

	// Spouse details, required iff Category is doctor-with-spouse.
	SpouseSurname    string `json:"spouse_surname,omitempty"`
	SpouseFirstName  string `json:"spouse_first_name,omitempty"`
	SpouseOtherNames string `json:"spouse_other_names,omitempty"`
	SpouseEmail      string `json:"spouse_email,omitempty"`

	// Logistics.
	DateOfArrival       time.Time `json:"date_of_arrival"`
	AccommodationOption string    `json:"accommodation_option"`

	// Abstract submission.
	HasAbstract       bool   `json:"has_abstract"`
	PresentationTitle string `json:"presentation_title,omitempty"`
	AbstractFileURL   string `json:"abstract_file_url,omitempty"`

	// Financials, fixed at creation.
	BaseFee     int `json:"base_fee"`
	LateFee     int `json:"late_fee"`
	TotalAmount int `json:"total_amount"`

	PaymentStatus    PaymentStatus `json:"payment_status"`
	PaymentReference string        `json:"payment_reference"`
	PaidAt           *time.Time    `json:"paid_at,omitempty"`

	AttendanceVerified bool       `json:"attendance_verified"`
	VerifiedAt         *time.Time `json:"verified_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsPaid reports whether the registration has completed payment.
func (r *Registration) IsPaid() bool {
	return r.PaymentStatus == PaymentStatusPaid
}

// FullName joins the attendee name fields for display and email payloads.
func (r *Registration) FullName() string {
	if r.FirstName == "" {
		return r.Surname
	}
	return r.FirstName + " " + r.Surname
}
