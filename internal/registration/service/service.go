// Package service owns the registration lifecycle: creation against the
// member directory, payment reconciliation, and the administrative
// operations layered on top. Payment confirmation is safe to invoke
// concurrently from the webhook, the browser callback, and manual requery;
// the store's conditional write guarantees a single transition and this
// service guarantees the transition's side effects run once.
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	domainerrors "confreg/pkg/domain-errors"
	"confreg/pkg/platform/sentinel"

	"confreg/internal/directory"
	"confreg/internal/payment/paystack"
	"confreg/internal/platform/metrics"
	"confreg/internal/registration/models"
	"confreg/internal/registration/pricing"
	"confreg/internal/registration/store/emaillog"
	"confreg/internal/registration/store/registration"
)

// Gateway is the payment provider surface the service needs. Satisfied by
// *paystack.Client.
type Gateway interface {
	Verify(ctx context.Context, reference string) (*paystack.Verification, error)
	Initialize(ctx context.Context, email string, amount int, reference, registrationID, callbackURL string) (*paystack.InitializeResult, error)
}

// ConfirmationSender delivers the confirmation email. It never reports
// failure back; delivery problems are absorbed and audited by the sender.
type ConfirmationSender interface {
	SendConfirmation(ctx context.Context, reg *models.Registration)
}

// Service coordinates stores, the gateway, and the confirmation sender.
type Service struct {
	store   registration.Store
	logs    emaillog.Store
	members directory.Lookup
	gateway Gateway
	sender  ConfirmationSender

	fees        pricing.Table
	refPrefix   string
	callbackURL string

	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics attaches lifecycle counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPricing overrides the published fee schedule.
func WithPricing(t pricing.Table) Option {
	return func(s *Service) { s.fees = t }
}

// WithReferencePrefix sets the payment reference prefix.
func WithReferencePrefix(prefix string) Option {
	return func(s *Service) { s.refPrefix = prefix }
}

// WithCallbackURL sets the browser return URL handed to the gateway when a
// hosted-payment session is initialized.
func WithCallbackURL(url string) Option {
	return func(s *Service) { s.callbackURL = url }
}

// New constructs the registration service.
func New(store registration.Store, logs emaillog.Store, members directory.Lookup, gateway Gateway, sender ConfirmationSender, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:     store,
		logs:      logs,
		members:   members,
		gateway:   gateway,
		sender:    sender,
		fees:      pricing.DefaultTable(),
		refPrefix: "CONF",
		logger:    logger,
		tracer:    otel.Tracer("confreg/registration"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput is the registration submission.
type CreateInput struct {
	Email           string          `json:"email"`
	Surname         string          `json:"surname"`
	FirstName       string          `json:"first_name"`
	OtherNames      string          `json:"other_names"`
	Age             int             `json:"age"`
	Sex             string          `json:"sex"`
	Phone           string          `json:"phone"`
	Category        models.Category `json:"category"`
	YearsInPractice string          `json:"years_in_practice"`

	SpouseSurname    string `json:"spouse_surname"`
	SpouseFirstName  string `json:"spouse_first_name"`
	SpouseOtherNames string `json:"spouse_other_names"`
	SpouseEmail      string `json:"spouse_email"`

	DateOfArrival       time.Time `json:"date_of_arrival"`
	AccommodationOption string    `json:"accommodation_option"`

	HasAbstract       bool   `json:"has_abstract"`
	PresentationTitle string `json:"presentation_title"`
	AbstractFileURL   string `json:"abstract_file_url"`
}

// CreateResult is returned to the client that will redirect the attendee to
// the hosted payment page.
type CreateResult struct {
	RegistrationID   uuid.UUID `json:"registration_id"`
	Reference        string    `json:"reference"`
	Amount           int       `json:"amount"`
	AuthorizationURL string    `json:"authorization_url,omitempty"`
}

func (in *CreateInput) validate() error {
	var missing []string
	if in.Email == "" {
		missing = append(missing, "email")
	}
	if in.Surname == "" {
		missing = append(missing, "surname")
	}
	if in.FirstName == "" {
		missing = append(missing, "first_name")
	}
	if in.Phone == "" {
		missing = append(missing, "phone")
	}
	if !in.Category.IsValid() {
		missing = append(missing, "category")
	}
	if in.Category == models.CategoryDoctor &&
		in.YearsInPractice != models.YearsLessThanFive && in.YearsInPractice != models.YearsFiveAndAbove {
		missing = append(missing, "years_in_practice")
	}
	if in.Category == models.CategoryDoctorWithSpouse {
		if in.SpouseSurname == "" {
			missing = append(missing, "spouse_surname")
		}
		if in.SpouseFirstName == "" {
			missing = append(missing, "spouse_first_name")
		}
	}
	if len(missing) > 0 {
		return domainerrors.WithFields("missing or invalid fields", missing)
	}
	return nil
}

// Create registers an attendee. Registration is members-only: the email must
// resolve in the member directory before anything is persisted. The amount
// owed is priced at submission time and fixed on the row.
func (s *Service) Create(ctx context.Context, in CreateInput) (*CreateResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	member, err := s.members.FindByEmail(ctx, in.Email)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, domainerrors.Newf(domainerrors.CodeNotFound, "no member found for email %s", in.Email)
	}
	if err != nil {
		return nil, fmt.Errorf("directory lookup: %w", err)
	}

	now := s.now()
	quote := s.fees.Quote(in.Category, in.YearsInPractice, now)

	reg := &models.Registration{
		ID:               uuid.New(),
		MemberID:         member.ID,
		Email:            in.Email,
		Surname:          in.Surname,
		FirstName:        in.FirstName,
		OtherNames:       in.OtherNames,
		Age:              in.Age,
		Sex:              in.Sex,
		Phone:            in.Phone,
		Chapter:          member.Chapter,
		Category:         in.Category,
		YearsInPractice:  in.YearsInPractice,
		SpouseSurname:    in.SpouseSurname,
		SpouseFirstName:  in.SpouseFirstName,
		SpouseOtherNames: in.SpouseOtherNames,
		SpouseEmail:      in.SpouseEmail,

		DateOfArrival:       in.DateOfArrival,
		AccommodationOption: in.AccommodationOption,
		HasAbstract:         in.HasAbstract,
		PresentationTitle:   in.PresentationTitle,
		AbstractFileURL:     in.AbstractFileURL,

		BaseFee:          quote.BaseFee,
		LateFee:          quote.LateFee,
		TotalAmount:      quote.Total,
		PaymentStatus:    models.PaymentStatusPending,
		PaymentReference: s.newReference(now),

		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Create(ctx, reg); err != nil {
		return nil, fmt.Errorf("persist registration: %w", err)
	}
	s.metrics.IncrementRegistrationsCreated()
	s.logger.InfoContext(ctx, "registration created",
		"registration_id", reg.ID, "category", reg.Category, "amount", reg.TotalAmount)

	result := &CreateResult{
		RegistrationID: reg.ID,
		Reference:      reg.PaymentReference,
		Amount:         reg.TotalAmount,
	}
	if s.gateway != nil {
		session, err := s.gateway.Initialize(ctx, reg.Email, reg.TotalAmount, reg.PaymentReference, reg.ID.String(), s.callbackURL)
		if err != nil {
			// The row stays pending; the attendee can be re-sent to the
			// payment page through requery tooling.
			return nil, fmt.Errorf("initialize payment session: %w", err)
		}
		result.AuthorizationURL = session.AuthorizationURL
	}
	return result, nil
}

// newReference generates a payment reference: prefix, millisecond timestamp,
// seven random alphanumerics. Uniqueness is probabilistic; the store's unique
// index is the backstop.
func (s *Service) newReference(now time.Time) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	buf := make([]byte, 7)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("read random bytes: %v", err))
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return fmt.Sprintf("%s-%d-%s", s.refPrefix, now.UnixMilli(), buf)
}

// ConfirmPayment reconciles a payment reference against the gateway and,
// when this call is the one that performs the pending-to-paid transition,
// sends the confirmation email. Safe under arbitrary concurrent and repeated
// invocation: replays return the paid registration unchanged with no side
// effects, and racing callers resolve through the store's conditional write
// so exactly one of them emails.
func (s *Service) ConfirmPayment(ctx context.Context, reference string) (*models.Registration, error) {
	ctx, span := s.tracer.Start(ctx, "registration.ConfirmPayment")
	defer span.End()

	verification, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		if domainerrors.HasCode(err, domainerrors.CodePaymentNotSuccessful) {
			s.metrics.IncrementPaymentsFailed()
		}
		return nil, err
	}

	reg, err := s.resolve(ctx, verification)
	if err != nil {
		return nil, err
	}

	// Replay of an already-reconciled payment. Return as-is: no write, no
	// email, no new audit entry.
	if reg.IsPaid() {
		return reg, nil
	}

	transitioned, err := s.store.MarkPaid(ctx, reg.ID, verification.Reference, verification.PaidAt)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.Newf(domainerrors.CodeNotFound, "no registration for reference %s", reference)
		}
		return nil, fmt.Errorf("mark registration paid: %w", err)
	}

	reg, err = s.store.FindByID(ctx, reg.ID)
	if err != nil {
		return nil, fmt.Errorf("reload registration: %w", err)
	}

	if !transitioned {
		// A concurrent caller won the transition; it owns the email.
		return reg, nil
	}

	s.metrics.IncrementPaymentsConfirmed()
	s.logger.InfoContext(ctx, "payment confirmed",
		"registration_id", reg.ID, "reference", verification.Reference, "amount", verification.Amount)

	// The transition is committed; a client disconnect must not cut the
	// email delivery sequence short.
	s.sender.SendConfirmation(context.WithoutCancel(ctx), reg)
	return reg, nil
}

// resolve finds the registration a verified payment belongs to: by stored
// reference first, then by the registration id the gateway carried in
// transaction metadata. The fallback covers references this system did not
// generate; it is also the one path where the row's reference is (re)assigned,
// which MarkPaid does as part of the transition write.
func (s *Service) resolve(ctx context.Context, verification *paystack.Verification) (*models.Registration, error) {
	reg, err := s.store.FindByReference(ctx, verification.Reference)
	if err == nil {
		return reg, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, fmt.Errorf("find registration by reference: %w", err)
	}

	if verification.RegistrationID != "" {
		id, parseErr := uuid.Parse(verification.RegistrationID)
		if parseErr == nil {
			reg, err = s.store.FindByID(ctx, id)
			if err == nil {
				return reg, nil
			}
			if !errors.Is(err, sentinel.ErrNotFound) {
				return nil, fmt.Errorf("find registration by metadata id: %w", err)
			}
		}
	}
	return nil, domainerrors.Newf(domainerrors.CodeNotFound, "no registration for reference %s", verification.Reference)
}

// Resend re-sends the confirmation email for a paid registration.
func (s *Service) Resend(ctx context.Context, id uuid.UUID) error {
	reg, err := s.findByID(ctx, id)
	if err != nil {
		return err
	}
	if !reg.IsPaid() {
		return domainerrors.New(domainerrors.CodeInvalidState, "registration has not completed payment")
	}
	s.sender.SendConfirmation(ctx, reg)
	return nil
}

// Get returns a registration by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	return s.findByID(ctx, id)
}

// VerifyAttendance marks a paid registration as checked in at the venue.
func (s *Service) VerifyAttendance(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	reg, err := s.store.VerifyAttendance(ctx, id, s.now())
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, domainerrors.Newf(domainerrors.CodeNotFound, "registration %s not found", id)
	}
	if errors.Is(err, sentinel.ErrInvalidState) {
		return nil, domainerrors.New(domainerrors.CodeInvalidState, "registration has not completed payment")
	}
	if err != nil {
		return nil, fmt.Errorf("verify attendance: %w", err)
	}
	return reg, nil
}

// List returns registrations matching the filters, newest first.
func (s *Service) List(ctx context.Context, filters registration.Filters) ([]*models.Registration, error) {
	return s.store.List(ctx, filters)
}

// Stats aggregates registration counts and confirmed revenue.
func (s *Service) Stats(ctx context.Context) (registration.Stats, error) {
	return s.store.Stats(ctx)
}

// EmailLogs lists the delivery audit trail, optionally scoped to one
// registration.
func (s *Service) EmailLogs(ctx context.Context, registrationID uuid.UUID, limit int) ([]*models.EmailDeliveryLog, error) {
	if registrationID != uuid.Nil {
		return s.logs.ListByRegistration(ctx, registrationID)
	}
	return s.logs.ListRecent(ctx, limit)
}

// MarkAbandoned reclassifies pending registrations older than the given age.
// Administrative sweep only; reconciliation never changes rows to abandoned.
func (s *Service) MarkAbandoned(ctx context.Context, olderThan time.Duration) (int, error) {
	n, err := s.store.MarkAbandonedOlderThan(ctx, s.now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("mark abandoned: %w", err)
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "stale pending registrations reclassified", "count", n)
	}
	return n, nil
}

func (s *Service) findByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	reg, err := s.store.FindByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, domainerrors.Newf(domainerrors.CodeNotFound, "registration %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return reg, nil
}
