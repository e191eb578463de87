package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "confreg/pkg/domain-errors"

	"confreg/internal/registration/models"
	"confreg/internal/registration/service"
	"confreg/internal/registration/store/registration"
)

type fakeService struct {
	createResult *service.CreateResult
	createErr    error
	createdInput service.CreateInput

	reg       *models.Registration
	resendErr error
	listed    []*models.Registration
	filters   registration.Filters
	stats     registration.Stats
	logs      []*models.EmailDeliveryLog
}

func (f *fakeService) Create(_ context.Context, in service.CreateInput) (*service.CreateResult, error) {
	f.createdInput = in
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createResult, nil
}

func (f *fakeService) Get(_ context.Context, _ uuid.UUID) (*models.Registration, error) {
	if f.reg == nil {
		return nil, domainerrors.New(domainerrors.CodeNotFound, "registration not found")
	}
	return f.reg, nil
}

func (f *fakeService) Resend(_ context.Context, _ uuid.UUID) error { return f.resendErr }

func (f *fakeService) VerifyAttendance(_ context.Context, _ uuid.UUID) (*models.Registration, error) {
	if f.reg == nil {
		return nil, domainerrors.New(domainerrors.CodeNotFound, "registration not found")
	}
	return f.reg, nil
}

func (f *fakeService) List(_ context.Context, filters registration.Filters) ([]*models.Registration, error) {
	f.filters = filters
	return f.listed, nil
}

func (f *fakeService) Stats(_ context.Context) (registration.Stats, error) {
	return f.stats, nil
}

func (f *fakeService) EmailLogs(_ context.Context, _ uuid.UUID, _ int) ([]*models.EmailDeliveryLog, error) {
	return f.logs, nil
}

func newTestRouter(svc Service) http.Handler {
	h := New(svc, slog.New(slog.DiscardHandler))
	r := chi.NewRouter()
	h.Register(r)
	r.Route("/admin", h.RegisterAdmin)
	return r
}

func TestCreate(t *testing.T) {
	id := uuid.New()
	svc := &fakeService{createResult: &service.CreateResult{
		RegistrationID:   id,
		Reference:        "CONF-1714000000000-a1b2c3d",
		Amount:           30000,
		AuthorizationURL: "https://checkout.example/abc",
	}}
	router := newTestRouter(svc)

	body := `{"email":"ada@example.com","surname":"Okafor","first_name":"Ada","phone":"+2348000000000","category":"doctor","years_in_practice":"less-than-5"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/registrations", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "ada@example.com", svc.createdInput.Email)
	assert.Equal(t, models.CategoryDoctor, svc.createdInput.Category)

	var resp service.CreateResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, id, resp.RegistrationID)
	assert.Equal(t, 30000, resp.Amount)
}

func TestCreateValidationError(t *testing.T) {
	svc := &fakeService{
		createErr: domainerrors.WithFields("missing or invalid fields", []string{"surname", "years_in_practice"}),
	}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/registrations", strings.NewReader(`{}`)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body struct {
		Error  string   `json:"error"`
		Fields []string `json:"fields"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "bad_request", body.Error)
	assert.ElementsMatch(t, []string{"surname", "years_in_practice"}, body.Fields)
}

func TestCreateMalformedBody(t *testing.T) {
	router := newTestRouter(&fakeService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/registrations", strings.NewReader(`{not json`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResend(t *testing.T) {
	svc := &fakeService{}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/registrations/"+uuid.NewString()+"/resend-confirmation", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	svc.resendErr = domainerrors.New(domainerrors.CodeInvalidState, "registration has not completed payment")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/registrations/"+uuid.NewString()+"/resend-confirmation", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/registrations/not-a-uuid/resend-confirmation", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListForwardsFilters(t *testing.T) {
	svc := &fakeService{listed: []*models.Registration{{ID: uuid.New()}}}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/registrations?status=paid&category=doctor&search=okafor", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.PaymentStatusPaid, svc.filters.PaymentStatus)
	assert.Equal(t, models.CategoryDoctor, svc.filters.Category)
	assert.Equal(t, "okafor", svc.filters.Search)

	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 1, body.Count)
}

func TestStats(t *testing.T) {
	svc := &fakeService{stats: registration.Stats{Total: 12, Paid: 7, Pending: 4, Abandoned: 1, Revenue: 310000}}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/registrations/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var stats registration.Stats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, svc.stats, stats)
}

func TestEmailLogsRejectsBadID(t *testing.T) {
	router := newTestRouter(&fakeService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/email-logs?registration_id=nope", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
