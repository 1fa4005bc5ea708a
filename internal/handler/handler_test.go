package handler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/backoffice/internal/model"
	"github.com/iliyamo/backoffice/internal/repository"
	"github.com/iliyamo/backoffice/internal/service"
	"github.com/iliyamo/backoffice/internal/service/mocks"
)

func setupTestEcho(b BookingAPI, c CustomerAPI, a ApplicationAPI) *echo.Echo {
	e := echo.New()
	e.Validator = NewRequestValidator()
	if b != nil {
		h := NewBookingHandler(b)
		e.GET("/v1/bookings", h.List)
		e.GET("/v1/bookings/:id", h.Get)
		e.PUT("/v1/bookings/:id", h.Put)
		e.PATCH("/v1/bookings/:id", h.Patch)
		e.DELETE("/v1/bookings/:id", h.Delete)
	}
	if c != nil {
		h := NewCustomerHandler(c)
		e.GET("/v1/customers", h.List)
		e.GET("/v1/customers/:id", h.Get)
		e.GET("/v1/customers/:id/bookings", h.Bookings)
		e.POST("/v1/customers/:id/recompute", h.Recompute)
	}
	if a != nil {
		h := NewApplicationHandler(a)
		e.GET("/v1/applications", h.List)
		e.GET("/v1/applications/:id", h.Get)
		e.PATCH("/v1/applications/:id", h.Patch)
		e.DELETE("/v1/applications/:id", h.Delete)
		e.GET("/v1/applications/:id/student", h.Student)
		e.GET("/v1/students/:id", h.GetStudent)
	}
	return e
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestBookingHandler_Get(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		mockReturn     *model.BookingDetail
		mockError      error
		callsService   bool
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "found",
			path:           "/v1/bookings/7",
			mockReturn:     &model.BookingDetail{Booking: model.Booking{ID: 7, Status: model.BookingConfirmed}},
			callsService:   true,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "not found",
			path:           "/v1/bookings/7",
			mockError:      repository.ErrNotFound,
			callsService:   true,
			expectedStatus: http.StatusNotFound,
			expectedError:  "Booking not found",
		},
		{
			name:           "unexpected failure hides details",
			path:           "/v1/bookings/7",
			mockError:      errors.New("connection reset"),
			callsService:   true,
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "Internal server error",
		},
		{
			name:           "invalid id",
			path:           "/v1/bookings/abc",
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mocks.MockBookingService)
			if tt.callsService {
				svc.On("Detail", mock.Anything, uint64(7)).Return(tt.mockReturn, tt.mockError)
			}
			rec := do(setupTestEcho(svc, nil, nil), http.MethodGet, tt.path, "")

			assert.Equal(t, tt.expectedStatus, rec.Code)
			body := decode(t, rec)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, body["error"])
			} else {
				assert.Equal(t, true, body["success"])
				booking := body["booking"].(map[string]any)
				assert.EqualValues(t, 7, booking["id"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestBookingHandler_Get_DetailJSON(t *testing.T) {
	at := time.Date(2026, 5, 1, 10, 30, 0, 0, time.UTC)
	cid := uint64(3)
	svc := new(mocks.MockBookingService)
	svc.On("Detail", mock.Anything, uint64(7)).Return(&model.BookingDetail{
		Booking: model.Booking{
			ID: 7, TourID: 11, CustomerID: &cid, Guests: 2,
			TotalAmount: model.MustMoney("1000.50"), DiscountAmount: model.MustMoney("50.50"), FinalAmount: model.MustMoney("950.00"),
			Status: model.BookingConfirmed, PaymentStatus: model.PaymentPaid, CreatedAt: at, UpdatedAt: at,
		},
		Tour:           &model.TourSummary{ID: 11, Title: "Douro Valley", Price: model.MustMoney("499.90"), Image: []byte{0x89, 'P', 'N', 'G'}},
		Customer:       &model.Customer{ID: 3, Email: "ana@example.com"},
		GuestList:      []model.BookingGuest{{ID: 1, FullName: "Ana"}},
		Communications: []model.BookingCommunication{{ID: 4, Channel: "email", CreatedAt: at}},
		Payments:       []model.BookingPayment{{ID: 8, Amount: model.MustMoney("950.00"), PaidAt: at}},
	}, nil)

	rec := do(setupTestEcho(svc, nil, nil), http.MethodGet, "/v1/bookings/7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	booking := decode(t, rec)["booking"].(map[string]any)

	// amounts are bare JSON numbers, never quoted strings
	assert.IsType(t, float64(0), booking["total_amount"])
	assert.EqualValues(t, 1000.5, booking["total_amount"])
	assert.EqualValues(t, 950, booking["final_amount"])

	created, ok := booking["created_at"].(string)
	require.True(t, ok)
	parsed, err := time.Parse(time.RFC3339, created)
	require.NoError(t, err)
	assert.True(t, at.Equal(parsed))

	tour := booking["tour"].(map[string]any)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{0x89, 'P', 'N', 'G'}), tour["image"])
	assert.IsType(t, float64(0), tour["price"])

	assert.EqualValues(t, 3, booking["customer"].(map[string]any)["id"])
	assert.Len(t, booking["guest_list"], 1)
	assert.Len(t, booking["communications"], 1)
	payments := booking["payments"].([]any)
	require.Len(t, payments, 1)
	assert.IsType(t, float64(0), payments[0].(map[string]any)["amount"])
	svc.AssertExpectations(t)
}

func TestBookingHandler_Patch_ReportsCustomerCreated(t *testing.T) {
	svc := new(mocks.MockBookingService)
	cid := uint64(3)
	svc.On("Patch", mock.Anything, uint64(5), mock.MatchedBy(func(p service.BookingPatch) bool {
		return p.Status != nil && *p.Status == "confirmed" &&
			p.PaymentStatus != nil && *p.PaymentStatus == "paid" &&
			p.CustomerName == nil
	})).Return(&service.PatchResult{
		Booking:         &model.Booking{ID: 5, CustomerID: &cid, FinalAmount: model.MoneyFromInt(950)},
		CustomerCreated: true,
		Customer:        &model.Customer{ID: 3, TotalSpent: model.MoneyFromInt(1000), LoyaltyPoints: 1000},
	}, nil)

	rec := do(setupTestEcho(svc, nil, nil), http.MethodPatch, "/v1/bookings/5",
		`{"status":"confirmed","payment_status":"paid"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["customerCreated"])
	assert.NotContains(t, body, "warning")
	assert.EqualValues(t, 950, body["booking"].(map[string]any)["final_amount"])
	assert.EqualValues(t, 1000, body["customer"].(map[string]any)["loyalty_points"])
	svc.AssertExpectations(t)
}

func TestBookingHandler_Patch_WarningKeepsSuccess(t *testing.T) {
	svc := new(mocks.MockBookingService)
	svc.On("Patch", mock.Anything, uint64(5), mock.Anything).Return(&service.PatchResult{
		Booking: &model.Booking{ID: 5},
		Warning: "customer aggregation failed: db down",
	}, nil)

	rec := do(setupTestEcho(svc, nil, nil), http.MethodPatch, "/v1/bookings/5", `{"payment_status":"paid"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, false, body["customerCreated"])
	assert.Equal(t, "customer aggregation failed: db down", body["warning"])
}

func TestBookingHandler_Patch_ValidationIs400(t *testing.T) {
	svc := new(mocks.MockBookingService)
	svc.On("Patch", mock.Anything, uint64(5), mock.Anything).
		Return(nil, &service.ValidationError{Field: "status", Message: `unknown status "shipped"`})

	rec := do(setupTestEcho(svc, nil, nil), http.MethodPatch, "/v1/bookings/5", `{"status":"shipped"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, `status: unknown status "shipped"`, decode(t, rec)["error"])
}

func TestBookingHandler_Put_ValidatesBeforeService(t *testing.T) {
	svc := new(mocks.MockBookingService)
	rec := do(setupTestEcho(svc, nil, nil), http.MethodPut, "/v1/bookings/5",
		`{"tour_id":1,"customer_name":"Ana","customer_email":"not-an-email","guests":2,"status":"pending","payment_status":"unpaid"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "customer_email: must be a valid email", decode(t, rec)["error"])
	svc.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingHandler_Put(t *testing.T) {
	svc := new(mocks.MockBookingService)
	svc.On("Replace", mock.Anything, uint64(5), mock.MatchedBy(func(r service.BookingReplacement) bool {
		return r.TourID == 1 && r.TotalAmount.Equal(model.MoneyFromInt(1000)) && r.Guests == 2
	})).Return(&model.Booking{ID: 5}, nil)

	rec := do(setupTestEcho(svc, nil, nil), http.MethodPut, "/v1/bookings/5",
		`{"tour_id":1,"customer_name":"Ana","customer_email":"ana@example.com","guests":2,"total_amount":1000,"discount_amount":50,"status":"pending","payment_status":"unpaid"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestBookingHandler_ListAndDelete(t *testing.T) {
	svc := new(mocks.MockBookingService)
	svc.On("List", mock.Anything, model.BookingFilter{
		Status: model.BookingConfirmed, Email: "ana@example.com", Limit: 10,
	}).Return(nil, nil)
	svc.On("Delete", mock.Anything, uint64(9)).Return(repository.ErrNotFound)
	e := setupTestEcho(svc, nil, nil)

	rec := do(e, http.MethodGet, "/v1/bookings?status=CONFIRMED&email=ana@example.com&limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, []any{}, body["bookings"])
	assert.EqualValues(t, 0, body["count"])

	rec = do(e, http.MethodGet, "/v1/bookings?limit=500", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodDelete, "/v1/bookings/9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	svc.AssertExpectations(t)
}

func TestCustomerHandler(t *testing.T) {
	svc := new(mocks.MockCustomerService)
	svc.On("Get", mock.Anything, uint64(3)).Return(&model.Customer{ID: 3, CustomerType: model.CustomerRepeat}, nil)
	svc.On("Get", mock.Anything, uint64(4)).Return(nil, repository.ErrNotFound)
	svc.On("BookingsFor", mock.Anything, uint64(3)).Return([]model.Booking{{ID: 1}, {ID: 2}}, nil)
	svc.On("Recompute", mock.Anything, uint64(3)).Return(&model.Customer{ID: 3, TotalBookings: 2}, nil)
	svc.On("List", mock.Anything, model.CustomerFilter{CustomerType: model.CustomerVIP, Search: "ana"}).
		Return([]model.Customer{{ID: 3}}, nil)
	e := setupTestEcho(nil, svc, nil)

	rec := do(e, http.MethodGet, "/v1/customers/3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "repeat", decode(t, rec)["customer"].(map[string]any)["customer_type"])

	rec = do(e, http.MethodGet, "/v1/customers/4", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Customer not found", decode(t, rec)["error"])

	rec = do(e, http.MethodGet, "/v1/customers/3/bookings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode(t, rec)["count"])

	rec = do(e, http.MethodPost, "/v1/customers/3/recompute", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode(t, rec)["customer"].(map[string]any)["total_bookings"])

	rec = do(e, http.MethodGet, "/v1/customers?type=VIP&q=+ana+", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["count"])
	svc.AssertExpectations(t)
}

func TestApplicationHandler_PatchApproval(t *testing.T) {
	sid := uint64(12)
	tests := []struct {
		name            string
		update          *service.ApplicationUpdate
		expectedCreated bool
		expectStudent   bool
		expectWarning   bool
	}{
		{
			name: "first approval creates student",
			update: &service.ApplicationUpdate{
				Application:    &model.Application{ID: 4, Status: model.ApplicationApproved, StudentID: &sid},
				Student:        &model.Student{ID: 12, StudentNumber: "STU20260001"},
				StudentCreated: true,
			},
			expectedCreated: true,
			expectStudent:   true,
		},
		{
			name: "student creation failed",
			update: &service.ApplicationUpdate{
				Application: &model.Application{ID: 4, Status: model.ApplicationApproved},
				Warning:     "student creation failed: boom",
			},
			expectWarning: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mocks.MockApplicationService)
			svc.On("Update", mock.Anything, uint64(4), mock.MatchedBy(func(p service.ApplicationPatch) bool {
				return p.Status != nil && *p.Status == "approved"
			})).Return(tt.update, nil)

			rec := do(setupTestEcho(nil, nil, svc), http.MethodPatch, "/v1/applications/4", `{"status":"approved"}`)

			require.Equal(t, http.StatusOK, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, true, body["success"])
			assert.Equal(t, tt.expectedCreated, body["studentCreated"])
			if tt.expectStudent {
				assert.Equal(t, "STU20260001", body["student"].(map[string]any)["student_number"])
			} else {
				assert.NotContains(t, body, "student")
			}
			if tt.expectWarning {
				assert.Contains(t, body, "warning")
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestApplicationHandler_ReadsAndArchive(t *testing.T) {
	svc := new(mocks.MockApplicationService)
	svc.On("List", mock.Anything, model.ApplicationFilter{Status: model.ApplicationPending, IncludeArchived: true}).
		Return([]model.Application{{ID: 1}, {ID: 2}}, nil)
	svc.On("Get", mock.Anything, uint64(1)).Return(&model.Application{ID: 1}, nil)
	svc.On("Archive", mock.Anything, uint64(1)).Return(nil)
	svc.On("StudentFor", mock.Anything, uint64(1)).Return(nil, repository.ErrNotFound)
	svc.On("GetStudent", mock.Anything, uint64(12)).Return(&model.Student{ID: 12}, nil)
	e := setupTestEcho(nil, nil, svc)

	rec := do(e, http.MethodGet, "/v1/applications?status=pending&archived=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode(t, rec)["count"])

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/v1/applications/1", "").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodDelete, "/v1/applications/1", "").Code)

	rec = do(e, http.MethodGet, "/v1/applications/1/student", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Student not found", decode(t, rec)["error"])

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/v1/students/12", "").Code)
	svc.AssertExpectations(t)
}
