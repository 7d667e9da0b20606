package monthly

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/patrickrooney09/tiba-update-user/internal/smartpark"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) ListAccessProfiles(ctx context.Context) ([]smartpark.AccessProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]smartpark.AccessProfile), args.Error(1)
}

func (m *mockService) GetDetails(ctx context.Context, monthlyID string) (*smartpark.Monthly, error) {
	args := m.Called(ctx, monthlyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*smartpark.Monthly), args.Error(1)
}

func (m *mockService) Update(ctx context.Context, performedBy string, req UpdateRequest) (*smartpark.Monthly, error) {
	args := m.Called(ctx, performedBy, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*smartpark.Monthly), args.Error(1)
}

func (m *mockService) ApplyDiscount(ctx context.Context, performedBy string, req DiscountRequest) (*smartpark.Monthly, error) {
	args := m.Called(ctx, performedBy, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*smartpark.Monthly), args.Error(1)
}

func perform(t *testing.T, handler gin.HandlerFunc, method string, body any, email string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var buf bytes.Buffer
	if body != nil {
		assert.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	c.Request = httptest.NewRequest(method, "/", &buf)
	c.Request.Header.Set("Content-Type", "application/json")
	if email != "" {
		c.Set("user_email", email)
	}

	handler(c)
	return w
}

func TestHandler_GetDetails(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := new(mockService)
		svc.On("GetDetails", mock.Anything, "M123").Return(&smartpark.Monthly{MonthlyID: "M123"}, nil)

		w := perform(t, NewHandler(svc).GetDetails, "POST", gin.H{"monthlyId": "M123"}, "desk@lot.example")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "M123")
	})

	t.Run("missing id", func(t *testing.T) {
		svc := new(mockService)
		svc.On("GetDetails", mock.Anything, "").Return(nil, ErrMissingMonthlyID)

		w := perform(t, NewHandler(svc).GetDetails, "POST", gin.H{}, "desk@lot.example")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_Update(t *testing.T) {
	t.Run("unauthenticated", func(t *testing.T) {
		svc := new(mockService)

		w := perform(t, NewHandler(svc).Update, "PUT", gin.H{"MonthlyID": "M123"}, "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		svc.AssertNotCalled(t, "Update")
	})

	t.Run("provider rejection carries the description", func(t *testing.T) {
		svc := new(mockService)
		svc.On("Update", mock.Anything, "desk@lot.example", mock.Anything).
			Return(nil, &smartpark.APIError{Status: 200, RC: "12", Description: "account locked"})

		w := perform(t, NewHandler(svc).Update, "PUT", gin.H{"MonthlyID": "M123"}, "desk@lot.example")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "account locked")
	})

	t.Run("success envelope", func(t *testing.T) {
		svc := new(mockService)
		svc.On("Update", mock.Anything, "desk@lot.example", mock.Anything).
			Return(&smartpark.Monthly{MonthlyID: "M123"}, nil)

		w := perform(t, NewHandler(svc).Update, "PUT", gin.H{"MonthlyID": "M123"}, "desk@lot.example")

		assert.Equal(t, http.StatusOK, w.Code)

		var resp UpdateResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "M123", resp.Record.MonthlyID)
	})
}

func TestHandler_ApplyDiscount(t *testing.T) {
	t.Run("bounds error maps to 400", func(t *testing.T) {
		svc := new(mockService)
		svc.On("ApplyDiscount", mock.Anything, "desk@lot.example", mock.Anything).
			Return(nil, ErrDiscountBounds)

		w := perform(t, NewHandler(svc).ApplyDiscount, "POST", gin.H{"monthlyId": "M123", "amountCents": 5000}, "desk@lot.example")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("success", func(t *testing.T) {
		svc := new(mockService)
		svc.On("ApplyDiscount", mock.Anything, "desk@lot.example", DiscountRequest{
			MonthlyID:   "M123",
			AmountCents: 300,
			Reason:      "front desk discount",
		}).Return(&smartpark.Monthly{MonthlyID: "M123", WalletBalance: 800}, nil)

		w := perform(t, NewHandler(svc).ApplyDiscount, "POST", gin.H{
			"monthlyId":   "M123",
			"amountCents": 300,
			"reason":      "front desk discount",
		}, "desk@lot.example")

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
