package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/boxflow/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestBaseHandler_HandleError_DomainError(t *testing.T) {
	var h BaseHandler
	c, w := newTestContext()

	h.HandleError(c, shared.ErrInsufficientStock)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_INSUFFICIENT_STOCK")
}

func TestBaseHandler_HandleError_WrappedDomainError(t *testing.T) {
	var h BaseHandler
	c, w := newTestContext()

	wrapped := shared.NewDomainError("INVALID_STATE", "Cannot bill a PLACED order")
	h.HandleError(c, wrapped)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Cannot bill a PLACED order")
}

func TestBaseHandler_HandleError_UnknownError(t *testing.T) {
	var h BaseHandler
	c, w := newTestContext()

	h.HandleError(c, errors.New("pq: connection reset"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_INTERNAL")
	// Internals never leak
	assert.NotContains(t, w.Body.String(), "pq:")
}

func TestGetTenantID_HeaderFallback(t *testing.T) {
	c, _ := newTestContext()
	tenantID := uuid.New()
	c.Request.Header.Set("X-Tenant-ID", tenantID.String())

	got, err := getTenantID(c)
	require.NoError(t, err)
	assert.Equal(t, tenantID, got)
}

func TestGetTenantID_DevDefault(t *testing.T) {
	c, _ := newTestContext()

	got, err := getTenantID(c)
	require.NoError(t, err)
	assert.Equal(t, DevTenantID, got)
}

func TestGetTenantID_Invalid(t *testing.T) {
	c, _ := newTestContext()
	c.Request.Header.Set("X-Tenant-ID", "junk")

	_, err := getTenantID(c)
	assert.Error(t, err)
}

func TestGetUserID(t *testing.T) {
	c, _ := newTestContext()
	assert.Nil(t, getUserID(c))

	userID := uuid.New()
	c.Request.Header.Set("X-User-ID", userID.String())
	got := getUserID(c)
	require.NotNil(t, got)
	assert.Equal(t, userID, *got)

	c.Request.Header.Set("X-User-ID", "junk")
	assert.Nil(t, getUserID(c))
}
