package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/civic-report-api/internal/models"
	appErrors "github.com/noah-isme/civic-report-api/pkg/errors"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestJSONWritesPagination(t *testing.T) {
	c, w := newContext()
	JSON(c, http.StatusOK, []int{1}, &models.Pagination{Page: 2, PageSize: 20, TotalCount: 21}, map[string]interface{}{"x": 1})

	var env struct {
		Pagination models.Pagination      `json:"pagination"`
		Meta       map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, 2, env.Pagination.Page)
	assert.Equal(t, float64(1), env.Meta["x"])
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestErrorMasksInternalCause(t *testing.T) {
	c, w := newContext()
	Error(c, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
	assert.Len(t, c.Errors, 1)
}

func TestErrorIncludesValidationDetails(t *testing.T) {
	c, w := newContext()
	Error(c, appErrors.Validation(map[string][]string{"name": {"is required"}}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"details":{"name":["is required"]}`)
}

func TestSeeOtherSetsLocation(t *testing.T) {
	c, w := newContext()
	SeeOther(c, "/admin/login", appErrors.ErrAdminExists)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/admin/login", w.Header().Get("Location"))
	assert.Contains(t, w.Body.String(), "ADMIN_EXISTS")
}
