package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"shopverse/internal/domain"
)

type envelope struct {
	Success    bool               `json:"success"`
	Message    string             `json:"message"`
	Data       any                `json:"data,omitempty"`
	Error      string             `json:"error,omitempty"`
	Pagination *domain.Pagination `json:"pagination,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

func respondPage(c *gin.Context, message string, data any, p domain.Pagination) {
	c.JSON(http.StatusOK, envelope{
		Success:    true,
		Message:    message,
		Data:       data,
		Pagination: &p,
		Timestamp:  time.Now().UTC(),
	})
}

func abortWith(c *gin.Context, status int, message, label string) {
	c.AbortWithStatusJSON(status, envelope{
		Success:   false,
		Message:   message,
		Error:     label,
		Timestamp: time.Now().UTC(),
	})
}

var errorKinds = []struct {
	kind   error
	status int
	label  string
}{
	{domain.ErrValidation, http.StatusBadRequest, "Validation error"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	{domain.ErrForbidden, http.StatusForbidden, "Forbidden"},
	{domain.ErrNotFound, http.StatusNotFound, "Not found"},
	{domain.ErrAlreadyExists, http.StatusConflict, "Conflict"},
	{domain.ErrInsufficientStock, http.StatusBadRequest, "Insufficient stock"},
	{domain.ErrEmptyCart, http.StatusBadRequest, "Empty cart"},
	{domain.ErrProductUnavailable, http.StatusBadRequest, "Product unavailable"},
	{domain.ErrInvalidState, http.StatusBadRequest, "Invalid request"},
}

// fail writes the error envelope for err. Unclassified errors are logged
// and, in production, reported without their detail.
func (a *api) fail(c *gin.Context, err error) {
	for _, k := range errorKinds {
		if errors.Is(err, k.kind) {
			msg := domain.Detail(err)
			if msg == "" {
				msg = k.label
			}
			abortWith(c, k.status, msg, k.label)
			return
		}
	}
	a.logger.Printf("http: %s %s error=%v", c.Request.Method, c.FullPath(), err)
	msg := "Internal server error"
	if !a.production {
		msg = err.Error()
	}
	abortWith(c, http.StatusInternalServerError, msg, "Internal server error")
}

func (a *api) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		a.fail(c, domain.Validationf("Invalid request body"))
		return false
	}
	return true
}

func (a *api) pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		a.fail(c, domain.Validationf("Invalid ID format"))
		return 0, false
	}
	return id, true
}

type pageQuery struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

func (a *api) bindPage(c *gin.Context) (pageQuery, bool) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		a.fail(c, domain.Validationf("page and limit must be integers"))
		return q, false
	}
	return q, true
}

func queryBool(c *gin.Context, name string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, domain.Validationf("%s must be true or false", name)
	}
	return &v, nil
}

func queryID(c *gin.Context, name string) (*int64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return nil, domain.Validationf("%s must be a positive integer", name)
	}
	return &v, nil
}

func queryDecimal(c *gin.Context, name string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, domain.Validationf("%s must be a number", name)
	}
	return &v, nil
}

// queryTime accepts RFC 3339 timestamps or plain dates.
func queryTime(c *gin.Context, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if v, err := time.Parse(layout, raw); err == nil {
			return &v, nil
		}
	}
	return nil, domain.Validationf("%s must be a date", name)
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
