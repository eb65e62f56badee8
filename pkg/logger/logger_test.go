package logger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	appErrors "github.com/noah-isme/equipment-tracker/pkg/errors"
	"github.com/noah-isme/equipment-tracker/pkg/middleware/requestid"
	"github.com/noah-isme/equipment-tracker/pkg/response"
)

func TestGinMiddlewareLevels(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(requestid.Middleware())
	r.Use(GinMiddleware(zap.New(core)))
	r.GET("/equipment/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/equipment/7", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "/equipment/:id", entries[0].ContextMap()["route"])
	assert.NotEmpty(t, entries[0].ContextMap()["request_id"])
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
}

func TestFromContextAddsRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := requestid.WithContext(context.Background(), "req-42")

	FromContext(ctx, zap.New(core)).Info("equipment created")
	FromContext(context.Background(), zap.New(core)).Info("no request")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "req-42", entries[0].ContextMap()["request_id"])
	assert.NotContains(t, entries[1].ContextMap(), "request_id")
	assert.NotNil(t, FromContext(ctx, nil))
}

func TestGinMiddlewareLogsStorageCause(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware(zap.New(core)))
	r.GET("/equipment", func(c *gin.Context) {
		response.Error(c, appErrors.Storage(errors.New("database disk image is malformed"), "failed to list equipment"))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/equipment", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "malformed")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	logged, ok := entries[0].ContextMap()["errors"].(string)
	require.True(t, ok)
	assert.Contains(t, logged, "failed to list equipment: database disk image is malformed")
}
