package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/equipment-tracker/internal/service"
)

type fakePinger struct {
	err error
}

func (f fakePinger) PingContext(context.Context) error {
	return f.err
}

func TestMetricsHandlerReady(t *testing.T) {
	handler := NewMetricsHandler(nil, fakePinger{})
	c, rec := newTestContext(http.MethodGet, "/ready", "")
	handler.Ready(c)
	assert.Equal(t, http.StatusOK, rec.Code)

	handler = NewMetricsHandler(nil, fakePinger{err: errors.New("database is closed")})
	c, rec = newTestContext(http.MethodGet, "/ready", "")
	handler.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsHandlerPrometheus(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.AddImportRows("imported", 2)
	handler := NewMetricsHandler(metrics, nil)
	c, rec := newTestContext(http.MethodGet, "/metrics", "")

	handler.Prometheus(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "equipment_import_rows_total"))

	c, rec = newTestContext(http.MethodGet, "/metrics", "")
	NewMetricsHandler(nil, nil).Prometheus(c)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
