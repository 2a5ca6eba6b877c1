package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordStreamEvent(t *testing.T) {
	before := testutil.ToFloat64(streamEvents.WithLabelValues(OutcomeDropped))
	RecordStreamEvent(OutcomeDropped)
	assert.Equal(t, before+1, testutil.ToFloat64(streamEvents.WithLabelValues(OutcomeDropped)))
}

func TestSetStreamConnected(t *testing.T) {
	SetStreamConnected(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(streamConnected))
	SetStreamConnected(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(streamConnected))
}

func TestHandlerExposesAPICounters(t *testing.T) {
	ObserveAPIRequest(http.MethodGet, "/cart/{sessionId}", 404, 3*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `quickcart_api_requests_total{method="GET",route="/cart/{sessionId}",status="404"}`), body)
}
