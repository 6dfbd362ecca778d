package metrics_test

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cellar/internal/metrics"
	"cellar/internal/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveDecode(t *testing.T) {
	m := metrics.New()

	m.ObserveDecode(nil)
	m.ObserveDecode(nil)
	_, err := models.DecodeBeverage(map[string]any{"producer": "Duff"}, models.DecodeOptions{})
	m.ObserveDecode(err)
	m.ObserveDecode(fmt.Errorf("vintage 0: %w", models.ErrInvalidType))
	m.ObserveDecode(errors.New("boom"))

	want := `
# HELP cellar_records_decoded_total Raw records run through the record constructor, by result.
# TYPE cellar_records_decoded_total counter
cellar_records_decoded_total{result="error"} 1
cellar_records_decoded_total{result="invalid_type"} 1
cellar_records_decoded_total{result="missing_field"} 1
cellar_records_decoded_total{result="ok"} 2
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(want), "cellar_records_decoded_total"))
}

func TestObserveStore(t *testing.T) {
	m := metrics.New()

	m.ObserveStore("put", nil, false, time.Millisecond)
	m.ObserveStore("get", errors.New("record not found"), true, time.Millisecond)
	m.ObserveStore("get", errors.New("timeout"), false, time.Millisecond)

	n, err := testutil.GatherAndCount(m.Registry(), "cellar_store_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestNilMetrics(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.ObserveDecode(nil)
		m.ObserveStore("put", nil, false, 0)
	})
}

func TestHandler(t *testing.T) {
	m := metrics.New()
	m.ObserveStore("scan", nil, false, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `cellar_store_operations_total{op="scan",result="ok"} 1`)
}
