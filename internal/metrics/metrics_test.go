package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordLayerBuild(t *testing.T) {
	t.Run("success sets primitives", func(t *testing.T) {
		before := testutil.ToFloat64(LayerSkipped.WithLabelValues("raster"))

		RecordLayerBuild("population", "raster", 20*time.Millisecond, 1200, 7, "", nil)

		if got := testutil.ToFloat64(LayerPrimitives.WithLabelValues("population")); got != 1200 {
			t.Errorf("primitives = %v, want 1200", got)
		}
		if got := testutil.ToFloat64(LayerSkipped.WithLabelValues("raster")) - before; got != 7 {
			t.Errorf("skipped delta = %v, want 7", got)
		}
	})

	t.Run("failure counts error type", func(t *testing.T) {
		counter := LayerBuildErrors.WithLabelValues("boundary", "fetch")
		before := testutil.ToFloat64(counter)

		RecordLayerBuild("countries", "boundary", time.Second, 0, 0, "fetch", errors.New("boom"))

		if got := testutil.ToFloat64(counter) - before; got != 1 {
			t.Errorf("error delta = %v, want 1", got)
		}
	})

	t.Run("failure without type", func(t *testing.T) {
		counter := LayerBuildErrors.WithLabelValues("raster", "other")
		before := testutil.ToFloat64(counter)

		RecordLayerBuild("x", "raster", time.Second, 0, 0, "", errors.New("boom"))

		if got := testutil.ToFloat64(counter) - before; got != 1 {
			t.Errorf("error delta = %v, want 1", got)
		}
	})
}

func TestRecordAPIRequest(t *testing.T) {
	counter := APIRequestsTotal.WithLabelValues("GET", "/api/layers", "200")
	before := testutil.ToFloat64(counter)

	RecordAPIRequest("GET", "/api/layers", "200", 3*time.Millisecond)
	RecordAPIRequest("GET", "/api/layers", "200", 5*time.Millisecond)

	if got := testutil.ToFloat64(counter) - before; got != 2 {
		t.Errorf("request delta = %v, want 2", got)
	}
	if n := testutil.CollectAndCount(APIRequestDuration); n < 1 {
		t.Errorf("duration series = %d, want at least 1", n)
	}
}
