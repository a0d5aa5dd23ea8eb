package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordStoreQuery(t *testing.T) {
	before := testutil.ToFloat64(StoreQueriesTotal.WithLabelValues("test", "error"))

	RecordStoreQuery("test", errors.New("boom"), 10*time.Millisecond)

	after := testutil.ToFloat64(StoreQueriesTotal.WithLabelValues("test", "error"))
	if after-before != 1 {
		t.Errorf("expected error counter to grow by 1, got %v", after-before)
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/calls_data", "200"))

	RecordHTTPRequest("/calls_data", 200, time.Millisecond)

	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/calls_data", "200"))
	if after-before != 1 {
		t.Errorf("expected request counter to grow by 1, got %v", after-before)
	}
}

func TestRecordRowsDroppedIgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(RowsDroppedTotal)

	RecordRowsDropped(0)
	RecordRowsDropped(3)

	if got := testutil.ToFloat64(RowsDroppedTotal) - before; got != 3 {
		t.Errorf("expected 3 dropped rows, got %v", got)
	}
}
