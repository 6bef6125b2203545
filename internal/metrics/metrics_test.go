package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHeartbeat(t *testing.T) {
	before := testutil.ToFloat64(HeartbeatsTotal.WithLabelValues(ResultDuplicate))
	RecordHeartbeat(ResultDuplicate)
	RecordHeartbeat(ResultDuplicate)
	after := testutil.ToFloat64(HeartbeatsTotal.WithLabelValues(ResultDuplicate))
	assert.Equal(t, before+2, after)
}

func TestRecordStoreOp_CountsErrors(t *testing.T) {
	before := testutil.ToFloat64(StoreOperationErrors.WithLabelValues("mutate"))

	RecordStoreOp("mutate", 3*time.Millisecond, nil)
	assert.Equal(t, before, testutil.ToFloat64(StoreOperationErrors.WithLabelValues("mutate")))

	RecordStoreOp("mutate", 3*time.Millisecond, errors.New("database is locked"))
	assert.Equal(t, before+1, testutil.ToFloat64(StoreOperationErrors.WithLabelValues("mutate")))
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/statistics", "200"))
	RecordAPIRequest("GET", "/statistics", 200, 5*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/statistics", "200")))
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	assert.Equal(t, before+1, testutil.ToFloat64(APIActiveRequests))
	TrackActiveRequest(false)
	assert.Equal(t, before, testutil.ToFloat64(APIActiveRequests))
}
