package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveSubmission(t *testing.T) {
	before := testutil.ToFloat64(Submissions.WithLabelValues("accepted"))
	ObserveSubmission("accepted", 12, 150*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(Submissions.WithLabelValues("accepted")))
}

func TestRecordExtracted(t *testing.T) {
	before := testutil.ToFloat64(RecipientsExtracted.WithLabelValues("csv"))
	RecordExtracted("csv", 3)
	assert.Equal(t, before+3, testutil.ToFloat64(RecipientsExtracted.WithLabelValues("csv")))
}
