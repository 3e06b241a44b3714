package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(EntriesProcessed.WithLabelValues("posted", "PREPAID_EXPENSE"))
	EntriesProcessed.WithLabelValues("posted", "PREPAID_EXPENSE").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(EntriesProcessed.WithLabelValues("posted", "PREPAID_EXPENSE")))

	reports := testutil.ToFloat64(ReportsGenerated)
	ReportsGenerated.Inc()
	assert.Equal(t, reports+1, testutil.ToFloat64(ReportsGenerated))
}
