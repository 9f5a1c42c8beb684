package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordImportRow(t *testing.T) {
	before := testutil.ToFloat64(importRows.WithLabelValues("gameplan", "failed"))
	RecordImportRow("gameplan", false)
	after := testutil.ToFloat64(importRows.WithLabelValues("gameplan", "failed"))
	assert.Equal(t, before+1, after)
}

func TestRecordTransitionDefaultsLabel(t *testing.T) {
	before := testutil.ToFloat64(sessionTransitions.WithLabelValues("unknown"))
	RecordTransition("")
	assert.Equal(t, before+1, testutil.ToFloat64(sessionTransitions.WithLabelValues("unknown")))
}
