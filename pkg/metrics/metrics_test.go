package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTimerDuration(t *testing.T) {
	timer := NewTimer()
	time.Sleep(time.Millisecond)
	assert.Greater(t, timer.Duration(), time.Duration(0))
}

func TestTimerObserveDurationVec(t *testing.T) {
	timer := NewTimer()
	timer.ObserveDurationVec(AgentTickDuration, "test_agent_vec")

	count := testutil.CollectAndCount(AgentTickDuration)
	assert.GreaterOrEqual(t, count, 1)
}

func TestReducerCallsTotalIncrements(t *testing.T) {
	before := testutil.ToFloat64(ReducerCallsTotal.WithLabelValues("test_reducer", "ok"))
	ReducerCallsTotal.WithLabelValues("test_reducer", "ok").Inc()
	after := testutil.ToFloat64(ReducerCallsTotal.WithLabelValues("test_reducer", "ok"))
	assert.Equal(t, before+1, after)
}
