package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestRecordExerciseLoggedUpdatesCountersAndGauge(t *testing.T) {
	before := counterValue(t, exercisesLoggedCounter)
	minutesBefore := counterValue(t, minutesLoggedCounter)

	ts := time.Date(2023, time.February, 1, 9, 30, 0, 0, time.UTC)
	RecordExerciseLogged(45, ts)

	require.Equal(t, before+1, counterValue(t, exercisesLoggedCounter))
	require.Equal(t, minutesBefore+45, counterValue(t, minutesLoggedCounter))
	require.Equal(t, float64(ts.Unix()), gaugeValue(t, lastExerciseGauge))
}

func TestRecordExerciseLoggedIgnoresZeroTimestamp(t *testing.T) {
	ts := time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC)
	RecordExerciseLogged(10, ts)
	RecordExerciseLogged(10, time.Time{})

	require.Equal(t, float64(ts.Unix()), gaugeValue(t, lastExerciseGauge))
}

func TestRecordLogServedObservesCount(t *testing.T) {
	var before dto.Metric
	require.NoError(t, logEntriesHistogram.Write(&before))

	RecordLogServed(3)

	var after dto.Metric
	require.NoError(t, logEntriesHistogram.Write(&after))
	require.Equal(t, before.GetHistogram().GetSampleCount()+1, after.GetHistogram().GetSampleCount())
	require.InDelta(t, before.GetHistogram().GetSampleSum()+3, after.GetHistogram().GetSampleSum(), 0.0001)
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}
