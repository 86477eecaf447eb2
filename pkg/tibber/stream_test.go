package tibber

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTime() time.Time {
	return time.Date(2024, 3, 12, 14, 25, 11, 0, time.UTC)
}

func TestDecodeLiveMeasurement(t *testing.T) {

	payload := []byte(`{"data":{"liveMeasurement":{
		"timestamp":"2024-03-12T14:25:11.000+01:00",
		"power":1563,
		"accumulatedConsumption":12.339,
		"powerFactor":0.87,
		"signalStrength":null}}}`)

	m, err := decodeLiveMeasurement(payload)
	require.NoError(t, err)

	require.NotNil(t, m.Power)
	assert.Equal(t, float64(1563), *m.Power)
	require.NotNil(t, m.AccumulatedConsumption)
	assert.Equal(t, 12.339, *m.AccumulatedConsumption)
	assert.Nil(t, m.SignalStrength)
	assert.Nil(t, m.PowerProduction)
	assert.Equal(t, 14, m.Timestamp.Hour())
}

func TestDecodeLiveMeasurementErrors(t *testing.T) {

	_, err := decodeLiveMeasurement([]byte(`{"errors":[{"message":"boom"}]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	_, err = decodeLiveMeasurement([]byte(`{"data":{}}`))
	assert.Error(t, err)
}

func TestFieldLookup(t *testing.T) {

	m := TestMeasurement(testTime())

	require.NotNil(t, m.Field("power"))
	assert.Equal(t, float64(1563), *m.Field("power"))
	require.NotNil(t, m.Field("powerFactor"))
	assert.Equal(t, 0.87, *m.Field("powerFactor"))
	assert.Nil(t, m.Field("accumulatedProduction"))
	assert.Nil(t, m.Field("noSuchField"))
}
