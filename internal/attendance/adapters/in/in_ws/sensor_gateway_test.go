package in_ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldtrack/internal/shared/logger"
	"fieldtrack/internal/shared/ws"
	"fieldtrack/internal/tracking"
)

func newGateway() *SensorGateway {
	log := logger.NewLogger("test")
	hub := ws.NewHub(nil, log)
	return NewSensorGateway(hub, log)
}

func sampleJSON(t *testing.T, lat, lon, accuracy float64) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(PositionSampleMessage{
		Latitude:       lat,
		Longitude:      lon,
		AccuracyMeters: accuracy,
		CapturedAt:     time.Now().UTC().Format(time.RFC3339),
	})
	require.NoError(t, err)
	return data
}

func TestCurrentReturnsCachedSampleWithinMaxAge(t *testing.T) {
	gw := newGateway()
	client := &ws.Client{UserID: "w1"}

	require.NoError(t, gw.HandleMessage(client, msgPositionSample, sampleJSON(t, 12.97, 77.59, 9)))

	src := gw.Source("w1")
	sample, err := src.Current(context.Background(), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 12.97, sample.Latitude)
	assert.Equal(t, 9.0, sample.AccuracyMeters)
}

func TestCurrentZeroMaxAgeRequiresConnectedDevice(t *testing.T) {
	gw := newGateway()
	client := &ws.Client{UserID: "w1"}
	require.NoError(t, gw.HandleMessage(client, msgPositionSample, sampleJSON(t, 12.97, 77.59, 9)))

	// a cached sample never satisfies a fresh request
	src := gw.Source("w1")
	_, err := src.Current(context.Background(), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, tracking.ErrSensorUnavailable)
}

func TestWatchDeliversSamples(t *testing.T) {
	gw := newGateway()
	client := &ws.Client{UserID: "w1"}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := gw.Source("w1").Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, gw.HandleMessage(client, msgPositionSample, sampleJSON(t, 10, 20, 15)))

	select {
	case sample := <-ch:
		assert.Equal(t, 10.0, sample.Latitude)
	case <-time.After(time.Second):
		t.Fatal("no sample delivered to watcher")
	}

	cancel()
	select {
	case _, open := <-ch:
		assert.False(t, open, "channel must close on cancel")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestDeniedDeviceFailsCurrent(t *testing.T) {
	gw := newGateway()
	client := &ws.Client{UserID: "w1"}

	require.NoError(t, gw.HandleMessage(client, msgPositionDenied, nil))

	_, err := gw.Source("w1").Current(context.Background(), time.Minute)
	assert.ErrorIs(t, err, tracking.ErrSensorPermissionDenied)
}

func TestSampleClearsDenied(t *testing.T) {
	gw := newGateway()
	client := &ws.Client{UserID: "w1"}

	require.NoError(t, gw.HandleMessage(client, msgPositionDenied, nil))
	require.NoError(t, gw.HandleMessage(client, msgPositionSample, sampleJSON(t, 1, 2, 10)))

	sample, err := gw.Source("w1").Current(context.Background(), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1.0, sample.Latitude)
}

func TestUnknownMessageTypeIgnored(t *testing.T) {
	gw := newGateway()
	client := &ws.Client{UserID: "w1"}
	assert.NoError(t, gw.HandleMessage(client, "chat", json.RawMessage(`{}`)))
}
