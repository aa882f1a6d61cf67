// Package in_ws adapts worker devices connected over WebSocket into
// position sources. Devices push "position_sample" messages at their own
// cadence; a "position_request" message asks the device for one fresh
// reading.
package in_ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"fieldtrack/internal/shared/logger"
	"fieldtrack/internal/shared/ws"
	"fieldtrack/internal/tracking"
)

const (
	msgPositionSample  = "position_sample"
	msgPositionDenied  = "position_denied"
	msgPositionRequest = "position_request"
)

// PositionSampleMessage is the device-to-server sample payload.
type PositionSampleMessage struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	AccuracyMeters float64 `json:"accuracy_meters"`
	CapturedAt     string  `json:"captured_at,omitempty"` // RFC 3339
}

type waitResult struct {
	sample tracking.Sample
	err    error
}

// stream is the per-worker sample fan-out: one pushing device, any number
// of watchers plus one-shot fresh-fix waiters.
type stream struct {
	mu          sync.Mutex
	latest      *tracking.Sample
	denied      bool
	subscribers map[int]chan tracking.Sample
	waiters     []chan waitResult
	nextSubID   int
}

// SensorGateway routes hub messages into per-worker streams and exposes
// each stream as a tracking.PositionSource.
type SensorGateway struct {
	hub *ws.Hub
	log *logger.Logger

	mu      sync.Mutex
	streams map[string]*stream
}

func NewSensorGateway(hub *ws.Hub, log *logger.Logger) *SensorGateway {
	return &SensorGateway{
		hub:     hub,
		log:     log,
		streams: make(map[string]*stream),
	}
}

// HandleMessage is installed as the hub's message handler.
func (g *SensorGateway) HandleMessage(client *ws.Client, messageType string, data json.RawMessage) error {
	switch messageType {
	case msgPositionSample:
		var msg PositionSampleMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Errorf("decode position sample: %w", err)
		}
		g.deliver(client.UserID, msg)
		return nil

	case msgPositionDenied:
		g.deny(client.UserID)
		return nil

	default:
		// other message types belong to other handlers on the same hub
		return nil
	}
}

func (g *SensorGateway) streamFor(workerID string) *stream {
	g.mu.Lock()
	defer g.mu.Unlock()
	st, ok := g.streams[workerID]
	if !ok {
		st = &stream{subscribers: make(map[int]chan tracking.Sample)}
		g.streams[workerID] = st
	}
	return st
}

func (g *SensorGateway) deliver(workerID string, msg PositionSampleMessage) {
	capturedAt := time.Now().UTC()
	if msg.CapturedAt != "" {
		if t, err := time.Parse(time.RFC3339, msg.CapturedAt); err == nil {
			capturedAt = t
		}
	}
	sample := tracking.Sample{
		Latitude:       msg.Latitude,
		Longitude:      msg.Longitude,
		AccuracyMeters: msg.AccuracyMeters,
		CapturedAt:     capturedAt,
	}

	st := g.streamFor(workerID)
	st.mu.Lock()
	st.latest = &sample
	st.denied = false

	for _, ch := range st.subscribers {
		select {
		case ch <- sample:
		default:
			// slow watcher: skip, a newer sample follows shortly
		}
	}
	for _, w := range st.waiters {
		w <- waitResult{sample: sample}
	}
	st.waiters = nil
	st.mu.Unlock()
}

func (g *SensorGateway) deny(workerID string) {
	st := g.streamFor(workerID)
	st.mu.Lock()
	st.denied = true
	for _, w := range st.waiters {
		w <- waitResult{err: tracking.ErrSensorPermissionDenied}
	}
	st.waiters = nil
	st.mu.Unlock()

	g.log.Warn(logger.Entry{
		Action:   "position_permission_denied",
		Message:  "device refused location access",
		WorkerID: workerID,
	})
}

// Source returns the worker-bound position source.
func (g *SensorGateway) Source(workerID string) tracking.PositionSource {
	return &workerSource{gw: g, workerID: workerID}
}

type workerSource struct {
	gw       *SensorGateway
	workerID string
}

// Current returns a cached sample no older than maxAge, or asks the device
// for a fresh reading. maxAge zero always goes to the device.
func (s *workerSource) Current(ctx context.Context, maxAge time.Duration) (tracking.Sample, error) {
	st := s.gw.streamFor(s.workerID)

	st.mu.Lock()
	if st.denied {
		st.mu.Unlock()
		return tracking.Sample{}, tracking.ErrSensorPermissionDenied
	}
	if maxAge > 0 && st.latest != nil && time.Since(st.latest.CapturedAt) <= maxAge {
		sample := *st.latest
		st.mu.Unlock()
		return sample, nil
	}
	waiter := make(chan waitResult, 1)
	st.waiters = append(st.waiters, waiter)
	st.mu.Unlock()

	if !s.gw.hub.IsUserConnected(s.workerID) {
		s.removeWaiter(st, waiter)
		return tracking.Sample{}, fmt.Errorf("%w: device not connected", tracking.ErrSensorUnavailable)
	}
	if err := s.gw.hub.SendToUserJSON(s.workerID, map[string]string{"type": msgPositionRequest}); err != nil {
		s.removeWaiter(st, waiter)
		return tracking.Sample{}, fmt.Errorf("%w: %v", tracking.ErrSensorUnavailable, err)
	}

	select {
	case <-ctx.Done():
		s.removeWaiter(st, waiter)
		return tracking.Sample{}, ctx.Err()
	case res := <-waiter:
		return res.sample, res.err
	}
}

func (s *workerSource) removeWaiter(st *stream, waiter chan waitResult) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for i, w := range st.waiters {
		if w == waiter {
			st.waiters = append(st.waiters[:i], st.waiters[i+1:]...)
			return
		}
	}
}

// Watch subscribes to the worker's sample stream until ctx is cancelled.
func (s *workerSource) Watch(ctx context.Context) (<-chan tracking.Sample, error) {
	st := s.gw.streamFor(s.workerID)

	st.mu.Lock()
	id := st.nextSubID
	st.nextSubID++
	ch := make(chan tracking.Sample, 8)
	st.subscribers[id] = ch
	st.mu.Unlock()

	go func() {
		<-ctx.Done()
		st.mu.Lock()
		delete(st.subscribers, id)
		st.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}
