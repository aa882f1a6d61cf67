package domain

import "time"

// Fix is one worker's last known tracked position. Only workers whose latest
// attendance event is a coordinate-bearing checkin appear in the live set.
type Fix struct {
	WorkerID       string    `json:"worker_id"`
	WorkerName     string    `json:"worker_name"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	AccuracyMeters *float64  `json:"accuracy_meters,omitempty"`
	Address        *string   `json:"address,omitempty"`
	LastSeenAt     time.Time `json:"last_seen_at"`
}

// BoundingBox is a lat/lon query window.
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

func (b BoundingBox) Valid() bool {
	return b.MaxLat >= b.MinLat && b.MaxLon >= b.MinLon
}
