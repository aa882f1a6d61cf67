package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dhconnelly/rtreego"

	"fieldtrack/internal/live/application/ports/out"
	"fieldtrack/internal/live/domain"
	"fieldtrack/internal/shared/logger"
)

const (
	dimensions  = 2
	minChildren = 25
	maxChildren = 50

	// point tolerance for degenerate rects around fixes
	tolerance = 1e-6
)

type fixEntry struct {
	fix  domain.Fix
	rect *rtreego.Rect
}

func (e *fixEntry) Bounds() *rtreego.Rect {
	return e.rect
}

// Aggregator maintains the live set: the latest fix per actively tracked
// worker, indexed spatially for bounding-box queries. Refresh is a full
// recompute from storage, so it is idempotent and self-healing regardless of
// how many change notifications triggered it.
type Aggregator struct {
	reader out.FixReader
	log    *logger.Logger

	mu          sync.RWMutex
	fixes       map[string]domain.Fix
	tree        *rtreego.Rtree
	subscribers map[int]chan []domain.Fix
	nextSubID   int
}

func NewAggregator(reader out.FixReader, log *logger.Logger) *Aggregator {
	return &Aggregator{
		reader:      reader,
		log:         log,
		fixes:       make(map[string]domain.Fix),
		tree:        rtreego.NewTree(dimensions, minChildren, maxChildren),
		subscribers: make(map[int]chan []domain.Fix),
	}
}

// Refresh recomputes the live set from storage and notifies subscribers.
func (a *Aggregator) Refresh(ctx context.Context) error {
	fixes, err := a.reader.LatestFixes(ctx)
	if err != nil {
		return fmt.Errorf("load live fixes: %w", err)
	}

	byWorker := make(map[string]domain.Fix, len(fixes))
	tree := rtreego.NewTree(dimensions, minChildren, maxChildren)
	for _, fix := range fixes {
		byWorker[fix.WorkerID] = fix
		point := rtreego.Point{fix.Latitude, fix.Longitude}
		tree.Insert(&fixEntry{fix: fix, rect: point.ToRect(tolerance)})
	}

	snapshot := make([]domain.Fix, 0, len(byWorker))
	for _, fix := range byWorker {
		snapshot = append(snapshot, fix)
	}
	sort.Slice(snapshot, func(i, j int) bool {
		return snapshot[i].WorkerID < snapshot[j].WorkerID
	})

	// notify under the lock so Unsubscribe cannot close a channel mid-send
	a.mu.Lock()
	a.fixes = byWorker
	a.tree = tree
	for _, ch := range a.subscribers {
		select {
		case ch <- snapshot:
		default:
			// slow subscriber: it will catch up on the next refresh
		}
	}
	a.mu.Unlock()

	a.log.Debug(logger.Entry{
		Action:  "live_set_refreshed",
		Message: fmt.Sprintf("%d workers tracked", len(byWorker)),
	})
	return nil
}

// Snapshot returns the live set ordered by worker id.
func (a *Aggregator) Snapshot() []domain.Fix {
	a.mu.RLock()
	defer a.mu.RUnlock()

	result := make([]domain.Fix, 0, len(a.fixes))
	for _, fix := range a.fixes {
		result = append(result, fix)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].WorkerID < result[j].WorkerID
	})
	return result
}

// FixesWithin returns the live fixes inside the bounding box, ordered by
// worker id.
func (a *Aggregator) FixesWithin(box domain.BoundingBox) ([]domain.Fix, error) {
	if !box.Valid() {
		return nil, fmt.Errorf("invalid bounding box")
	}

	bounds, err := rtreego.NewRect(
		rtreego.Point{box.MinLat, box.MinLon},
		[]float64{box.MaxLat - box.MinLat + tolerance, box.MaxLon - box.MinLon + tolerance},
	)
	if err != nil {
		return nil, fmt.Errorf("build query rect: %w", err)
	}

	a.mu.RLock()
	matches := a.tree.SearchIntersect(bounds)
	a.mu.RUnlock()

	result := make([]domain.Fix, 0, len(matches))
	for _, m := range matches {
		entry, ok := m.(*fixEntry)
		if !ok {
			continue
		}
		result = append(result, entry.fix)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].WorkerID < result[j].WorkerID
	})
	return result, nil
}

// Subscribe registers for live-set snapshots pushed on every refresh.
// The channel is closed by Unsubscribe.
func (a *Aggregator) Subscribe() (int, <-chan []domain.Fix) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := a.nextSubID
	a.nextSubID++
	ch := make(chan []domain.Fix, 4)
	a.subscribers[id] = ch
	return id, ch
}

func (a *Aggregator) Unsubscribe(id int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if ch, ok := a.subscribers[id]; ok {
		delete(a.subscribers, id)
		close(ch)
	}
}
