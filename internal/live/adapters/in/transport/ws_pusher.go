package transport

import (
	"context"

	"fieldtrack/internal/live/application/usecase"
	"fieldtrack/internal/shared/auth"
	"fieldtrack/internal/shared/logger"
	"fieldtrack/internal/shared/ws"
)

// WSPusher streams live-set snapshots to every connected operator whenever
// the aggregator refreshes.
type WSPusher struct {
	hub        *ws.Hub
	aggregator *usecase.Aggregator
	log        *logger.Logger
}

func NewWSPusher(hub *ws.Hub, aggregator *usecase.Aggregator, log *logger.Logger) *WSPusher {
	return &WSPusher{hub: hub, aggregator: aggregator, log: log}
}

// Run blocks until ctx is cancelled.
func (p *WSPusher) Run(ctx context.Context) {
	id, snapshots := p.aggregator.Subscribe()
	defer p.aggregator.Unsubscribe(id)

	for {
		select {
		case <-ctx.Done():
			return
		case fixes, ok := <-snapshots:
			if !ok {
				return
			}
			if err := p.hub.SendToRoleJSON(auth.RoleOperator, FixesResponse{
				Type:  "live_fixes",
				Fixes: fixes,
				Count: len(fixes),
			}); err != nil {
				p.log.Warn(logger.Entry{
					Action:  "live_push_failed",
					Message: err.Error(),
				})
			}
		}
	}
}
