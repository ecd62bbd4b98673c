package jobs

import (
	"time"

	log "github.com/Ptt-Alertor/logrus"

	"github.com/RxRoster/rxroster/workspace"
)

// WorkspaceSweeper drops workspaces that have been idle for too long.
// Their persisted state stays behind.
type WorkspaceSweeper struct {
	registry *workspace.Registry
	idle     time.Duration
}

// NewWorkspaceSweeper creates a new WorkspaceSweeper
func NewWorkspaceSweeper(registry *workspace.Registry, idle time.Duration) *WorkspaceSweeper {
	return &WorkspaceSweeper{registry: registry, idle: idle}
}

// Schedule returns the cron schedule, twice per idle period
func (ws WorkspaceSweeper) Schedule() string {
	every := ws.idle / 2
	if every < time.Minute {
		every = time.Minute
	}
	return "@every " + every.String()
}

// Run executes the sweep
func (ws WorkspaceSweeper) Run() {
	n := ws.registry.Sweep(ws.idle)
	log.WithFields(log.Fields{
		"evicted": n,
		"live":    ws.registry.Len(),
	}).Info("Workspace Sweeper Completed")
}
