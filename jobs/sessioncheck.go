package jobs

import (
	"context"
	"time"

	log "github.com/Ptt-Alertor/logrus"

	"github.com/RxRoster/rxroster/workspace"
)

// SessionChecker re-checks the session of every live workspace so that
// expired grants are refreshed or dropped and accounts created after sign
// in get linked
type SessionChecker struct {
	registry *workspace.Registry
	timeout  time.Duration
}

// NewSessionChecker creates a new SessionChecker
func NewSessionChecker(registry *workspace.Registry) *SessionChecker {
	return &SessionChecker{registry: registry, timeout: 10 * time.Second}
}

// Run executes the check
func (sc SessionChecker) Run() {
	log.Info("Session Checker Started")

	checked, failed := 0, 0
	sc.registry.Each(func(ws *workspace.Workspace) {
		if !ws.Session.State().IsAuthenticated {
			return
		}
		checked++

		ctx, cancel := context.WithTimeout(context.Background(), sc.timeout)
		defer cancel()
		if err := ws.Restore(ctx); err != nil {
			failed++
			log.WithField("workspace", ws.ID).WithError(err).Warn("Session Checker: Restore failed")
		}
	})

	log.WithFields(log.Fields{
		"checked": checked,
		"failed":  failed,
	}).Info("Session Checker Completed")
}
