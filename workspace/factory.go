package workspace

import (
	"github.com/RxRoster/rxroster/auth"
	"github.com/RxRoster/rxroster/profiles"
	"github.com/RxRoster/rxroster/session"
	"github.com/RxRoster/rxroster/storage"
)

// NewFactory builds workspaces whose provider session and profile
// snapshots both live in kv
func NewFactory(cfg auth.GoTrueConfig, kv storage.KV, rows session.AccountRows, opts ...session.Option) Factory {
	adapter := storage.NewAdapter(kv)
	return func(id string) *Workspace {
		provider := auth.NewGoTrue(cfg, kv, id)
		return New(id, session.NewStore(provider, rows, opts...), profiles.NewStore(adapter))
	}
}
