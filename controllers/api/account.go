package api

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/RxRoster/rxroster/models/account"
	"github.com/RxRoster/rxroster/session"
)

// GetAccount returns the account linked to the workspace session
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ws, err := h.workspaceFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	st := ws.Session.State()
	switch {
	case !st.IsAuthenticated:
		writeError(w, r, session.ErrNotAuthenticated)
	case st.Account == nil:
		writeError(w, r, session.ErrAccountNotLoaded)
	default:
		writeJSON(w, http.StatusOK, st.Account)
	}
}

// UpdateAccount applies a partial update to the linked account
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ws, err := h.workspaceFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var changes account.Changes
	if err := decode(r, &changes); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.validate.Struct(changes); err != nil {
		writeError(w, r, err)
		return
	}
	if len(changes.Columns()) == 0 {
		writeError(w, r, account.ErrNoChanges)
		return
	}

	updated, err := ws.Session.UpdateAccount(r.Context(), changes)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}
