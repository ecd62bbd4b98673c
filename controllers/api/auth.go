package api

import (
	"net/http"
	"time"

	log "github.com/Ptt-Alertor/logrus"
	"github.com/julienschmidt/httprouter"

	"github.com/RxRoster/rxroster/auth"
	"github.com/RxRoster/rxroster/session"
	"github.com/RxRoster/rxroster/workspace"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// StateResponse is the session state of a workspace
type StateResponse struct {
	session.State
	CurrentProfileID *string `json:"currentProfileId"`
}

// AuthResponse represents an auth response with token
type AuthResponse struct {
	Token string        `json:"token"`
	State StateResponse `json:"state"`
}

func stateOf(ws *workspace.Workspace) StateResponse {
	out := StateResponse{State: ws.Session.State()}
	if id := ws.Profiles.CurrentProfileID(); id != "" {
		out.CurrentProfileID = &id
	}
	return out
}

// Login signs a workspace in, creating one when the request carries none
func (h *Handler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req LoginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, r, err)
		return
	}

	var ws *workspace.Workspace
	fresh := false
	if claims := auth.GetClaimsFromContext(r.Context()); claims != nil {
		opened, err := h.registry.Open(r.Context(), claims.WorkspaceID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		ws = opened
	} else {
		ws = h.registry.Prepare()
		fresh = true
	}

	ok, err := ws.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Success: false, Message: "no session issued"})
		return
	}
	if fresh {
		h.registry.Adopt(ws)
	}

	token, err := h.tokens.GenerateToken(ws.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.setCookie(w, token, h.tokens.TTL())

	writeJSON(w, http.StatusOK, AuthResponse{Token: token, State: stateOf(ws)})
}

// Logout ends the workspace session; local state is cleared even when the
// provider could not be reached
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ws, err := h.workspaceFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := ws.SignOut(r.Context()); err != nil {
		log.WithField("workspace", ws.ID).WithError(err).Warn("Sign out incomplete at provider")
	}
	h.setCookie(w, "", -1)

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "signed out"})
}

// Session returns the workspace's session state
func (h *Handler) Session(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ws, err := h.workspaceFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, stateOf(ws))
}

func (h *Handler) setCookie(w http.ResponseWriter, value string, ttl time.Duration) {
	c := &http.Cookie{
		Name:     auth.WorkspaceCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl < 0 {
		c.MaxAge = -1
	} else {
		c.MaxAge = int(ttl.Seconds())
	}
	http.SetCookie(w, c)
}
