package api

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/RxRoster/rxroster/models/profile"
)

var errProfileNotFound = errors.New("profile not found")

// ProfilesResponse lists the member profiles of the linked account
type ProfilesResponse struct {
	Profiles         []profile.MemberProfile `json:"profiles"`
	CurrentProfileID *string                 `json:"currentProfileId"`
}

// SelectProfileRequest selects a profile; a null id clears the selection
type SelectProfileRequest struct {
	ProfileID *string `json:"profileId"`
}

// ListProfiles returns every profile and the current selection
func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ws, err := h.workspaceFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := linkedAccount(ws); err != nil {
		writeError(w, r, err)
		return
	}

	resp := ProfilesResponse{Profiles: ws.Profiles.Profiles()}
	if id := ws.Profiles.CurrentProfileID(); id != "" {
		resp.CurrentProfileID = &id
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateProfile adds a member profile to the linked account
func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ws, err := h.workspaceFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	accountID, err := linkedAccount(ws)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var draft profile.Draft
	if err := decode(r, &draft); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.validate.Struct(draft); err != nil {
		writeError(w, r, err)
		return
	}

	p, err := ws.Profiles.AddProfile(accountID, draft)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

// UpdateProfile merges a partial update into one profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ws, err := h.workspaceFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	accountID, err := linkedAccount(ws)
	if err != nil {
		writeError(w, r, err)
		return
	}

	id := ps.ByName("id")
	if _, ok := ws.Profiles.Profile(id); !ok {
		writeError(w, r, errProfileNotFound)
		return
	}

	var changes profile.Changes
	if err := decode(r, &changes); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.validate.Struct(changes); err != nil {
		writeError(w, r, err)
		return
	}

	if err := ws.Profiles.UpdateProfile(accountID, id, changes); err != nil {
		writeError(w, r, err)
		return
	}

	p, ok := ws.Profiles.Profile(id)
	if !ok {
		writeError(w, r, errProfileNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeleteProfile removes one profile; removing an unknown id is a no-op
func (h *Handler) DeleteProfile(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ws, err := h.workspaceFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	accountID, err := linkedAccount(ws)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := ws.Profiles.RemoveProfile(accountID, ps.ByName("id")); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SelectProfile changes the current profile
func (h *Handler) SelectProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ws, err := h.workspaceFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := linkedAccount(ws); err != nil {
		writeError(w, r, err)
		return
	}

	var req SelectProfileRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	id := ""
	if req.ProfileID != nil {
		id = *req.ProfileID
		if _, ok := ws.Profiles.Profile(id); !ok {
			writeError(w, r, errProfileNotFound)
			return
		}
	}
	ws.Profiles.SetCurrentProfile(id)

	resp := ProfilesResponse{Profiles: ws.Profiles.Profiles()}
	if id != "" {
		resp.CurrentProfileID = &id
	}
	writeJSON(w, http.StatusOK, resp)
}
