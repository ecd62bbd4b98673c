package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	log "github.com/Ptt-Alertor/logrus"
	"github.com/go-playground/validator/v10"
	"github.com/julienschmidt/httprouter"

	"github.com/RxRoster/rxroster/auth"
	"github.com/RxRoster/rxroster/models/account"
	"github.com/RxRoster/rxroster/models/profile"
	"github.com/RxRoster/rxroster/profiles"
	"github.com/RxRoster/rxroster/session"
	"github.com/RxRoster/rxroster/workspace"
)

var ErrAccountNotLinked = errors.New("account not linked")

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Handler serves the JSON API on top of the workspace registry
type Handler struct {
	registry     *workspace.Registry
	tokens       *auth.Tokens
	validate     *validator.Validate
	secureCookie bool
}

// NewHandler creates a Handler. secureCookie marks the workspace cookie
// Secure, which browsers only send back over https.
func NewHandler(registry *workspace.Registry, tokens *auth.Tokens, secureCookie bool) *Handler {
	return &Handler{
		registry:     registry,
		tokens:       tokens,
		validate:     NewValidator(),
		secureCookie: secureCookie,
	}
}

// NewValidator returns a validator that knows the memberrole tag
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("memberrole", func(fl validator.FieldLevel) bool {
		return profile.Role(fl.Field().String()).Valid()
	})
	return v
}

// Register mounts every route on router
func (h *Handler) Register(router *httprouter.Router) {
	// health check
	router.GET("/hello", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"Hello World!"}`))
	})

	router.POST("/api/auth/login", auth.OptionalWorkspace(h.tokens, h.Login))

	wr := auth.NewWorkspaceRouter(router, h.tokens)
	wr.POST("/api/auth/logout", h.Logout)
	wr.GET("/api/auth/session", h.Session)

	wr.GET("/api/account", h.GetAccount)
	wr.PATCH("/api/account", h.UpdateAccount)

	wr.GET("/api/profiles", h.ListProfiles)
	wr.POST("/api/profiles", h.CreateProfile)
	wr.PUT("/api/profiles/current", h.SelectProfile)
	wr.PATCH("/api/profiles/:id", h.UpdateProfile)
	wr.DELETE("/api/profiles/:id", h.DeleteProfile)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// workspaceFor opens the workspace named by the request's token
func (h *Handler) workspaceFor(r *http.Request) (*workspace.Workspace, error) {
	claims := auth.GetClaimsFromContext(r.Context())
	if claims == nil {
		return nil, session.ErrNotAuthenticated
	}
	return h.registry.Open(r.Context(), claims.WorkspaceID)
}

// linkedAccount returns the account id profile routes operate on
func linkedAccount(ws *workspace.Workspace) (string, error) {
	if !ws.Session.State().IsAuthenticated {
		return "", session.ErrNotAuthenticated
	}
	id := ws.AccountID()
	if id == "" {
		return "", ErrAccountNotLinked
	}
	ws.Profiles.EnsureLoaded(id)
	return id, nil
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errInvalidBody
	}
	return nil
}

var errInvalidBody = errors.New("invalid request body")

// statusOf maps domain errors onto HTTP statuses
func statusOf(err error) int {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, session.ErrAuthentication), errors.Is(err, session.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, session.ErrAccountNotLoaded),
		errors.Is(err, session.ErrSessionChanged),
		errors.Is(err, profiles.ErrAccountMismatch),
		errors.Is(err, ErrAccountNotLinked):
		return http.StatusConflict
	case errors.As(err, &verrs),
		errors.Is(err, errInvalidBody),
		errors.Is(err, profiles.ErrIncompleteProfile),
		errors.Is(err, account.ErrNoChanges),
		errors.Is(err, account.ErrUnknownColumn):
		return http.StatusBadRequest
	case errors.Is(err, account.ErrAccountNotFound), errors.Is(err, errProfileNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	msg := err.Error()

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msg = validationMessage(verrs)
	}
	if status == http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"method": r.Method,
			"URI":    r.URL.Path,
		}).WithError(err).Error("Request failed")
		msg = "internal error"
	}

	writeJSON(w, status, ErrorResponse{Success: false, Message: msg})
}

func validationMessage(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fe.Field()+" failed "+fe.Tag())
	}
	return "invalid fields: " + strings.Join(parts, ", ")
}
