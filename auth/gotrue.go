package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/Ptt-Alertor/logrus"
	"github.com/golang-jwt/jwt/v5"

	"github.com/RxRoster/rxroster/session"
	"github.com/RxRoster/rxroster/storage"
)

// SessionPrefix is the storage key prefix of persisted provider sessions
const SessionPrefix = "sb-auth-token:"

// SessionKey returns the storage key of the provider session of a workspace
func SessionKey(workspaceID string) string {
	return SessionPrefix + workspaceID
}

// APIError is a non-2xx answer from the auth server
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("auth server %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("auth server %d: %s", e.Status, e.Message)
}

// GoTrueConfig locates the auth server
type GoTrueConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// GoTrue is a Supabase Auth (GoTrue) client for one workspace. The session
// it obtains is kept in kv so it survives the workspace being dropped from
// memory.
type GoTrue struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	kv         storage.KV
	storageKey string
	nowFn      func() time.Time
}

// NewGoTrue creates a client persisting its session under workspaceID
func NewGoTrue(cfg GoTrueConfig, kv storage.KV, workspaceID string) *GoTrue {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GoTrue{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		kv:         kv,
		storageKey: SessionKey(workspaceID),
		nowFn:      time.Now,
	}
}

type tokenUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type tokenResponse struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiresAt    int64     `json:"expires_at"`
	RefreshToken string    `json:"refresh_token"`
	User         tokenUser `json:"user"`
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

// GetCurrentSession returns the persisted session, refreshing it when the
// access token has expired. Nothing stored, or a refresh the server
// rejects, yields no session.
func (g *GoTrue) GetCurrentSession(ctx context.Context) (*session.Session, error) {
	raw, ok, err := g.kv.GetItem(g.storageKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var sess session.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil || sess.AccessToken == "" {
		log.WithField("key", g.storageKey).Warn("Discarding unreadable provider session")
		g.forget()
		return nil, nil
	}

	if !sess.Expired(g.nowFn()) {
		return &sess, nil
	}
	if sess.RefreshToken == "" {
		g.forget()
		return nil, nil
	}

	refreshed, err := g.token(ctx, "refresh_token", map[string]string{"refresh_token": sess.RefreshToken})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
			g.forget()
			return nil, nil
		}
		return nil, err
	}
	if refreshed == nil {
		g.forget()
		return nil, nil
	}

	g.persist(refreshed)
	return refreshed, nil
}

// SignInWithPassword exchanges credentials for a session
func (g *GoTrue) SignInWithPassword(ctx context.Context, email, password string) (*session.Session, error) {
	sess, err := g.token(ctx, "password", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}

	g.persist(sess)
	return sess, nil
}

// SignOut revokes the session on the server and always forgets it locally
func (g *GoTrue) SignOut(ctx context.Context) error {
	defer g.forget()

	raw, ok, err := g.kv.GetItem(g.storageKey)
	if err != nil || !ok {
		return err
	}
	var sess session.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil || sess.AccessToken == "" {
		return nil
	}

	req, err := g.newRequest(ctx, http.MethodPost, "/auth/v1/logout", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+sess.AccessToken)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// an already revoked session is as good as a successful sign out
	if resp.StatusCode >= http.StatusInternalServerError {
		return decodeError(resp)
	}
	return nil
}

func (g *GoTrue) token(ctx context.Context, grant string, body map[string]string) (*session.Session, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := g.newRequest(ctx, http.MethodPost, "/auth/v1/token?grant_type="+url.QueryEscape(grant), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeError(resp)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}

	return g.toSession(tr), nil
}

func (g *GoTrue) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", g.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (g *GoTrue) toSession(tr tokenResponse) *session.Session {
	if tr.AccessToken == "" {
		return nil
	}

	sess := &session.Session{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		User:         session.User{ID: tr.User.ID, Email: tr.User.Email},
	}
	switch {
	case tr.ExpiresAt > 0:
		sess.ExpiresAt = time.Unix(tr.ExpiresAt, 0).UTC()
	case tr.ExpiresIn > 0:
		sess.ExpiresAt = g.nowFn().Add(time.Duration(tr.ExpiresIn) * time.Second).UTC()
	default:
		sess.ExpiresAt = tokenExpiry(tr.AccessToken)
	}
	if sess.User.ID == "" {
		sess.User.ID = tokenSubject(tr.AccessToken)
	}
	return sess
}

func (g *GoTrue) persist(sess *session.Session) {
	b, err := json.Marshal(sess)
	if err == nil {
		err = g.kv.SetItem(g.storageKey, string(b))
	}
	if err != nil {
		log.WithField("key", g.storageKey).WithError(err).Warn("Provider session not persisted")
	}
}

func (g *GoTrue) forget() {
	if err := g.kv.RemoveItem(g.storageKey); err != nil {
		log.WithField("key", g.storageKey).WithError(err).Warn("Provider session not removed")
	}
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	var er errorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&er); err == nil {
		apiErr.Code = er.ErrorCode
		if apiErr.Code == "" {
			apiErr.Code = er.Error
		}
		for _, msg := range []string{er.ErrorDescription, er.Msg, er.Message} {
			if msg != "" {
				apiErr.Message = msg
				break
			}
		}
	}
	return apiErr
}

// tokenExpiry reads exp from an access token without verifying it; the
// signature is the auth server's concern
func tokenExpiry(accessToken string) time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time.UTC()
}

func tokenSubject(accessToken string) string {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil {
		return ""
	}
	return claims.Subject
}
