package auth

import (
	"github.com/julienschmidt/httprouter"
)

// WorkspaceRouter wraps httprouter with automatic WorkspaceAuth middleware
type WorkspaceRouter struct {
	router *httprouter.Router
	tokens *Tokens
}

// NewWorkspaceRouter creates a new WorkspaceRouter
func NewWorkspaceRouter(router *httprouter.Router, tokens *Tokens) *WorkspaceRouter {
	return &WorkspaceRouter{router: router, tokens: tokens}
}

// GET registers a GET route with WorkspaceAuth middleware
func (wr *WorkspaceRouter) GET(path string, handler httprouter.Handle) {
	wr.router.GET(path, WorkspaceAuth(wr.tokens, handler))
}

// POST registers a POST route with WorkspaceAuth middleware
func (wr *WorkspaceRouter) POST(path string, handler httprouter.Handle) {
	wr.router.POST(path, WorkspaceAuth(wr.tokens, handler))
}

// PUT registers a PUT route with WorkspaceAuth middleware
func (wr *WorkspaceRouter) PUT(path string, handler httprouter.Handle) {
	wr.router.PUT(path, WorkspaceAuth(wr.tokens, handler))
}

// DELETE registers a DELETE route with WorkspaceAuth middleware
func (wr *WorkspaceRouter) DELETE(path string, handler httprouter.Handle) {
	wr.router.DELETE(path, WorkspaceAuth(wr.tokens, handler))
}

// PATCH registers a PATCH route with WorkspaceAuth middleware
func (wr *WorkspaceRouter) PATCH(path string, handler httprouter.Handle) {
	wr.router.PATCH(path, WorkspaceAuth(wr.tokens, handler))
}
