// Package mcptools exposes setup composition as MCP tools for assistants
// running on the same machine.
//
// Each tool is a struct holding its dependencies, with Definition returning
// the mcp.Tool schema and Handle serving calls. Handlers report domain
// failures as tool errors rather than protocol errors so the model can read
// and correct them.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"

	domainerrors "github.com/rigbook/rigbook-server/internal/errors"
	"github.com/rigbook/rigbook-server/internal/service"
	"github.com/rigbook/rigbook-server/internal/store"
)

// Actor resolves the user every tool acts for. The user record is created on
// the first call that needs it.
type Actor struct {
	users       *service.UserService
	userID      string
	displayName string

	mu         sync.Mutex
	identified bool
}

// NewActor creates an Actor for userID.
func NewActor(users *service.UserService, userID, displayName string) *Actor {
	return &Actor{users: users, userID: userID, displayName: displayName}
}

// ID returns the actor's user id, registering the user if needed.
func (a *Actor) ID(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.identified {
		return a.userID, nil
	}
	user, err := a.users.Identify(ctx, a.userID, a.displayName)
	if err != nil {
		return "", err
	}
	a.userID = user.ID
	a.identified = true
	return a.userID, nil
}

// intArg extracts an integer argument, returning defaultVal if the key is
// missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// stringsArg extracts an array of strings. Non-string elements fail.
func stringsArg(req mcp.CallToolRequest, key string) ([]string, error) {
	raw, ok := req.GetArguments()[key].([]any)
	if !ok {
		return nil, fmt.Errorf("'%s' must be an array of strings", key)
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("'%s' must be an array of strings", key)
		}
		out = append(out, s)
	}
	return out, nil
}

// objectArg extracts a JSON object argument. A missing key yields nil.
func objectArg(req mcp.CallToolRequest, key string) (map[string]any, error) {
	raw, present := req.GetArguments()[key]
	if !present || raw == nil {
		return nil, nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("'%s' must be an object", key)
	}
	return obj, nil
}

func pageArgs(req mcp.CallToolRequest) store.PaginationParams {
	return store.PaginationParams{
		Limit:  intArg(req, "limit", 20),
		Cursor: req.GetString("cursor", ""),
	}
}

// failure turns err into a tool error. Internal failures are not described.
func failure(err error) *mcp.CallToolResult {
	code := domainerrors.CodeOf(err)
	if code == domainerrors.CodeInternal {
		return mcp.NewToolResultError("internal error")
	}
	var de *domainerrors.Error
	domainerrors.As(err, &de)
	msg := de.Message
	if field := de.Field(); field != "" {
		msg += fmt.Sprintf(" (field: %s)", field)
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s: %s", code, msg))
}

// jsonResult renders v as indented JSON text.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
