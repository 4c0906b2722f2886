package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/samandartukhtayev/user-registry/models"
	"github.com/samandartukhtayev/user-registry/registry"
	"github.com/samandartukhtayev/user-registry/userutil"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeLoadFailed    = -32001 // Source unreachable or returned an unusable body
)

// handleLoadUsers handles the load_users tool invocation
func (s *Server) handleLoadUsers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.registry.LoadUsers(ctx)
	if err != nil {
		kind := "network"
		if errors.Is(err, registry.ErrDecode) {
			kind = "decode"
		}
		return nil, newMCPError(ErrorCodeLoadFailed, "failed to load users", map[string]interface{}{
			"kind":  kind,
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"loaded": len(users),
		"users":  users,
	})), nil
}

// handleAddUser handles the add_user tool invocation
func (s *Server) handleAddUser(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	name, ok := args["name"].(string)
	if !ok {
		return nil, missingParam("name")
	}
	email, ok := args["email"].(string)
	if !ok {
		return nil, missingParam("email")
	}

	if getBoolDefault(args, "validate", false) && !userutil.ValidateEmail(email) {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid email", map[string]interface{}{
			"param":  "email",
			"reason": "does not have the local@domain.tld shape",
		})
	}

	s.mu.Lock()
	user := s.registry.AddUser(models.NewUser(s.clock, name, email))
	count := s.registry.Len()
	s.mu.Unlock()

	s.logger.Debug("user added", "id", user.ID, "count", count)

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"user":  user,
		"count": count,
	})), nil
}

// handleFindUser handles the find_user tool invocation
func (s *Server) handleFindUser(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	id, err := getInt64(args, "id")
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid id", map[string]interface{}{
			"param":  "id",
			"reason": err.Error(),
		})
	}

	s.mu.Lock()
	user, found := s.registry.FindUserByID(id)
	s.mu.Unlock()

	response := map[string]interface{}{
		"id":    id,
		"found": found,
	}
	if found {
		response["user"] = user
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleListUsers handles the list_users tool invocation
func (s *Server) handleListUsers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	users := s.registry.Users()
	s.mu.Unlock()

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"count": len(users),
		"users": users,
	})), nil
}

// handleValidateEmail handles the validate_email tool invocation
func (s *Server) handleValidateEmail(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	email, ok := args["email"].(string)
	if !ok {
		return nil, missingParam("email")
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"email": email,
		"valid": userutil.ValidateEmail(email),
	})), nil
}

// handleFormatDate handles the format_date tool invocation
func (s *Server) handleFormatDate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	date, ok := args["date"].(string)
	if !ok {
		return nil, missingParam("date")
	}

	formatted, err := userutil.FormatDate(date)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid date", map[string]interface{}{
			"param":  "date",
			"reason": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"date":      date,
		"formatted": formatted,
	})), nil
}

// newMCPError creates an MCP protocol error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

func missingParam(name string) error {
	return newMCPError(ErrorCodeInvalidParams, name+" parameter is required", map[string]interface{}{
		"param":  name,
		"reason": "missing or not a string",
	})
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats data as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getInt64 extracts an integer parameter sent as a JSON number or a decimal string
func getInt64(args map[string]interface{}, key string) (int64, error) {
	switch val := args[key].(type) {
	case float64:
		if val != math.Trunc(val) || math.Abs(val) > 1<<53 {
			return 0, fmt.Errorf("%v is not an exact integer", val)
		}
		return int64(val), nil
	case int:
		return int64(val), nil
	case int64:
		return val, nil
	case json.Number:
		return val.Int64()
	case string:
		return strconv.ParseInt(val, 10, 64)
	case nil:
		return 0, errors.New("missing")
	default:
		return 0, fmt.Errorf("unsupported type %T", val)
	}
}
