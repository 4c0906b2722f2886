package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// loadUsersTool returns the tool definition for load_users
func loadUsersTool() mcp.Tool {
	return mcp.Tool{
		Name:        "load_users",
		Description: "Replace the registry's users with the list fetched from the configured source",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// addUserTool returns the tool definition for add_user
func addUserTool() mcp.Tool {
	return mcp.Tool{
		Name:        "add_user",
		Description: "Create a user stamped with the current time and append it to the registry",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Display name, stored verbatim",
				},
				"email": map[string]interface{}{
					"type":        "string",
					"description": "Email address, stored verbatim",
				},
				"validate": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, reject emails that fail the shape check",
					"default":     false,
				},
			},
			Required: []string{"name", "email"},
		},
	}
}

// findUserTool returns the tool definition for find_user
func findUserTool() mcp.Tool {
	return mcp.Tool{
		Name:        "find_user",
		Description: "Look up the first user with the given id",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "integer",
					"description": "User id (epoch milliseconds at creation)",
				},
			},
			Required: []string{"id"},
		},
	}
}

// listUsersTool returns the tool definition for list_users
func listUsersTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_users",
		Description: "List users in insertion order",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// validateEmailTool returns the tool definition for validate_email
func validateEmailTool() mcp.Tool {
	return mcp.Tool{
		Name:        "validate_email",
		Description: "Check that an email has the local@domain.tld shape",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"email": map[string]interface{}{
					"type":        "string",
					"description": "Email address to check",
				},
			},
			Required: []string{"email"},
		},
	}
}

// formatDateTool returns the tool definition for format_date
func formatDateTool() mcp.Tool {
	return mcp.Tool{
		Name:        "format_date",
		Description: "Render an ISO-8601 date or timestamp as a long-form date, e.g. January 5, 2024",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"date": map[string]interface{}{
					"type":        "string",
					"description": "ISO-8601 date or timestamp",
				},
			},
			Required: []string{"date"},
		},
	}
}
