package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/savezy/savezy/pkg/cache"
	"github.com/savezy/savezy/pkg/contents"
)

// argString returns the named string argument and whether it was supplied.
func argString(req mcp.CallToolRequest, name string) (string, bool) {
	v, ok := req.Params.Arguments[name].(string)
	return v, ok
}

func argBool(req mcp.CallToolRequest, name string) (bool, bool) {
	v, ok := req.Params.Arguments[name].(bool)
	return v, ok
}

func argFloat(req mcp.CallToolRequest, name string) (float64, bool) {
	switch v := req.Params.Arguments[name].(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

// argID reads a positive record id given either as a JSON number or a string.
func argID(req mcp.CallToolRequest, name string) (int64, error) {
	switch v := req.Params.Arguments[name].(type) {
	case float64:
		if v < 1 || v != math.Trunc(v) {
			return 0, fmt.Errorf("'%s' must be a positive integer", name)
		}
		return int64(v), nil
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil || id < 1 {
			return 0, fmt.Errorf("'%s' must be a positive integer", name)
		}
		return id, nil
	case nil:
		return 0, fmt.Errorf("'%s' parameter is required", name)
	default:
		return 0, fmt.Errorf("'%s' must be a positive integer", name)
	}
}

func optString(req mcp.CallToolRequest, name string) *string {
	if v, ok := argString(req, name); ok {
		return &v
	}
	return nil
}

func optFloat(req mcp.CallToolRequest, name string) *float64 {
	if v, ok := argFloat(req, name); ok {
		return &v
	}
	return nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to serialize result to JSON: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// errorResult turns a cache error into the message shown to the caller.
func errorResult(err error) *mcp.CallToolResult {
	if errors.Is(err, cache.ErrItemNotFound) {
		return mcp.NewToolResultError("Item not found.")
	}
	if errors.Is(err, contents.ErrInvalidRecord) || errors.Is(err, contents.ErrUnknownKind) {
		return mcp.NewToolResultError(err.Error())
	}
	var mErr *cache.MutationError
	if errors.As(err, &mErr) {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v", mErr.Message(), mErr.Err))
	}
	return mcp.NewToolResultError(err.Error())
}
