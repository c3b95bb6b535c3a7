package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/savezy/savezy/pkg/cache"
	"github.com/savezy/savezy/pkg/contents"
	"github.com/savezy/savezy/pkg/logging"
	"github.com/savezy/savezy/pkg/remote"
)

func kindNames() []string {
	out := make([]string, 0, len(contents.Kinds))
	for _, k := range contents.Kinds {
		out = append(out, string(k))
	}
	return out
}

// recordFieldOptions are the per-field arguments shared by create_content and update_content.
func recordFieldOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("url", mcp.Description("Link to the item. Required for Video, News and Website.")),
		mcp.WithString("title", mcp.Description("Title.")),
		mcp.WithString("image_url", mcp.Description("Image link. Required for Meme and Image.")),
		mcp.WithString("description", mcp.Description("Description.")),
		mcp.WithString("summary", mcp.Description("Short summary.")),
		mcp.WithString("comment", mcp.Description("Personal comment.")),
		mcp.WithString("category", mcp.Description("Free-form category.")),
		mcp.WithString("tags", mcp.Description("Comma-separated list of tags.")),
		mcp.WithBoolean("favorite", mcp.Description("Mark as favorite.")),
		mcp.WithString("directions", mcp.Description("Route description. Required for Direction.")),
		mcp.WithNumber("latitude", mcp.Description("Latitude for Direction items.")),
		mcp.WithNumber("longitude", mcp.Description("Longitude for Direction items.")),
	}
}

// RegisterPingTool registers the simple ping tool.
func RegisterPingTool(s *server.MCPServer) {
	pingTool := mcp.NewTool("ping",
		mcp.WithDescription("Responds with 'pong' to check if the Savezy MCP server is alive."),
	)
	s.AddTool(pingTool, pingHandler)
}

func pingHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText("pong_savezy"), nil
}

type contentHandlers struct {
	cache *cache.Cache
	log   logging.Logger
}

// RegisterCreateContentTool registers the create_content tool.
func RegisterCreateContentTool(s *server.MCPServer, h *contentHandlers) {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Saves a new content item."),
		mcp.WithString("type", mcp.Required(), mcp.Enum(kindNames()...), mcp.Description("Content kind.")),
	}
	s.AddTool(mcp.NewTool("create_content", append(opts, recordFieldOptions()...)...), h.createContent)
}

func (h *contentHandlers) createContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typ, _ := argString(request, "type")
	kind, err := contents.ParseKind(typ)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("'type' must be one of %s.", strings.Join(kindNames(), ", "))), nil
	}

	r := contents.Record{Kind: kind}
	p := patchFromRequest(request)
	r = p.Apply(r)

	created, err := h.cache.Create(ctx, r)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(created)
}

// RegisterListContentsTool registers the list_contents tool.
func RegisterListContentsTool(s *server.MCPServer, h *contentHandlers) {
	listTool := mcp.NewTool("list_contents",
		mcp.WithDescription("Lists saved items, newest first, optionally filtered."),
		mcp.WithString("type", mcp.Enum(kindNames()...), mcp.Description("Only items of this kind.")),
		mcp.WithString("category", mcp.Description("Only items in this category.")),
		mcp.WithString("tag", mcp.Description("Only items carrying this tag.")),
		mcp.WithBoolean("favorites_only", mcp.Description("Only favorites.")),
	)
	s.AddTool(listTool, h.listContents)
}

func (h *contentHandlers) listContents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var f cache.Filter
	if typ, ok := argString(request, "type"); ok && typ != "" {
		kind, err := contents.ParseKind(typ)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		f.Kind = kind
	}
	f.Category, _ = argString(request, "category")
	f.Tag, _ = argString(request, "tag")
	f.FavoritesOnly, _ = argBool(request, "favorites_only")

	return jsonResult(h.cache.Filter(f))
}

// RegisterGetContentTool registers the get_content tool.
func RegisterGetContentTool(s *server.MCPServer, h *contentHandlers) {
	getTool := mcp.NewTool("get_content",
		mcp.WithDescription("Retrieves a saved item by id."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Item id.")),
	)
	s.AddTool(getTool, h.getContent)
}

func (h *contentHandlers) getContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := argID(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	r, ok := h.cache.Get(id)
	if !ok {
		return mcp.NewToolResultError("Item not found."), nil
	}
	return jsonResult(r)
}

// RegisterUpdateContentTool registers the update_content tool.
func RegisterUpdateContentTool(s *server.MCPServer, h *contentHandlers) {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Changes fields of a saved item. Omitted fields keep their value; the kind cannot change."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Item id.")),
	}
	s.AddTool(mcp.NewTool("update_content", append(opts, recordFieldOptions()...)...), h.updateContent)
}

func (h *contentHandlers) updateContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := argID(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	p := patchFromRequest(request)
	if p.Empty() {
		return mcp.NewToolResultError("No update fields provided."), nil
	}

	updated, err := h.cache.Update(ctx, id, p)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(updated)
}

// RegisterDeleteContentTool registers the delete_content tool.
func RegisterDeleteContentTool(s *server.MCPServer, h *contentHandlers) {
	deleteTool := mcp.NewTool("delete_content",
		mcp.WithDescription("Deletes a saved item. Deleting a missing id is not an error."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Item id.")),
	)
	s.AddTool(deleteTool, h.deleteContent)
}

func (h *contentHandlers) deleteContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := argID(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := h.cache.Delete(ctx, id); err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Item %d deleted.", id)), nil
}

// RegisterSearchContentsTool registers the search_contents tool.
func RegisterSearchContentsTool(s *server.MCPServer, h *contentHandlers) {
	searchTool := mcp.NewTool("search_contents",
		mcp.WithDescription("Case-insensitive text search over saved items."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Text to look for.")),
		mcp.WithString("type", mcp.Enum(kindNames()...), mcp.Description("Only items of this kind.")),
	)
	s.AddTool(searchTool, h.searchContents)
}

func (h *contentHandlers) searchContents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, _ := argString(request, "query")
	if strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("'query' parameter is required."), nil
	}

	f := cache.Filter{Query: query}
	if typ, ok := argString(request, "type"); ok && typ != "" {
		kind, err := contents.ParseKind(typ)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		f.Kind = kind
	}
	return jsonResult(h.cache.Filter(f))
}

// RegisterListTagsTool registers the list_tags tool.
func RegisterListTagsTool(s *server.MCPServer, h *contentHandlers) {
	tagsTool := mcp.NewTool("list_tags",
		mcp.WithDescription("Lists every tag in use with the number of items carrying it."),
	)
	s.AddTool(tagsTool, h.listTags)
}

func (h *contentHandlers) listTags(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(h.cache.Tags())
}

// RegisterRefreshContentsTool registers the refresh_contents tool.
func RegisterRefreshContentsTool(s *server.MCPServer, h *contentHandlers) {
	refreshTool := mcp.NewTool("refresh_contents",
		mcp.WithDescription("Reloads all items from the database, picking up changes made by other processes."),
	)
	s.AddTool(refreshTool, h.refreshContents)
}

func (h *contentHandlers) refreshContents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.cache.Refresh(ctx); err != nil {
		return errorResult(err), nil
	}
	h.log.Debug(ctx, "contents refreshed", "count", h.cache.Len())
	return mcp.NewToolResultText(fmt.Sprintf("Loaded %d items.", h.cache.Len())), nil
}

func patchFromRequest(request mcp.CallToolRequest) contents.Patch {
	p := contents.Patch{
		URL:         optString(request, "url"),
		Title:       optString(request, "title"),
		ImageURL:    optString(request, "image_url"),
		Description: optString(request, "description"),
		Summary:     optString(request, "summary"),
		Comment:     optString(request, "comment"),
		Category:    optString(request, "category"),
		Directions:  optString(request, "directions"),
		Latitude:    optFloat(request, "latitude"),
		Longitude:   optFloat(request, "longitude"),
	}
	if tags, ok := argString(request, "tags"); ok {
		list := contents.SplitTags(tags)
		p.Tags = &list
	}
	if fav, ok := argBool(request, "favorite"); ok {
		p.Favorite = &fav
	}
	return p
}

type remoteHandlers struct {
	client *remote.Client
	log    logging.Logger
}

// RegisterRemoteHealthTool registers the remote_health tool.
func RegisterRemoteHealthTool(s *server.MCPServer, h *remoteHandlers) {
	healthTool := mcp.NewTool("remote_health",
		mcp.WithDescription("Checks whether the remote mirror is reachable."),
	)
	s.AddTool(healthTool, h.health)
}

func (h *remoteHandlers) health(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.client.Health(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Remote mirror unavailable: %v", err)), nil
	}
	return mcp.NewToolResultText("Remote mirror is healthy."), nil
}

// RegisterRemoteListTool registers the remote_list tool.
func RegisterRemoteListTool(s *server.MCPServer, h *remoteHandlers) {
	listTool := mcp.NewTool("remote_list",
		mcp.WithDescription("Lists records on the remote mirror, scoped to the signed-in user when there is one."),
		mcp.WithString("type", mcp.Enum(kindNames()...), mcp.Description("Only records of this kind.")),
	)
	s.AddTool(listTool, h.list)
}

func (h *remoteHandlers) list(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var kind contents.Kind
	if typ, ok := argString(request, "type"); ok && typ != "" {
		k, err := contents.ParseKind(typ)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		kind = k
	}
	records, err := h.client.List(ctx, kind)
	if err != nil {
		h.log.Warn(ctx, "remote_list failed", "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list remote records: %v", err)), nil
	}
	return jsonResult(records)
}

// RegisterRemoteSearchTool registers the remote_search tool.
func RegisterRemoteSearchTool(s *server.MCPServer, h *remoteHandlers) {
	searchTool := mcp.NewTool("remote_search",
		mcp.WithDescription("Text search across every remote collection."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Text to look for.")),
	)
	s.AddTool(searchTool, h.search)
}

func (h *remoteHandlers) search(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, _ := argString(request, "query")
	if strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("'query' parameter is required."), nil
	}
	records, err := h.client.Search(ctx, query)
	if err != nil {
		h.log.Warn(ctx, "remote_search failed", "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("Failed to search remote records: %v", err)), nil
	}
	return jsonResult(records)
}
