package service

import (
	"encoding/json"

	"github.com/jsbattig/code-indexer-sub037/internal/domain"
)

func schema(raw string) json.RawMessage { return json.RawMessage(raw) }

var (
	emptySchema = schema(`{"type":"object","properties":{}}`)
	querySchema = schema(`{"type":"object","properties":{"query":{"type":"string"},"limit":{"type":"integer"}},"required":["query"]}`)
	repoSchema  = schema(`{"type":"object","properties":{"repository":{"type":"string"}},"required":["repository"]}`)
)

// DefaultToolCatalog is the fixed set of tools this server exposes over the
// MCP bridge. Order is registration order and is part of the contract:
// listings are stable across calls and releases.
func DefaultToolCatalog() []domain.ToolDefinition {
	return []domain.ToolDefinition{
		{Name: "search_code", Description: "Keyword search across the active repository's indexed source.", InputSchema: querySchema, RequiredRole: domain.RoleNormalUser},
		{Name: "semantic_search", Description: "Embedding-backed semantic search over indexed code.", InputSchema: querySchema, RequiredRole: domain.RoleNormalUser},
		{Name: "find_files", Description: "Locate files by glob or substring within the active repository.", InputSchema: schema(`{"type":"object","properties":{"pattern":{"type":"string"}},"required":["pattern"]}`), RequiredRole: domain.RoleNormalUser},
		{Name: "get_file_content", Description: "Read a file from the active repository at its indexed revision.", InputSchema: schema(`{"type":"object","properties":{"path":{"type":"string"}},"required":["path"]}`), RequiredRole: domain.RoleNormalUser},
		{Name: "list_repositories", Description: "List repositories available to the caller.", InputSchema: emptySchema, RequiredRole: domain.RoleNormalUser},
		{Name: "get_repository_status", Description: "Report index freshness and activation state for a repository.", InputSchema: repoSchema, RequiredRole: domain.RoleNormalUser},
		{Name: "activate_repository", Description: "Activate a repository copy for querying.", InputSchema: repoSchema, RequiredRole: domain.RoleNormalUser},
		{Name: "deactivate_repository", Description: "Release the caller's activated repository copy.", InputSchema: repoSchema, RequiredRole: domain.RoleNormalUser},
		{Name: "sync_repository", Description: "Pull upstream changes into an activated repository.", InputSchema: repoSchema, RequiredRole: domain.RoleNormalUser},
		{Name: "list_branches", Description: "List branches of an activated repository.", InputSchema: repoSchema, RequiredRole: domain.RoleNormalUser},
		{Name: "switch_branch", Description: "Switch an activated repository to another branch.", InputSchema: schema(`{"type":"object","properties":{"repository":{"type":"string"},"branch":{"type":"string"}},"required":["repository","branch"]}`), RequiredRole: domain.RoleNormalUser},
		{Name: "get_index_status", Description: "Report indexing progress for an activated repository.", InputSchema: repoSchema, RequiredRole: domain.RoleNormalUser},
		{Name: "register_repository", Description: "Register a new repository for indexing.", InputSchema: schema(`{"type":"object","properties":{"url":{"type":"string"},"name":{"type":"string"}},"required":["url"]}`), RequiredRole: domain.RolePowerUser},
		{Name: "remove_repository", Description: "Remove a registered repository and its index.", InputSchema: repoSchema, RequiredRole: domain.RolePowerUser},
		{Name: "reindex_repository", Description: "Force a full re-index of a repository.", InputSchema: repoSchema, RequiredRole: domain.RolePowerUser},
		{Name: "list_golden_repos", Description: "List the golden repositories shared across users.", InputSchema: emptySchema, RequiredRole: domain.RolePowerUser},
		{Name: "add_golden_repo", Description: "Add a golden repository to the shared pool.", InputSchema: schema(`{"type":"object","properties":{"url":{"type":"string"},"alias":{"type":"string"}},"required":["url","alias"]}`), RequiredRole: domain.RoleAdmin},
		{Name: "remove_golden_repo", Description: "Remove a golden repository from the shared pool.", InputSchema: schema(`{"type":"object","properties":{"alias":{"type":"string"}},"required":["alias"]}`), RequiredRole: domain.RoleAdmin},
		{Name: "refresh_golden_repo", Description: "Refresh a golden repository from its upstream.", InputSchema: schema(`{"type":"object","properties":{"alias":{"type":"string"}},"required":["alias"]}`), RequiredRole: domain.RoleAdmin},
		{Name: "list_users", Description: "List server accounts and their roles.", InputSchema: emptySchema, RequiredRole: domain.RoleAdmin},
		{Name: "set_user_role", Description: "Change the role assigned to an account.", InputSchema: schema(`{"type":"object","properties":{"username":{"type":"string"},"role":{"type":"string"}},"required":["username","role"]}`), RequiredRole: domain.RoleAdmin},
		{Name: "get_server_health", Description: "Report server component health and resource usage.", InputSchema: emptySchema, RequiredRole: domain.RoleAdmin},
	}
}
