package capability

// RegisterBuiltins registers the builtin client and agent providers.
// Registration order matters: catalog collisions resolve first-registered-wins.
func RegisterBuiltins(clients *Registry, agents *AgentRegistry) {
	clients.Register("fetch", func() Provider { return NewFetchClient() }, FetchMetadata())
	clients.Register("websearch", func() Provider { return NewWebSearchClient() }, WebSearchMetadata())
	clients.Register("github", func() Provider { return NewGitHubClient() }, GitHubMetadata())
	clients.Register("jira", func() Provider { return NewJiraClient() }, JiraMetadata())
	clients.Register("mcp", func() Provider { return NewMCPBridgeClient() }, MCPBridgeMetadata())

	agents.Register("research", func() Provider { return NewResearchAgent() }, ResearchMetadata())
}
