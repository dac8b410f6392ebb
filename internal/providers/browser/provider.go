package browser

import (
	"context"
	"fmt"

	"github.com/GriffinCanCode/BrowserOS/engine/internal/engine"
	"github.com/GriffinCanCode/BrowserOS/engine/internal/logging"
	"github.com/GriffinCanCode/BrowserOS/engine/internal/shared/types"
)

// Provider exposes the fetch engine as a browser service
type Provider struct {
	engine   *engine.Engine
	sessions *SessionManager
	log      *logging.Logger
}

// New creates a browser provider backed by the fetch engine
func New(eng *engine.Engine, log *logging.Logger) *Provider {
	if log == nil {
		log = logging.NewNop()
	}
	return &Provider{
		engine:   eng,
		sessions: NewSessionManager(),
		log:      log.Component("browser"),
	}
}

// Definition returns service definition
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:          "browser",
		Name:        "Browser Engine",
		Category:    types.CategoryBrowser,
		Description: "Fetches web resources with caching, redirects, and transfer decoding",
		Capabilities: []string{
			"navigate", "history", "back",
			"http", "https", "file", "data", "view-source",
			"cache",
		},
		Tools: p.getTools(),
	}
}

func (p *Provider) getTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "browser.navigate",
			Name:        "Navigate to URL",
			Description: "Load a resource and return its decoded body",
			Parameters: []types.Parameter{
				{Name: "url", Type: "string", Description: "URL to load", Required: true},
				{Name: "session_id", Type: "string", Description: "Session to record history in", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          "browser.back",
			Name:        "Go Back",
			Description: "Reload the previous entry in the session history",
			Parameters: []types.Parameter{
				{Name: "session_id", Type: "string", Description: "Session identifier", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          "browser.history",
			Name:        "Session History",
			Description: "List the URLs visited in a session",
			Parameters: []types.Parameter{
				{Name: "session_id", Type: "string", Description: "Session identifier", Required: true},
			},
			Returns: "array",
		},
		{
			ID:          "browser.cache.stats",
			Name:        "Cache Stats",
			Description: "Report response cache entry count",
			Parameters:  []types.Parameter{},
			Returns:     "object",
		},
		{
			ID:          "browser.cache.clear",
			Name:        "Clear Cache",
			Description: "Drop every cached response",
			Parameters:  []types.Parameter{},
			Returns:     "boolean",
		},
	}
}

// Execute routes to the tool implementations
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "browser.navigate":
		return p.Navigate(ctx, params, appCtx)
	case "browser.back":
		return p.Back(ctx, params, appCtx)
	case "browser.history":
		return p.History(ctx, params, appCtx)
	case "browser.cache.stats":
		return p.CacheStats(ctx, params, appCtx)
	case "browser.cache.clear":
		return p.CacheClear(ctx, params, appCtx)
	default:
		return Failure(fmt.Sprintf("unknown tool: %s", toolID))
	}
}

// CacheStats reports the response cache entry count
func (p *Provider) CacheStats(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	return Success(map[string]interface{}{
		"entries": p.engine.Cache().Len(),
	})
}

// CacheClear drops every cached response
func (p *Provider) CacheClear(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	p.engine.Cache().Clear()
	return Success(map[string]interface{}{"cleared": true})
}
