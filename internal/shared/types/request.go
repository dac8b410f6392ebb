package types

// LoadRequest asks the engine to load one resource
type LoadRequest struct {
	URL string `json:"url" binding:"required"`
}

// LoadResponse is the result of a load: either content or an error message
type LoadResponse struct {
	Success bool   `json:"success"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ExecuteRequest represents a service execution request
type ExecuteRequest struct {
	ToolID string                 `json:"tool_id" binding:"required"`
	Params map[string]interface{} `json:"params" binding:"required"`
	AppID  *string                `json:"app_id,omitempty"`
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type string `json:"type"`
	URL  string `json:"url,omitempty"`
}
