package browser

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/BrowserOS/engine/internal/engine"
	"github.com/GriffinCanCode/BrowserOS/engine/internal/engine/locator"
	"github.com/GriffinCanCode/BrowserOS/engine/internal/shared/types"
)

// Navigate loads a resource and records it in the session history
func (p *Provider) Navigate(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	urlStr, err := GetString(params, "url", true)
	if err != nil {
		return Failure(err.Error())
	}

	sessionID, _ := GetString(params, "session_id", false)
	session := p.sessions.GetOrCreate(sessionID)

	urlStr = normalizeURL(urlStr)

	res, ferr := p.engine.Fetch(ctx, urlStr)
	if ferr != nil {
		p.log.Warn("navigate failed", zap.String("url", urlStr), zap.Error(ferr))
		return Failure(ferr.Error())
	}

	session.Visit(urlStr)

	return Success(p.pageData(res, session.ID, urlStr))
}

// Back reloads the previous history entry
func (p *Provider) Back(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	sessionID, err := GetString(params, "session_id", true)
	if err != nil {
		return Failure(err.Error())
	}

	session, ok := p.sessions.Get(sessionID)
	if !ok {
		return Failure("unknown session")
	}

	urlStr, ok := session.Back()
	if !ok {
		return Failure("no previous page")
	}

	res, ferr := p.engine.Fetch(ctx, urlStr)
	if ferr != nil {
		return Failure(ferr.Error())
	}

	return Success(p.pageData(res, session.ID, urlStr))
}

// History lists the session's visited URLs
func (p *Provider) History(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	sessionID, err := GetString(params, "session_id", true)
	if err != nil {
		return Failure(err.Error())
	}

	session, ok := p.sessions.Get(sessionID)
	if !ok {
		return Failure("unknown session")
	}

	history := session.History()
	entries := make([]interface{}, len(history))
	for i, u := range history {
		entries[i] = u
	}

	return Success(map[string]interface{}{
		"session_id": session.ID,
		"history":    entries,
	})
}

// pageData shapes one fetch result for the caller
func (p *Provider) pageData(res *engine.Result, sessionID, urlStr string) map[string]interface{} {
	data := map[string]interface{}{
		"content":     res.Body,
		"url":         urlStr,
		"status":      res.Status,
		"from_cache":  res.FromCache,
		"view_source": res.Locator.ViewSource,
		"session_id":  sessionID,
	}

	contentType := res.Headers["content-type"]
	if contentType == "" && res.Body != "" {
		contentType = mimetype.Detect([]byte(res.Body)).String()
	}
	data["content_type"] = contentType

	// view-source shows raw bytes; no document processing applies
	if !res.Locator.ViewSource {
		if title := extractTitle(res.Body); title != "" {
			data["title"] = title
		}
	}

	return data
}

// extractTitle pulls the document title out of an HTML body, or ""
func extractTitle(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// normalizeURL applies the caller-side convention that a bare host is
// fetched over https.
func normalizeURL(urlStr string) string {
	if strings.HasPrefix(urlStr, "data:") ||
		strings.HasPrefix(urlStr, "view-source:") ||
		strings.Contains(urlStr, "://") {
		return urlStr
	}
	return string(locator.SchemeHTTPS) + "://" + urlStr
}
