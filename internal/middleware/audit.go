package middleware

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/huangang/caseeval/internal/services"
)

const maxAuditBody = 2000

// AuditLog records write requests (POST/PUT/PATCH/DELETE) to system_logs.
// Requests under /api/cases/:id are linked to that case.
func AuditLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method != http.MethodPost && method != http.MethodPut &&
			method != http.MethodPatch && method != http.MethodDelete {
			c.Next()
			return
		}

		var bodySnippet string
		if c.Request.Body != nil {
			bodyBytes, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			bodySnippet = string(bodyBytes)
			if len(bodySnippet) > maxAuditBody {
				bodySnippet = bodySnippet[:maxAuditBody] + "...[truncated]"
			}
			bodySnippet = maskSensitiveFields(bodySnippet)
		}

		c.Next()

		status := c.Writer.Status()
		module, action := parseRouteInfo(c.FullPath(), method)

		entry := services.LogEntry{
			Module:    module,
			Action:    action,
			Message:   formatAuditMessage(GetUsername(c), method, c.Request.URL.Path, status),
			CaseID:    auditCaseID(c),
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Extra: map[string]interface{}{
				"method": method,
				"path":   c.Request.URL.Path,
				"status": status,
				"body":   bodySnippet,
				"audit":  true,
			},
		}
		if userID := GetUserID(c); userID > 0 {
			entry.UserID = &userID
		}

		if status >= http.StatusBadRequest {
			services.LogWarning(entry)
			return
		}
		services.LogInfo(entry)
	}
}

func auditCaseID(c *gin.Context) *uint {
	if !strings.HasPrefix(c.FullPath(), "/api/cases/:id") {
		return nil
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return nil
	}
	caseID := uint(id)
	return &caseID
}

// parseRouteInfo maps a route pattern to (module, action),
// e.g. "/api/cases/:id/evaluation/admin" + "PUT" is ("cases", "update").
func parseRouteInfo(fullPath, method string) (module, action string) {
	path := strings.TrimPrefix(fullPath, "/api/")
	module = strings.SplitN(path, "/", 2)[0]
	if module == "" {
		module = "unknown"
	}

	switch method {
	case http.MethodPost:
		action = "create"
	case http.MethodPut, http.MethodPatch:
		action = "update"
	case http.MethodDelete:
		action = "delete"
	default:
		action = strings.ToLower(method)
	}
	return module, action
}

func formatAuditMessage(username, method, path string, status int) string {
	if username == "" {
		username = "anonymous"
	}
	result := "OK"
	if status < 200 || status >= 300 {
		result = "Failed"
	}
	return fmt.Sprintf("[Audit] %s %s %s -> %s (%d)", username, method, path, result, status)
}

var sensitiveKeys = []string{"password", "old_password", "new_password", "bind_password", "secret", "token"}

func maskSensitiveFields(body string) string {
	lower := strings.ToLower(body)
	for _, key := range sensitiveKeys {
		if strings.Contains(lower, "\""+key+"\"") {
			body = maskJSONValue(body, key)
			lower = strings.ToLower(body)
		}
	}
	return body
}

// maskJSONValue replaces the string value of every "key": "value" pair.
func maskJSONValue(body, key string) string {
	needle := "\"" + key + "\""
	from := 0
	for {
		lower := strings.ToLower(body)
		idx := strings.Index(lower[from:], needle)
		if idx == -1 {
			return body
		}
		idx += from + len(needle)

		rest := body[idx:]
		colon := strings.Index(rest, ":")
		if colon == -1 || strings.TrimSpace(rest[:colon]) != "" {
			from = idx
			continue
		}
		valueStart := idx + colon + 1
		for valueStart < len(body) && (body[valueStart] == ' ' || body[valueStart] == '\t') {
			valueStart++
		}
		if valueStart >= len(body) || body[valueStart] != '"' {
			from = idx
			continue
		}
		endQuote := strings.Index(body[valueStart+1:], "\"")
		if endQuote == -1 {
			return body
		}
		body = body[:valueStart+1] + "***" + body[valueStart+1+endQuote:]
		from = valueStart + 1 + len("***") + 1
	}
}
