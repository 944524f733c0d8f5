package clockify

import (
	"encoding/json"
	"strings"

	"golang.org/x/net/html"
)

const maxMessageLen = 300

// errorMessage turns an error response body into a short readable message.
// Clockify answers with JSON {"message": ...}; proxies in front of it answer
// with HTML pages.
func errorMessage(contentType string, body []byte) string {
	var apiErr struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return truncate(apiErr.Message)
	}

	if strings.Contains(contentType, "html") || looksLikeHTML(body) {
		return truncate(extractText(string(body)))
	}

	return truncate(strings.Join(strings.Fields(string(body)), " "))
}

func looksLikeHTML(body []byte) bool {
	s := strings.ToLower(strings.TrimSpace(string(body)))
	return strings.HasPrefix(s, "<!doctype html") || strings.HasPrefix(s, "<html")
}

// extractText parses HTML and returns its visible text
func extractText(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}

	skipTags := map[string]bool{
		"script": true, "style": true, "head": true, "noscript": true,
	}

	var sb strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode && skipTags[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				sb.WriteString(text)
				sb.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(doc)

	return strings.Join(strings.Fields(sb.String()), " ")
}

func truncate(s string) string {
	if len(s) <= maxMessageLen {
		return s
	}
	return s[:maxMessageLen-3] + "..."
}
