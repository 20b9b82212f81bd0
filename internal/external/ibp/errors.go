package ibp

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	// ErrUnknownDataType is returned for a dataset type without an endpoint
	ErrUnknownDataType = errors.New("unknown IBP data type")
	// ErrAuthFailed is returned when no CSRF token could be obtained
	ErrAuthFailed = errors.New("IBP authentication failed")
	// ErrUnexpectedStatus is wrapped by StatusError
	ErrUnexpectedStatus = errors.New("unexpected IBP status")
)

// StatusError carries a non-success HTTP status and a short body summary
type StatusError struct {
	Op      string
	Code    int
	Summary string
}

func (e *StatusError) Error() string {
	if e.Summary == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Code, e.Summary)
}

func (e *StatusError) Unwrap() error { return ErrUnexpectedStatus }

const maxSummaryLen = 200

// summarize reduces an error body to one line.
// SAP gateways often answer with HTML error pages; those are reduced to title and heading.
func summarize(contentType string, body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 64<<10))
	if err != nil || len(raw) == 0 {
		return ""
	}

	text := string(raw)
	if strings.Contains(contentType, "html") || looksLikeHTML(text) {
		if s := summarizeHTML(text); s != "" {
			return truncate(s)
		}
	}
	return truncate(strings.Join(strings.Fields(text), " "))
}

func looksLikeHTML(s string) bool {
	head := strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}

func summarizeHTML(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return ""
	}

	var parts []string
	add := func(v string) {
		v = strings.Join(strings.Fields(v), " ")
		if v == "" {
			return
		}
		for _, p := range parts {
			if p == v {
				return
			}
		}
		parts = append(parts, v)
	}

	add(doc.Find("title").First().Text())
	add(doc.Find("h1").First().Text())
	doc.Find("p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		add(sel.Text())
		return len(parts) < 3
	})
	return strings.Join(parts, " - ")
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxSummaryLen {
		return s
	}
	return string(r[:maxSummaryLen]) + "..."
}
