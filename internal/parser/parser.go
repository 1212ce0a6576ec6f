// Package parser turns full Gmail API messages into the flat fields written
// to the spreadsheet.
package parser

import (
	"regexp"
	"strings"

	gm "google.golang.org/api/gmail/v1"

	"github.com/daviddao/mailsheets/internal/types"
)

const (
	mimePlain = "text/plain"
	mimeHTML  = "text/html"
)

var bracketAddr = regexp.MustCompile(`<(.+?)>`)

// Parse extracts sender, subject, date and body from a message fetched with
// format=full. It never fails; anything missing comes back as "".
func Parse(msg *gm.Message) types.Email {
	var email types.Email
	if msg == nil || msg.Payload == nil {
		return email
	}
	payload := msg.Payload

	for _, h := range payload.Headers {
		if h == nil {
			continue
		}
		switch strings.ToLower(h.Name) {
		case "from":
			email.From = SenderAddress(h.Value)
		case "subject":
			email.Subject = h.Value
		case "date":
			email.Date = h.Value
		}
	}

	email.Content = strings.TrimSpace(extractBody(payload))
	return email
}

// SenderAddress returns the bare address from "Name <addr>", or the value
// unchanged when it has no angle brackets.
func SenderAddress(from string) string {
	if m := bracketAddr.FindStringSubmatch(from); m != nil {
		return m[1]
	}
	return from
}

// extractBody prefers text/plain over text/html among the top-level parts.
// The payload's own body is only used when there are no parts at all.
func extractBody(payload *gm.MessagePart) string {
	if len(payload.Parts) == 0 {
		return bodyData(payload)
	}

	if text := firstPart(payload.Parts, mimePlain); text != "" {
		return text
	}
	return firstPart(payload.Parts, mimeHTML)
}

// firstPart decodes the first part of the given mime type with a non-empty body.
func firstPart(parts []*gm.MessagePart, mimeType string) string {
	for _, part := range parts {
		if part == nil || part.MimeType != mimeType {
			continue
		}
		if data := rawData(part); data != "" {
			return DecodeBody(data)
		}
	}
	return ""
}

func bodyData(part *gm.MessagePart) string {
	if data := rawData(part); data != "" {
		return DecodeBody(data)
	}
	return ""
}

func rawData(part *gm.MessagePart) string {
	if part.Body == nil {
		return ""
	}
	return part.Body.Data
}
