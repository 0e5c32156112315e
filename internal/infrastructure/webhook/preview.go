package webhook

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// ContentMode controls how much message text leaves the service in a push payload.
type ContentMode string

const (
	// ContentModeFull forwards the message text unchanged.
	ContentModeFull ContentMode = "full"
	// ContentModeMasked replaces contact details with salted digests.
	ContentModeMasked ContentMode = "masked"
	// ContentModeHidden forwards only a fixed placeholder.
	ContentModeHidden ContentMode = "hidden"
)

const hiddenPlaceholder = "[new message]"

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	cardPattern  = regexp.MustCompile(`\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}\b`)
	phonePattern = regexp.MustCompile(`\b(?:\+?86[- ]?)?1[3-9]\d[- ]?\d{4}[- ]?\d{4}\b|\b\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`)
	qqPattern    = regexp.MustCompile(`(?i)\bqq[:：\s]*\d{5,11}\b`)
)

// Previewer renders message content for push gateways.
type Previewer struct {
	mode ContentMode
	salt string
}

// ParseContentMode maps a configuration value to a mode. Unknown values
// fall back to masked.
func ParseContentMode(raw string) ContentMode {
	switch ContentMode(strings.ToLower(strings.TrimSpace(raw))) {
	case ContentModeFull:
		return ContentModeFull
	case ContentModeHidden:
		return ContentModeHidden
	default:
		return ContentModeMasked
	}
}

func NewPreviewer(mode ContentMode, salt string) *Previewer {
	return &Previewer{mode: mode, salt: salt}
}

// Content returns the text to place in the payload. A nil Previewer forwards
// content unchanged.
func (p *Previewer) Content(content string) string {
	if p == nil || content == "" {
		return content
	}
	switch p.mode {
	case ContentModeFull:
		return content
	case ContentModeHidden:
		return hiddenPlaceholder
	default:
		return p.mask(content)
	}
}

func (p *Previewer) mask(content string) string {
	// Cards first so their digit groups are not half-matched as phone numbers.
	out := cardPattern.ReplaceAllString(content, "[card]")
	out = emailPattern.ReplaceAllStringFunc(out, func(m string) string {
		return "[email:" + p.digest(m) + "]"
	})
	out = qqPattern.ReplaceAllStringFunc(out, func(m string) string {
		return "[qq:" + p.digest(m) + "]"
	})
	out = phonePattern.ReplaceAllStringFunc(out, func(m string) string {
		return "[phone:" + p.digest(m) + "]"
	})
	return out
}

func (p *Previewer) digest(value string) string {
	sum := sha256.Sum256([]byte(value + p.salt))
	return hex.EncodeToString(sum[:])[:8]
}
