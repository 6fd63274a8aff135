package reading

import "strings"

// Issue annotates chapter content that loaded "successfully" but looks like a
// delivery problem (empty payload, truncated text, paywall/login notices).
// It is a soft warning, not an error: content is always displayed alongside it.
type Issue struct {
	Reason string
}

// DefaultRestrictionMarkers are phrases that sources return in place of real
// chapter text when access is restricted. The list is tuned to the CJK novel
// source ecosystem and is configuration data, not logic: callers may extend
// or replace it.
var DefaultRestrictionMarkers = []string{
	"请登录后查看",
	"登录后阅读",
	"需要登录",
	"付费章节",
	"购买本章",
	"订阅本章",
	"开通VIP",
	"VIP章节",
	"本章为VIP",
	"访问太频繁",
	"请求过于频繁",
	"章节被锁定",
	"内容已被锁定",
}

// Markers treated as evidence that a short payload is still a real chapter
// (e.g. a one-line interlude) rather than a truncated load.
var chapterMarkers = []string{"第", "章", "节", "卷", "Chapter", "chapter"}

// DefaultMinContentLength is the threshold below which marker-free text is
// flagged as a possible load failure. Counted in runes: restriction notices
// and truncated payloads are short in characters, not bytes.
const DefaultMinContentLength = 50

// HealthChecker classifies fetched chapter text as healthy or likely broken.
// The zero value is not usable; construct with NewHealthChecker.
type HealthChecker struct {
	minLength int
	markers   []string
}

// NewHealthChecker builds a checker with the given minimum content length and
// restriction markers. Non-positive minLength and empty markers fall back to
// the package defaults.
func NewHealthChecker(minLength int, markers []string) *HealthChecker {
	if minLength <= 0 {
		minLength = DefaultMinContentLength
	}
	if len(markers) == 0 {
		markers = DefaultRestrictionMarkers
	}
	return &HealthChecker{minLength: minLength, markers: markers}
}

// Classify inspects chapter text and returns a non-nil Issue when delivery
// looks broken. Rules apply in order, first match wins. Classify never fails
// and never blocks content from being shown.
func (h *HealthChecker) Classify(text string) *Issue {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return &Issue{Reason: "content empty"}
	}

	if len([]rune(trimmed)) < h.minLength && !containsAny(trimmed, chapterMarkers) {
		return &Issue{Reason: "content too short, possible load failure"}
	}

	if containsAny(trimmed, h.markers) {
		return &Issue{Reason: "source returned restricted content, suggest switching source"}
	}

	return nil
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
