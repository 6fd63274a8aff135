// Package replace applies reading-rule replacements to chapter text before
// display: ad stripping, punctuation normalization, source-specific cleanup.
// Rules are user data persisted on the shelf database; the engine compiles
// the enabled set once and applies it as the reading session's content
// transform.
package replace

import (
	"log"
	"regexp"
	"strings"
	"sync"

	"github.com/mrlokans/reader/internal/entities"
)

type compiledRule struct {
	literal     string
	regex       *regexp.Regexp
	replacement string
}

// Engine holds a compiled, ordered set of replacement rules.
type Engine struct {
	mu    sync.RWMutex
	rules []compiledRule
}

// NewEngine compiles the enabled rules. Rules with invalid regex patterns
// are skipped with a log line rather than failing the whole set: one bad
// user rule must not take down text display.
func NewEngine(rules []entities.ReplaceRule) *Engine {
	e := &Engine{}
	e.Reload(rules)
	return e
}

// Reload recompiles the engine from a fresh rule set. Called after rule CRUD.
func (e *Engine) Reload(rules []entities.ReplaceRule) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, rule := range rules {
		if !rule.Enabled || rule.Pattern == "" {
			continue
		}
		if rule.IsRegex {
			re, err := regexp.Compile(rule.Pattern)
			if err != nil {
				log.Printf("Skipping replace rule %q: invalid pattern: %v", rule.Name, err)
				continue
			}
			compiled = append(compiled, compiledRule{regex: re, replacement: rule.Replacement})
			continue
		}
		compiled = append(compiled, compiledRule{literal: rule.Pattern, replacement: rule.Replacement})
	}

	e.mu.Lock()
	e.rules = compiled
	e.mu.Unlock()
}

// Apply runs every rule over text, in order. Satisfies the reading session's
// transform hook.
func (e *Engine) Apply(text string) string {
	e.mu.RLock()
	rules := e.rules
	e.mu.RUnlock()

	for _, rule := range rules {
		if rule.regex != nil {
			text = rule.regex.ReplaceAllString(text, rule.replacement)
		} else {
			text = strings.ReplaceAll(text, rule.literal, rule.replacement)
		}
	}
	return text
}

// Len returns the number of active compiled rules.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.rules)
}
