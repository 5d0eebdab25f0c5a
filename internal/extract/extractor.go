// Package extract proposes candidate facts and behavioral rules from raw
// conversation text using a regex pattern library. It only proposes;
// reconciliation into the knowledge base happens in the memory stores, so
// this whole package can be swapped for a better candidate proposer without
// touching reconciliation semantics.
package extract

import (
	"regexp"
	"strings"
)

// FactCandidate is a proposed (predicate, object) pair about the user.
type FactCandidate struct {
	Predicate string
	Object    string
}

// ProcedureCandidate is a proposed behavioral rule.
type ProcedureCandidate struct {
	Type        string // preference, habit, pattern, rule, skill
	Description string
	Condition   string
	Action      string
}

type factPattern struct {
	predicate string
	re        *regexp.Regexp
}

// The object capture stops at clause punctuation so "I work at Acme." yields
// "Acme", not "Acme.".
var factPatterns = []factPattern{
	{"name_is", regexp.MustCompile(`(?i)\bmy name(?:'s| is) (\w+)`)},
	{"name_is", regexp.MustCompile(`(?i)\bcall me (\w+)`)},
	{"age_is", regexp.MustCompile(`(?i)\bi(?:'m| am) (\d{1,3}) years old`)},
	{"works_at", regexp.MustCompile(`(?i)\bi work (?:at|for) ([^,.;!?\n]+)`)},
	{"job_is", regexp.MustCompile(`(?i)\bi work as an? ([^,.;!?\n]+)`)},
	{"lives_in", regexp.MustCompile(`(?i)\bi live in ([^,.;!?\n]+)`)},
	{"from", regexp.MustCompile(`(?i)\bi(?:'m| am) (?:originally )?from ([^,.;!?\n]+)`)},
	{"likes", regexp.MustCompile(`(?i)\bi (?:really )?(?:like|love|enjoy) ([^,.;!?\n]+)`)},
	{"dislikes", regexp.MustCompile(`(?i)\bi (?:hate|dislike|can't stand) ([^,.;!?\n]+)`)},
	{"feels", regexp.MustCompile(`(?i)\bi(?:'m| am)? ?feel(?:ing)? (\w+)`)},
	{"allergic_to", regexp.MustCompile(`(?i)\bi(?:'m| am) allergic to ([^,.;!?\n]+)`)},
	{"has_pet", regexp.MustCompile(`(?i)\bmy (?:dog|cat|pet|bird)(?:'s name)? is (?:named |called )?(\w+)`)},
	{"partner_is", regexp.MustCompile(`(?i)\bmy (?:wife|husband|partner)(?:'s name)? is (\w+)`)},
	{"hobby_is", regexp.MustCompile(`(?i)\bmy hobby is ([^,.;!?\n]+)`)},
	{"favorite_is", regexp.MustCompile(`(?i)\bmy favou?rite [\w ]+ is ([^,.;!?\n]+)`)},
}

type procPattern struct {
	ptype string
	re    *regexp.Regexp
}

var procPatterns = []procPattern{
	{"rule", regexp.MustCompile(`(?i)\b(?:please )?always ([^,.;!?\n]+)`)},
	{"rule", regexp.MustCompile(`(?i)\b(?:please )?never ([^,.;!?\n]+)`)},
	{"rule", regexp.MustCompile(`(?i)\bremind me to ([^,.;!?\n]+)`)},
	{"preference", regexp.MustCompile(`(?i)\bi prefer ([^,.;!?\n]+)`)},
	{"preference", regexp.MustCompile(`(?i)\bi(?:'d| would) rather ([^,.;!?\n]+)`)},
	{"habit", regexp.MustCompile(`(?i)\bi usually ([^,.;!?\n]+)`)},
	{"habit", regexp.MustCompile(`(?i)\bevery (?:morning|day|evening|night) i ([^,.;!?\n]+)`)},
}

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"to": true, "of": true, "in": true, "on": true, "at": true, "for": true,
	"with": true, "my": true, "me": true, "i": true, "is": true, "are": true,
	"be": true, "it": true, "that": true, "this": true, "when": true,
	"you": true, "your": true, "about": true, "please": true, "dont": true,
	"don't": true, "do": true, "not": true,
}

// Patterns is the default regex-based candidate proposer.
type Patterns struct{}

// NewPatterns returns the default pattern extractor.
func NewPatterns() *Patterns {
	return &Patterns{}
}

// Facts scans text for personal-disclosure phrasings and proposes
// (predicate, object) candidates. At most one candidate per predicate per
// call; the first match wins.
func (p *Patterns) Facts(text string) []FactCandidate {
	var out []FactCandidate
	seen := make(map[string]bool)

	for _, fp := range factPatterns {
		if seen[fp.predicate] {
			continue
		}
		m := fp.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		object := strings.TrimSpace(m[1])
		if object == "" {
			continue
		}
		seen[fp.predicate] = true
		out = append(out, FactCandidate{Predicate: fp.predicate, Object: object})
	}
	return out
}

// Procedures scans text for behavioral phrasings ("always …", "I prefer …",
// "remind me to …") and proposes rule candidates. The condition string is the
// keyword set of the description, used later for context matching.
func (p *Patterns) Procedures(text string) []ProcedureCandidate {
	var out []ProcedureCandidate

	for _, pp := range procPatterns {
		for _, m := range pp.re.FindAllStringSubmatch(text, -1) {
			body := strings.TrimSpace(m[1])
			if body == "" {
				continue
			}
			desc := strings.TrimSpace(m[0])
			out = append(out, ProcedureCandidate{
				Type:        pp.ptype,
				Description: desc,
				Condition:   conditionKeywords(body),
				Action:      body,
			})
		}
	}
	return out
}

// conditionKeywords reduces a phrase to its content words, comma-joined,
// capped at five.
func conditionKeywords(phrase string) string {
	var kws []string
	for _, w := range strings.Fields(strings.ToLower(phrase)) {
		w = strings.Trim(w, `"'`)
		if len(w) < 3 || stopwords[w] {
			continue
		}
		kws = append(kws, w)
		if len(kws) == 5 {
			break
		}
	}
	return strings.Join(kws, ",")
}
