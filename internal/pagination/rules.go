package pagination

import (
	"regexp"
	"strconv"
	"strings"
)

var numericText = regexp.MustCompile(`^\d+$`)

// anchor is the per-link view the scoring rules operate on.
type anchor struct {
	href      string
	hrefLower string
	text      string // visible text, whitespace collapsed
	matchText string // folded text used for keyword matching
	hintText  string // folded aria-label/title/icon classes, for icon-only links
	rel       string
	class     string
}

// rule computes one independent, additive contribution to an anchor's
// confidence.
type rule struct {
	name  string
	score func(a *anchor, p *Policy) int
}

var anchorRules = []rule{
	{name: "keyword", score: keywordScore},
	{name: "numeric", score: numericScore},
	{name: "url-pattern", score: urlPatternScore},
	{name: "rel-next", score: relNextScore},
	{name: "class-hint", score: classHintScore},
}

func keywordScore(a *anchor, p *Policy) int {
	text := a.matchText
	if text == "" {
		text = a.hintText
	}
	matched, exact := p.matchKeyword(text)
	if !matched {
		return 0
	}
	if exact {
		return p.Scores.Keyword + p.Scores.ExactKeyword
	}
	return p.Scores.Keyword
}

func numericScore(a *anchor, p *Policy) int {
	if !numericText.MatchString(a.text) {
		return 0
	}
	score := p.Scores.Numeric
	if n, err := strconv.Atoi(a.text); err == nil && n >= p.Scores.NumericMin && n <= p.Scores.NumericMax {
		score += p.Scores.NumericInRange
	}
	return score
}

func urlPatternScore(a *anchor, p *Policy) int {
	if p.matchURLPattern(a.hrefLower) {
		return p.Scores.URLPattern
	}
	return 0
}

func relNextScore(a *anchor, p *Policy) int {
	for _, r := range strings.Fields(strings.ToLower(a.rel)) {
		if r == "next" {
			return p.Scores.RelNext
		}
	}
	return 0
}

func classHintScore(a *anchor, p *Policy) int {
	if p.hasClassHint(strings.ToLower(a.class)) {
		return p.Scores.ClassHint
	}
	return 0
}

// scoreAnchor applies every rule and sums the deltas. The nonzero deltas are
// also returned as rule name/value pairs for logging.
func scoreAnchor(a *anchor, p *Policy) (int, []any) {
	total := 0
	var deltas []any
	for _, r := range anchorRules {
		delta := r.score(a, p)
		if delta == 0 {
			continue
		}
		total += delta
		deltas = append(deltas, r.name, delta)
	}
	return total, deltas
}
