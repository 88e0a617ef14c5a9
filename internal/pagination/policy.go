package pagination

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed default_policy.yaml
var defaultPolicyYAML []byte

// Scores holds the additive weights and thresholds used when ranking candidates.
type Scores struct {
	Keyword        int `yaml:"keyword"`
	ExactKeyword   int `yaml:"exact_keyword"`
	Numeric        int `yaml:"numeric"`
	NumericInRange int `yaml:"numeric_in_range"`
	NumericMin     int `yaml:"numeric_min"`
	NumericMax     int `yaml:"numeric_max"`
	URLPattern     int `yaml:"url_pattern"`
	RelNext        int `yaml:"rel_next"`
	ClassHint      int `yaml:"class_hint"`
	Button         int `yaml:"button"`
	Form           int `yaml:"form"`
	Threshold      int `yaml:"threshold"`
}

// Policy is the versioned table of keywords, patterns and weights the
// Detector scores against. Use ParsePolicy or LoadPolicy to obtain a
// compiled instance.
type Policy struct {
	Version       string   `yaml:"version"`
	MaxResults    int      `yaml:"max_results"`
	Scores        Scores   `yaml:"scores"`
	Keywords      []string `yaml:"keywords"`
	URLPatterns   []string `yaml:"url_patterns"`
	ClassHints    []string `yaml:"class_hints"`
	ExcludeTokens []string `yaml:"exclude_tokens"`
	StrongNext    []string `yaml:"strong_next"`

	keywords      []*regexp.Regexp
	exactKeywords []*regexp.Regexp
	urlPatterns   []*regexp.Regexp
	strongNext    []string
}

// DefaultPolicy returns the embedded policy.
func DefaultPolicy() *Policy {
	p, err := ParsePolicy(defaultPolicyYAML)
	if err != nil {
		panic(fmt.Sprintf("pagination: embedded policy is invalid: %v", err))
	}
	return p
}

// LoadPolicy reads and compiles a policy from a YAML file.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	p, err := ParsePolicy(data)
	if err != nil {
		return nil, fmt.Errorf("invalid policy %s: %w", path, err)
	}
	return p, nil
}

// ParsePolicy decodes a YAML policy and compiles its patterns.
func ParsePolicy(data []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse policy: %w", err)
	}
	if err := p.compile(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Policy) compile() error {
	if p.MaxResults <= 0 {
		return fmt.Errorf("max_results must be positive, got %d", p.MaxResults)
	}
	if len(p.Keywords) == 0 {
		return fmt.Errorf("policy has no keywords")
	}

	p.keywords = p.keywords[:0]
	p.exactKeywords = p.exactKeywords[:0]
	for _, kw := range p.Keywords {
		kw = norm.NFC.String(kw)
		re, err := regexp.Compile(`(?i)` + kw)
		if err != nil {
			return fmt.Errorf("invalid keyword %q: %w", kw, err)
		}
		exact, err := regexp.Compile(`(?i)^(?:` + kw + `)$`)
		if err != nil {
			return fmt.Errorf("invalid keyword %q: %w", kw, err)
		}
		p.keywords = append(p.keywords, re)
		p.exactKeywords = append(p.exactKeywords, exact)
	}

	p.urlPatterns = p.urlPatterns[:0]
	for _, pat := range p.URLPatterns {
		re, err := regexp.Compile(pat)
		if err != nil {
			return fmt.Errorf("invalid url pattern %q: %w", pat, err)
		}
		p.urlPatterns = append(p.urlPatterns, re)
	}

	p.strongNext = p.strongNext[:0]
	for _, tok := range p.StrongNext {
		p.strongNext = append(p.strongNext, foldText(tok))
	}
	return nil
}

// matchKeyword reports whether text contains any keyword pattern, and whether
// some pattern matches the whole text.
func (p *Policy) matchKeyword(text string) (matched, exact bool) {
	if text == "" {
		return false, false
	}
	for i, re := range p.keywords {
		if !re.MatchString(text) {
			continue
		}
		matched = true
		if p.exactKeywords[i].MatchString(text) {
			return true, true
		}
	}
	return matched, false
}

func (p *Policy) matchURLPattern(hrefLower string) bool {
	for _, re := range p.urlPatterns {
		if re.MatchString(hrefLower) {
			return true
		}
	}
	return false
}

func (p *Policy) hasClassHint(classLower string) bool {
	if classLower == "" {
		return false
	}
	for _, hint := range p.ClassHints {
		if strings.Contains(classLower, strings.ToLower(hint)) {
			return true
		}
	}
	return false
}

func (p *Policy) excluded(hrefLower, text string) bool {
	if strings.HasPrefix(hrefLower, "#") {
		return true
	}
	for _, tok := range p.ExcludeTokens {
		tok = strings.ToLower(tok)
		if strings.Contains(hrefLower, tok) || strings.Contains(text, tok) {
			return true
		}
	}
	return false
}

// HasStrongNext reports whether any of the given anchor texts contains one of
// the policy's strong "next" tokens.
func (p *Policy) HasStrongNext(texts ...string) bool {
	for _, t := range texts {
		t = foldText(t)
		for _, tok := range p.strongNext {
			if strings.Contains(t, tok) {
				return true
			}
		}
	}
	return false
}
