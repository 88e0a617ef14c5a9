package pagination

import (
	"fmt"
	"io"
	"net/url"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
)

// onclickNavigation captures a literal URL assigned to a location target.
var onclickNavigation = regexp.MustCompile(`(?:location\.href|window\.location(?:\.href)?|document\.location(?:\.href)?)\s*=\s*["']([^"']+)["']`)

// Candidate is a URL that may lead to the next page of the current resource.
type Candidate struct {
	URL        string
	Confidence int
	// Texts holds the visible texts of the anchors that resolved to URL.
	Texts []string
}

// Detector ranks "next page" links found in rendered HTML.
type Detector struct {
	policy *Policy
	logger *log.Logger
}

// NewDetector creates a Detector. A nil policy selects DefaultPolicy and a
// nil logger discards debug output.
func NewDetector(policy *Policy, logger *log.Logger) *Detector {
	if policy == nil {
		policy = DefaultPolicy()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Detector{policy: policy, logger: logger}
}

// Policy returns the policy the detector scores against.
func (d *Detector) Policy() *Policy {
	return d.policy
}

// Detect returns up to MaxResults absolute URLs, highest confidence first,
// whose confidence reaches the policy threshold.
func (d *Detector) Detect(html, baseURL string) ([]string, error) {
	cands, err := d.Candidates(html, baseURL)
	if err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(cands))
	for _, c := range cands {
		urls = append(urls, c.URL)
	}
	return urls, nil
}

// Candidates is Detect with the scores and anchor texts attached.
func (d *Detector) Candidates(html, baseURL string) ([]Candidate, error) {
	if strings.TrimSpace(html) == "" {
		return nil, nil
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	set := newCandidateSet(base)
	d.scanAnchors(doc, set)
	d.scanButtons(doc, set)
	d.scanForms(doc, set)

	ranked := set.rank(d.policy.Scores.Threshold, d.policy.MaxResults)
	for _, c := range ranked {
		d.logger.Debug("pagination candidate", "url", c.URL, "confidence", c.Confidence)
	}
	return ranked, nil
}

func (d *Detector) scanAnchors(doc *goquery.Document, set *candidateSet) {
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" {
			return
		}
		text := strings.Join(strings.Fields(s.Text()), " ")
		a := &anchor{
			href:      href,
			hrefLower: strings.ToLower(href),
			text:      text,
			matchText: foldText(text),
			rel:       s.AttrOr("rel", ""),
			class:     s.AttrOr("class", ""),
		}
		if a.matchText == "" {
			a.hintText = foldText(iconHint(s))
		}
		if d.policy.excluded(a.hrefLower, a.matchText) {
			return
		}
		confidence, deltas := scoreAnchor(a, d.policy)
		if confidence <= 0 {
			return
		}
		d.logger.Debug("anchor scored", append([]any{"href", href, "confidence", confidence}, deltas...)...)
		set.add(href, confidence, text)
	})
}

func (d *Detector) scanButtons(doc *goquery.Document, set *candidateSet) {
	doc.Find("button[onclick]").Each(func(_ int, s *goquery.Selection) {
		if matched, _ := d.policy.matchKeyword(foldText(s.Text())); !matched {
			return
		}
		m := onclickNavigation.FindStringSubmatch(s.AttrOr("onclick", ""))
		if m == nil {
			return
		}
		target := strings.TrimSpace(m[1])
		if d.policy.excluded(strings.ToLower(target), "") {
			return
		}
		set.addIfAbsent(target, d.policy.Scores.Button)
	})
}

func (d *Detector) scanForms(doc *goquery.Document, set *candidateSet) {
	doc.Find("form[action]").Each(func(_ int, form *goquery.Selection) {
		input := form.Find("input").FilterFunction(func(_ int, in *goquery.Selection) bool {
			return strings.EqualFold(in.AttrOr("name", ""), "page")
		}).First()
		if input.Length() == 0 {
			return
		}
		value := strings.TrimSpace(input.AttrOr("value", ""))
		if !numericText.MatchString(value) {
			return
		}
		action := strings.TrimSpace(form.AttrOr("action", ""))
		sep := "?"
		if strings.Contains(action, "?") {
			sep = "&"
		}
		set.addIfAbsent(action+sep+"page="+value, d.policy.Scores.Form)
	})
}

// iconHint collects the accessible label and child class names of an anchor
// that has no visible text.
func iconHint(s *goquery.Selection) string {
	parts := []string{s.AttrOr("aria-label", ""), s.AttrOr("title", "")}
	s.Find("[class]").Each(func(_ int, child *goquery.Selection) {
		parts = append(parts, child.AttrOr("class", ""))
	})
	return strings.Join(parts, " ")
}

type candidateSet struct {
	base  *url.URL
	self  string
	order []*Candidate
	byURL map[string]*Candidate
}

func newCandidateSet(base *url.URL) *candidateSet {
	return &candidateSet{
		base:  base,
		self:  withoutFragment(base),
		byURL: make(map[string]*Candidate),
	}
}

func withoutFragment(u *url.URL) string {
	u2 := *u
	u2.Fragment = ""
	u2.RawFragment = ""
	return u2.String()
}

// resolve makes href absolute without its fragment. It returns "" for
// unparsable hrefs and links back to the base URL.
func (s *candidateSet) resolve(href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := withoutFragment(s.base.ResolveReference(ref))
	if abs == s.self {
		return ""
	}
	return abs
}

// add records href, keeping the highest confidence seen for a URL.
func (s *candidateSet) add(href string, confidence int, text string) {
	abs := s.resolve(href)
	if abs == "" {
		return
	}
	c, ok := s.byURL[abs]
	if !ok {
		c = &Candidate{URL: abs}
		s.byURL[abs] = c
		s.order = append(s.order, c)
	}
	if confidence > c.Confidence {
		c.Confidence = confidence
	}
	if text != "" && !slices.Contains(c.Texts, text) {
		c.Texts = append(c.Texts, text)
	}
}

// addIfAbsent records href only when no earlier scan produced the same URL.
func (s *candidateSet) addIfAbsent(href string, confidence int) {
	abs := s.resolve(href)
	if abs == "" {
		return
	}
	if _, ok := s.byURL[abs]; ok {
		return
	}
	c := &Candidate{URL: abs, Confidence: confidence}
	s.byURL[abs] = c
	s.order = append(s.order, c)
}

// rank orders candidates by confidence, keeping first-seen order among ties.
func (s *candidateSet) rank(threshold, limit int) []Candidate {
	sorted := make([]*Candidate, len(s.order))
	copy(sorted, s.order)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	var out []Candidate
	for _, c := range sorted {
		if len(out) == limit {
			break
		}
		if c.Confidence < threshold {
			break
		}
		out = append(out, *c)
	}
	return out
}
