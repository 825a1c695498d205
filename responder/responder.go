package responder

import (
	"campus-assistant/domain"
	"sort"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Reply is the canned answer selected for a query.
type Reply struct {
	Category domain.Category
	Content  string
}

// Responder selects canned replies with first-match-wins keyword rules.
// It is immutable after construction and safe for concurrent use.
type Responder struct {
	matcher   *goahocorasick.Machine
	rules     []Rule
	ruleIndex map[string]int
	fallback  Reply
}

// NewResponder builds a single Aho-Corasick automaton over every keyword of every rule.
// A keyword shared by several rules belongs to the first of them.
func NewResponder(rules []Rule, fallback string) (*Responder, error) {
	ruleIndex := make(map[string]int)
	for i, rule := range rules {
		for _, keyword := range rule.Keywords {
			pattern := string(normalizeRunes([]rune(keyword)))
			if pattern == "" {
				continue
			}
			if _, exists := ruleIndex[pattern]; !exists {
				ruleIndex[pattern] = i
			}
		}
	}

	r := &Responder{
		rules:     rules,
		ruleIndex: ruleIndex,
		fallback:  Reply{Category: domain.CategoryGeneral, Content: fallback},
	}
	if len(ruleIndex) == 0 {
		return r, nil
	}

	keywords := make([]string, 0, len(ruleIndex))
	for k := range ruleIndex {
		keywords = append(keywords, k)
	}
	sort.Strings(keywords)
	patterns := make([][]rune, len(keywords))
	for i, k := range keywords {
		patterns[i] = []rune(k)
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	r.matcher = m
	return r, nil
}

// NewCampusResponder returns a responder over the default campus catalogue.
func NewCampusResponder() (*Responder, error) {
	return NewResponder(CampusRules(), Fallback)
}

// Respond returns the reply of the highest-priority rule having a keyword
// contained in the query, or the fallback reply.
func (r *Responder) Respond(query string) Reply {
	best, ok := r.match(query)
	if !ok {
		return r.fallback
	}
	rule := r.rules[best]
	return Reply{Category: rule.Category, Content: rule.Reply}
}

// Keywords returns the matched keywords of a query in order of appearance.
func (r *Responder) Keywords(query string) []string {
	if r.matcher == nil {
		return nil
	}
	var words []string
	for _, term := range r.matcher.MultiPatternSearch(normalizeRunes([]rune(query)), false) {
		words = append(words, string(term.Word))
	}
	return words
}

func (r *Responder) match(query string) (int, bool) {
	if r.matcher == nil {
		return 0, false
	}
	content := normalizeRunes([]rune(query))
	if len(content) == 0 {
		return 0, false
	}

	best := len(r.rules)
	for _, term := range r.matcher.MultiPatternSearch(content, false) {
		if idx, ok := r.ruleIndex[string(term.Word)]; ok && idx < best {
			best = idx
			if best == 0 {
				break
			}
		}
	}
	return best, best < len(r.rules)
}

// normalizeRunes lower-cases every rune. Spacing and punctuation are kept so
// that matching stays a plain substring test.
func normalizeRunes(input []rune) []rune {
	out := make([]rune, len(input))
	for i, r := range input {
		out[i] = unicode.ToLower(r)
	}
	return out
}
