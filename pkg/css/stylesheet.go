package css

import (
	"fmt"
	"strings"
)

// Selector represents a CSS complex selector such as "g.layer > rect".
type Selector struct {
	Raw         string
	Parts       []SelectorPart
	Combinators []Combinator // Combinators[i] joins Parts[i] and Parts[i+1]
	Specificity int
}

// SelectorPart is one compound selector: tag, id and classes.
type SelectorPart struct {
	Element string
	ID      string
	Classes []string
}

type Combinator int

const (
	DescendantCombinator Combinator = iota
	ChildCombinator
)

// Rule represents a CSS rule (selector + declarations)
type Rule struct {
	Selector     Selector
	Declarations map[string]string
	Order        int // source position, breaks specificity ties
}

// Stylesheet represents a parsed CSS stylesheet
type Stylesheet struct {
	Rules []Rule
}

// ParseStylesheet parses CSS stylesheet content into rules. Malformed rules
// and unsupported selectors are skipped.
func ParseStylesheet(css string) *Stylesheet {
	stylesheet := &Stylesheet{}
	css = strings.TrimSpace(stripComments(css))
	if css == "" {
		return stylesheet
	}

	for _, ruleStr := range splitRules(css) {
		rules, err := parseRule(ruleStr)
		if err != nil {
			continue
		}
		for _, r := range rules {
			r.Order = len(stylesheet.Rules)
			stylesheet.Rules = append(stylesheet.Rules, r)
		}
	}
	return stylesheet
}

func stripComments(css string) string {
	var sb strings.Builder
	for {
		start := strings.Index(css, "/*")
		if start < 0 {
			sb.WriteString(css)
			return sb.String()
		}
		sb.WriteString(css[:start])
		end := strings.Index(css[start+2:], "*/")
		if end < 0 {
			return sb.String()
		}
		css = css[start+2+end+2:]
	}
}

// splitRules splits CSS into individual rules
func splitRules(css string) []string {
	rules := make([]string, 0)
	depth := 0
	start := 0

	for i, ch := range css {
		if ch == '{' {
			depth++
		} else if ch == '}' {
			depth--
			if depth < 0 {
				// Stray close brace: drop what precedes it.
				depth, start = 0, i+1
				continue
			}
			if depth == 0 {
				ruleStr := css[start : i+1]
				if strings.TrimSpace(ruleStr) != "" {
					rules = append(rules, ruleStr)
				}
				start = i + 1
			}
		}
	}
	return rules
}

// parseRule parses a single CSS rule; a selector list yields one rule per selector.
func parseRule(ruleStr string) ([]Rule, error) {
	bracePos := strings.Index(ruleStr, "{")
	if bracePos == -1 {
		return nil, fmt.Errorf("no opening brace found")
	}
	selectorStr := strings.TrimSpace(ruleStr[:bracePos])
	if strings.HasPrefix(selectorStr, "@") {
		return nil, fmt.Errorf("at-rule %q not supported", selectorStr)
	}

	declEnd := strings.LastIndex(ruleStr, "}")
	if declEnd == -1 {
		declEnd = len(ruleStr)
	}
	declarations := parseDeclarations(ruleStr[bracePos+1 : declEnd])

	var rules []Rule
	for _, raw := range strings.Split(selectorStr, ",") {
		sel, ok := parseSelector(raw)
		if !ok {
			continue
		}
		rules = append(rules, Rule{Selector: sel, Declarations: declarations})
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("no usable selector in %q", selectorStr)
	}
	return rules, nil
}

// ParseSelectorList parses a comma-separated selector list as used by
// querySelector. It fails if any selector is unsupported.
func ParseSelectorList(list string) ([]Selector, bool) {
	var out []Selector
	for _, raw := range strings.Split(list, ",") {
		sel, ok := parseSelector(raw)
		if !ok {
			return nil, false
		}
		out = append(out, sel)
	}
	return out, true
}

// parseSelector parses a complex selector made of compound parts joined by
// whitespace or '>'.
func parseSelector(raw string) (Selector, bool) {
	raw = strings.TrimSpace(raw)
	sel := Selector{Raw: raw}
	if raw == "" {
		return sel, false
	}
	tokens := strings.Fields(strings.ReplaceAll(raw, ">", " > "))
	if tokens[len(tokens)-1] == ">" {
		return sel, false
	}
	pending := DescendantCombinator
	for _, tok := range tokens {
		if tok == ">" {
			if len(sel.Parts) == 0 {
				return sel, false
			}
			pending = ChildCombinator
			continue
		}
		part, weight, ok := parsePart(tok)
		if !ok {
			return sel, false
		}
		if len(sel.Parts) > 0 {
			sel.Combinators = append(sel.Combinators, pending)
		}
		sel.Parts = append(sel.Parts, part)
		sel.Specificity += weight
		pending = DescendantCombinator
	}
	return sel, len(sel.Parts) > 0 && len(sel.Combinators) == len(sel.Parts)-1
}

func parsePart(tok string) (SelectorPart, int, bool) {
	var part SelectorPart
	if strings.ContainsAny(tok, ":[") {
		return part, 0, false
	}
	weight := 0
	i := 0
	readName := func() string {
		j := i
		for j < len(tok) && tok[j] != '.' && tok[j] != '#' {
			j++
		}
		name := tok[i:j]
		i = j
		return name
	}
	if tok[0] != '.' && tok[0] != '#' {
		part.Element = readName()
		if part.Element != "*" {
			weight++
		}
	}
	for i < len(tok) {
		kind := tok[i]
		i++
		name := readName()
		if name == "" {
			return part, 0, false
		}
		if kind == '#' {
			part.ID = name
			weight += 100
		} else {
			part.Classes = append(part.Classes, name)
			weight += 10
		}
	}
	return part, weight, true
}

// parseDeclarations parses CSS declarations into a map
func parseDeclarations(declStr string) map[string]string {
	declarations := make(map[string]string)

	for _, part := range strings.Split(declStr, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		colonPos := strings.Index(part, ":")
		if colonPos == -1 {
			continue
		}
		property := strings.ToLower(strings.TrimSpace(part[:colonPos]))
		value := strings.TrimSpace(part[colonPos+1:])
		value = strings.TrimSpace(strings.TrimSuffix(value, "!important"))
		if property != "" && value != "" {
			declarations[property] = value
		}
	}
	return declarations
}
