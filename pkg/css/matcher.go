package css

import (
	"strings"

	"svgtrav/pkg/dom"
)

// MatchesSelector returns true if the node matches the complex selector
func MatchesSelector(node *dom.Node, selector Selector) bool {
	if !isElement(node) || len(selector.Parts) == 0 {
		return false
	}
	// Start matching from the rightmost part (the target element)
	return matchesCompoundSelector(node, selector, len(selector.Parts)-1)
}

// matchesCompoundSelector checks if the node matches the selector at the given part index
// and all ancestor requirements
func matchesCompoundSelector(node *dom.Node, selector Selector, partIndex int) bool {
	if !matchesSelectorPart(node, selector.Parts[partIndex]) {
		return false
	}
	if partIndex == 0 {
		return true
	}

	switch selector.Combinators[partIndex-1] {
	case DescendantCombinator:
		for ancestor := node.Parent; isElement(ancestor); ancestor = ancestor.Parent {
			if matchesCompoundSelector(ancestor, selector, partIndex-1) {
				return true
			}
		}
	case ChildCombinator:
		if isElement(node.Parent) {
			return matchesCompoundSelector(node.Parent, selector, partIndex-1)
		}
	}
	return false
}

// matchesSelectorPart checks if a node matches a single selector part
func matchesSelectorPart(node *dom.Node, part SelectorPart) bool {
	if part.Element != "" && part.Element != "*" && node.TagName != part.Element {
		return false
	}
	if part.ID != "" && node.ID() != part.ID {
		return false
	}
	if len(part.Classes) > 0 {
		nodeClasses := strings.Fields(node.Attr("class"))
		for _, requiredClass := range part.Classes {
			found := false
			for _, nodeClass := range nodeClasses {
				if nodeClass == requiredClass {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

// FindMatchingRules returns all rules that match the given node
func FindMatchingRules(node *dom.Node, stylesheet *Stylesheet) []Rule {
	matches := make([]Rule, 0)
	for _, rule := range stylesheet.Rules {
		if MatchesSelector(node, rule.Selector) {
			matches = append(matches, rule)
		}
	}
	return matches
}
