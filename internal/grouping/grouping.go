// Package grouping groups sticker keys by article.
package grouping

import (
	"fmt"
	"sort"
	"strings"
)

// Order selects how groups are ordered.
type Order string

const (
	// OrderFirstAppearance keeps articles in the order they are first seen.
	OrderFirstAppearance Order = "first-appearance"
	// OrderLexicographic sorts articles by their text, byte-wise.
	OrderLexicographic Order = "lexicographic"
)

// ParseOrder parses an Order name.
func ParseOrder(s string) (Order, error) {
	switch o := Order(strings.ToLower(strings.TrimSpace(s))); o {
	case OrderFirstAppearance, OrderLexicographic:
		return o, nil
	default:
		return "", fmt.Errorf("unknown group order %q (expected %s or %s)", s, OrderFirstAppearance, OrderLexicographic)
	}
}

// Assignment binds one key to an article.
type Assignment struct {
	Key     string
	Article string
}

// Group is an article with its distinct keys in first-appearance order.
type Group struct {
	Article string
	Keys    []string
}

// Count is the number of distinct keys in the group.
func (g Group) Count() int { return len(g.Keys) }

// Build groups assignments by article. Repeated (key, article) pairs are
// collapsed; a key assigned to two articles appears in both groups.
func Build(assignments []Assignment, order Order) []Group {
	var groups []Group
	index := make(map[string]int)
	seen := make(map[Assignment]bool)

	for _, a := range assignments {
		if seen[a] {
			continue
		}
		seen[a] = true

		i, ok := index[a.Article]
		if !ok {
			i = len(groups)
			index[a.Article] = i
			groups = append(groups, Group{Article: a.Article})
		}
		groups[i].Keys = append(groups[i].Keys, a.Key)
	}

	if order == OrderLexicographic {
		sort.SliceStable(groups, func(i, j int) bool {
			return groups[i].Article < groups[j].Article
		})
	}
	return groups
}
