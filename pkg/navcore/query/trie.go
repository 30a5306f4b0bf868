package query

import (
	"sort"
	"strings"
)

// trie is a simple prefix tree over uppercase identifiers, used by
// Engine.Search for autocomplete. It returns exact and prefix matches
// only; identifiers that contain the query elsewhere, and name matches,
// are not searched.
type trie struct {
	children map[byte]*trie
	terminal bool
	ids      []string // identifiers terminating here (handles collisions, though rare)
}

func newTrie() *trie {
	return &trie{children: make(map[byte]*trie)}
}

func (t *trie) insert(id string) {
	id = strings.ToUpper(id)
	n := t
	for i := 0; i < len(id); i++ {
		c := id[i]
		child, ok := n.children[c]
		if !ok {
			child = newTrie()
			n.children[c] = child
		}
		n = child
	}
	n.terminal = true
	n.ids = append(n.ids, id)
}

// search returns up to limit identifiers, exact matches first, then
// other identifiers under the prefix node in lexicographic order.
func (t *trie) search(prefix string, limit int) []string {
	n := t
	for i := 0; i < len(prefix); i++ {
		child, ok := n.children[prefix[i]]
		if !ok {
			return nil
		}
		n = child
	}

	var exact, rest []string
	var walk func(*trie)
	walk = func(node *trie) {
		if len(exact)+len(rest) >= limit {
			return
		}
		if node.terminal {
			for _, id := range node.ids {
				if id == prefix {
					exact = append(exact, id)
				} else {
					rest = append(rest, id)
				}
			}
		}
		keys := make([]byte, 0, len(node.children))
		for c := range node.children {
			keys = append(keys, c)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
		for _, c := range keys {
			walk(node.children[c])
		}
	}
	walk(n)

	out := append(exact, rest...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
