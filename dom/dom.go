// Package dom builds a tolerant, navigable node tree from raw HTML.
//
// The tree is built once per document from the streaming tokenizer and is
// immutable afterwards. Malformed markup never fails the build: unbalanced
// close tags are ignored and the partial tree is kept. Extractors downstream
// accept a nil tree and return empty results.
package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Node is a single element in the document tree. Children are exclusively
// owned by their parent; Parent is a lookup aid only.
type Node struct {
	Tag      string // lower-cased tag name
	Attrs    map[string]string
	Children []*Node
	Parent   *Node

	textParts []string
}

// Tree is a parsed document rooted at a synthetic node.
type Tree struct {
	Root  *Node
	byTag map[string][]*Node
}

// Build parses raw HTML into a Tree. It never returns an error: tokenizer
// failures end the walk and the tree built so far is returned.
func Build(rawHTML string) *Tree {
	root := &Node{Tag: "_root", Attrs: map[string]string{}}
	tree := &Tree{Root: root, byTag: map[string][]*Node{}}
	stack := []*Node{root}

	z := html.NewTokenizer(strings.NewReader(rawHTML))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return tree

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			attrs := map[string]string{}
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				attrs[strings.ToLower(string(key))] = string(val)
			}
			parent := stack[len(stack)-1]
			node := &Node{
				Tag:    strings.ToLower(string(name)),
				Attrs:  attrs,
				Parent: parent,
			}
			parent.Children = append(parent.Children, node)
			tree.byTag[node.Tag] = append(tree.byTag[node.Tag], node)
			if tt == html.StartTagToken {
				stack = append(stack, node)
			}

		case html.EndTagToken:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}

		case html.TextToken:
			if text := string(z.Text()); text != "" {
				top := stack[len(stack)-1]
				top.textParts = append(top.textParts, text)
			}
		}
	}
}

// ByTag returns every node with the given tag name in document order.
func (t *Tree) ByTag(tag string) []*Node {
	if t == nil {
		return nil
	}
	return t.byTag[strings.ToLower(tag)]
}

// Descendants visits every descendant of n in document order. If tags is
// non-nil, only nodes whose tag is in the set are visited. The walk stops
// when visit returns false.
func (n *Node) Descendants(tags map[string]bool, visit func(*Node) bool) {
	n.walk(tags, visit)
}

func (n *Node) walk(tags map[string]bool, visit func(*Node) bool) bool {
	for _, child := range n.Children {
		if tags == nil || tags[child.Tag] {
			if !visit(child) {
				return false
			}
		}
		if !child.walk(tags, visit) {
			return false
		}
	}
	return true
}

// CollectDescendants returns every descendant matching the tag set in
// document order.
func (n *Node) CollectDescendants(tags map[string]bool) []*Node {
	var out []*Node
	n.Descendants(tags, func(d *Node) bool {
		out = append(out, d)
		return true
	})
	return out
}

// Ancestor returns the nearest ancestor whose tag is in the set, or nil.
func (n *Node) Ancestor(tags map[string]bool) *Node {
	for current := n.Parent; current != nil; current = current.Parent {
		if tags[current.Tag] {
			return current
		}
	}
	return nil
}

// Text concatenates all text fragments beneath n, collapses consecutive
// whitespace, and trims the result.
func (n *Node) Text() string {
	var parts []string
	var collect func(*Node)
	collect = func(node *Node) {
		parts = append(parts, node.textParts...)
		for _, child := range node.Children {
			collect(child)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// Attr returns the named attribute, or "" when absent.
func (n *Node) Attr(name string) string {
	return n.Attrs[name]
}
