package pathmatch

import "strings"

// node is a node in the segment trie.
type node struct {
	// segment is the pattern token this node was created for
	segment string

	// children are literal segment children
	children []*node

	// paramChildren are ":name" children, in registration order
	paramChildren []*node

	// wildcardChild is the "*" child
	wildcardChild *node

	// catchAllChild is the "**" child
	catchAllChild *node
}

func newNode(segment string) *node {
	return &node{segment: segment}
}

// findChild finds a literal child with an exact segment match.
func (n *node) findChild(segment string) *node {
	for _, child := range n.children {
		if child.segment == segment {
			return child
		}
	}
	return nil
}

// insertChild adds or retrieves the child for a pattern token.
func (n *node) insertChild(token string) *node {
	switch {
	case token == catchAllToken:
		if n.catchAllChild == nil {
			n.catchAllChild = newNode(token)
		}
		return n.catchAllChild

	case token == wildcardToken:
		if n.wildcardChild == nil {
			n.wildcardChild = newNode(token)
		}
		return n.wildcardChild

	case strings.HasPrefix(token, ":"):
		for _, child := range n.paramChildren {
			if child.segment == token {
				return child
			}
		}
		child := newNode(token)
		n.paramChildren = append(n.paramChildren, child)
		return child

	default:
		if child := n.findChild(token); child != nil {
			return child
		}
		child := newNode(token)
		n.children = append(n.children, child)
		return child
	}
}

// paramName returns the capture name of a ":name" node.
func (n *node) paramName() string {
	return strings.TrimPrefix(n.segment, ":")
}
