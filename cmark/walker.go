package cmark

// Walker is a resumable pre/post-order traversal of a tree.
// Every node is reported twice, once entering and once exiting.
type Walker struct {
	current  *Node
	root     *Node
	entering bool
	types    *TypeTable
}

// NewWalker returns a walker positioned on root. A nil types uses the defaults.
func NewWalker(root *Node, types *TypeTable) *Walker {
	return &Walker{
		current:  root,
		root:     root,
		entering: true,
		types:    types,
	}
}

// Next returns the current event and advances. The returned node is nil
// once the traversal is over.
func (w *Walker) Next() (node *Node, entering bool) {
	node, entering = w.current, w.entering
	if node == nil {
		return nil, false
	}

	switch {
	case entering && w.types.IsContainer(node) && node.FirstChild != nil:
		w.current = node.FirstChild
		w.entering = true
	case entering:
		// Leaves and empty containers are exited right away
		w.entering = false
	case node == w.root:
		w.current = nil
	case node.NextSibling == nil:
		w.current = node.Parent
		w.entering = false
	default:
		w.current = node.NextSibling
		w.entering = true
	}

	return node, entering
}

// ResumeAt repositions the walker so that the next event is (node, entering).
func (w *Walker) ResumeAt(node *Node, entering bool) {
	w.current = node
	w.entering = entering
}

// WalkStatus tells Walk how to proceed after a callback.
type WalkStatus int

const (
	WalkContinue WalkStatus = iota
	WalkStop
)

// Walk visits every event of the tree rooted at root, until fn returns WalkStop.
func Walk(root *Node, types *TypeTable, fn func(n *Node, entering bool) WalkStatus) {
	w := NewWalker(root, types)
	for node, entering := w.Next(); node != nil; node, entering = w.Next() {
		if fn(node, entering) == WalkStop {
			return
		}
	}
}
