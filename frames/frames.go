// Package frames holds the immutable coordinate frame tree built from the
// bridge configuration. The tree is constructed once before any concurrent
// activity starts; all lookups afterwards are read-only and safe without
// synchronization.
package frames

import (
	"fmt"
	"sort"

	"github.com/c360/vizbridge/errors"
)

// Node is a single coordinate frame. The root frame has an empty Parent.
type Node struct {
	Name       string
	EntityPath string
	Parent     string
}

// Graph is the frame tree. It is immutable after Build returns.
type Graph struct {
	root  string
	nodes map[string]Node
}

// Tree is the nested configuration form of the frame tree: each key is a
// frame name whose value holds its children. Exactly one top-level key is
// expected; it becomes the root frame.
type Tree map[string]Tree

// Build constructs the frame graph from a nested tree. Entity paths are the
// concatenation of ancestor frame names from the root, separated by '/'.
// An empty tree yields an empty graph with no root.
func Build(tree Tree) (*Graph, error) {
	g := &Graph{nodes: make(map[string]Node)}
	if len(tree) == 0 {
		return g, nil
	}
	if len(tree) != 1 {
		return nil, errors.WrapInvalid(
			fmt.Errorf("tf tree must have exactly one root, got %d top-level frames", len(tree)),
			"frames", "Build", "root validation")
	}

	if err := g.add(tree, "", ""); err != nil {
		return nil, err
	}
	for name := range tree {
		g.root = name
	}
	return g, nil
}

// add walks the tree depth-first, assigning each frame an entity path built
// from its ancestors and recording parent linkage.
func (g *Graph) add(tree Tree, parentPath, parentFrame string) error {
	// Deterministic order keeps startup logs stable.
	names := make([]string, 0, len(tree))
	for name := range tree {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if name == "" {
			return errors.WrapInvalid(
				fmt.Errorf("empty frame name under %q", parentFrame),
				"frames", "Build", "frame name validation")
		}
		if _, exists := g.nodes[name]; exists {
			return errors.WrapInvalid(
				fmt.Errorf("duplicate frame %q", name),
				"frames", "Build", "frame name validation")
		}

		path := parentPath + "/" + name
		g.nodes[name] = Node{Name: name, EntityPath: path, Parent: parentFrame}

		if children := tree[name]; len(children) > 0 {
			if err := g.add(children, path, name); err != nil {
				return err
			}
		}
	}
	return nil
}

// Root returns the designated root frame name, or "" for an empty graph.
// Messages carrying a frame id are placed relative to this frame.
func (g *Graph) Root() string {
	return g.root
}

// Len returns the number of frames in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// EntityPath returns the sink entity path for a frame.
func (g *Graph) EntityPath(frame string) (string, bool) {
	node, ok := g.nodes[frame]
	if !ok {
		return "", false
	}
	return node.EntityPath, true
}

// Parent returns the parent frame name; the root frame and unknown frames
// return "".
func (g *Graph) Parent(frame string) string {
	return g.nodes[frame].Parent
}

// Contains reports whether the frame exists in the graph.
func (g *Graph) Contains(frame string) bool {
	_, ok := g.nodes[frame]
	return ok
}

// Nodes returns all frames in deterministic (name-sorted) order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.nodes))
	for _, node := range g.nodes {
		out = append(out, node)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// PathToRoot returns the chain of frame names from the given frame up to and
// including the root. Unknown frames yield an error.
func (g *Graph) PathToRoot(frame string) ([]string, error) {
	node, ok := g.nodes[frame]
	if !ok {
		return nil, errors.WrapInvalid(
			fmt.Errorf("frame %q: %w", frame, errors.ErrFrameNotFound),
			"frames", "PathToRoot", "frame lookup")
	}

	chain := []string{node.Name}
	for node.Parent != "" {
		node = g.nodes[node.Parent]
		chain = append(chain, node.Name)
	}
	return chain, nil
}
