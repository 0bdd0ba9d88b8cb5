// Package hierarchy models the caller tree (root, folders, jobs) and
// resolves vault configuration by walking it upward.
package hierarchy

import (
	"strings"

	"github.com/systmms/secretree/internal/config"
)

// Kind distinguishes the three node variants.
type Kind int

const (
	KindRoot Kind = iota
	KindFolder
	KindJob
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindFolder:
		return "folder"
	default:
		return "job"
	}
}

// Node is one position in the caller hierarchy. The tree is acyclic and
// finite-depth by construction; a node does not own its parent.
type Node interface {
	Kind() Kind
	Name() string

	// Path is the full slash-separated path from the root, "/" for the
	// root itself.
	Path() string

	// Parent returns the enclosing node, nil for the root.
	Parent() Node

	// Fragment returns the configuration declared at this node, nil
	// when the node declares none.
	Fragment() *config.Fragment

	// InheritEnabled reports whether configuration from above this node
	// may be consulted. Always true for the root.
	InheritEnabled() bool
}

// Root is the top of the tree and may carry a global fragment.
type Root struct {
	Global *config.Fragment
}

func (r *Root) Kind() Kind                 { return KindRoot }
func (r *Root) Name() string               { return "" }
func (r *Root) Path() string               { return "/" }
func (r *Root) Parent() Node               { return nil }
func (r *Root) Fragment() *config.Fragment { return r.Global }
func (r *Root) InheritEnabled() bool       { return true }

// Folder is an intermediate container.
type Folder struct {
	FolderName string
	Up         Node
	Config     *config.Fragment
	Inherit    bool
}

func (f *Folder) Kind() Kind                 { return KindFolder }
func (f *Folder) Name() string               { return f.FolderName }
func (f *Folder) Parent() Node               { return f.Up }
func (f *Folder) Fragment() *config.Fragment { return f.Config }
func (f *Folder) InheritEnabled() bool       { return f.Inherit }

func (f *Folder) Path() string {
	return childPath(f.Up, f.FolderName)
}

// Job is a leaf execution unit. It carries the identity of its immediate
// folder through Up.
type Job struct {
	JobName string
	Up      Node
	Config  *config.Fragment
	Inherit bool

	// BuildNumber is the numeric build identifier of the currently
	// running execution, 0 when not applicable.
	BuildNumber int
}

func (j *Job) Kind() Kind                 { return KindJob }
func (j *Job) Name() string               { return j.JobName }
func (j *Job) Parent() Node               { return j.Up }
func (j *Job) Fragment() *config.Fragment { return j.Config }
func (j *Job) InheritEnabled() bool       { return j.Inherit }

func (j *Job) Path() string {
	return childPath(j.Up, j.JobName)
}

func childPath(parent Node, name string) string {
	if parent == nil || parent.Path() == "/" {
		return "/" + name
	}
	return parent.Path() + "/" + name
}

// RootOf walks to the top of the tree.
func RootOf(n Node) Node {
	for n.Parent() != nil {
		n = n.Parent()
	}
	return n
}

// Tree indexes nodes by path for lookup.
type Tree struct {
	Root  *Root
	index map[string]Node
}

// NewTree builds a tree around a root node.
func NewTree(root *Root) *Tree {
	return &Tree{
		Root:  root,
		index: map[string]Node{"/": root},
	}
}

// Add indexes a node under its path.
func (t *Tree) Add(n Node) {
	t.index[n.Path()] = n
}

// Lookup finds a node by its full path.
func (t *Tree) Lookup(path string) (Node, bool) {
	if path == "" {
		path = "/"
	}
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	n, ok := t.index[path]
	return n, ok
}

// Paths returns every indexed path, root included.
func (t *Tree) Paths() []string {
	out := make([]string, 0, len(t.index))
	for p := range t.index {
		out = append(out, p)
	}
	return out
}
