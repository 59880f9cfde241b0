package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/Statkern15/uaView/internal/opc"
)

// TreeNode is one node in the locally cached address space. Children is
// populated if and only if Loaded is true; Loaded flips false→true at
// most once per connection and only a full Reset reverts it.
type TreeNode struct {
	ID         opc.NodeID
	Label      string
	Loaded     bool
	Expandable bool
	Children   []*TreeNode
}

func (n *TreeNode) clone() *TreeNode {
	c := *n
	if len(n.Children) > 0 {
		c.Children = make([]*TreeNode, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.clone()
		}
	}
	return &c
}

// Cache owns the lazily discovered address-space tree. Expansion loads
// one level at a time; nothing is browsed eagerly.
type Cache struct {
	mu   sync.RWMutex
	root *TreeNode
}

func NewCache() *Cache {
	return &Cache{root: newRoot()}
}

func newRoot() *TreeNode {
	return &TreeNode{ID: opc.RootID, Label: "Address Space", Expandable: true}
}

// Reset discards the whole tree and restores a fresh unloaded root.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.root = newRoot()
}

// Snapshot returns a deep copy of the tree for rendering. A snapshot
// never observes a partially populated node: children are inserted and
// Loaded flipped under one lock.
func (c *Cache) Snapshot() *TreeNode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.root.clone()
}

// Node returns a copy of the node with the given id (children included),
// or nil if the id is not in the tree.
func (c *Cache) Node(id opc.NodeID) *TreeNode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if n := find(c.root, id); n != nil {
		return n.clone()
	}
	return nil
}

func find(n *TreeNode, id opc.NodeID) *TreeNode {
	if n.ID == id {
		return n
	}
	for _, child := range n.Children {
		if found := find(child, id); found != nil {
			return found
		}
	}
	return nil
}

// EnsureLoaded browses the node's immediate children on first call and
// is a no-op once the node is loaded. A failed browse leaves the node
// unloaded so a later expansion retries.
func (c *Cache) EnsureLoaded(ctx context.Context, client opc.Client, id opc.NodeID) error {
	c.mu.RLock()
	node := find(c.root, id)
	loaded := node != nil && node.Loaded
	c.mu.RUnlock()

	if node == nil {
		return fmt.Errorf("%w: node %s not in tree", ErrBrowseFailed, id)
	}
	if loaded {
		return nil
	}

	// Network call outside the lock; results applied atomically below.
	items, err := client.BrowseChildren(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBrowseFailed, id, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	node = find(c.root, id)
	if node == nil || node.Loaded {
		// Reset or a concurrent expansion won the race.
		return nil
	}
	if len(items) == 0 {
		node.Expandable = false
	}
	for _, item := range items {
		node.Children = append(node.Children, &TreeNode{
			ID:         item.ID,
			Label:      item.Label,
			Expandable: true,
		})
	}
	node.Loaded = true
	return nil
}
