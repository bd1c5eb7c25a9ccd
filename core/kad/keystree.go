package kad

import "sort"

// KeysTree is a binary trie over a fixed set of keys, indexed by MSB-first
// bits. Each inner node stores its subtree size, which lets a closest-keys
// query stop descending as soon as the subtree on the target's path can no
// longer satisfy the requested count. It exists to provide ground truth for
// scoring lookups; peers never see it.
type KeysTree struct {
	root *trieNode
}

type trieNode struct {
	children [2]*trieNode
	size     int
	key      *Key // non-nil on leaves
}

// NewKeysTree builds the trie over the given keys.
func NewKeysTree(keys []Key) *KeysTree {
	t := &KeysTree{}
	for i := range keys {
		t.root = insertNode(t.root, keys[i], 0)
	}
	return t
}

// Len returns the number of keys in the trie.
func (t *KeysTree) Len() int {
	return nodeSize(t.root)
}

// FindClosestKeys returns up to count keys minimizing XOR distance to
// target. It descends along target's bits while the next child's subtree
// still holds at least count keys; every key in that subtree shares a
// longer prefix with target than any key outside it, so the answer is
// exact.
func (t *KeysTree) FindClosestKeys(target Key, count int) []Key {
	if t.root == nil || count <= 0 {
		return nil
	}
	node, depth := t.root, 0
	for node.key == nil {
		child := node.children[target.Bit(depth)]
		if child == nil || child.size < count {
			break
		}
		node = child
		depth++
	}
	keys := make([]Key, 0, node.size)
	keys = collectLeaves(node, keys)
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Distance(target).Less(keys[j].Distance(target))
	})
	if len(keys) > count {
		keys = keys[:count]
	}
	return keys
}

func insertNode(n *trieNode, key Key, depth int) *trieNode {
	if n == nil {
		return &trieNode{size: 1, key: &key}
	}
	if n.key != nil {
		if n.key.Equal(key) {
			return n
		}
		// split: push the existing leaf one level down
		old := n.key
		n.key = nil
		n.children[old.Bit(depth)] = &trieNode{size: 1, key: old}
	}
	b := key.Bit(depth)
	n.children[b] = insertNode(n.children[b], key, depth+1)
	n.size = nodeSize(n.children[0]) + nodeSize(n.children[1])
	return n
}

func nodeSize(n *trieNode) int {
	if n == nil {
		return 0
	}
	return n.size
}

func collectLeaves(n *trieNode, out []Key) []Key {
	if n == nil {
		return out
	}
	if n.key != nil {
		return append(out, *n.key)
	}
	out = collectLeaves(n.children[0], out)
	return collectLeaves(n.children[1], out)
}
