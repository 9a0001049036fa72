package comments

import (
	"sort"

	"github.com/lineup-social/backend/internal/errors"
	"github.com/lineup-social/backend/internal/models"
)

// MaxDepth is the deepest a comment can sit: roots are depth 0, replies go
// down to depth 2 before creation is rejected.
const MaxDepth = 3

// Node is one comment in the reply tree. The tree is a read-only projection
// built per request over the flat comment arena; nodes reference each other
// by index, never by owning pointers into the input slice.
type Node struct {
	models.Comment
	Replies []*Node `json:"replies"`
}

// BuildTree converts a flat comment list into a nested reply tree. Roots keep
// their ascending created_at order, every replies list is sorted ascending,
// and a comment whose parent is missing from the input (deleted parent) is
// dropped rather than promoted to root. A duplicate comment id is a
// structural violation and rejects the whole input.
func BuildTree(flat []models.Comment) ([]*Node, error) {
	index := make(map[string]*Node, len(flat))
	for i := range flat {
		comment := flat[i]
		if _, dup := index[comment.ID]; dup {
			return nil, errors.ValidationError("id", "duplicate comment id "+comment.ID)
		}
		index[comment.ID] = &Node{Comment: comment, Replies: []*Node{}}
	}

	roots := make([]*Node, 0, len(flat))
	for i := range flat {
		node := index[flat[i].ID]
		if node.ParentID == nil || *node.ParentID == "" {
			roots = append(roots, node)
			continue
		}
		parent, ok := index[*node.ParentID]
		if !ok {
			// Orphaned reply: parent was deleted. Drop it.
			continue
		}
		parent.Replies = append(parent.Replies, node)
	}

	// The gateway returns rows ascending already; the sort is re-applied
	// in case the rows arrive out of order.
	sortByCreatedAt(roots)
	for _, node := range index {
		sortByCreatedAt(node.Replies)
	}

	return roots, nil
}

func sortByCreatedAt(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].CreatedAt.Before(nodes[j].CreatedAt)
	})
}
