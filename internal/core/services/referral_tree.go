package services

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mainford/internal/core/domain"
)

// BuildReferralTree turns the flat descendant list into a nested tree
// under root. Two passes: wrap every record into a node keyed by id,
// then link each non-root node to its parent. A node whose parent id is
// absent from the map is dropped from the tree; that is a deliberate
// policy for inconsistent referral data, so it is logged rather than
// treated as an error.
func BuildReferralTree(root domain.ReferralRecord, descendants []domain.ReferralRecord, log zerolog.Logger) *domain.ReferralNode {
	nodes := make(map[uuid.UUID]*domain.ReferralNode, len(descendants)+1)

	rootNode := &domain.ReferralNode{ReferralRecord: root, Children: []*domain.ReferralNode{}}
	nodes[root.ID] = rootNode

	for _, rec := range descendants {
		nodes[rec.ID] = &domain.ReferralNode{ReferralRecord: rec, Children: []*domain.ReferralNode{}}
	}

	for _, rec := range descendants {
		if rec.ReferredBy == nil {
			log.Warn().Str("user_id", rec.ID.String()).Msg("Descendant without parent pointer dropped from referral tree")
			continue
		}
		parent, ok := nodes[*rec.ReferredBy]
		if !ok {
			log.Warn().
				Str("user_id", rec.ID.String()).
				Str("parent_id", rec.ReferredBy.String()).
				Msg("Orphaned referral record dropped from tree")
			continue
		}
		parent.Children = append(parent.Children, nodes[rec.ID])
	}

	return rootNode
}
