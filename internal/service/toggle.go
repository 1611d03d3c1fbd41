package service

import (
	"context"
	"fmt"

	"github.com/d60-Lab/feedcore/internal/docstore"
)

// ToggleRef names one membership flip: the parent document, the target
// set field, the acting participant, and an optional mutually-exclusive
// sibling set the participant must leave first.
type ToggleRef struct {
	Parent        string
	Set           string
	Participant   string
	ExclusiveWith string
}

// ToggleEngine flips participant membership in array-valued document
// fields. Likes/dislikes, saved posts, community membership and follow
// edges all reduce to the same shape.
//
// Writes go through the store's atomic set primitives rather than a
// read-modify-write merge, so two racing toggles on the same field
// converge instead of clobbering each other. The pre-read only decides
// the direction of the flip.
type ToggleEngine struct {
	store docstore.Store
}

func NewToggleEngine(store docstore.Store) *ToggleEngine {
	return &ToggleEngine{store: store}
}

// Toggle flips membership and reports the new state: true when the
// participant was added, false when removed. Fails with
// docstore.ErrNotFound when the parent document does not exist and
// ErrInvalidArgument on an empty participant or set name.
func (e *ToggleEngine) Toggle(ctx context.Context, ref ToggleRef) (bool, error) {
	if ref.Participant == "" {
		return false, fmt.Errorf("%w: empty participant", ErrInvalidArgument)
	}
	if ref.Set == "" {
		return false, fmt.Errorf("%w: empty set name", ErrInvalidArgument)
	}

	doc, err := e.store.Get(ctx, ref.Parent)
	if err != nil {
		return false, err
	}

	if ref.ExclusiveWith != "" && doc.Contains(ref.ExclusiveWith, ref.Participant) {
		if err := e.store.RemoveFromSet(ctx, ref.Parent, ref.ExclusiveWith, ref.Participant); err != nil {
			return false, err
		}
	}

	if doc.Contains(ref.Set, ref.Participant) {
		if err := e.store.RemoveFromSet(ctx, ref.Parent, ref.Set, ref.Participant); err != nil {
			return false, err
		}
		return false, nil
	}
	if err := e.store.AddToSet(ctx, ref.Parent, ref.Set, ref.Participant); err != nil {
		return false, err
	}
	return true, nil
}
