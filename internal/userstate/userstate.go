// Package userstate derives per-user activity from the response log.
package userstate

import (
	"strings"

	"github.com/bblibapp/bblib-server/internal/domain"
)

// State is the per-identity view of the response log: which items the user
// has already responded to and their latest comment per item.
//
// State is always recomputed from the full log; it is never stored or
// incrementally patched.
type State struct {
	VotedIDs      map[string]struct{}
	CommentByItem map[string]string
}

// Empty returns a state with no activity.
func Empty() State {
	return State{
		VotedIDs:      make(map[string]struct{}),
		CommentByItem: make(map[string]string),
	}
}

// HasVoted reports whether the identity has any response for the item.
func (s State) HasVoted(itemID string) bool {
	_, ok := s.VotedIDs[itemID]
	return ok
}

// Derive scans the response log for records belonging to identity and builds
// the user's state. With no identity (not signed in, or public mode) the
// result is empty regardless of the log.
//
// The scan runs in log order and later comments overwrite earlier ones for
// the same item, so "latest comment wins" holds exactly when the log is
// append-ordered by time. No timestamp comparison is attempted; out-of-order
// input yields whatever the final overwrite produces.
func Derive(responses []domain.Response, identity string) State {
	state := Empty()

	identity = strings.ToLower(strings.TrimSpace(identity))
	if identity == "" {
		return state
	}

	for _, r := range responses {
		if r.Email != identity {
			continue
		}
		if r.ItemID == "" {
			continue
		}
		state.VotedIDs[r.ItemID] = struct{}{}
		if c := strings.TrimSpace(r.Comment); c != "" {
			state.CommentByItem[r.ItemID] = c
		}
	}

	return state
}
