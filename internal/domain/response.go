package domain

import (
	"strings"

	"github.com/bblibapp/bblib-server/internal/csvtext"
)

// Response is one row of the append-only response log: a vote or a comment
// somebody submitted for an inventory item.
//
// Timestamp is whatever string the sheet recorded; it is not guaranteed to
// parse. Log order, not Timestamp, is the authoritative ordering — the sheet
// appends rows chronologically, and derived state relies on that.
type Response struct {
	Email     string `json:"email"`
	ItemID    string `json:"item_id"`
	Choice    string `json:"choice"`
	Comment   string `json:"comment,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`

	Fields csvtext.Record `json:"-"`
}

var (
	respEmailKeys   = []string{"EMAIL", "email", "Email", "USER", "user"}
	respItemIDKeys  = []string{"ID", "id", "Id", "ITEM_ID", "item_id"}
	respChoiceKeys  = []string{"CHOICE", "choice", "VOTE", "vote", "THUMBS", "thumbs"}
	respCommentKeys = []string{"COMMENT", "comment", "NOTES", "notes"}
	respTSKeys      = []string{"TS", "ts", "TIMESTAMP", "timestamp", "DATE", "date"}
)

// NewResponse builds a Response from a decoded response-log row.
// The submitter email is lower-cased so identity comparison is exact.
func NewResponse(rec csvtext.Record) Response {
	return Response{
		Email:     strings.ToLower(pick(rec, respEmailKeys)),
		ItemID:    pick(rec, respItemIDKeys),
		Choice:    pick(rec, respChoiceKeys),
		Comment:   pick(rec, respCommentKeys),
		Timestamp: pick(rec, respTSKeys),
		Fields:    rec,
	}
}

// Role maps a user email to a role name from the optional login sheet.
type Role struct {
	Email string
	Role  string
}

var (
	roleEmailKeys = []string{"email", "EMAIL", "Email"}
	roleRoleKeys  = []string{"role", "ROLE", "Role"}
)

// RoleAdmin is the role name that grants access to the dashboard.
const RoleAdmin = "admin"

// NewRole builds a Role from a decoded login-sheet row. Email and role are
// lower-cased; a Role with an empty Email should be skipped by callers.
func NewRole(rec csvtext.Record) Role {
	return Role{
		Email: strings.ToLower(pick(rec, roleEmailKeys)),
		Role:  strings.ToLower(pick(rec, roleRoleKeys)),
	}
}
