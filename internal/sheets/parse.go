package sheets

import (
	"github.com/bblibapp/bblib-server/internal/csvtext"
	"github.com/bblibapp/bblib-server/internal/domain"
)

// Inventory is a decoded inventory sheet. Text holds the raw CSV so the
// snapshot cache can persist exactly what was fetched.
type Inventory struct {
	Text    string
	Columns []string
	Items   []domain.Item
}

// ResponseLog is a decoded response sheet, in sheet (append) order.
type ResponseLog struct {
	Text      string
	Responses []domain.Response
}

// RoleSet is a decoded roles sheet: lower-cased email to lower-cased role.
type RoleSet struct {
	Text  string
	Roles map[string]string
}

// ParseInventory decodes inventory CSV text. It is also used to rehydrate a
// cached copy, so it never fails: validation of the result (ID column, empty
// dataset) is the loader's job.
func ParseInventory(text string) Inventory {
	table := csvtext.Decode(text)
	items := make([]domain.Item, 0, len(table.Rows))
	for _, rec := range table.Rows {
		items = append(items, domain.NewItem(rec))
	}
	return Inventory{Text: text, Columns: table.Columns, Items: items}
}

// ParseResponses decodes response-log CSV text, preserving row order.
func ParseResponses(text string) ResponseLog {
	table := csvtext.Decode(text)
	responses := make([]domain.Response, 0, len(table.Rows))
	for _, rec := range table.Rows {
		responses = append(responses, domain.NewResponse(rec))
	}
	return ResponseLog{Text: text, Responses: responses}
}

// ParseRoles decodes roles CSV text. Rows without an email are dropped.
func ParseRoles(text string) RoleSet {
	table := csvtext.Decode(text)
	roles := make(map[string]string, len(table.Rows))
	for _, rec := range table.Rows {
		role := domain.NewRole(rec)
		if role.Email != "" {
			roles[role.Email] = role.Role
		}
	}
	return RoleSet{Text: text, Roles: roles}
}
