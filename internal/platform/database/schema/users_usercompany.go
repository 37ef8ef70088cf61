package schema

// UserCompanyTable represents the 'users.usercompany' join table
//
// Position records the assignment order; the tenancy fallback chain depends
// on "first assigned company" being stable across reads.
type UserCompanyTable struct {
	Table     string
	UserID    string
	CompanyID string
	Position  string
	CreatedAt string
}

// UserCompany is the schema definition for users.usercompany
var UserCompany = UserCompanyTable{
	Table:     "users.usercompany",
	UserID:    "userid",
	CompanyID: "companyid",
	Position:  "position",
	CreatedAt: "createdat",
}

// Columns returns all standard column names
func (t UserCompanyTable) Columns() []string {
	return []string{t.UserID, t.CompanyID, t.Position, t.CreatedAt}
}
