package schema

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table            string
	ID               string
	Email            string
	Password         string
	FirstName        string
	LastName         string
	PhoneNumber      string
	Position         string
	Role             string
	Status           string
	PrimaryCompanyID string
	LastLoginAt      string
	CreatedAt        string
	UpdatedAt        string
	DeletedAt        string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:            "users.account",
	ID:               "id",
	Email:            "email",
	Password:         "passwordhash",
	FirstName:        "firstname",
	LastName:         "lastname",
	PhoneNumber:      "phonenumber",
	Position:         "position",
	Role:             "role",
	Status:           "status",
	PrimaryCompanyID: "primarycompanyid",
	LastLoginAt:      "lastloginat",
	CreatedAt:        "createdat",
	UpdatedAt:        "updatedat",
	DeletedAt:        "deletedat",
}

// Columns returns all standard column names
func (t UserAccountTable) Columns() []string {
	return []string{
		t.ID, t.Email, t.Password, t.FirstName, t.LastName, t.PhoneNumber, t.Position, t.Role, t.Status,
		t.PrimaryCompanyID, t.LastLoginAt, t.CreatedAt, t.UpdatedAt, t.DeletedAt,
	}
}
