package schema

// FleetCompanyTable represents the 'fleet.company' table
type FleetCompanyTable struct {
	Table     string
	ID        string
	Name      string
	Slug      string
	Address   string
	PinCode   string
	Status    string
	CreatedAt string
	UpdatedAt string
	DeletedAt string
}

// FleetCompany is the schema definition for fleet.company
var FleetCompany = FleetCompanyTable{
	Table:     "fleet.company",
	ID:        "id",
	Name:      "name",
	Slug:      "slug",
	Address:   "address",
	PinCode:   "pincode",
	Status:    "status",
	CreatedAt: "createdat",
	UpdatedAt: "updatedat",
	DeletedAt: "deletedat",
}

// Columns returns all standard column names
func (t FleetCompanyTable) Columns() []string {
	return []string{t.ID, t.Name, t.Slug, t.Address, t.PinCode, t.Status, t.CreatedAt, t.UpdatedAt, t.DeletedAt}
}
