package schema

// FleetDeviceTable represents the 'fleet.device' table
type FleetDeviceTable struct {
	Table        string
	ID           string
	Name         string
	SerialNumber string
	RegNumber    string
	Type         string
	MaxValue     string
	MinValue     string
	Precision    string
	Location     string
	Manufacturer string
	Price        string
	CompanyID    string
	ParentID     string
	CreatedAt    string
	UpdatedAt    string
	DeletedAt    string
}

// FleetDevice is the schema definition for fleet.device
var FleetDevice = FleetDeviceTable{
	Table:        "fleet.device",
	ID:           "id",
	Name:         "name",
	SerialNumber: "serialnumber",
	RegNumber:    "regnumber",
	Type:         "type",
	MaxValue:     "maxvalue",
	MinValue:     "minvalue",
	Precision:    "precision",
	Location:     "location",
	Manufacturer: "manufacturer",
	Price:        "price",
	CompanyID:    "companyid",
	ParentID:     "parentid",
	CreatedAt:    "createdat",
	UpdatedAt:    "updatedat",
	DeletedAt:    "deletedat",
}

// Columns returns all standard column names
func (t FleetDeviceTable) Columns() []string {
	return []string{
		t.ID, t.Name, t.SerialNumber, t.RegNumber, t.Type, t.MaxValue, t.MinValue, t.Precision,
		t.Location, t.Manufacturer, t.Price, t.CompanyID, t.ParentID,
		t.CreatedAt, t.UpdatedAt, t.DeletedAt,
	}
}
