package schema

// UserDeviceTable represents the 'users.userdevice' join table
type UserDeviceTable struct {
	Table     string
	UserID    string
	DeviceID  string
	CreatedAt string
}

// UserDevice is the schema definition for users.userdevice
var UserDevice = UserDeviceTable{
	Table:     "users.userdevice",
	UserID:    "userid",
	DeviceID:  "deviceid",
	CreatedAt: "createdat",
}

// Columns returns all standard column names
func (t UserDeviceTable) Columns() []string {
	return []string{t.UserID, t.DeviceID, t.CreatedAt}
}
