package models

// CompanyModel is the persistence model for the company registry. Each company
// is a tenant of the portal; the short code feeds order number generation.
type CompanyModel struct {
	AggregateModel
	Name         string `gorm:"type:varchar(200);not null"`
	ShortCode    string `gorm:"type:varchar(20);not null;uniqueIndex"`
	Status       string `gorm:"type:varchar(20);not null;default:'active'"`
	ContactName  string `gorm:"type:varchar(100)"`
	ContactPhone string `gorm:"type:varchar(50)"`
	ContactEmail string `gorm:"type:varchar(200)"`
	Address      string `gorm:"type:text"`
	Notes        string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CompanyModel) TableName() string {
	return "companies"
}
