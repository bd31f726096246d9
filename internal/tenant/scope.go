package tenant

import "gorm.io/gorm"

// Scope restricts a query to one company. Mappings and payslips are
// never shared across tenants, so every repository query applies it.
func Scope(companyID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("company_id = ?", companyID)
	}
}
