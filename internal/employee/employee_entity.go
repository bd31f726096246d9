package employee

import (
	"time"

	"github.com/google/uuid"
)

// Employee is the directory record row-to-user resolution runs against.
// EmployeeCode is the identifier the HR export carries; UserID points at
// the account in the external auth system and may lag behind onboarding.
type Employee struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_employee_company_code"`
	EmployeeCode   string    `gorm:"type:varchar(50);not null;uniqueIndex:uq_employee_company_code"`
	DepartmentCode *string   `gorm:"type:varchar(50)"`
	UserID         *string   `gorm:"type:varchar(64);index"`
	FullName       string
	Email          *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
