package payslip

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Item is one payslip line: the semantic snapshot taken at ingestion
// time. Value is a number for monetary/count fields and a string for
// identifier or free-text fields (and for values that failed numeric
// coercion, which keep their original text rather than becoming zero).
type Item struct {
	Name      string `json:"name"`
	Category  string `json:"category"`
	Value     any    `json:"value"`
	IsVisible bool   `json:"isVisible"`
}

// ItemMap is keyed by the raw header code, never by column position.
type ItemMap map[string]Item

func (m ItemMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *ItemMap) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	case nil:
		*m = ItemMap{}
		return nil
	default:
		return errors.New("unsupported type for ItemMap")
	}
}

// NumericValue reports the item's value as a number, false when the
// stored value is a string.
func (i Item) NumericValue() (float64, bool) {
	switch v := i.Value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Payslip is one ingested row's materialized result: one record per
// (employee, payment date, upload batch). Immutable after creation
// except for the audited user-id backfill.
type Payslip struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID      uuid.UUID `gorm:"type:uuid;not null;index:idx_payslip_company_upload"`
	EmployeeID     string    `gorm:"type:varchar(50);not null;index"` // employee code from the export
	UserID         *string   `gorm:"type:varchar(64);index"`
	DepartmentCode *string   `gorm:"type:varchar(50)"`
	UploadID       string    `gorm:"type:varchar(64);not null;index:idx_payslip_company_upload"`
	PaymentDate    time.Time `gorm:"type:date;not null;index"`
	PayslipKind    string    `gorm:"type:varchar(20);not null;default:'regular'"`
	Items          ItemMap   `gorm:"type:jsonb;not null"`

	// Derived, recomputed on every ingestion, never edited by hand.
	TotalIncome    float64 `gorm:"type:numeric(14,2);not null;default:0"`
	TotalDeduction float64 `gorm:"type:numeric(14,2);not null;default:0"`
	NetAmount      float64 `gorm:"type:numeric(14,2);not null;default:0"`

	CreatedAt time.Time
}

func (Payslip) TableName() string {
	return "payslips"
}
