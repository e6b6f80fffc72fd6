package models

type BillerStatus string

const (
	BillerStatusActive   BillerStatus = "ACTIVE"
	BillerStatusInactive BillerStatus = "INACTIVE"
)

type BillerCategory string

const (
	BillerCategoryUtilities BillerCategory = "UTILITIES"
	BillerCategoryTelecom   BillerCategory = "TELECOM"
	BillerCategoryInsurance BillerCategory = "INSURANCE"
	BillerCategoryEducation BillerCategory = "EDUCATION"
	BillerCategoryOther     BillerCategory = "OTHER"
)

// Biller is an external payee represented internally as a BILLER pseudo-account
// that receives bill payments. The biller directory itself is administered
// elsewhere; this core reads status and the receiving account.
type Biller struct {
	ID                int64          `json:"id" db:"id"`
	BillerName        string         `json:"biller_name" db:"biller_name"`
	Category          BillerCategory `json:"category" db:"category"`
	Status            BillerStatus   `json:"status" db:"status"`
	LogoURL           string         `json:"logo_url,omitempty" db:"logo_url"`
	InternalAccountID int64          `json:"internal_account_id" db:"internal_account_id"`
}
