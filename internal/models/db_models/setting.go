package db_models

// Well-known setting keys. System keys are upserted, never deleted.
const (
	SettingCommissionPercent = "commission_percentage"
	SettingMinimumPayout     = "minimum_payout_amount"
	SettingIPNID             = "pesapal_ipn_id"
	SettingIPNURL            = "pesapal_ipn_url"
)

// Setting is an operator-tunable key/value pair. Absent keys fall back to a
// caller-supplied default at read time.
type Setting struct {
	BaseModel
	Key   string `gorm:"uniqueIndex"`
	Value string
}
