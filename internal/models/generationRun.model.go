package models

const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// GenerationRun is the bookkeeping for one generate invocation.
type GenerationRun struct {
	BaseUUIDModel
	TemplateName string       `gorm:"type:varchar(255);not null" json:"templateName"`
	RosterName   string       `gorm:"type:varchar(255);not null" json:"rosterName"`
	Encoding     string       `gorm:"type:varchar(32)"           json:"encoding"`
	Processed    int          `gorm:"not null;default:0"         json:"processed"`
	Skipped      int          `gorm:"not null;default:0"         json:"skipped"`
	Status       string       `gorm:"type:varchar(20);not null"  json:"status"` // 'running', 'completed', 'failed'
	DurationMs   *int         `gorm:"type:int"                   json:"durationMs"`
	ErrorMessage *string      `gorm:"type:text"                  json:"errorMessage,omitempty"`
	SkippedRows  []SkippedRow `gorm:"foreignKey:RunID"           json:"skippedRows,omitempty"`
}

// SkippedRow keeps a malformed roster row with its original row number.
type SkippedRow struct {
	BaseModel
	RunID     string `gorm:"type:varchar(64);not null;index" json:"runId"`
	RowNumber int    `gorm:"not null"                        json:"rowNumber"`
	Raw       string `gorm:"type:text"                       json:"raw"`
}
