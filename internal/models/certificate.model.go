package models

// VerificationRecord is the sidecar written next to a certificate under the
// record strategy.
type VerificationRecord struct {
	Name          string `json:"name"`
	Event         string `json:"event"`
	Date          string `json:"date"`
	CertificateID string `json:"certificateId"`
	Digest        string `json:"digest,omitempty"`
}

// Verification is the positive outcome of a verification check.
type Verification struct {
	CertificateID    string              `json:"certificateId"`
	Strategy         string              `json:"strategy"`
	Record           *VerificationRecord `json:"record,omitempty"`
	IntegrityChecked bool                `json:"integrityChecked"`
	Intact           bool                `json:"intact"`
}

type GenerateRequest struct {
	TemplatePath string
	RosterPath   string
	// BaseURL prefixes the verification reference when no fixed base is configured.
	BaseURL string
}

// RowMalformedWarning is the recoverable channel of a generation run.
type RowMalformedWarning struct {
	RowNumber int      `json:"rowNumber"`
	Raw       []string `json:"raw"`
}

type GenerationResult struct {
	RunID     string                `json:"runId"`
	Encoding  string                `json:"encoding"`
	Processed int                   `json:"processed"`
	Skipped   int                   `json:"skipped"`
	Warnings  []RowMalformedWarning `json:"warnings,omitempty"`
}
