package contracts

import "context"

// DataSource loads master data tables by dataset type.
// Types the source cannot deliver are left out of the result (absent, not an error).
// ⭐ SSOT: 데이터 소스 인터페이스
type DataSource interface {
	Name() string
	Load(ctx context.Context, types []string) (map[string]*Table, error)
}

// Corrector writes a field-level correction back to the system of record.
// Values are passed through unvalidated.
// ⭐ SSOT: 데이터 정정 인터페이스
type Corrector interface {
	SubmitCorrection(ctx context.Context, dataType, recordID string, fields map[string]any) error
}
