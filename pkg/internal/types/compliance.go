package types

import "time"

// 合规违规严重级别.
const (
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// ComplianceViolation 单条合规违规.
type ComplianceViolation struct {
	FileID     string `json:"file_id"`
	StorageKey string `json:"storage_key"`
	Rule       string `json:"rule"`
	Severity   string `json:"severity"`
	Detail     string `json:"detail"`
}

// ComplianceReport 合规检查报告.只读产物，生成过程不修改任何记录.
type ComplianceReport struct {
	GeneratedAt     time.Time             `json:"generated_at"`
	FilesScanned    int64                 `json:"files_scanned"`
	Violations      []ComplianceViolation `json:"violations"`
	BySeverity      map[string]int        `json:"by_severity"`
	Recommendations []string              `json:"recommendations"`
}
