package types

import (
	"time"

	"github.com/rshetty-99/marketvault/pkg/internal/model"
)

// QuotaSummary 所有者配额用量视图.
type QuotaSummary struct {
	OwnerID   string `json:"owner_id"`
	OwnerKind string `json:"owner_kind"`
	FileCount int64  `json:"file_count"`
	TotalSize int64  `json:"total_size"`
	// QuotaLimit 字节上限；UsedRatio = TotalSize/QuotaLimit，上限为 0 时记 0.
	QuotaLimit int64                      `json:"quota_limit"`
	UsedRatio  float64                    `json:"used_ratio"`
	Warning    bool                       `json:"warning"`
	ByType     map[string]model.TypeUsage `json:"by_type"`
	UpdatedAt  time.Time                  `json:"updated_at"`
}
