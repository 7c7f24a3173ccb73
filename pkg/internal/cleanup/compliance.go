package cleanup

import (
	"context"
	"fmt"

	"github.com/rshetty-99/marketvault/pkg/internal/catalog"
	"github.com/rshetty-99/marketvault/pkg/internal/model"
	"github.com/rshetty-99/marketvault/pkg/internal/policy"
	"github.com/rshetty-99/marketvault/pkg/internal/types"
	"github.com/rshetty-99/marketvault/pkg/queue"
	nlog "github.com/rshetty-99/marketvault/pkg/log"
)

// 合规规则名.
const (
	RuleMissingClassification = "missing_classification"
	RuleMissingBasis          = "missing_retention_basis"
	RuleExpiredRetention      = "expired_retention"
)

// 建议文本的违规密度阈值.
const (
	personalHeavyRatio = 0.5
	violationNoteRatio = 0.1
)

// ComplianceReport 扫描一组记录并生成违规报告.只读：生成过程
// 绝不修改任何记录，整改是独立的显式动作.
// ownerID/orgID 二选一缩小范围，都为空时全量扫描.
func (e *Engine) ComplianceReport(ctx context.Context, ownerID, orgID string) (types.ComplianceReport, error) {
	filter := catalog.ListFilter{
		OwnerID:        ownerID,
		OrganizationID: orgID,
	}

	report := types.ComplianceReport{
		GeneratedAt: e.now().UTC(),
		BySeverity:  map[string]int{},
	}

	now := e.now().UTC()

	var personal, anonymized int64

	err := e.catalog.ForEach(ctx, filter, scanBatchSize, func(f model.FileMetadata) error {
		report.FilesScanned++

		if policy.Classification(f.Classification) == policy.ClassPersonal {
			personal++
		}

		if f.IsAnonymized {
			anonymized++
		}

		if f.Classification == "" {
			report.Violations = append(report.Violations, types.ComplianceViolation{
				FileID:     f.ID,
				StorageKey: f.StorageKey,
				Rule:       RuleMissingClassification,
				Severity:   types.SeverityMedium,
				Detail:     "record has no data classification",
			})
		}

		if f.RetentionBasis == "" {
			report.Violations = append(report.Violations, types.ComplianceViolation{
				FileID:     f.ID,
				StorageKey: f.StorageKey,
				Rule:       RuleMissingBasis,
				Severity:   types.SeverityHigh,
				Detail:     "record has no retention basis",
			})
		}

		// 到期仍在库的记录是严重违规，法定义务豁免的记录同样要可见
		if f.ExpiresAt != nil && f.ExpiresAt.Before(now) {
			report.Violations = append(report.Violations, types.ComplianceViolation{
				FileID:     f.ID,
				StorageKey: f.StorageKey,
				Rule:       RuleExpiredRetention,
				Severity:   types.SeverityCritical,
				Detail:     fmt.Sprintf("retention expired at %s", f.ExpiresAt.UTC().Format("2006-01-02")),
			})
		}

		return nil
	})
	if err != nil {
		return types.ComplianceReport{}, err
	}

	for _, v := range report.Violations {
		report.BySeverity[v.Severity]++
	}

	report.Recommendations = recommendations(report, personal, anonymized)

	e.publishReported(ctx, &report)

	return report, nil
}

// recommendations 由违规密度与数据构成推导建议文本.
func recommendations(r types.ComplianceReport, personal, anonymized int64) []string {
	var recs []string

	if r.FilesScanned == 0 {
		return recs
	}

	if ratio := float64(personal) / float64(r.FilesScanned); ratio >= personalHeavyRatio {
		recs = append(recs, fmt.Sprintf(
			"%.0f%% of scanned files carry personal data; consider data minimization and shorter retention periods", ratio*100))
	}

	if n := r.BySeverity[types.SeverityCritical]; n > 0 {
		recs = append(recs, fmt.Sprintf(
			"%d records are past their retention expiry; run a retention_policy job to remediate", n))
	}

	if n := r.BySeverity[types.SeverityHigh] + r.BySeverity[types.SeverityMedium]; n > 0 {
		if float64(n)/float64(r.FilesScanned) >= violationNoteRatio {
			recs = append(recs, "a significant share of records lack classification or retention basis; enforce both fields at upload time")
		}
	}

	if anonymized > 0 {
		recs = append(recs, fmt.Sprintf("%d records are anonymized and retained under legitimate interest", anonymized))
	}

	return recs
}

func (e *Engine) publishReported(ctx context.Context, r *types.ComplianceReport) {
	if e.mq == nil || !e.events.Enabled || !e.events.Admin.ReportGenerated {
		return
	}

	msg, err := queue.NewWatermillMessage(queue.TopicComplianceReported, queue.ComplianceReportedPayload{
		GeneratedAt:  r.GeneratedAt,
		FilesScanned: r.FilesScanned,
		Violations:   len(r.Violations),
		BySeverity:   r.BySeverity,
	}, queue.WithProducer("marketvault"))
	if err != nil {
		return
	}

	if err := e.mq.Publish(ctx, queue.TopicComplianceReported, msg); err != nil {
		nlog.Logger().Warn().Err(err).Msg("publish compliance report failed")
	}
}
