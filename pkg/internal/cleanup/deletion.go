package cleanup

import (
	"context"
	"fmt"

	"github.com/rshetty-99/marketvault/pkg/internal/catalog"
	"github.com/rshetty-99/marketvault/pkg/internal/model"
	"github.com/rshetty-99/marketvault/pkg/internal/policy"
	"github.com/rshetty-99/marketvault/pkg/internal/types"
)

// collectTarget 取目标所有者的全部文件记录.
func (e *Engine) collectTarget(ctx context.Context, targetID string) ([]model.FileMetadata, error) {
	if targetID == "" {
		return nil, fmt.Errorf("target_id required")
	}

	var rows []model.FileMetadata

	err := e.catalog.ForEach(ctx, catalog.ListFilter{OwnerID: targetID}, scanBatchSize, func(f model.FileMetadata) error {
		rows = append(rows, f)
		return nil
	})

	return rows, err
}

// runUserDeletion 处理账号注销：个人数据删除；业务数据有组织上下文时
// 移交组织所有，否则匿名化保留；法定义务数据原样保留.
func (e *Engine) runUserDeletion(ctx context.Context, req types.CleanupRequest, st *jobState) error {
	rows, err := e.collectTarget(ctx, req.TargetID)
	if err != nil {
		return err
	}

	st.found = len(rows)

	for i := range rows {
		f := &rows[i]

		if policy.RetentionBasis(f.RetentionBasis) == policy.BasisLegalObligation {
			continue
		}

		switch policy.Classification(f.Classification) {
		case policy.ClassPersonal:
			e.deleteFile(ctx, f, st, "user_deletion")
		case policy.ClassBusiness:
			if f.OrganizationID != "" {
				e.transferToOrganization(ctx, f, st)
			} else {
				e.anonymize(ctx, f, st)
			}
		default:
			// 共享/公共/系统数据不属于个人，保留
		}
	}

	return nil
}

// runGDPRDeletion 被遗忘权：个人数据删除，业务数据匿名化，
// 法定义务数据保留并记警告（删不得，但要可见）.
func (e *Engine) runGDPRDeletion(ctx context.Context, req types.CleanupRequest, st *jobState) error {
	rows, err := e.collectTarget(ctx, req.TargetID)
	if err != nil {
		return err
	}

	st.found = len(rows)

	for i := range rows {
		f := &rows[i]

		if policy.RetentionBasis(f.RetentionBasis) == policy.BasisLegalObligation {
			st.warnf("file %s retained under legal obligation", f.ID)
			continue
		}

		switch policy.Classification(f.Classification) {
		case policy.ClassPersonal:
			e.deleteFile(ctx, f, st, "gdpr_deletion")
		default:
			e.anonymize(ctx, f, st)
		}
	}

	return nil
}

// transferToOrganization 把业务文件的所有权移交给其组织，
// 双方的配额汇总同步搬移.
func (e *Engine) transferToOrganization(ctx context.Context, f *model.FileMetadata, st *jobState) {
	prevOwner := f.OwnerID
	prevKind := f.OwnerKind

	f.OwnerID = f.OrganizationID
	f.OwnerKind = string(policy.OwnerOrganization)
	f.UpdatedAt = e.now().UTC()

	if err := e.catalog.UpdateFile(ctx, f); err != nil {
		st.errorf("transfer %s: %v", f.ID, err)
		return
	}

	if _, err := e.catalog.ApplySummaryDelta(ctx, catalog.SummaryDelta{
		OwnerID: prevOwner, OwnerKind: prevKind,
		FileType: f.FileType, Files: -1, Bytes: -f.Size,
	}); err != nil {
		st.warnf("summary delta for %s: %v", prevOwner, err)
	}

	if _, err := e.catalog.ApplySummaryDelta(ctx, catalog.SummaryDelta{
		OwnerID: f.OwnerID, OwnerKind: f.OwnerKind,
		FileType: f.FileType, Files: 1, Bytes: f.Size,
	}); err != nil {
		st.warnf("summary delta for %s: %v", f.OwnerID, err)
	}

	st.transferred++
}
