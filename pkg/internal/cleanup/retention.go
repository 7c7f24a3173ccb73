package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/rshetty-99/marketvault/pkg/internal/catalog"
	"github.com/rshetty-99/marketvault/pkg/internal/model"
	"github.com/rshetty-99/marketvault/pkg/internal/policy"
)

// RetentionAction 保留策略对单条记录的处置.
type RetentionAction int

const (
	// ActionRetain 保留（法定义务豁免、共享/公共/系统类数据）.
	ActionRetain RetentionAction = iota
	// ActionDelete 删除（个人数据）.
	ActionDelete
	// ActionAnonymize 匿名化（业务数据）.
	ActionAnonymize
	// ActionWarn 记警告（分类或保留依据缺失，禁止隐式处置）.
	ActionWarn
)

// ActionFor 由 (classification, retentionBasis) 纯函数推导处置动作.
// 缺失任一字段是合规违规，返回 ActionWarn 而不是猜一个默认动作.
func ActionFor(class policy.Classification, basis policy.RetentionBasis) RetentionAction {
	if class == "" || basis == "" {
		return ActionWarn
	}

	// 法定义务豁免优先于分类
	if basis == policy.BasisLegalObligation {
		return ActionRetain
	}

	switch class {
	case policy.ClassPersonal:
		return ActionDelete
	case policy.ClassBusiness:
		return ActionAnonymize
	default:
		return ActionRetain
	}
}

// AnonymizeValue 身份字段的确定性不可逆占位符.
// 同一输入永远得到同一占位符，保证幂等与可去重.
func AnonymizeValue(v string) string {
	return fmt.Sprintf("anon-%016x", xxhash.Sum64String(v))
}

// runRetention 对每个配置了保留周期的文件类型执行处置.
// 未配置周期的类型永不过期，完全跳过.
func (e *Engine) runRetention(ctx context.Context, st *jobState) error {
	now := e.now().UTC()

	for fileType := range e.retention.PeriodsDays {
		period, ok := e.retention.PeriodFor(fileType)
		if !ok {
			continue
		}

		cutoff := now.Add(-period)
		if err := e.retainType(ctx, fileType, cutoff, st); err != nil {
			return err
		}
	}

	return nil
}

func (e *Engine) retainType(ctx context.Context, fileType string, cutoff time.Time, st *jobState) error {
	var expired []model.FileMetadata

	err := e.catalog.ForEach(ctx, catalog.ListFilter{
		FileType:      fileType,
		CreatedBefore: &cutoff,
	}, scanBatchSize, func(f model.FileMetadata) error {
		expired = append(expired, f)
		return nil
	})
	if err != nil {
		return err
	}

	st.found += len(expired)

	for i := range expired {
		e.applyRetention(ctx, &expired[i], st)
	}

	return nil
}

func (e *Engine) applyRetention(ctx context.Context, f *model.FileMetadata, st *jobState) {
	action := ActionFor(policy.Classification(f.Classification), policy.RetentionBasis(f.RetentionBasis))

	switch action {
	case ActionWarn:
		st.warnf("file %s (%s): missing classification or retention basis", f.ID, f.StorageKey)
	case ActionRetain:
		// 保留，无需动作
	case ActionDelete:
		e.deleteFile(ctx, f, st, "retention_policy")
	case ActionAnonymize:
		e.anonymize(ctx, f, st)
	}
}

// anonymize 以确定性占位符替换身份字段并转换保留依据.
// 已匿名化的记录是 no-op，重复运行保持幂等.
func (e *Engine) anonymize(ctx context.Context, f *model.FileMetadata, st *jobState) {
	if f.IsAnonymized {
		return
	}

	now := e.now().UTC()

	f.UploadedBy = AnonymizeValue(f.UploadedBy)
	f.FileName = AnonymizeValue(f.FileName)
	f.IsAnonymized = true
	f.AnonymizedAt = &now
	f.RetentionBasis = string(policy.BasisLegitimateInterest)
	f.UpdatedAt = now

	if err := e.catalog.UpdateFile(ctx, f); err != nil {
		st.errorf("anonymize %s: %v", f.ID, err)
		return
	}

	st.anonymized++
}
