package cleanup

import (
	"context"

	"github.com/rshetty-99/marketvault/pkg/internal/catalog"
	"github.com/rshetty-99/marketvault/pkg/internal/model"
)

// scanBatchSize 清理任务单批扫描的记录数.
const scanBatchSize = 500

// runTempCleanup 删除超过最大存活时间的临时对象.
// 前缀谓词下推到目录查询，扫描范围只含 temp/ 命名空间.
// 单项失败记入错误清单但不中断其余删除.
func (e *Engine) runTempCleanup(ctx context.Context, st *jobState) error {
	cutoff := e.now().UTC().Add(-e.retention.TempMaxAge())

	var expired []model.FileMetadata

	err := e.catalog.ForEach(ctx, catalog.ListFilter{
		FileTypePrefix: "temp/",
		CreatedBefore:  &cutoff,
	}, scanBatchSize, func(f model.FileMetadata) error {
		expired = append(expired, f)

		return nil
	})
	if err != nil {
		return err
	}

	st.found = len(expired)

	for i := range expired {
		e.deleteFile(ctx, &expired[i], st, "temp_cleanup")
	}

	return nil
}
