package service

import (
	"context"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rshetty-99/marketvault/pkg/internal/types"
)

const (
	// batchUploadGroup 批量上传的并发分组大小.
	batchUploadGroup = 5
	// batchGroupPause 分组之间的间歇，平滑后端压力.
	batchGroupPause = 200 * time.Millisecond
)

// BatchItem 批量上传中的一项：请求加内容.
type BatchItem struct {
	Req  types.UploadRequest
	Body io.Reader
}

// BatchUpload 按 5 个一组并发上传，组间停顿.单项失败只记录进 Failed，
// 不中断其余项.
func (s *StorageService) BatchUpload(ctx context.Context, items []BatchItem) types.BatchUploadResult {
	start := s.now()

	var (
		mu     sync.Mutex
		result types.BatchUploadResult
	)

	result.Succeeded = make([]types.UploadResult, 0, len(items))

	for offset := 0; offset < len(items); offset += batchUploadGroup {
		end := offset + batchUploadGroup
		if end > len(items) {
			end = len(items)
		}

		g, gctx := errgroup.WithContext(ctx)

		for _, item := range items[offset:end] {
			g.Go(func() error {
				res, err := s.Upload(gctx, item.Req, item.Body)

				mu.Lock()
				defer mu.Unlock()

				if err != nil {
					result.Failed = append(result.Failed, types.BatchFailure{
						Ref:   item.Req.FileName,
						Error: err.Error(),
					})

					// 失败不向上传播，保持其余项继续
					return nil
				}

				result.Succeeded = append(result.Succeeded, res)

				return nil
			})
		}

		_ = g.Wait()

		if end < len(items) {
			select {
			case <-ctx.Done():
				// 上下文取消后剩余项全部记失败
				for _, item := range items[end:] {
					result.Failed = append(result.Failed, types.BatchFailure{
						Ref:   item.Req.FileName,
						Error: ctx.Err().Error(),
					})
				}

				return s.finishBatch(result, start)
			case <-time.After(batchGroupPause):
			}
		}
	}

	return s.finishBatch(result, start)
}

func (s *StorageService) finishBatch(result types.BatchUploadResult, start time.Time) types.BatchUploadResult {
	elapsed := s.now().Sub(start)
	result.TotalTimeMs = elapsed.Milliseconds()

	var total int64
	for _, r := range result.Succeeded {
		total += r.Size
	}

	if ms := elapsed.Milliseconds(); ms > 0 {
		result.AvgThroughputKBps = float64(total) / 1024 / (float64(ms) / 1000)
	}

	return result
}
