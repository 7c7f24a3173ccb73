package service

import (
	"context"
	"time"

	"github.com/rshetty-99/marketvault/pkg/internal/catalog"
	"github.com/rshetty-99/marketvault/pkg/internal/policy"
	nlog "github.com/rshetty-99/marketvault/pkg/log"
)

const (
	// preloadLimit 单次预热的文件数上限.
	preloadLimit = 50
	// preloadTimeout 后台预热的总时限.
	preloadTimeout = 30 * time.Second
)

// PreloadHotURLs 异步预热所有者热层文件的下载 URL.
// 即发即忘：失败只记日志，调用方不等待结果.
func (s *StorageService) PreloadHotURLs(ownerID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), preloadTimeout)
		defer cancel()

		warmed, err := s.preloadHot(ctx, ownerID)
		if err != nil {
			nlog.Logger().Debug().Err(err).Str("owner", ownerID).Msg("preload hot urls failed")
			return
		}

		if warmed > 0 {
			nlog.Logger().Debug().Str("owner", ownerID).Int("warmed", warmed).Msg("hot urls preloaded")
		}
	}()
}

func (s *StorageService) preloadHot(ctx context.Context, ownerID string) (int, error) {
	rows, _, _, err := s.catalog.ListPage(ctx, catalog.ListFilter{
		OwnerID:       ownerID,
		AccessPattern: string(policy.AccessHot),
	}, 1, preloadLimit)
	if err != nil {
		return 0, err
	}

	warmed := 0

	for i := range rows {
		if _, ok := s.urls.Get(ctx, rows[i].StorageKey, ""); ok {
			continue
		}

		if u := s.presignAndCache(ctx, rows[i].StorageKey, "", nil); u != "" {
			warmed++
		}
	}

	return warmed, nil
}
