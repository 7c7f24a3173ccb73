// Package main 启动应用程序
package main

import "github.com/rshetty-99/marketvault/pkg/cmd"

//	@title			MarketVault Storage API
//	@version		1.0
//	@description	MarketVault 是市场平台的分层对象存储管理服务，提供策略化放置、配额管理、预签名 URL 缓存以及清理与合规引擎。

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

func main() {
	if err := cmd.Execute(); err != nil {
		panic(err)
	}
}
