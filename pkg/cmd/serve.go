package cmd

import (
	"github.com/spf13/cobra"

	"github.com/rshetty-99/marketvault/pkg/app"
)

var (
	configPath string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "start the storage API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.NewApp(configPath).Run()
		},
	}
)

// registerServeCommands 注册服务启动命令.
func registerServeCommands() {
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the config file")
	rootCmd.AddCommand(serveCmd)
}
