package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"feecc-workbench/config"
)

type commandContext struct {
	configFlag string
	serverFlag string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		c.config, c.configErr = config.Load(strings.TrimSpace(c.configFlag))
	})
	return c.config, c.configErr
}

// serverURL 未指定 --server 时按配置端口访问本机
func (c *commandContext) serverURL() (string, error) {
	if s := strings.TrimSpace(c.serverFlag); s != "" {
		return strings.TrimRight(s, "/"), nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port), nil
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "workbenchctl",
		Short:         "Feecc 工位运维工具",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configFlag, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().StringVar(&ctx.serverFlag, "server", "", "工位服务地址，默认 http://127.0.0.1:<server.port>")

	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newSchemasCommand(ctx))
	rootCmd.AddCommand(newDeviceTokenCommand(ctx))

	return rootCmd
}
