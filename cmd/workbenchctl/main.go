// workbenchctl 工位运维命令行：查看工位状态、生产方案，签发扫码设备令牌
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
