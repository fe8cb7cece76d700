package instance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrAlreadyRunning 同一工位已有进程持有锁
var ErrAlreadyRunning = errors.New("该工位已有实例在运行")

// Lock 工位单实例文件锁
// 一个工位编号只允许一个进程驱动状态机
type Lock struct {
	path string
	fl   *flock.Flock
}

// Acquire 尝试获取工位锁，不阻塞
func Acquire(dir string, workbench int) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建锁目录失败: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("workbench-%d.lock", workbench))
	fl := flock.New(path)

	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("获取工位锁失败: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRunning, path)
	}
	return &Lock{path: path, fl: fl}, nil
}

// Path 锁文件路径
func (l *Lock) Path() string { return l.path }

// Release 释放工位锁
func (l *Lock) Release() error {
	return l.fl.Unlock()
}
