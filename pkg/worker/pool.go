// Package worker 提供受监管的后台任务池。
//
// 证书发布、区块链存证、标签打印等尽力而为的副作用都通过任务池执行：
// 每个任务有独立超时，panic 被捕获，失败写日志并交给任务自身回写可重试字段。
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"feecc-workbench/config"
)

var (
	ErrQueueFull  = errors.New("后台任务队列已满")
	ErrPoolClosed = errors.New("后台任务池已关闭")
)

// Task 后台任务
type Task func(ctx context.Context) error

type job struct {
	name string
	run  Task
}

// Pool 固定数量 worker 的任务池
type Pool struct {
	size    int
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
	jobs   chan job

	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group
}

// NewPool 创建任务池，调用 Start 后开始消费
func NewPool(cfg *config.WorkerConfig, logger *zap.Logger) *Pool {
	size := cfg.Size
	if size <= 0 {
		size = 1
	}
	queue := cfg.QueueSize
	if queue <= 0 {
		queue = 16
	}
	return &Pool{
		size:    size,
		timeout: cfg.TaskTimeout,
		logger:  logger,
		jobs:    make(chan job, queue),
	}
}

// Start 启动 worker
func (p *Pool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.group, _ = errgroup.WithContext(p.ctx)
	for i := 0; i < p.size; i++ {
		id := i
		p.group.Go(func() error {
			for j := range p.jobs {
				p.execute(id, j)
			}
			return nil
		})
	}
	p.logger.Info("后台任务池已启动", zap.Int("workers", p.size), zap.Int("queue", cap(p.jobs)))
}

// Submit 非阻塞提交任务；队列满或已关闭时返回错误
func (p *Pool) Submit(name string, task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.jobs <- job{name: name, run: task}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *Pool) execute(workerID int, j job) {
	ctx := p.ctx
	var cancel context.CancelFunc
	if p.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	err := safeRun(ctx, j.run)
	fields := []zap.Field{
		zap.String("task", j.name),
		zap.Int("worker", workerID),
		zap.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		p.logger.Warn("后台任务失败", append(fields, zap.Error(err))...)
		return
	}
	p.logger.Debug("后台任务完成", fields...)
}

func safeRun(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("任务 panic: %v", r)
		}
	}()
	return task(ctx)
}

// Shutdown 停止接收新任务并等待队列中的任务执行完毕；ctx 到期时取消仍在运行的任务
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	if p.group == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- p.group.Wait() }()

	select {
	case err := <-done:
		p.cancel()
		return err
	case <-ctx.Done():
		p.cancel()
		<-done
		return ctx.Err()
	}
}
