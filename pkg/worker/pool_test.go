package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"feecc-workbench/config"
)

func TestPool_RunsAndDrainsTasks(t *testing.T) {
	p := NewPool(&config.WorkerConfig{Size: 2, QueueSize: 10, TaskTimeout: time.Second}, zap.NewNop())
	p.Start(context.Background())

	var n int32
	for i := 0; i < 5; i++ {
		if err := p.Submit("count", func(context.Context) error {
			atomic.AddInt32(&n, 1)
			return nil
		}); err != nil {
			t.Fatalf("Submit 失败: %v", err)
		}
	}

	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown 失败: %v", err)
	}
	if got := atomic.LoadInt32(&n); got != 5 {
		t.Errorf("期望执行 5 个任务，实际 %d", got)
	}
	if err := p.Submit("late", func(context.Context) error { return nil }); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("期望 ErrPoolClosed，实际: %v", err)
	}
}

func TestPool_RecoversPanicAndKeepsWorking(t *testing.T) {
	p := NewPool(&config.WorkerConfig{Size: 1, QueueSize: 4}, zap.NewNop())
	p.Start(context.Background())

	done := make(chan struct{})
	_ = p.Submit("panic", func(context.Context) error { panic("boom") })
	_ = p.Submit("after", func(context.Context) error { close(done); return nil })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("期望 panic 之后 worker 继续处理任务")
	}
	_ = p.Shutdown(context.Background())
}

func TestPool_TaskTimeout(t *testing.T) {
	p := NewPool(&config.WorkerConfig{Size: 1, QueueSize: 1, TaskTimeout: 20 * time.Millisecond}, zap.NewNop())
	p.Start(context.Background())

	result := make(chan error, 1)
	_ = p.Submit("slow", func(ctx context.Context) error {
		<-ctx.Done()
		result <- ctx.Err()
		return ctx.Err()
	})

	select {
	case err := <-result:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("期望 DeadlineExceeded，实际: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("期望任务超时被取消")
	}
	_ = p.Shutdown(context.Background())
}

func TestPool_QueueFull(t *testing.T) {
	p := NewPool(&config.WorkerConfig{Size: 1, QueueSize: 1}, zap.NewNop())
	// 未启动时没有消费者，第二个任务必然溢出
	if err := p.Submit("a", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("Submit 失败: %v", err)
	}
	if err := p.Submit("b", func(context.Context) error { return nil }); !errors.Is(err, ErrQueueFull) {
		t.Errorf("期望 ErrQueueFull，实际: %v", err)
	}
}
