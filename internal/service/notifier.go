package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"feecc-workbench/internal/dto"
)

// StateMirror 工位快照的外部镜像（如 Redis 频道）
type StateMirror interface {
	PublishState(ctx context.Context, workbench int, payload []byte) error
}

// StateNotifier 工位快照广播
//
// 只保留最新快照，不积压历史：订阅者连接时立即收到当前快照，
// 之后每次变化收到最新的一份，处理慢的订阅者会跳过中间状态。
type StateNotifier struct {
	workbench int
	logger    *zap.Logger

	mu      sync.RWMutex
	latest  *dto.WorkbenchSnapshot
	changed chan struct{}

	mirror   StateMirror
	mirrorCh chan []byte
	stop     chan struct{}
	stopOnce sync.Once
}

// NewStateNotifier 创建快照广播器；mirror 为 nil 时不镜像
func NewStateNotifier(workbench int, mirror StateMirror, logger *zap.Logger) *StateNotifier {
	n := &StateNotifier{
		workbench: workbench,
		logger:    logger,
		changed:   make(chan struct{}),
		mirror:    mirror,
		stop:      make(chan struct{}),
	}
	if mirror != nil {
		n.mirrorCh = make(chan []byte, 1)
		go n.mirrorLoop()
	}
	return n
}

// Broadcast 发布新快照并唤醒所有订阅者，不阻塞
func (n *StateNotifier) Broadcast(snap *dto.WorkbenchSnapshot) {
	n.mu.Lock()
	n.latest = snap
	close(n.changed)
	n.changed = make(chan struct{})
	n.mu.Unlock()

	if n.mirrorCh != nil {
		payload, err := json.Marshal(snap)
		if err != nil {
			n.logger.Warn("序列化工位快照失败", zap.Error(err))
			return
		}
		offerLatest(n.mirrorCh, payload)
	}
}

// Latest 当前快照；尚未广播过时返回 nil
func (n *StateNotifier) Latest() *dto.WorkbenchSnapshot {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.latest
}

func (n *StateNotifier) current() (*dto.WorkbenchSnapshot, <-chan struct{}) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.latest, n.changed
}

// Subscribe 订阅快照流，ctx 结束时关闭返回的 channel
func (n *StateNotifier) Subscribe(ctx context.Context) <-chan *dto.WorkbenchSnapshot {
	out := make(chan *dto.WorkbenchSnapshot, 1)
	go func() {
		defer close(out)
		for {
			snap, changed := n.current()
			if snap != nil {
				offerLatest(out, snap)
			}
			select {
			case <-ctx.Done():
				return
			case <-n.stop:
				return
			case <-changed:
			}
		}
	}()
	return out
}

// offerLatest 向容量为 1 的 channel 写入，已有未读值时替换为新值
func offerLatest[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}

func (n *StateNotifier) mirrorLoop() {
	for {
		select {
		case <-n.stop:
			return
		case payload := <-n.mirrorCh:
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err := n.mirror.PublishState(ctx, n.workbench, payload); err != nil {
				n.logger.Warn("镜像工位快照失败", zap.Error(err))
			}
			cancel()
		}
	}
}

// Close 结束所有订阅与镜像
func (n *StateNotifier) Close() {
	n.stopOnce.Do(func() { close(n.stop) })
}
