package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MessageLevel 操作员通知级别
type MessageLevel string

const (
	LevelDefault MessageLevel = "default"
	LevelInfo    MessageLevel = "info"
	LevelWarning MessageLevel = "warning"
	LevelSuccess MessageLevel = "success"
	LevelError   MessageLevel = "error"
)

// ParseMessageLevel 解析通知级别，未知值视为 default
func ParseMessageLevel(s string) MessageLevel {
	switch l := MessageLevel(s); l {
	case LevelInfo, LevelWarning, LevelSuccess, LevelError:
		return l
	default:
		return LevelDefault
	}
}

// Message 操作员通知
type Message struct {
	Level     MessageLevel
	Text      string
	CreatedAt time.Time
}

const messengerBuffer = 16

// Messenger 向工位前端推送操作员通知
// 每个订阅者有独立缓冲，缓冲写满的订阅者视为已断开并被移除
type Messenger struct {
	mu     sync.Mutex
	subs   map[chan Message]struct{}
	logger *zap.Logger
}

// NewMessenger 创建通知推送器
func NewMessenger(logger *zap.Logger) *Messenger {
	return &Messenger{
		subs:   make(map[chan Message]struct{}),
		logger: logger,
	}
}

// Push 推送通知
func (m *Messenger) Push(level MessageLevel, text string) {
	msg := Message{Level: level, Text: text, CreatedAt: time.Now()}

	m.mu.Lock()
	defer m.mu.Unlock()
	for ch := range m.subs {
		select {
		case ch <- msg:
		default:
			m.logger.Warn("通知订阅者缓冲已满，移除订阅")
			delete(m.subs, ch)
			close(ch)
		}
	}
}

func (m *Messenger) Info(text string)    { m.Push(LevelInfo, text) }
func (m *Messenger) Warning(text string) { m.Push(LevelWarning, text) }
func (m *Messenger) Success(text string) { m.Push(LevelSuccess, text) }
func (m *Messenger) Error(text string)   { m.Push(LevelError, text) }

// Subscribe 订阅通知，ctx 结束或订阅被移除时关闭返回的 channel
func (m *Messenger) Subscribe(ctx context.Context) <-chan Message {
	ch := make(chan Message, messengerBuffer)
	m.mu.Lock()
	m.subs[ch] = struct{}{}
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.subs[ch]; ok {
			delete(m.subs, ch)
			close(ch)
		}
	}()
	return ch
}

// Subscribers 当前订阅者数量
func (m *Messenger) Subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}
