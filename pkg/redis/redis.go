package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"feecc-workbench/config"
)

// Client Redis 客户端封装
// 用于工位状态镜像（供看板等外部观察者订阅）与扫码事件限流；不可用时工位降级运行
type Client struct {
	rdb    *goredis.Client
	prefix string
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	prefix := cfg.ChannelPrefix
	if prefix == "" {
		prefix = "feecc"
	}
	return &Client{rdb: rdb, prefix: prefix, logger: logger}, nil
}

// NewFromClient 包装已有的 go-redis 客户端（测试使用）
func NewFromClient(rdb *goredis.Client, prefix string, logger *zap.Logger) *Client {
	return &Client{rdb: rdb, prefix: prefix, logger: logger}
}

// ── 工位状态镜像 ──

// StateChannel 工位状态频道名
func (c *Client) StateChannel(workbench int) string {
	return c.prefix + ":workbench:" + strconv.Itoa(workbench) + ":state"
}

// PublishState 发布工位快照，同时保存最新值供新订阅者读取
func (c *Client) PublishState(ctx context.Context, workbench int, payload []byte) error {
	channel := c.StateChannel(workbench)
	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, channel+":latest", payload, 0)
	pipe.Publish(ctx, channel, payload)
	_, err := pipe.Exec(ctx)
	return err
}

// LatestState 读取最近一次发布的工位快照
func (c *Client) LatestState(ctx context.Context, workbench int) ([]byte, error) {
	b, err := c.rdb.Get(ctx, c.StateChannel(workbench)+":latest").Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	return b, err
}

// SubscribeState 订阅工位快照，ctx 结束时关闭返回的通道
func (c *Client) SubscribeState(ctx context.Context, workbench int) (<-chan []byte, error) {
	sub := c.rdb.Subscribe(ctx, c.StateChannel(workbench))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("Redis 订阅失败: %w", err)
	}

	out := make(chan []byte, 1)
	go func() {
		defer close(out)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				select {
				case out <- []byte(m.Payload):
				default:
					// 只保留最新快照
					select {
					case <-out:
					default:
					}
					out <- []byte(m.Payload)
				}
			}
		}
	}()
	return out, nil
}

// ── 滑动窗口限流 ──

// CheckRateLimit 判断 key 在 window 内的请求数是否未超过 limit
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	fullKey := c.prefix + ":rate_limit:" + key
	member := strconv.FormatInt(now.UnixNano(), 10)

	pipe := c.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, fullKey, "0", strconv.FormatInt(now.Add(-window).UnixNano(), 10))
	pipe.ZAdd(ctx, fullKey, goredis.Z{Score: float64(now.UnixNano()), Member: member})
	count := pipe.ZCard(ctx, fullKey)
	pipe.Expire(ctx, fullKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return count.Val() <= int64(limit), nil
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
