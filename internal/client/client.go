// Package client 实现工位外部协作方的 HTTP 适配器：录像、内容寻址发布、区块链存证、短链接与标签打印。
//
// 所有请求都在 rfid-card-id 头中携带当前操作员卡号，并遵循调用方 context 的截止时间。
// 任何传输或协议错误都包装为 ErrExternalService。
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	pkgerrors "feecc-workbench/pkg/errors"
)

// CardHeader 操作员卡号请求头
const CardHeader = "rfid-card-id"

// HTTPDoer 适配器使用的 HTTP 客户端
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// base 各适配器共用的请求逻辑
type base struct {
	name    string
	baseURL string
	client  HTTPDoer
	logger  *zap.Logger
}

func newBase(name, baseURL string, timeout time.Duration, client HTTPDoer, logger *zap.Logger) base {
	if client == nil {
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return base{
		name:    name,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  client,
		logger:  logger.With(zap.String("client", name)),
	}
}

func (b *base) url(path string) string {
	return b.baseURL + path
}

func (b *base) newRequest(ctx context.Context, method, path, cardID string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, b.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("%w: 构建 %s 请求失败: %v", pkgerrors.ErrExternalService, b.name, err)
	}
	if cardID != "" {
		req.Header.Set(CardHeader, cardID)
	}
	return req, nil
}

// doJSON 发送请求并将 2xx 响应体解码到 out（out 为 nil 时丢弃）
func (b *base) doJSON(req *http.Request, out interface{}) error {
	start := time.Now()
	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s 请求失败: %v", pkgerrors.ErrExternalService, b.name, err)
	}
	defer resp.Body.Close()

	b.logger.Debug("外部服务响应",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: %s 返回 %d: %s", pkgerrors.ErrExternalService, b.name, resp.StatusCode, errorDetail(resp.Body))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: 解析 %s 响应失败: %v", pkgerrors.ErrExternalService, b.name, err)
	}
	return nil
}

// errorDetail 提取 {"detail": "..."} 形式的错误详情，否则返回原始文本
func errorDetail(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, 4096))
	var body struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Detail != "" {
		return body.Detail
	}
	return strings.TrimSpace(string(raw))
}
