package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"feecc-workbench/config"
	pkgerrors "feecc-workbench/pkg/errors"
)

// Yourls 短链接服务适配器
type Yourls struct {
	base
	server   string
	username string
	password string
}

// NewYourls 创建短链接适配器；未启用时返回 nil
func NewYourls(cfg *config.YourlsConfig, httpClient HTTPDoer, logger *zap.Logger) *Yourls {
	if !cfg.Enable {
		return nil
	}
	server := strings.TrimRight(strings.TrimSpace(cfg.Server), "/")
	endpoint := server
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	return &Yourls{
		base:     newBase("yourls", endpoint, cfg.Timeout, httpClient, logger),
		server:   endpoint,
		username: cfg.Username,
		password: cfg.Password,
	}
}

// Shorten 为目标链接生成短链接
func (y *Yourls) Shorten(ctx context.Context, target string) (string, error) {
	q := url.Values{}
	q.Set("username", y.username)
	q.Set("password", y.password)
	q.Set("action", "shorturl")
	q.Set("format", "json")
	q.Set("url", target)

	req, err := y.newRequest(ctx, http.MethodGet, "/yourls-api.php?"+q.Encode(), "", nil)
	if err != nil {
		return "", err
	}
	var resp struct {
		URL struct {
			Keyword string `json:"keyword"`
		} `json:"url"`
	}
	if err := y.doJSON(req, &resp); err != nil {
		return "", err
	}
	if resp.URL.Keyword == "" {
		return "", fmt.Errorf("%w: yourls 未返回关键字", pkgerrors.ErrExternalService)
	}

	link := y.server + "/" + resp.URL.Keyword
	y.logger.Info("短链接已生成", zap.String("link", link))
	return link, nil
}
