package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"feecc-workbench/config"
	pkgerrors "feecc-workbench/pkg/errors"
)

// Robonomics 通过 IO 网关写入区块链 datalog
type Robonomics struct {
	base
}

// NewRobonomics 创建存证适配器；未启用时返回 nil
func NewRobonomics(cfg *config.RobonomicsConfig, httpClient HTTPDoer, logger *zap.Logger) *Robonomics {
	if !cfg.Enable {
		return nil
	}
	return &Robonomics{base: newBase("robonomics", cfg.GatewayURI, cfg.Timeout, httpClient, logger)}
}

// Notarize 将内容写入 datalog，返回交易哈希
// 需要等待区块确认，通常耗时十余秒，调用方应在后台任务中执行
func (r *Robonomics) Notarize(ctx context.Context, cardID, content string) (string, error) {
	payload, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return "", err
	}
	req, err := r.newRequest(ctx, http.MethodPost, "/robonomics/datalog", cardID, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp struct {
		TxnHash string `json:"txn_hash"`
	}
	if err := r.doJSON(req, &resp); err != nil {
		return "", err
	}
	if resp.TxnHash == "" {
		return "", fmt.Errorf("%w: datalog 未返回交易哈希", pkgerrors.ErrExternalService)
	}
	r.logger.Info("datalog 已写入", zap.String("content", content), zap.String("txn_hash", resp.TxnHash))
	return resp.TxnHash, nil
}
