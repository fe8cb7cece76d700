package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"feecc-workbench/config"
	pkgerrors "feecc-workbench/pkg/errors"
)

// Cameraman 录像服务适配器，绑定到工位的一台摄像机
type Cameraman struct {
	base
	camera int
}

// NewCameraman 创建录像适配器；未启用录像时返回 nil
func NewCameraman(cfg *config.CameraConfig, httpClient HTTPDoer, logger *zap.Logger) *Cameraman {
	if !cfg.Enable {
		return nil
	}
	return &Cameraman{
		base:   newBase("cameraman", cfg.CameramanURI, cfg.Timeout, httpClient, logger),
		camera: cfg.Number,
	}
}

// Start 开始录像，返回录像 ID；unitID 只用于日志关联，录像服务按摄像机编号录制
func (c *Cameraman) Start(ctx context.Context, unitID, cardID string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, fmt.Sprintf("/camera/%d/start", c.camera), cardID, nil)
	if err != nil {
		return "", err
	}
	var resp struct {
		RecordID string `json:"record_id"`
	}
	if err := c.doJSON(req, &resp); err != nil {
		return "", err
	}
	if resp.RecordID == "" {
		return "", fmt.Errorf("%w: cameraman 未返回 record_id", pkgerrors.ErrExternalService)
	}
	c.logger.Info("录像已开始",
		zap.Int("camera", c.camera),
		zap.String("unit", unitID),
		zap.String("record_id", resp.RecordID),
	)
	return resp.RecordID, nil
}

// Stop 停止录像，返回录像文件在录像服务器上的路径；服务器未生成文件时返回空串
func (c *Cameraman) Stop(ctx context.Context, recordID, cardID string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, fmt.Sprintf("/record/%s/stop", recordID), cardID, nil)
	if err != nil {
		return "", err
	}
	var resp struct {
		Filename string `json:"filename"`
	}
	if err := c.doJSON(req, &resp); err != nil {
		return "", err
	}
	c.logger.Info("录像已结束", zap.Int("camera", c.camera), zap.String("record_id", recordID))
	return strings.TrimSpace(resp.Filename), nil
}
