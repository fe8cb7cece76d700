package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"feecc-workbench/config"
	pkgerrors "feecc-workbench/pkg/errors"
)

// IPFS 内容寻址发布网关适配器
type IPFS struct {
	base
}

// NewIPFS 创建发布适配器；未启用时返回 nil
func NewIPFS(cfg *config.IPFSConfig, httpClient HTTPDoer, logger *zap.Logger) *IPFS {
	if !cfg.Enable {
		return nil
	}
	return &IPFS{base: newBase("ipfs", cfg.GatewayURI, cfg.Timeout, httpClient, logger)}
}

type publishResponse struct {
	Status int    `json:"status"`
	CID    string `json:"ipfs_cid"`
	Link   string `json:"ipfs_link"`
}

// Publish 发布文件并返回内容标识与公共链接
// 本地存在的文件以 multipart 上传，否则视为网关可访问的远端路径
func (p *IPFS) Publish(ctx context.Context, cardID, path string) (string, string, error) {
	var (
		req *http.Request
		err error
	)
	if _, statErr := os.Stat(path); statErr == nil {
		req, err = p.uploadRequest(ctx, cardID, path)
	} else {
		req, err = p.byPathRequest(ctx, cardID, path)
	}
	if err != nil {
		return "", "", err
	}

	var resp publishResponse
	if err := p.doJSON(req, &resp); err != nil {
		return "", "", err
	}
	if resp.Status != 0 && resp.Status != http.StatusOK {
		return "", "", fmt.Errorf("%w: ipfs 网关返回状态 %d", pkgerrors.ErrExternalService, resp.Status)
	}
	if resp.CID == "" {
		return "", "", fmt.Errorf("%w: ipfs 网关未返回 CID", pkgerrors.ErrExternalService)
	}

	p.logger.Info("文件已发布", zap.String("path", path), zap.String("cid", resp.CID))
	return resp.CID, resp.Link, nil
}

func (p *IPFS) uploadRequest(ctx context.Context, cardID, path string) (*http.Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开待发布文件失败: %w", err)
	}
	defer f.Close()

	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file_data", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("读取待发布文件失败: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := p.newRequest(ctx, http.MethodPost, "/publish-to-ipfs/upload-file", cardID, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req, nil
}

func (p *IPFS) byPathRequest(ctx context.Context, cardID, path string) (*http.Request, error) {
	payload, err := json.Marshal(map[string]string{"absolute_path": path})
	if err != nil {
		return nil, err
	}
	req, err := p.newRequest(ctx, http.MethodPost, "/publish-to-ipfs/by-path", cardID, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}
