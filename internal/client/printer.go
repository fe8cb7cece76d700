package client

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"

	"go.uber.org/zap"

	"feecc-workbench/config"
)

// Printer 标签打印服务适配器
type Printer struct {
	base
}

// NewPrinter 创建打印适配器；未启用打印时返回 nil
func NewPrinter(cfg *config.PrinterConfig, httpClient HTTPDoer, logger *zap.Logger) *Printer {
	if !cfg.Enable {
		return nil
	}
	return &Printer{base: newBase("printer", cfg.PrintServerURI, cfg.Timeout, httpClient, logger)}
}

// Print 打印 PNG 标签，annotation 为打印在标签下方的说明文字
func (p *Printer) Print(ctx context.Context, cardID string, image []byte, annotation string) error {
	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	if annotation != "" {
		if err := mw.WriteField("annotation", annotation); err != nil {
			return err
		}
	}
	part, err := mw.CreateFormFile("image_file", "label.png")
	if err != nil {
		return err
	}
	if _, err := part.Write(image); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := p.newRequest(ctx, http.MethodPost, "/print_image", cardID, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if err := p.doJSON(req, nil); err != nil {
		return err
	}
	p.logger.Info("标签已打印", zap.String("annotation", annotation), zap.Int("bytes", len(image)))
	return nil
}
