package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"feecc-workbench/config"
	"feecc-workbench/internal/dto"
	"feecc-workbench/internal/label"
	"feecc-workbench/internal/model"
	"feecc-workbench/internal/repository"
	"feecc-workbench/pkg/worker"
)

// CertificateService 产品证书业务接口
//
// 证书生成与保存是同步的；发布、短链接受超时约束，失败只记录在 PublicationError 中；
// 打印与区块链存证交给后台任务池，结果回写到产品记录。
type CertificateService interface {
	Issue(ctx context.Context, unit *model.Unit, employee *model.Employee) (*dto.CertificateResponse, error)
	// PrintBarcode 排队打印产品条码标签
	PrintBarcode(unit *model.Unit, cardID string) error
}

type certificateService struct {
	repo      *repository.Repository
	collab    Collaborators
	pool      *worker.Pool
	messenger *Messenger
	passport  config.PassportConfig
	ipfs      config.IPFSConfig
	yourls    config.YourlsConfig
	printer   config.PrinterConfig
	logger    *zap.Logger
}

// NewCertificateService 创建 CertificateService 实例
func NewCertificateService(
	cfg *config.Config,
	repo *repository.Repository,
	collab Collaborators,
	pool *worker.Pool,
	messenger *Messenger,
	logger *zap.Logger,
) CertificateService {
	return &certificateService{
		repo:      repo,
		collab:    collab,
		pool:      pool,
		messenger: messenger,
		passport:  cfg.Passport,
		ipfs:      cfg.IPFS,
		yourls:    cfg.Yourls,
		printer:   cfg.Printer,
		logger:    logger,
	}
}

// ═══════════════════════════════════════════════════════════
// Issue — 生成、发布并打印产品证书
// ═══════════════════════════════════════════════════════════

func (s *certificateService) Issue(ctx context.Context, unit *model.Unit, employee *model.Employee) (*dto.CertificateResponse, error) {
	log := s.logger.With(zap.String("unit", unit.InternalID))

	// 1. 生成并保存证书文件
	passport := BuildPassport(unit, s.ipfs.LinkPrefix, time.Now())
	path, err := SavePassport(s.passport.Dir, passport)
	if err != nil {
		log.Error("保存产品证书失败", zap.Error(err))
		return nil, err
	}
	log.Info("产品证书已生成", zap.String("path", path))

	resp := &dto.CertificateResponse{UnitInternalID: unit.InternalID, PassportPath: path}
	fields := &repository.PublicationFields{}

	// 2. 发布到内容寻址存储
	var cid, link string
	if s.collab.Publisher != nil {
		pubCtx, cancel := context.WithTimeout(ctx, orDefault(s.ipfs.Timeout, time.Minute))
		cid, link, err = s.collab.Publisher.Publish(pubCtx, employee.CardID, path)
		cancel()
		if err != nil {
			log.Warn("发布产品证书失败", zap.Error(err))
			s.messenger.Error("产品证书发布失败，可稍后重试")
			msg := err.Error()
			fields.PublicationError = &msg
		} else {
			fields.PassportCID = &cid
			fields.PassportLink = &link
			empty := ""
			fields.PublicationError = &empty
		}
	}

	// 3. 生成短链接
	var short string
	if link != "" && s.collab.ShortLinker != nil {
		shortCtx, cancel := context.WithTimeout(ctx, orDefault(s.yourls.Timeout, 10*time.Second))
		short, err = s.collab.ShortLinker.Shorten(shortCtx, link)
		cancel()
		if err != nil {
			log.Warn("生成短链接失败", zap.Error(err))
		} else {
			fields.PassportShortURL = &short
		}
	}

	// 4. 打印二维码与封条
	if s.shouldPrintQR(unit) {
		target := short
		if target == "" {
			target = link
		}
		if target != "" {
			annotation := fmt.Sprintf("%s (ID: %s). %s", printName(unit), unit.InternalID, target)
			s.submitPrint("print-qr", employee.CardID, annotation, func() ([]byte, error) {
				return label.QR(target, "")
			})
		}
	}
	if s.collab.Printer != nil && s.printer.PrintSecurityTag {
		var date *time.Time
		if s.printer.SecurityTagAddTimestamp {
			now := time.Now()
			date = &now
		}
		s.submitPrint("print-seal-tag", employee.CardID, "", func() ([]byte, error) {
			return label.SealTag(date)
		})
	}

	// 5. 回写发布结果
	if err := s.repo.Unit.UpdatePublication(ctx, unit.UUID, fields); err != nil {
		log.Error("保存证书发布结果失败", zap.Error(err))
		return nil, persistenceError(err)
	}

	// 6. 区块链存证耗时较长，在后台执行
	if cid != "" && s.collab.Notarizer != nil {
		s.submitNotarize(unit.UUID, unit.InternalID, employee.CardID, cid)
	}

	resp.PassportCID = fields.PassportCID
	resp.PassportLink = fields.PassportLink
	resp.PassportShortURL = fields.PassportShortURL
	if fields.PublicationError != nil && *fields.PublicationError != "" {
		resp.PublicationError = fields.PublicationError
	}
	return resp, nil
}

func (s *certificateService) shouldPrintQR(unit *model.Unit) bool {
	if s.collab.Printer == nil || !s.printer.PrintQR {
		return false
	}
	if !s.printer.PrintQROnlyForComposite {
		return true
	}
	return unit.IsComposite() || unit.Schema == nil || !unit.Schema.IsAComponent()
}

func (s *certificateService) submitNotarize(uuid, internalID, cardID, cid string) {
	err := s.pool.Submit("notarize:"+internalID, func(ctx context.Context) error {
		hash, err := s.collab.Notarizer.Notarize(ctx, cardID, cid)
		if err != nil {
			msg := "区块链存证失败: " + err.Error()
			if uerr := s.repo.Unit.UpdatePublication(ctx, uuid, &repository.PublicationFields{PublicationError: &msg}); uerr != nil {
				return errors.Join(err, uerr)
			}
			return err
		}
		return s.repo.Unit.UpdatePublication(ctx, uuid, &repository.PublicationFields{TxnHash: &hash})
	})
	if err != nil {
		s.logger.Warn("区块链存证任务入队失败", zap.String("unit", internalID), zap.Error(err))
	}
}

// ── 标签打印 ──

func (s *certificateService) PrintBarcode(unit *model.Unit, cardID string) error {
	if s.collab.Printer == nil || !s.printer.PrintBarcode {
		return nil
	}
	annotation := printName(unit)
	if unit.Schema != nil && unit.Schema.IsAComponent() {
		if parent, err := s.repo.Schema.GetByID(context.Background(), *unit.Schema.ParentSchemaID); err == nil {
			annotation = fmt.Sprintf("%s. %s.", parent.UnitName, printName(unit))
		}
	}
	internalID := unit.InternalID
	return s.submitPrint("print-barcode", cardID, annotation, func() ([]byte, error) {
		return label.Barcode(internalID, "")
	})
}

func (s *certificateService) submitPrint(name, cardID, annotation string, render func() ([]byte, error)) error {
	err := s.pool.Submit(name, func(ctx context.Context) error {
		img, err := render()
		if err != nil {
			return err
		}
		printCtx, cancel := context.WithTimeout(ctx, orDefault(s.printer.Timeout, 20*time.Second))
		defer cancel()
		if err := s.collab.Printer.Print(printCtx, cardID, img, annotation); err != nil {
			s.messenger.Error("标签打印失败")
			return err
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("打印任务入队失败", zap.String("task", name), zap.Error(err))
	}
	return err
}

func printName(u *model.Unit) string {
	if u.Schema != nil {
		return u.Schema.PrintName()
	}
	return u.SchemaID
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
