package service

import "context"

// Recorder 录像服务
type Recorder interface {
	// Start 为指定产品开始录像，返回录像 ID
	Start(ctx context.Context, unitID, cardID string) (string, error)
	// Stop 停止录像，返回录像文件引用；未生成文件时返回空串
	Stop(ctx context.Context, recordID, cardID string) (string, error)
}

// Publisher 内容寻址发布
type Publisher interface {
	Publish(ctx context.Context, cardID, path string) (cid string, link string, err error)
}

// Notarizer 区块链存证
type Notarizer interface {
	Notarize(ctx context.Context, cardID, content string) (string, error)
}

// ShortLinker 短链接生成
type ShortLinker interface {
	Shorten(ctx context.Context, target string) (string, error)
}

// Printer 标签打印
type Printer interface {
	Print(ctx context.Context, cardID string, image []byte, annotation string) error
}

// Collaborators 工位依赖的外部协作方；为 nil 的字段表示该功能未启用
type Collaborators struct {
	Recorder    Recorder
	Publisher   Publisher
	Notarizer   Notarizer
	ShortLinker ShortLinker
	Printer     Printer
}
