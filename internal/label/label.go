// Package label 生成打印用的标签图片（PNG）：产品条码、证书二维码与封条。
package label

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font/basicfont"

	"feecc-workbench/internal/model"
)

// 标签纸宽度（像素），与热敏打印机 62mm 纸宽对应
const Width = 554

var ErrInvalidEAN13 = errors.New("不是合法的 EAN-13 条码")

// ── EAN-13 ──

var (
	ean13L = [10]string{"0001101", "0011001", "0010011", "0111101", "0100011", "0110001", "0101111", "0111011", "0110111", "0001011"}
	ean13G = [10]string{"0100111", "0110011", "0011011", "0100001", "0011101", "0111001", "0000101", "0010001", "0001001", "0010111"}
	ean13R = [10]string{"1110010", "1100110", "1101100", "1000010", "1011100", "1001110", "1010000", "1000100", "1001000", "1110100"}

	// 首位数字决定左半部分的奇偶编码
	ean13Parity = [10]string{"LLLLLL", "LLGLGG", "LLGGLG", "LLGGGL", "LGLLGG", "LGGLLG", "LGGGLL", "LGLGLG", "LGLGGL", "LGGLGL"}
)

// ValidEAN13 校验 13 位数字及其校验位
func ValidEAN13(code string) bool {
	if len(code) != 13 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return model.EAN13CheckDigit(code[:12]) == int(code[12]-'0')
}

// EAN13Modules 返回 95 个模块的条空序列，'1' 为条
func EAN13Modules(code string) (string, error) {
	if !ValidEAN13(code) {
		return "", fmt.Errorf("%w: %q", ErrInvalidEAN13, code)
	}
	parity := ean13Parity[code[0]-'0']

	var b strings.Builder
	b.Grow(95)
	b.WriteString("101")
	for i := 1; i <= 6; i++ {
		d := code[i] - '0'
		if parity[i-1] == 'L' {
			b.WriteString(ean13L[d])
		} else {
			b.WriteString(ean13G[d])
		}
	}
	b.WriteString("01010")
	for i := 7; i <= 12; i++ {
		b.WriteString(ean13R[code[i]-'0'])
	}
	b.WriteString("101")
	return b.String(), nil
}

// Barcode 生成带注释的产品条码标签
func Barcode(code, annotation string) ([]byte, error) {
	modules, err := EAN13Modules(code)
	if err != nil {
		return nil, err
	}

	const (
		moduleWidth = 4.0
		barHeight   = 120.0
		top         = 20.0
		height      = 200
	)
	dc := newCanvas(height)

	left := (float64(Width) - moduleWidth*float64(len(modules))) / 2
	dc.SetColor(color.Black)
	for i, m := range modules {
		if m == '1' {
			dc.DrawRectangle(left+float64(i)*moduleWidth, top, moduleWidth, barHeight)
		}
	}
	dc.Fill()

	dc.DrawStringAnchored(code, Width/2, top+barHeight+16, 0.5, 0.5)
	if annotation != "" {
		dc.DrawStringAnchored(annotation, Width/2, top+barHeight+38, 0.5, 0.5)
	}
	return encode(dc)
}

// QR 生成证书短链接二维码标签
func QR(link, annotation string) ([]byte, error) {
	if link == "" {
		return nil, errors.New("二维码内容不能为空")
	}
	q, err := qrcode.New(link, qrcode.High)
	if err != nil {
		return nil, fmt.Errorf("生成二维码失败: %w", err)
	}
	const qrSize = 184

	height := qrSize + 8
	if annotation != "" {
		height += 24
	}
	dc := newCanvas(height)
	dc.DrawImageAnchored(q.Image(qrSize), Width/2, qrSize/2+4, 0.5, 0.5)
	if annotation != "" {
		dc.SetColor(color.Black)
		dc.DrawStringAnchored(annotation, Width/2, float64(qrSize+18), 0.5, 0.5)
	}
	return encode(dc)
}

// SealTag 生成封条标签；date 非 nil 时在下方加印日期
func SealTag(date *time.Time) ([]byte, error) {
	dc := newCanvas(200)
	dc.SetColor(color.Black)
	dc.SetLineWidth(4)
	dc.DrawRectangle(8, 8, Width-16, 184)
	dc.Stroke()

	dc.DrawStringAnchored("SEALED", Width/2, 70, 0.5, 0.5)
	if date != nil {
		dc.DrawStringAnchored(date.Format("02.01.2006"), Width/2, 110, 0.5, 0.5)
	}
	return encode(dc)
}

func newCanvas(height int) *gg.Context {
	dc := gg.NewContext(Width, height)
	dc.SetColor(color.White)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)
	return dc
}

func encode(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("编码 PNG 失败: %w", err)
	}
	return buf.Bytes(), nil
}
