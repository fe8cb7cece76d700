package jwt

import (
	"testing"
	"time"

	"feecc-workbench/config"
)

func newTestManager() *Manager {
	return NewManager(&config.AuthConfig{
		DeviceSecret:   "test-secret-key-for-unit-testing-2026",
		DeviceTokenTTL: 24 * time.Hour,
	})
}

func TestGenerateAndParseDeviceToken(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateDeviceToken("barcode_reader", 3)
	if err != nil {
		t.Fatalf("GenerateDeviceToken 失败: %v", err)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken 失败: %v", err)
	}

	if claims.Device != "barcode_reader" {
		t.Errorf("期望 Device=barcode_reader，实际=%s", claims.Device)
	}
	if claims.Workbench != 3 {
		t.Errorf("期望 Workbench=3，实际=%d", claims.Workbench)
	}
	if claims.Issuer != "feecc-workbench" {
		t.Errorf("期望 Issuer=feecc-workbench，实际=%s", claims.Issuer)
	}
	if claims.ID == "" {
		t.Error("JTI 不应为空")
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl < 23*time.Hour || ttl > 25*time.Hour {
		t.Errorf("TTL 期望约24h，实际=%v", ttl)
	}
}

func TestParseToken_InvalidToken(t *testing.T) {
	m := newTestManager()

	_, err := m.ParseToken("invalid.token.string")
	if err == nil {
		t.Error("期望解析无效 token 返回错误")
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	m1 := newTestManager()
	m2 := NewManager(&config.AuthConfig{
		DeviceSecret:   "different-secret-key",
		DeviceTokenTTL: time.Hour,
	})

	token, _ := m1.GenerateDeviceToken("rfid_reader", 1)
	_, err := m2.ParseToken(token)
	if err == nil {
		t.Error("不同密钥签名的 token 不应通过验证")
	}
}

func TestParseToken_ExpiredToken(t *testing.T) {
	m := NewManager(&config.AuthConfig{
		DeviceSecret:   "test-secret",
		DeviceTokenTTL: -time.Minute,
	})

	token, _ := m.GenerateDeviceToken("rfid_reader", 1)

	_, err := m.ParseToken(token)
	if err != ErrTokenExpired {
		t.Errorf("期望 ErrTokenExpired，实际: %v", err)
	}
}
