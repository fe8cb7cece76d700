package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"feecc-workbench/config"
)

var (
	ErrTokenExpired = errors.New("token 已过期")
	ErrTokenInvalid = errors.New("token 无效")
)

const issuer = "feecc-workbench"

// Claims 设备令牌声明
// HID 网关（读卡器、扫码枪所在的主机）持有令牌，声明其绑定的工位
type Claims struct {
	Device    string `json:"device"`
	Workbench int    `json:"workbench"`
	jwtv5.RegisteredClaims
}

// Manager 设备令牌管理器
type Manager struct {
	secret []byte
	ttl    time.Duration
}

// NewManager 创建设备令牌管理器
func NewManager(cfg *config.AuthConfig) *Manager {
	return &Manager{
		secret: []byte(cfg.DeviceSecret),
		ttl:    cfg.DeviceTokenTTL,
	}
}

// GenerateDeviceToken 为 HID 网关签发令牌
func (m *Manager) GenerateDeviceToken(device string, workbench int) (string, error) {
	now := time.Now()
	claims := Claims{
		Device:    device,
		Workbench: workbench,
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   device,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(m.ttl)),
			Issuer:    issuer,
		},
	}

	token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseToken 解析并验证 Token
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwtv5.ParseWithClaims(tokenString, &Claims{}, func(t *jwtv5.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return m.secret, nil
	}, jwtv5.WithIssuer(issuer))

	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
