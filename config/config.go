package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"db"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Log        LogConfig        `mapstructure:"log"`
	Workbench  WorkbenchConfig  `mapstructure:"workbench"`
	Camera     CameraConfig     `mapstructure:"camera"`
	IPFS       IPFSConfig       `mapstructure:"ipfs"`
	Robonomics RobonomicsConfig `mapstructure:"robonomics"`
	Yourls     YourlsConfig     `mapstructure:"yourls"`
	Printer    PrinterConfig    `mapstructure:"printer"`
	HID        HIDConfig        `mapstructure:"hid"`
	Passport   PassportConfig   `mapstructure:"passport"`
	Worker     WorkerConfig     `mapstructure:"worker"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port         int        `mapstructure:"port"`
	BodyLimit    int64      `mapstructure:"body_limit"`
	WriteTimeout int        `mapstructure:"write_timeout"` // 秒；状态流接口不受此限制
	CORS         CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig 数据库配置
// driver=postgres 为产线部署；driver=sqlite 用于单机工位与测试
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	SQLitePath      string `mapstructure:"sqlite_path"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 分钟
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 配置（可选：用于状态镜像与扫码限流）
type RedisConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Addr          string `mapstructure:"addr"`
	Password      string `mapstructure:"password"`
	DB            int    `mapstructure:"db"`
	ChannelPrefix string `mapstructure:"channel_prefix"`
}

// AuthConfig 设备令牌配置（HID 网关通过签名令牌标识自身）
type AuthConfig struct {
	DeviceSecret   string        `mapstructure:"device_secret"`
	DeviceTokenTTL time.Duration `mapstructure:"device_token_ttl"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// WorkbenchConfig 工位配置
type WorkbenchConfig struct {
	Number      int    `mapstructure:"number"`
	Description string `mapstructure:"description"`
	LockDir     string `mapstructure:"lock_dir"`
}

// CameraConfig 录像服务（Cameraman）配置
type CameraConfig struct {
	Enable       bool          `mapstructure:"enable"`
	CameramanURI string        `mapstructure:"cameraman_uri"`
	Number       int           `mapstructure:"number"`
	Timeout      time.Duration `mapstructure:"timeout"`
	StopWait     time.Duration `mapstructure:"stop_wait"` // 结束工序时等待录像启动完成的最长时间
}

// IPFSConfig 内容寻址发布网关配置
type IPFSConfig struct {
	Enable     bool          `mapstructure:"enable"`
	GatewayURI string        `mapstructure:"gateway_uri"`
	LinkPrefix string        `mapstructure:"link_prefix"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// RobonomicsConfig 区块链存证配置
type RobonomicsConfig struct {
	Enable     bool          `mapstructure:"enable"`
	GatewayURI string        `mapstructure:"gateway_uri"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// YourlsConfig 短链接服务配置
type YourlsConfig struct {
	Enable   bool          `mapstructure:"enable"`
	Server   string        `mapstructure:"server"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// PrinterConfig 标签打印配置
type PrinterConfig struct {
	Enable                  bool          `mapstructure:"enable"`
	PrintServerURI          string        `mapstructure:"print_server_uri"`
	PrintBarcode            bool          `mapstructure:"print_barcode"`
	PrintQR                 bool          `mapstructure:"print_qr"`
	PrintQROnlyForComposite bool          `mapstructure:"print_qr_only_for_composite"`
	PrintSecurityTag        bool          `mapstructure:"print_security_tag"`
	SecurityTagAddTimestamp bool          `mapstructure:"security_tag_add_timestamp"`
	Timeout                 time.Duration `mapstructure:"timeout"`
}

// HIDConfig 扫码设备配置
type HIDConfig struct {
	RFIDReader    string        `mapstructure:"rfid_reader"`
	BarcodeReader string        `mapstructure:"barcode_reader"`
	RateLimit     int           `mapstructure:"rate_limit"`
	RateWindow    time.Duration `mapstructure:"rate_window"`
}

// PassportConfig 产品证书配置
type PassportConfig struct {
	Dir string `mapstructure:"dir"`
}

// WorkerConfig 后台任务池配置
type WorkerConfig struct {
	Size        int           `mapstructure:"size"`
	QueueSize   int           `mapstructure:"queue_size"`
	TaskTimeout time.Duration `mapstructure:"task_timeout"`
}

// TracingConfig 链路追踪配置
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Exporter    string  `mapstructure:"exporter"` // stdout | otlp
	Endpoint    string  `mapstructure:"endpoint"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.body_limit", 4<<20)
	v.SetDefault("server.write_timeout", 60)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:3000"})

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.sqlite_path", "workbench.db")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "feecc")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", 60)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel_prefix", "feecc")

	v.SetDefault("auth.device_token_ttl", "8760h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("workbench.number", 1)
	v.SetDefault("workbench.description", "")
	v.SetDefault("workbench.lock_dir", "/tmp")

	v.SetDefault("camera.enable", false)
	v.SetDefault("camera.cameraman_uri", "http://127.0.0.1:8081")
	v.SetDefault("camera.number", 1)
	v.SetDefault("camera.timeout", "10s")
	v.SetDefault("camera.stop_wait", "15s")

	v.SetDefault("ipfs.enable", false)
	v.SetDefault("ipfs.gateway_uri", "http://127.0.0.1:8082")
	v.SetDefault("ipfs.link_prefix", "https://gateway.ipfs.io/ipfs/")
	v.SetDefault("ipfs.timeout", "60s")

	v.SetDefault("robonomics.enable", false)
	v.SetDefault("robonomics.gateway_uri", "http://127.0.0.1:8082")
	v.SetDefault("robonomics.timeout", "120s")

	v.SetDefault("yourls.enable", false)
	v.SetDefault("yourls.timeout", "10s")

	v.SetDefault("printer.enable", false)
	v.SetDefault("printer.print_server_uri", "http://127.0.0.1:8083")
	v.SetDefault("printer.print_barcode", true)
	v.SetDefault("printer.print_qr", true)
	v.SetDefault("printer.print_qr_only_for_composite", false)
	v.SetDefault("printer.print_security_tag", false)
	v.SetDefault("printer.security_tag_add_timestamp", true)
	v.SetDefault("printer.timeout", "20s")

	v.SetDefault("hid.rfid_reader", "rfid_reader")
	v.SetDefault("hid.barcode_reader", "barcode_reader")
	v.SetDefault("hid.rate_limit", 5)
	v.SetDefault("hid.rate_window", "1s")

	v.SetDefault("passport.dir", "unit-passports")

	v.SetDefault("worker.size", 2)
	v.SetDefault("worker.queue_size", 64)
	v.SetDefault("worker.task_timeout", "5m")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.exporter", "stdout")
	v.SetDefault("tracing.service_name", "feecc-workbench")
	v.SetDefault("tracing.sample_ratio", 1.0)

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("FEECC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// ── 关键配置校验 ──
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.DeviceSecret == "" {
		return fmt.Errorf("配置校验失败: auth.device_secret 不能为空")
	}
	if len(c.Auth.DeviceSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.device_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if c.Workbench.Number <= 0 {
		return fmt.Errorf("配置校验失败: workbench.number 必须为正整数")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("配置校验失败: db.driver 仅支持 postgres 或 sqlite")
	}
	if c.Camera.Enable && c.Camera.CameramanURI == "" {
		return fmt.Errorf("配置校验失败: 启用录像时 camera.cameraman_uri 不能为空")
	}
	if c.Yourls.Enable && c.Yourls.Server == "" {
		return fmt.Errorf("配置校验失败: 启用短链接时 yourls.server 不能为空")
	}
	if c.Worker.Size <= 0 {
		return fmt.Errorf("配置校验失败: worker.size 必须为正整数")
	}
	return nil
}
