package api

import "time"

type ServerConfig struct {
	Auth  AuthConfig
	S3    S3Config
	DB    DBConfig
	Redis RedisConfig
	Sweep SweepConfig

	// CreditPrices 是各種活動的點數扣款表，啟動時注入
	// key 為活動代碼，value 為該活動消耗的點數
	CreditPrices map[string]int64
}

type AuthConfig struct {
	// PublicKey 是驗證存取權杖簽章的 Ed25519 公鑰 (base64)
	PublicKey string
	// PrivateKey 是簽發存取權杖的 Ed25519 私鑰 (base64)，
	// 只有負責簽發的實例需要設定
	PrivateKey string
	// TokenTTL 是簽發權杖的有效期間
	TokenTTL time.Duration
}

type S3Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	Bucket          string
	PublicBaseURL   string
	// MaxAttachmentBytes 是單一附件的大小上限
	MaxAttachmentBytes int64
	// MaxAttachmentsPerHour 是單一使用者每小時可上傳的附件數量
	MaxAttachmentsPerHour int
}

type DBConfig struct {
	User     string
	Password string
	Host     string
	Port     int
	Database string
	Schema   string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	StreamKeys RedisStreamKeys
	// CacheTTL 是公開讀取快取的存活時間
	CacheTTL time.Duration
}

type RedisStreamKeys struct {
	OfferEvents string
}

type SweepConfig struct {
	// Interval 是過期報價掃描的執行間隔
	Interval time.Duration
	// LockKey 是掃描互斥鎖在 Redis 上的鍵
	LockKey string
}
