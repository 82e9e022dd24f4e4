package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Server
	ServerPort string

	// Storage
	DataDir    string // ファイル・チケットの親ディレクトリ
	FilesDir   string // DataDir/files
	TicketsDir string // DataDir/tickets

	// Credentials
	CredentialsPath string // 認証情報JSONファイルのパス
	AdminPassword   string // 読み込み失敗時のadminフォールバックパスワード

	// Frontend
	StaticDir string // 静的アセットのディレクトリ
	IndexFile string // SPAフォールバックで返すエントリドキュメント

	// CORS
	CORSAllowedOrigin string

	// Rate Limit
	RateLimitGeneral int // API全般のレート（req/min/IP）

	// WebSocket
	WSSendBuffer int // クライアントごとの送信バッファ（メッセージ数）
}

// Load は環境変数からConfigを読み込む。
// すべての項目にデフォルト値があるため、未設定でも起動できる。
// SERVER_PORTが数値として不正な場合のみエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.ServerPort = getEnvString("SERVER_PORT", "3000")
	if _, err := strconv.Atoi(cfg.ServerPort); err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT %q: %w", cfg.ServerPort, err)
	}

	cfg.DataDir = getEnvString("DATA_DIR", "data")
	cfg.FilesDir = filepath.Join(cfg.DataDir, "files")
	cfg.TicketsDir = filepath.Join(cfg.DataDir, "tickets")

	cfg.CredentialsPath = getEnvString("CREDENTIALS_PATH", "config.json")
	cfg.AdminPassword = getEnvString("ADMIN_PASSWORD", "password123")

	cfg.StaticDir = getEnvString("STATIC_DIR", ".")
	cfg.IndexFile = getEnvString("INDEX_FILE", "dashboard.html")

	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 240)
	cfg.WSSendBuffer = getEnvInt("WS_SEND_BUFFER", 32)

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}
