package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/helpdesk/internal/middleware"
)

// healthResponse は/healthエンドポイントのレスポンス。
type healthResponse struct {
	Status string `json:"status"`
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	StatusMetrics     middleware.StatusMetrics

	// 認証
	Authenticator Authenticator
	LoginMetrics  LoginMetrics

	// ファイル管理
	FileService FileServiceInterface
	FileMetrics FileOperationMetrics

	// チケット管理
	TicketService TicketServiceInterface
	TicketMetrics TicketMetrics

	// WebSocket通知。nilの場合は/wsルートを設定しない。
	WSHandler http.HandlerFunc

	// Prometheusスクレイプ用ハンドラー。nilの場合は/metricsルートを設定しない。
	MetricsHandler http.Handler

	// 静的ファイル配信
	StaticDir string
	IndexFile string
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RecoveryMiddleware → LoggingMiddleware → SecurityHeadersMiddleware → CORSMiddleware
//
// APIルートには追加でIPごとのレート制限を適用する。
// 未定義パスへのGETは静的ファイル配信にフォールバックする。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.StatusMetrics))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.Authenticator, deps.LoginMetrics)
	fileHandler := NewFileHandler(deps.FileService, deps.FileMetrics)
	ticketHandler := NewTicketHandler(deps.TicketService, deps.TicketMetrics)

	// --- 運用ルート ---

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	})

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// WebSocket通知（レート制限の対象外）
	if deps.WSHandler != nil {
		r.Get("/ws", deps.WSHandler)
	}

	// --- APIルート ---
	// ミドルウェアスタック: RateLimit(IPごと)
	r.Group(func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware())
		}

		// 認証
		r.Post("/login", authHandler.Login)

		// ファイル管理
		r.Route("/files", func(r chi.Router) {
			r.Get("/list", fileHandler.List)
			r.Get("/read", fileHandler.Read)
			r.Post("/write", fileHandler.Write)
			r.Post("/delete", fileHandler.Delete)

			// 管理ディレクトリの読み取り専用公開
			r.Get("/{name}", fileHandler.ServeRaw)
		})

		// チケット管理
		r.Route("/tickets", func(r chi.Router) {
			r.Post("/create", ticketHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", ticketHandler.Get)
				r.Post("/message", ticketHandler.AppendMessage)
			})
		})
	})

	// --- 静的ファイル配信 ---
	// 未定義パスへのGETはダッシュボードのSPA配信にフォールバックする
	if deps.StaticDir != "" {
		r.NotFound(NewStaticHandler(deps.StaticDir, deps.IndexFile))
	}

	return r
}
