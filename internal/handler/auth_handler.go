package handler

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/helpdesk/internal/model"
)

// Authenticator は認証ハンドラーが必要とする認証インターフェース。
type Authenticator interface {
	// Authenticate は資格情報を検証し、一致した場合にユーザーを返す。
	// 一致しない場合はnilを返す。
	Authenticate(username, password string) *model.User
}

// LoginMetrics はログイン試行のメトリクス記録インターフェース。
type LoginMetrics interface {
	RecordLogin(success bool)
}

// AuthHandler はログイン認証のHTTPハンドラー。
type AuthHandler struct {
	auth    Authenticator
	metrics LoginMetrics
}

// NewAuthHandler はAuthHandlerを生成する。metricsはnilでもよい。
func NewAuthHandler(auth Authenticator, metrics LoginMetrics) *AuthHandler {
	return &AuthHandler{
		auth:    auth,
		metrics: metrics,
	}
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse はログイン成功時のレスポンス。
type loginResponse struct {
	Success  bool        `json:"success"`
	Redirect string      `json:"redirect"`
	User     *model.User `json:"user"`
}

// Login はログイン認証を処理する。
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.recordLogin(false)
		writeErrorResponse(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	user := h.auth.Authenticate(req.Username, req.Password)
	if user == nil {
		h.recordLogin(false)
		writeErrorResponse(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	h.recordLogin(true)
	writeJSON(w, http.StatusOK, loginResponse{
		Success:  true,
		Redirect: "/dashboard.html",
		User:     user,
	})
}

func (h *AuthHandler) recordLogin(success bool) {
	if h.metrics != nil {
		h.metrics.RecordLogin(success)
	}
}
