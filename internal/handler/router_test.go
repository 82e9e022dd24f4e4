package handler

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/hitoshi/helpdesk/internal/credential"
	"github.com/hitoshi/helpdesk/internal/file"
	"github.com/hitoshi/helpdesk/internal/repository"
	"github.com/hitoshi/helpdesk/internal/security"
	"github.com/hitoshi/helpdesk/internal/ticket"
)

// newTestRouter は実サービスをワイヤリングしたルーターをテスト用に構築する。
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	dataDir := t.TempDir()
	filesDir := filepath.Join(dataDir, "files")
	ticketsDir := filepath.Join(dataDir, "tickets")
	staticDir := filepath.Join(dataDir, "static")
	for _, dir := range []string{filesDir, ticketsDir, staticDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
	}

	indexPath := filepath.Join(staticDir, "dashboard.html")
	if err := os.WriteFile(indexPath, []byte("<html>dashboard</html>"), 0o644); err != nil {
		t.Fatalf("failed to write index file: %v", err)
	}

	sanitizer := security.NewMessageSanitizer()
	fileService := file.NewService(repository.NewDiskFileRepo(filesDir))
	ticketService := ticket.NewService(repository.NewDiskTicketRepo(ticketsDir), sanitizer, nil)
	store := credential.Load(filepath.Join(dataDir, "missing.json"), "password123")

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	return NewRouter(&RouterDeps{
		Logger:            logger,
		CORSAllowedOrigin: "*",

		Authenticator: store,
		FileService:   fileService,
		TicketService: ticketService,

		StaticDir: staticDir,
		IndexFile: "dashboard.html",
	})
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	resp := parseEnvelope(t, w)
	if resp["status"] != "ok" {
		t.Errorf("status field = %v, want ok", resp["status"])
	}
}

func TestRouter_LoginFlow(t *testing.T) {
	router := newTestRouter(t)

	// フォールバック資格情報でのログイン成功
	body := bytes.NewBufferString(`{"username":"admin","password":"password123"}`)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", body))

	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}
	resp := parseEnvelope(t, w)
	if resp["redirect"] != "/dashboard.html" {
		t.Errorf("redirect = %v, want /dashboard.html", resp["redirect"])
	}

	// 誤ったパスワードでの失敗
	body = bytes.NewBufferString(`{"username":"admin","password":"wrong"}`)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", body))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("login status = %d, want 401", w.Code)
	}
}

func TestRouter_FileLifecycle(t *testing.T) {
	router := newTestRouter(t)

	// 書き込み
	body := bytes.NewBufferString(`{"filename":"notes.txt","content":"hello"}`)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/files/write", body))
	if w.Code != http.StatusOK {
		t.Fatalf("write status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}

	// 一覧
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/files/list", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", w.Code)
	}
	resp := parseEnvelope(t, w)
	files, _ := resp["files"].([]any)
	if len(files) != 1 || files[0] != "notes.txt" {
		t.Errorf("files = %v, want [notes.txt]", files)
	}

	// 読み取り
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/files/read?filename=notes.txt", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("read status = %d, want 200", w.Code)
	}
	resp = parseEnvelope(t, w)
	if resp["content"] != "hello" {
		t.Errorf("content = %v, want hello", resp["content"])
	}

	// 読み取り専用の直接公開
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/files/notes.txt", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("raw serve status = %d, want 200", w.Code)
	}
	if w.Body.String() != "hello" {
		t.Errorf("raw body = %q, want hello", w.Body.String())
	}

	// 削除
	body = bytes.NewBufferString(`{"filename":"notes.txt"}`)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/files/delete", body))
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d, want 200", w.Code)
	}

	// 削除後の読み取りは404
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/files/read?filename=notes.txt", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("read after delete status = %d, want 404", w.Code)
	}
}

func TestRouter_TicketLifecycle(t *testing.T) {
	router := newTestRouter(t)

	// 作成
	body := bytes.NewBufferString(`{"product":"Widget Pro","discordEmail":"user@example.com"}`)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tickets/create", body))
	if w.Code != http.StatusOK {
		t.Fatalf("create status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}
	resp := parseEnvelope(t, w)
	ticketID, _ := resp["ticketId"].(string)
	if ticketID == "" {
		t.Fatal("ticketId missing in create response")
	}

	// メッセージ追記
	body = bytes.NewBufferString(`{"text":"Still broken","author":"user@example.com"}`)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tickets/"+ticketID+"/message", body))
	if w.Code != http.StatusOK {
		t.Fatalf("append status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}

	// 取得: システムメッセージ + 追記メッセージの2件
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tickets/"+ticketID, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200", w.Code)
	}
	resp = parseEnvelope(t, w)
	got, ok := resp["ticket"].(map[string]any)
	if !ok {
		t.Fatalf("ticket field missing: %v", resp)
	}
	messages, _ := got["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("messages = %v, want 2 entries", messages)
	}
	first, _ := messages[0].(map[string]any)
	if first["author"] != "System" {
		t.Errorf("first message author = %v, want System", first["author"])
	}
	if first["text"] != "Ticket created for Widget Pro. Discord/Email: user@example.com" {
		t.Errorf("first message text = %v", first["text"])
	}
}

func TestRouter_UnknownTicketReturns404(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tickets/9999999999999", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}

	resp := parseEnvelope(t, w)
	if resp["message"] != "Ticket not found" {
		t.Errorf("message = %v, want %q", resp["message"], "Ticket not found")
	}
}

func TestRouter_StaticFallbackServesIndex(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/some/unknown/page", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("dashboard")) {
		t.Errorf("body = %s, want index file content", w.Body.String())
	}
}

func TestRouter_SecurityHeadersApplied(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
}
