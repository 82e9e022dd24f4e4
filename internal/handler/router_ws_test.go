package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hitoshi/helpdesk/internal/credential"
	"github.com/hitoshi/helpdesk/internal/file"
	"github.com/hitoshi/helpdesk/internal/notifier"
	"github.com/hitoshi/helpdesk/internal/repository"
	"github.com/hitoshi/helpdesk/internal/security"
	"github.com/hitoshi/helpdesk/internal/ticket"
)

// wsEvent はWebSocketのワイヤフォーマット。テスト側で独立に定義する。
type wsEvent struct {
	Event    string `json:"event"`
	TicketID string `json:"ticketId,omitempty"`
	Data     struct {
		Timestamp string `json:"timestamp"`
		Author    string `json:"author"`
		Text      string `json:"text"`
	} `json:"data,omitempty"`
}

// newRealtimeTestServer は本番と同じミドルウェアスタックとWebSocketハンドラーを
// ワイヤリングしたテストサーバーを起動する。
func newRealtimeTestServer(t *testing.T) (*httptest.Server, *notifier.Hub) {
	t.Helper()

	dataDir := t.TempDir()
	filesDir := filepath.Join(dataDir, "files")
	ticketsDir := filepath.Join(dataDir, "tickets")
	for _, dir := range []string{filesDir, ticketsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
	}

	hub := notifier.NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	sanitizer := security.NewMessageSanitizer()
	router := NewRouter(&RouterDeps{
		Logger:            slog.New(slog.NewJSONHandler(io.Discard, nil)),
		CORSAllowedOrigin: "*",

		Authenticator: credential.Load(filepath.Join(dataDir, "missing.json"), "password123"),
		FileService:   file.NewService(repository.NewDiskFileRepo(filesDir)),
		TicketService: ticket.NewService(repository.NewDiskTicketRepo(ticketsDir), sanitizer, hub),

		WSHandler: notifier.ServeWS(hub, 8),
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return server, hub
}

// TestRouter_WebSocketUpgradeThroughMiddleware はフルミドルウェアスタック越しに
// /ws へのアップグレードが成功することを検証する。ロギングミドルウェアの
// ResponseWriterラッパーがハイジャックを妨げるとここで失敗する。
func TestRouter_WebSocketUpgradeThroughMiddleware(t *testing.T) {
	server, _ := newRealtimeTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("failed to dial /ws through router: %v (status %d)", err, status)
	}
	if resp != nil {
		resp.Body.Close()
	}
	conn.Close()
}

// TestRouter_RealtimeMessageDelivery はHTTPでのメッセージ追記が、ルーター経由で
// 接続した購読者へnewMessageとして届くことをエンドツーエンドで検証する。
func TestRouter_RealtimeMessageDelivery(t *testing.T) {
	server, hub := newRealtimeTestServer(t)

	// チケット作成
	body := bytes.NewBufferString(`{"product":"Widget Pro","discordEmail":"user@example.com"}`)
	resp, err := http.Post(server.URL+"/tickets/create", "application/json", body)
	if err != nil {
		t.Fatalf("create request failed: %v", err)
	}
	var created struct {
		Success  bool   `json:"success"`
		TicketID string `json:"ticketId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode create response: %v", err)
	}
	resp.Body.Close()
	if created.TicketID == "" {
		t.Fatal("ticketId missing in create response")
	}

	// WebSocket接続してチケットを購読
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, wsResp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to dial /ws: %v", err)
	}
	if wsResp != nil {
		wsResp.Body.Close()
	}
	defer conn.Close()

	if err := conn.WriteJSON(wsEvent{Event: "joinTicket", TicketID: created.TicketID}); err != nil {
		t.Fatalf("failed to send joinTicket: %v", err)
	}

	// 購読がハブに反映されるまで待つ
	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers(created.TicketID) != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("Subscribers(%q) = %d, want 1", created.TicketID, hub.Subscribers(created.TicketID))
		}
		time.Sleep(5 * time.Millisecond)
	}

	// HTTPでメッセージを追記
	body = bytes.NewBufferString(`{"text":"Still broken","author":"user@example.com"}`)
	resp, err = http.Post(server.URL+"/tickets/"+created.TicketID+"/message", "application/json", body)
	if err != nil {
		t.Fatalf("append request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("append status = %d, want 200", resp.StatusCode)
	}

	// 購読者にnewMessageが届く
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev wsEvent
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("failed to read newMessage event: %v", err)
	}
	if ev.Event != "newMessage" {
		t.Errorf("event = %q, want %q", ev.Event, "newMessage")
	}
	if ev.Data.Author != "user@example.com" {
		t.Errorf("data.author = %q, want user@example.com", ev.Data.Author)
	}
	if ev.Data.Text != "Still broken" {
		t.Errorf("data.text = %q, want %q", ev.Data.Text, "Still broken")
	}
	if ev.Data.Timestamp == "" {
		t.Error("data.timestamp is empty")
	}
}
