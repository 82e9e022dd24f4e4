// Package notifier はチケットごとのリアルタイム通知チャネルを提供する。
//
// クライアントはWebSocketで接続し、joinTicketイベントで特定チケットの
// 購読者集合に加わる。メッセージ追記時にnewMessageイベントが購読者全員へ
// 配信される。配信はfire-and-forgetで、再送・永続化は行わない。
// 配信漏れの回復手段はチケット全文の再取得（GET /tickets/{id}）である。
package notifier

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hitoshi/helpdesk/internal/model"
)

// ConnectionMetrics はハブが通知する接続・配信メトリクスのインターフェース。
type ConnectionMetrics interface {
	RecordWSConnectionOpened()
	RecordWSConnectionClosed()
	RecordNotificationsDelivered(count int)
}

// subscription はクライアントのチケット購読要求。
type subscription struct {
	client   *Client
	ticketID string
}

// notification は購読者へ配信する新規メッセージ。
type notification struct {
	ticketID string
	msg      model.Message
}

// countRequest は購読者数の問い合わせ。テストと診断用。
type countRequest struct {
	ticketID string
	reply    chan int
}

// Hub は全WebSocket接続とチケットごとの購読者集合を管理する。
// 状態の変更と配信はすべてRunの単一ゴルーチンで処理されるため、
// 同一チケット内の配信順序は発行順と一致する。
type Hub struct {
	register   chan *Client
	unregister chan *Client
	subscribe  chan subscription
	broadcast  chan notification
	counts     chan countRequest
	done       chan struct{}

	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}

	metrics ConnectionMetrics // nilの場合は記録しない
}

// NewHub はHubを生成する。metricsにはnilを渡せる。
func NewHub(metrics ConnectionMetrics) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		subscribe:  make(chan subscription),
		broadcast:  make(chan notification, 64),
		counts:     make(chan countRequest),
		done:       make(chan struct{}),
		clients:    make(map[*Client]struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
		metrics:    metrics,
	}
}

// Run はディスパッチループを実行する。ctxのキャンセルで停止する。
// 停止時は全クライアントの送信チャネルを閉じる。
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.removeClient(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			if h.metrics != nil {
				h.metrics.RecordWSConnectionOpened()
			}
			slog.Info("websocket client connected", slog.String("client_id", client.id))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.removeClient(client)
				slog.Info("websocket client disconnected", slog.String("client_id", client.id))
			}

		case sub := <-h.subscribe:
			if _, ok := h.clients[sub.client]; !ok {
				continue
			}
			room, ok := h.rooms[sub.ticketID]
			if !ok {
				room = make(map[*Client]struct{})
				h.rooms[sub.ticketID] = room
			}
			room[sub.client] = struct{}{}
			slog.Info("client joined ticket",
				slog.String("client_id", sub.client.id),
				slog.String("ticket_id", sub.ticketID),
			)

		case n := <-h.broadcast:
			h.deliver(n)

		case req := <-h.counts:
			req.reply <- len(h.rooms[req.ticketID])
		}
	}
}

// Publish は新規メッセージをチケットの購読者全員へ配信する。
// ハブ停止後の呼び出しは何もしない。
func (h *Hub) Publish(ticketID string, msg model.Message) {
	select {
	case h.broadcast <- notification{ticketID: ticketID, msg: msg}:
	case <-h.done:
	}
}

// Subscribers は指定チケットの現在の購読者数を返す。
// ハブ停止後は0を返す。
func (h *Hub) Subscribers(ticketID string) int {
	req := countRequest{ticketID: ticketID, reply: make(chan int, 1)}
	select {
	case h.counts <- req:
		return <-req.reply
	case <-h.done:
		return 0
	}
}

// deliver は通知をJSONに符号化して購読者の送信チャネルへ渡す。
// 送信バッファが満杯のクライアントは切断扱いにして取り除く。
// 遅いクライアントがハブ全体を止めることはない。
func (h *Hub) deliver(n notification) {
	payload, err := json.Marshal(newMessageEvent{
		Event: eventNewMessage,
		Data:  n.msg,
	})
	if err != nil {
		slog.Error("failed to encode notification", slog.String("error", err.Error()))
		return
	}

	delivered := 0
	for client := range h.rooms[n.ticketID] {
		select {
		case client.send <- payload:
			delivered++
		default:
			slog.Warn("dropping slow websocket client", slog.String("client_id", client.id))
			h.removeClient(client)
		}
	}

	if h.metrics != nil && delivered > 0 {
		h.metrics.RecordNotificationsDelivered(delivered)
	}
}

// removeClient はクライアントを全購読者集合から取り除き、送信チャネルを閉じる。
func (h *Hub) removeClient(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	for ticketID, room := range h.rooms {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, ticketID)
		}
	}
	close(client.send)
	if h.metrics != nil {
		h.metrics.RecordWSConnectionClosed()
	}
}
