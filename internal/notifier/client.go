package notifier

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/hitoshi/helpdesk/internal/model"
)

const (
	// writeWait はクライアントへの1回の書き込みに許す時間。
	writeWait = 10 * time.Second

	// pongWait はクライアントからのpongを待つ時間。超過で切断する。
	pongWait = 60 * time.Second

	// pingPeriod はpingの送信間隔。pongWaitより短くする。
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize はクライアントから受け付ける最大メッセージサイズ。
	// 受信するのはjoinTicketイベントのみのため小さくてよい。
	maxMessageSize = 512
)

// イベント名。クライアントとのワイヤフォーマットの一部。
const (
	eventJoinTicket = "joinTicket"
	eventNewMessage = "newMessage"
)

// inboundEvent はクライアントから受信するイベント。
type inboundEvent struct {
	Event    string `json:"event"`
	TicketID string `json:"ticketId"`
}

// newMessageEvent は購読者へ送信する新規メッセージイベント。
type newMessageEvent struct {
	Event string        `json:"event"`
	Data  model.Message `json:"data"`
}

// Client はWebSocket接続1本を表す。
// どのチケットを購読しているかはハブ側が保持する。
// 個別チケットの購読解除は提供せず、購読は接続が閉じるまで維持される。
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// readPump はクライアントからのイベントを読み続ける。
// 接続ごとに1ゴルーチンで動作し、終了時にハブから登録解除する。
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var ev inboundEvent
		if err := c.conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read error",
					slog.String("client_id", c.id),
					slog.String("error", err.Error()),
				)
			}
			return
		}

		if ev.Event == eventJoinTicket && ev.TicketID != "" {
			select {
			case c.hub.subscribe <- subscription{client: c, ticketID: ev.TicketID}:
			case <-c.hub.done:
				return
			}
		}
	}
}

// writePump はハブから受け取ったイベントをクライアントへ書き続ける。
// 接続ごとに1ゴルーチンで動作し、定期的にpingを送る。
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// ハブが切断した
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWS はWebSocketエンドポイントのHTTPハンドラーを返す。
// 接続をアップグレードしてハブに登録し、読み書きのポンプを起動する。
func ServeWS(hub *Hub, sendBuffer int) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// フロントエンドは同一オリジンで配信されるため、Originチェックは
		// CORSミドルウェアと同じ前提に委ねる
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("websocket upgrade failed", slog.String("error", err.Error()))
			return
		}

		client := &Client{
			id:   uuid.NewString(),
			hub:  hub,
			conn: conn,
			send: make(chan []byte, sendBuffer),
		}

		select {
		case hub.register <- client:
		case <-hub.done:
			conn.Close()
			return
		}

		go client.writePump()
		go client.readPump()
	}
}
