package notifier

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/hitoshi/helpdesk/internal/model"
)

// newTestClient はネットワーク接続を持たないテスト用クライアントを生成する。
// ハブはsendチャネルにしか触れないため、ハブ単体のテストにはこれで十分。
func newTestClient(buffer int) *Client {
	return &Client{
		id:   "test-client",
		send: make(chan []byte, buffer),
	}
}

// startHub はハブを起動し、テスト終了時に停止するよう登録する。
func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

// joinHub はクライアントを登録してチケットを購読させ、反映を待つ。
func joinHub(t *testing.T, hub *Hub, c *Client, ticketID string) {
	t.Helper()
	hub.register <- c
	hub.subscribe <- subscription{client: c, ticketID: ticketID}
	if got := hub.Subscribers(ticketID); got < 1 {
		t.Fatalf("Subscribers(%q) = %d, want >= 1", ticketID, got)
	}
}

// recvEvent はクライアントの送信チャネルからイベントを1件読み取る。
func recvEvent(t *testing.T, c *Client) newMessageEvent {
	t.Helper()
	select {
	case payload, ok := <-c.send:
		if !ok {
			t.Fatal("send channel closed unexpectedly")
		}
		var ev newMessageEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			t.Fatalf("payload is not valid JSON: %v (payload: %s)", err, payload)
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return newMessageEvent{}
	}
}

func TestHub_SubscriberReceivesPublishedMessage(t *testing.T) {
	hub := startHub(t)
	c := newTestClient(4)
	joinHub(t, hub, c, "100")

	msg := model.Message{Timestamp: "2026-09-01T12:00:00Z", Author: "alice", Text: "hi"}
	hub.Publish("100", msg)

	ev := recvEvent(t, c)
	if ev.Event != "newMessage" {
		t.Errorf("event = %q, want %q", ev.Event, "newMessage")
	}
	if ev.Data != msg {
		t.Errorf("data = %+v, want %+v", ev.Data, msg)
	}

	// ちょうど1件だけ配信される
	select {
	case extra := <-c.send:
		t.Errorf("unexpected extra event: %s", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_LateSubscriberMissesEarlierMessages(t *testing.T) {
	hub := startHub(t)

	// 購読者ゼロの状態で発行
	hub.Publish("100", model.Message{Author: "alice", Text: "early"})

	c := newTestClient(4)
	joinHub(t, hub, c, "100")

	// 過去のメッセージは遡って配信されない
	select {
	case payload := <-c.send:
		t.Errorf("late subscriber received retroactive event: %s", payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHub_DeliveryOrderMatchesPublishOrder(t *testing.T) {
	hub := startHub(t)
	c := newTestClient(8)
	joinHub(t, hub, c, "100")

	texts := []string{"first", "second", "third"}
	for _, text := range texts {
		hub.Publish("100", model.Message{Author: "alice", Text: text})
	}

	for i, want := range texts {
		ev := recvEvent(t, c)
		if ev.Data.Text != want {
			t.Errorf("event[%d].Text = %q, want %q", i, ev.Data.Text, want)
		}
	}
}

func TestHub_PublishOnlyReachesThatTicketsSubscribers(t *testing.T) {
	hub := startHub(t)

	c1 := newTestClient(4)
	c2 := newTestClient(4)
	joinHub(t, hub, c1, "100")
	joinHub(t, hub, c2, "200")

	hub.Publish("100", model.Message{Author: "alice", Text: "for 100"})

	ev := recvEvent(t, c1)
	if ev.Data.Text != "for 100" {
		t.Errorf("c1 received %+v", ev.Data)
	}

	select {
	case payload := <-c2.send:
		t.Errorf("c2 subscribed to another ticket received: %s", payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHub_MultipleSubscribersAllReceive(t *testing.T) {
	hub := startHub(t)

	clients := []*Client{newTestClient(4), newTestClient(4), newTestClient(4)}
	for _, c := range clients {
		hub.register <- c
		hub.subscribe <- subscription{client: c, ticketID: "100"}
	}
	if got := hub.Subscribers("100"); got != 3 {
		t.Fatalf("Subscribers = %d, want 3", got)
	}

	hub.Publish("100", model.Message{Author: "alice", Text: "fanout"})

	for i, c := range clients {
		ev := recvEvent(t, c)
		if ev.Data.Text != "fanout" {
			t.Errorf("client[%d] received %+v", i, ev.Data)
		}
	}
}

func TestHub_UnregisterRemovesFromAllRooms(t *testing.T) {
	hub := startHub(t)
	c := newTestClient(4)

	hub.register <- c
	hub.subscribe <- subscription{client: c, ticketID: "100"}
	hub.subscribe <- subscription{client: c, ticketID: "200"}

	hub.unregister <- c

	// 登録解除の反映を購読者数の問い合わせで待つ
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if hub.Subscribers("100") == 0 && hub.Subscribers("200") == 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if n := hub.Subscribers("100"); n != 0 {
		t.Errorf("Subscribers(100) = %d, want 0", n)
	}
	if n := hub.Subscribers("200"); n != 0 {
		t.Errorf("Subscribers(200) = %d, want 0", n)
	}

	// 送信チャネルは閉じられる
	select {
	case _, ok := <-c.send:
		if ok {
			t.Error("expected send channel to be closed")
		}
	case <-time.After(time.Second):
		t.Error("send channel was not closed")
	}
}

func TestHub_SlowClientIsDropped(t *testing.T) {
	hub := startHub(t)
	c := newTestClient(1) // バッファ1で満杯にしやすくする
	joinHub(t, hub, c, "100")

	// バッファを超えて発行する。受信しないクライアントは切断される。
	for i := 0; i < 5; i++ {
		hub.Publish("100", model.Message{Author: "alice", Text: "flood"})
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if hub.Subscribers("100") == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Errorf("slow client was not dropped: Subscribers = %d", hub.Subscribers("100"))
}

func TestHub_PublishAfterShutdownDoesNotBlock(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	cancel()

	// 停止を待つ
	<-hub.done

	done := make(chan struct{})
	go func() {
		hub.Publish("100", model.Message{Author: "alice", Text: "late"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("Publish blocked after hub shutdown")
	}
}
