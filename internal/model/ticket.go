// Package model はドメインモデルを定義する。
package model

// Message はチケット内の1メッセージを表す。
// 追記後は不変であり、順序は追記順を保つ。
type Message struct {
	Timestamp string `json:"timestamp"` // サーバー採番のISO-8601文字列
	Author    string `json:"author"`    // "System" または投稿者の識別子
	Text      string `json:"text"`
}

// Ticket はサポートチケットを表す。
// 1チケット = 1 JSONレコードとしてディスクに永続化される。
// Messagesは追記専用で、並べ替え・切り詰めは行わない。
type Ticket struct {
	ID           string    `json:"id"`           // 作成時刻由来の一意ID
	Product      string    `json:"product"`      // 対象プロダクト名
	DiscordEmail string    `json:"discordEmail"` // Discordハンドルまたはメールアドレス
	Messages     []Message `json:"messages"`
	VisibleTo    []string  `json:"visibleTo"` // 常に "admin" と作成者の連絡先を含む
}
