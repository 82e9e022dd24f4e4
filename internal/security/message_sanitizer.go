// Package security はアプリケーションのセキュリティ機能を提供する。
//
// MessageSanitizerService はチケットメッセージの本文と投稿者名をサニタイズし、
// フロントエンドでの表示時に保存型XSSが成立しないようにする。
// bluemondayのStrictPolicyを使用し、HTMLタグをすべて除去する。
// タグを含まない通常のテキストはそのまま通過する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// MessageSanitizerService はメッセージサニタイズ機能のインターフェースを定義する。
// チケットメッセージの保存前に使用される。
type MessageSanitizerService interface {
	// Sanitize は入力からHTMLタグをすべて除去したテキストを返す。
	// 前後の空白はトリムする。空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// messageSanitizer はMessageSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type messageSanitizer struct {
	policy *bluemonday.Policy
}

// NewMessageSanitizer はMessageSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyはタグを一切許可しない。
func NewMessageSanitizer() MessageSanitizerService {
	return &messageSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力からHTMLタグをすべて除去したテキストを返す。
// ポリシーはテキストノードをHTMLエンティティにエスケープするため、
// エスケープを戻してプレーンテキストとして保存する。
// "O'Brien" や "Tom & Jerry" がそのまま保存されることを保証する。
func (s *messageSanitizer) Sanitize(raw string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(raw)))
}
