// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/helpdesk/internal/model"
)

// ErrNotFound は対象のレコードが存在しないことを示す。
var ErrNotFound = errors.New("record not found")

// ErrInvalidName はキーがベースディレクトリの外を指すことを示す。
// パス区切り文字や ".." を含むキーはディスクに触れる前に拒否される。
var ErrInvalidName = errors.New("invalid record name")

// FileRepository はファイルマネージャのデータ永続化インターフェース。
// キーはファイル名で、書き込みは常に全内容の置き換えになる。
type FileRepository interface {
	// List はディレクトリ内の全ファイル名を返す。空の場合は空スライスを返す。
	List(ctx context.Context) ([]string, error)

	// Read は指定ファイルの内容を返す。
	// 存在しない場合はErrNotFoundを返す。
	Read(ctx context.Context, filename string) (string, error)

	// Write は指定ファイルを作成または全上書きする。内容は空文字列でもよい。
	Write(ctx context.Context, filename, content string) error

	// Delete は指定ファイルを削除する。
	// 存在しない場合はErrNotFoundを返す。
	Delete(ctx context.Context, filename string) error
}

// TicketRepository はチケットのデータ永続化インターフェース。
// 1チケット = 1 JSONレコード。削除操作は公開しない（ファイルとの意図的な非対称）。
type TicketRepository interface {
	// Create は新規チケットのレコードを書き込む。
	Create(ctx context.Context, ticket *model.Ticket) error

	// FindByID は指定IDのチケットを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Ticket, error)

	// AppendMessage は指定チケットにメッセージを追記する。
	// 同一チケットへの読み取り・変更・書き戻しはチケットIDごとに直列化され、
	// 並行追記で更新が失われることはない。
	// チケットが存在しない場合はErrNotFoundを返す。
	AppendMessage(ctx context.Context, id string, msg model.Message) error
}
