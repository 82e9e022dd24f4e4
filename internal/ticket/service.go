// Package ticket はサポートチケットのドメインサービスを提供する。
package ticket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/helpdesk/internal/model"
	"github.com/hitoshi/helpdesk/internal/repository"
	"github.com/hitoshi/helpdesk/internal/security"
)

// systemAuthor はサーバーが生成するメッセージの投稿者名。
const systemAuthor = "System"

// Publisher は新規メッセージをリアルタイム購読者へ配信するインターフェース。
// 配信はfire-and-forgetで、戻り値を持たない。
type Publisher interface {
	Publish(ticketID string, msg model.Message)
}

// Service はチケットの作成・取得・メッセージ追記を提供する。
// ユーザー入力のテキスト項目は保存前にサニタイズされる。
type Service struct {
	repo      repository.TicketRepository
	sanitizer security.MessageSanitizerService
	publisher Publisher
	idgen     *IDGenerator

	// テストで時刻を固定するためのフック
	now func() time.Time
}

// NewService はServiceを生成する。
// publisherにはnilを渡せる。その場合はリアルタイム配信を行わない。
func NewService(repo repository.TicketRepository, sanitizer security.MessageSanitizerService, publisher Publisher) *Service {
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
		publisher: publisher,
		idgen:     NewIDGenerator(),
		now:       time.Now,
	}
}

// Create は新規チケットを作成し、チケットIDを返す。
// 最初のメッセージとしてSystem発のメッセージを1件含む。
// visibleToは常に "admin" と作成者の連絡先を含む。
func (s *Service) Create(ctx context.Context, product, discordEmail string) (string, error) {
	product = s.sanitizer.Sanitize(product)
	discordEmail = s.sanitizer.Sanitize(discordEmail)
	if product == "" || discordEmail == "" {
		return "", model.NewMissingTicketFieldError()
	}

	id := s.idgen.Next()
	ticket := &model.Ticket{
		ID:           id,
		Product:      product,
		DiscordEmail: discordEmail,
		Messages: []model.Message{
			{
				Timestamp: s.timestamp(),
				Author:    systemAuthor,
				Text:      fmt.Sprintf("Ticket created for %s. Discord/Email: %s", product, discordEmail),
			},
		},
		VisibleTo: []string{"admin", discordEmail},
	}

	if err := s.repo.Create(ctx, ticket); err != nil {
		slog.Error("failed to create ticket",
			slog.String("ticket_id", id),
			slog.String("error", err.Error()),
		)
		return "", model.NewStorageError("Error creating ticket")
	}

	slog.Info("ticket created",
		slog.String("ticket_id", id),
		slog.String("product", product),
	)
	return id, nil
}

// Get は指定IDのチケットを返す。
// visibleToによるサーバー側の閲覧制限は行わない。IDを知る呼び出し側は全文を読める。
func (s *Service) Get(ctx context.Context, id string) (*model.Ticket, error) {
	ticket, err := s.repo.FindByID(ctx, id)
	switch {
	case errors.Is(err, repository.ErrInvalidName):
		// ディレクトリを横断するIDは存在しないチケットとして扱う
		return nil, model.NewTicketNotFoundError()
	case err != nil:
		slog.Error("failed to read ticket",
			slog.String("ticket_id", id),
			slog.String("error", err.Error()),
		)
		return nil, model.NewStorageError("Error reading ticket")
	case ticket == nil:
		return nil, model.NewTicketNotFoundError()
	}
	return ticket, nil
}

// AppendMessage は指定チケットにメッセージを追記し、追記したメッセージを返す。
// タイムスタンプは追記時点でサーバーが採番する。
// 追記に成功した場合、購読者へ新規メッセージを配信する。
func (s *Service) AppendMessage(ctx context.Context, id, author, text string) (model.Message, error) {
	author = s.sanitizer.Sanitize(author)
	text = s.sanitizer.Sanitize(text)
	if author == "" || text == "" {
		return model.Message{}, model.NewMissingMessageFieldError()
	}

	msg := model.Message{
		Timestamp: s.timestamp(),
		Author:    author,
		Text:      text,
	}

	err := s.repo.AppendMessage(ctx, id, msg)
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrInvalidName):
		return model.Message{}, model.NewTicketNotFoundError()
	case err != nil:
		slog.Error("failed to append message",
			slog.String("ticket_id", id),
			slog.String("error", err.Error()),
		)
		return model.Message{}, model.NewStorageError("Error saving message")
	}

	if s.publisher != nil {
		s.publisher.Publish(id, msg)
	}

	return msg, nil
}

// timestamp は現在時刻のISO-8601（RFC 3339）文字列を返す。常にUTC。
func (s *Service) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}
