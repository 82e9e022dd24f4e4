package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/hitoshi/helpdesk/internal/model"
)

// DiskTicketRepo はローカルディスクを使用したチケットリポジトリ。
// 1チケットを <baseDir>/<id>.json の1レコードとして保存する。
// AppendMessageの読み取り・変更・書き戻しはチケットIDごとのミューテックスで
// 直列化し、並行追記による更新消失を防ぐ。
type DiskTicketRepo struct {
	baseDir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex // チケットIDごとの直列化ポイント
}

// NewDiskTicketRepo はDiskTicketRepoを生成する。
// baseDirは呼び出し側で作成済みであること。
func NewDiskTicketRepo(baseDir string) *DiskTicketRepo {
	return &DiskTicketRepo{
		baseDir: baseDir,
		locks:   make(map[string]*sync.Mutex),
	}
}

// Create は新規チケットのレコードを書き込む。
func (r *DiskTicketRepo) Create(ctx context.Context, ticket *model.Ticket) error {
	path, err := r.recordPath(ticket.ID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(ticket, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode ticket: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write ticket record: %w", err)
	}
	return nil
}

// FindByID は指定IDのチケットを取得する。見つからない場合はnilを返す。
func (r *DiskTicketRepo) FindByID(ctx context.Context, id string) (*model.Ticket, error) {
	path, err := r.recordPath(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ticket record: %w", err)
	}

	ticket := &model.Ticket{}
	if err := json.Unmarshal(data, ticket); err != nil {
		return nil, fmt.Errorf("failed to decode ticket record: %w", err)
	}
	return ticket, nil
}

// AppendMessage は指定チケットにメッセージを追記する。
func (r *DiskTicketRepo) AppendMessage(ctx context.Context, id string, msg model.Message) error {
	lock, err := r.ticketLock(id)
	if err != nil {
		return err
	}

	lock.Lock()
	defer lock.Unlock()

	ticket, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if ticket == nil {
		return fmt.Errorf("%w: ticket %s", ErrNotFound, id)
	}

	ticket.Messages = append(ticket.Messages, msg)
	return r.Create(ctx, ticket)
}

// recordPath はチケットIDからレコードのパスを解決する。
// IDはURLから渡される信用できない入力のため、ファイル名と同じ検証を通す。
func (r *DiskTicketRepo) recordPath(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("%w: empty ticket id", ErrInvalidName)
	}
	return securePath(r.baseDir, id+".json")
}

// ticketLock はチケットIDに対応するミューテックスを取得または作成する。
func (r *DiskTicketRepo) ticketLock(id string) (*sync.Mutex, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty ticket id", ErrInvalidName)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[id] = lock
	}
	return lock, nil
}

// compile-time interface check
var _ TicketRepository = (*DiskTicketRepo)(nil)
