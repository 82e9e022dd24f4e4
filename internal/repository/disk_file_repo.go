package repository

import (
	"context"
	"fmt"
	"os"
)

// DiskFileRepo はローカルディスクの1ディレクトリを使用したファイルリポジトリ。
// ファイル名をキーとし、1エントリ = 1ファイルとして保存する。
// 同一ファイルへの並行書き込みはロックせず、最後に完了した書き込みが勝つ。
type DiskFileRepo struct {
	baseDir string
}

// NewDiskFileRepo はDiskFileRepoを生成する。
// baseDirは呼び出し側で作成済みであること。
func NewDiskFileRepo(baseDir string) *DiskFileRepo {
	return &DiskFileRepo{baseDir: baseDir}
}

// List はディレクトリ内の全ファイル名を返す。
// サブディレクトリはファイルマネージャの管理外のため除外する。
func (r *DiskFileRepo) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(r.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// Read は指定ファイルの内容を返す。
func (r *DiskFileRepo) Read(ctx context.Context, filename string) (string, error) {
	path, err := securePath(r.baseDir, filename)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, filename)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return string(data), nil
}

// Write は指定ファイルを作成または全上書きする。
func (r *DiskFileRepo) Write(ctx context.Context, filename, content string) error {
	path, err := securePath(r.baseDir, filename)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// Delete は指定ファイルを削除する。
func (r *DiskFileRepo) Delete(ctx context.Context, filename string) error {
	path, err := securePath(r.baseDir, filename)
	if err != nil {
		return err
	}

	err = os.Remove(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, filename)
	}
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// compile-time interface check
var _ FileRepository = (*DiskFileRepo)(nil)
