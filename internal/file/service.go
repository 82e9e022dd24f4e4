// Package file はファイルマネージャのドメインサービスを提供する。
package file

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hitoshi/helpdesk/internal/model"
	"github.com/hitoshi/helpdesk/internal/repository"
)

// Service はファイルマネージャの操作を提供する。
// 検証を通過した後にのみリポジトリ（ディスク）へアクセスする。
type Service struct {
	repo repository.FileRepository
}

// NewService はServiceを生成する。
func NewService(repo repository.FileRepository) *Service {
	return &Service{repo: repo}
}

// List は管理ディレクトリ内の全ファイル名を返す。
// ディレクトリが空の場合はエラーではなく空スライスを返す。
func (s *Service) List(ctx context.Context) ([]string, error) {
	names, err := s.repo.List(ctx)
	if err != nil {
		slog.Error("failed to list files", slog.String("error", err.Error()))
		return nil, model.NewStorageError("Error listing files")
	}
	return names, nil
}

// Read は指定ファイルの内容を返す。
func (s *Service) Read(ctx context.Context, filename string) (string, error) {
	if filename == "" {
		return "", model.NewMissingFilenameError()
	}

	content, err := s.repo.Read(ctx, filename)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return "", model.NewFileNotFoundError()
	case errors.Is(err, repository.ErrInvalidName):
		return "", model.NewInvalidFilenameError()
	case err != nil:
		slog.Error("failed to read file",
			slog.String("filename", filename),
			slog.String("error", err.Error()),
		)
		return "", model.NewStorageError("Error reading file")
	}
	return content, nil
}

// Write は指定ファイルを作成または全上書きする。
// 内容は空文字列でもよい。内容未指定の判定は呼び出し側（JSONデコード層）が行う。
// 同一ファイルへの並行書き込みはロックせず、最後に完了した書き込みが勝つ。
func (s *Service) Write(ctx context.Context, filename, content string) error {
	if filename == "" {
		return model.NewMissingContentError()
	}

	err := s.repo.Write(ctx, filename, content)
	switch {
	case errors.Is(err, repository.ErrInvalidName):
		return model.NewInvalidFilenameError()
	case err != nil:
		slog.Error("failed to write file",
			slog.String("filename", filename),
			slog.String("error", err.Error()),
		)
		return model.NewStorageError("Error writing file")
	}

	slog.Info("file written", slog.String("filename", filename))
	return nil
}

// Delete は指定ファイルを削除する。
func (s *Service) Delete(ctx context.Context, filename string) error {
	if filename == "" {
		return model.NewMissingFilenameError()
	}

	err := s.repo.Delete(ctx, filename)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return model.NewFileNotFoundError()
	case errors.Is(err, repository.ErrInvalidName):
		return model.NewInvalidFilenameError()
	case err != nil:
		slog.Error("failed to delete file",
			slog.String("filename", filename),
			slog.String("error", err.Error()),
		)
		return model.NewStorageError("Error deleting file")
	}

	slog.Info("file deleted", slog.String("filename", filename))
	return nil
}
