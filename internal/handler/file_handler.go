package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/helpdesk/internal/model"
)

// FileServiceInterface はファイルハンドラーが必要とするサービスインターフェース。
type FileServiceInterface interface {
	// List は管理ディレクトリ内のファイル名一覧を返す。
	List(ctx context.Context) ([]string, error)
	// Read は指定ファイルの内容を返す。
	Read(ctx context.Context, filename string) (string, error)
	// Write は指定ファイルに内容を書き込む。既存ファイルは上書きする。
	Write(ctx context.Context, filename, content string) error
	// Delete は指定ファイルを削除する。
	Delete(ctx context.Context, filename string) error
}

// FileOperationMetrics はファイル操作のメトリクス記録インターフェース。
type FileOperationMetrics interface {
	RecordFileOperation(op string)
}

// FileHandler はファイル管理のHTTPハンドラー。
type FileHandler struct {
	service FileServiceInterface
	metrics FileOperationMetrics
}

// NewFileHandler はFileHandlerを生成する。metricsはnilでもよい。
func NewFileHandler(service FileServiceInterface, metrics FileOperationMetrics) *FileHandler {
	return &FileHandler{
		service: service,
		metrics: metrics,
	}
}

// writeFileRequest はファイル書き込みリクエストのボディ。
// Contentはポインタ型で受け、フィールド欠落と空文字列を区別する。
type writeFileRequest struct {
	Filename string  `json:"filename"`
	Content  *string `json:"content"`
}

// deleteFileRequest はファイル削除リクエストのボディ。
type deleteFileRequest struct {
	Filename string `json:"filename"`
}

// listFilesResponse はファイル一覧のレスポンス。
type listFilesResponse struct {
	Success bool     `json:"success"`
	Files   []string `json:"files"`
}

// readFileResponse はファイル読み取りのレスポンス。
type readFileResponse struct {
	Success bool   `json:"success"`
	Content string `json:"content"`
}

// successResponse は成功フラグのみのレスポンス。
type successResponse struct {
	Success bool `json:"success"`
}

// List はファイル一覧取得を処理する。
// GET /files/list
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	files, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.recordOperation("list")
	if files == nil {
		files = []string{}
	}
	writeJSON(w, http.StatusOK, listFilesResponse{
		Success: true,
		Files:   files,
	})
}

// Read はファイル読み取りを処理する。
// GET /files/read?filename=NAME
func (h *FileHandler) Read(w http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("filename")

	content, err := h.service.Read(r.Context(), filename)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.recordOperation("read")
	writeJSON(w, http.StatusOK, readFileResponse{
		Success: true,
		Content: content,
	})
}

// Write はファイル書き込みを処理する。
// POST /files/write
func (h *FileHandler) Write(w http.ResponseWriter, r *http.Request) {
	var req writeFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, model.NewMissingContentError().Message)
		return
	}

	// contentフィールドの欠落は拒否する。空文字列による上書きは許容する。
	if req.Filename == "" || req.Content == nil {
		writeErrorResponse(w, http.StatusBadRequest, model.NewMissingContentError().Message)
		return
	}

	if err := h.service.Write(r.Context(), req.Filename, *req.Content); err != nil {
		handleServiceError(w, err)
		return
	}

	h.recordOperation("write")
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// Delete はファイル削除を処理する。
// POST /files/delete
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req deleteFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, model.NewMissingFilenameError().Message)
		return
	}

	if err := h.service.Delete(r.Context(), req.Filename); err != nil {
		handleServiceError(w, err)
		return
	}

	h.recordOperation("delete")
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// ServeRaw は管理ディレクトリ内のファイルを読み取り専用でそのまま返す。
// GET /files/{name}
func (h *FileHandler) ServeRaw(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	content, err := h.service.Read(r.Context(), name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.recordOperation("read")
	w.Header().Set("Content-Type", http.DetectContentType([]byte(content)))
	w.Write([]byte(content))
}

func (h *FileHandler) recordOperation(op string) {
	if h.metrics != nil {
		h.metrics.RecordFileOperation(op)
	}
}
