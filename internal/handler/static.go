package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// NewStaticHandler は静的ファイル配信のハンドラーを返す。
// リクエストパスに対応するファイルがstaticDir内に存在すればそれを返し、
// 存在しなければindexFileを返す。ディレクトリの外を指すパスは拒否する。
func NewStaticHandler(staticDir, indexFile string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			writeErrorResponse(w, http.StatusNotFound, "Not found")
			return
		}

		name := strings.TrimPrefix(filepath.Clean("/"+r.URL.Path), "/")
		if name == "" {
			name = indexFile
		}

		path := filepath.Join(staticDir, name)
		rel, err := filepath.Rel(staticDir, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			writeErrorResponse(w, http.StatusNotFound, "Not found")
			return
		}

		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			// 未知のパスはインデックスページにフォールバックする
			path = filepath.Join(staticDir, indexFile)
			if _, err := os.Stat(path); err != nil {
				writeErrorResponse(w, http.StatusNotFound, "Not found")
				return
			}
		}

		http.ServeFile(w, r, path)
	}
}
