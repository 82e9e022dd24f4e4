package repository

import (
	"fmt"
	"path/filepath"
	"strings"
)

// securePath はbaseDir直下のnameに対応するパスを解決する。
// 解決結果がbaseDirの外に出るnameはErrInvalidNameで拒否する。
// nameはパスセグメント1つ分のみを許可し、区切り文字を含むものは受け付けない。
func securePath(baseDir, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	if strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	}
	if name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	resolved := filepath.Join(baseDir, name)

	// Joinの正規化後もbaseDir配下に留まることを確認する
	rel, err := filepath.Rel(baseDir, resolved)
	if err != nil || rel != name {
		return "", fmt.Errorf("%w: %q escapes the base directory", ErrInvalidName, name)
	}

	return resolved, nil
}
