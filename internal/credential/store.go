// Package credential は認証情報の読み込みと照合を提供する。
//
// パスワードは設定ファイルに平文で保持され、照合も単純な文字列比較で行う。
// ハッシュ方式への差し替えができるよう、照合処理はAuthenticatorインターフェース
// の背後に隔離してある。
package credential

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/hitoshi/helpdesk/internal/model"
)

// adminUsername は管理者権限を持つ唯一のユーザー名。
const adminUsername = "admin"

// Authenticator は認証情報の照合インターフェース。
type Authenticator interface {
	// Authenticate はユーザー名とパスワードを照合する。
	// 照合に成功した場合はユーザー情報を、失敗した場合はnilを返す。
	Authenticate(username, password string) *model.User
}

// Store はプロセス起動時に読み込んだユーザー名→パスワードの対応を保持する。
// 読み込み後は不変。更新・削除操作は公開しない。
type Store struct {
	credentials map[string]string
}

// credentialsFile は認証情報JSONファイルのフォーマット。
type credentialsFile struct {
	Credentials map[string]string `json:"credentials"`
}

// Load はpathのJSONファイルから認証情報を読み込んでStoreを生成する。
// 読み込みまたは解析に失敗した場合はエラーにせず、
// admin + adminPassword の1エントリにフォールバックする。
func Load(path, adminPassword string) *Store {
	creds, err := loadFile(path)
	if err != nil {
		slog.Warn("using default credentials",
			slog.String("path", path),
			slog.String("reason", err.Error()),
		)
		return &Store{credentials: map[string]string{adminUsername: adminPassword}}
	}

	usernames := make([]string, 0, len(creds))
	for name := range creds {
		usernames = append(usernames, name)
	}
	slog.Info("loaded credentials", slog.Any("usernames", usernames))

	return &Store{credentials: creds}
}

// loadFile はJSONファイルから認証情報マップを読み込む。
func loadFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var f credentialsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	if len(f.Credentials) == 0 {
		return nil, fmt.Errorf("credentials file has no entries")
	}

	return f.Credentials, nil
}

// Authenticate はユーザー名とパスワードの完全一致を確認する。
// 大文字小文字を区別し、レート制限やロックアウトは行わない。
// isAdminはユーザー名が "admin" の場合のみtrueになる。
func (s *Store) Authenticate(username, password string) *model.User {
	stored, ok := s.credentials[username]
	if !ok || stored != password {
		return nil
	}
	return &model.User{
		Username: username,
		IsAdmin:  username == adminUsername,
	}
}

// compile-time interface check
var _ Authenticator = (*Store)(nil)
