package model

// User は認証に成功したユーザーを表す。
// 永続化されず、ログインレスポンスの構築にのみ使用する。
type User struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}
