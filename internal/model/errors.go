package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// Messageはそのままレスポンスエンベロープの message フィールドになるため、
// ユーザーに見せられる文言のみを入れる。内部詳細はラップ元エラーとログに残す。
type APIError struct {
	Code     string // エラーコード
	Message  string // ユーザー向けメッセージ
	Category string // カテゴリ: auth, validation, file, ticket, storage, system
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeMissingFilename    = "MISSING_FILENAME"
	ErrCodeMissingContent     = "MISSING_CONTENT"
	ErrCodeInvalidFilename    = "INVALID_FILENAME"
	ErrCodeFileNotFound       = "FILE_NOT_FOUND"
	ErrCodeMissingTicketField = "MISSING_TICKET_FIELD"
	ErrCodeMissingMessage     = "MISSING_MESSAGE_FIELD"
	ErrCodeTicketNotFound     = "TICKET_NOT_FOUND"
	ErrCodeStorageFailure     = "STORAGE_FAILURE"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewInvalidCredentialsError は認証失敗エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid credentials",
		Category: "auth",
	}
}

// NewMissingFilenameError はファイル名未指定エラーを生成する。
func NewMissingFilenameError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingFilename,
		Message:  "Filename required",
		Category: "validation",
	}
}

// NewMissingContentError はファイル名または内容未指定エラーを生成する。
// 内容には空文字列を指定できる。欠落と空文字列は区別される。
func NewMissingContentError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingContent,
		Message:  "Filename and content required",
		Category: "validation",
	}
}

// NewInvalidFilenameError はディレクトリを横断するファイル名に対するエラーを生成する。
func NewInvalidFilenameError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidFilename,
		Message:  "Invalid filename",
		Category: "validation",
	}
}

// NewFileNotFoundError はファイル未検出エラーを生成する。
func NewFileNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeFileNotFound,
		Message:  "File not found",
		Category: "file",
	}
}

// NewMissingTicketFieldError はチケット作成の必須項目未指定エラーを生成する。
func NewMissingTicketFieldError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingTicketField,
		Message:  "Product and Discord/Email required",
		Category: "validation",
	}
}

// NewMissingMessageFieldError はメッセージ追記の必須項目未指定エラーを生成する。
func NewMissingMessageFieldError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingMessage,
		Message:  "Text and author required",
		Category: "validation",
	}
}

// NewTicketNotFoundError はチケット未検出エラーを生成する。
func NewTicketNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeTicketNotFound,
		Message:  "Ticket not found",
		Category: "ticket",
	}
}

// NewStorageError はストレージ操作の失敗エラーを生成する。
// messageはユーザーに返る文言のためパス等の内部情報を含めない。
func NewStorageError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeStorageFailure,
		Message:  message,
		Category: "storage",
	}
}

// NewInternalError は汎用の内部エラーを生成する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "Internal server error",
		Category: "system",
	}
}
