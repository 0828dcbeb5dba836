package services

import (
	"errors"

	"feedsync/db"
	"feedsync/remote"
)

var (
	ErrNetworkFailure = errors.New("network failure")
	ErrDecodeFailure  = errors.New("decode failure")
	ErrEmptyResponse  = errors.New("empty response")
	ErrStoreFailure   = errors.New("store failure")
)

// RefreshFailedMessage показывается пользователю при сетевой ошибке обновления
const RefreshFailedMessage = "Не удалось обновить ленту. Проверьте подключение к интернету."

// SyncError - типизированная ошибка синхронизации
type SyncError struct {
	Kind error
	Op   string
	Err  error
}

func (e *SyncError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *SyncError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// classify относит ошибку адаптера или хранилища к одной из категорий
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *SyncError
	if errors.As(err, &se) {
		return err
	}

	kind := ErrStoreFailure
	switch {
	case errors.Is(err, remote.ErrEmptyResponse):
		kind = ErrEmptyResponse
	case errors.Is(err, remote.ErrDecode):
		kind = ErrDecodeFailure
	case errors.Is(err, remote.ErrNetwork):
		kind = ErrNetworkFailure
	case errors.Is(err, db.ErrStore):
		kind = ErrStoreFailure
	}
	return &SyncError{Kind: kind, Op: op, Err: err}
}

// UserError - ошибка с текстом для показа пользователю
type UserError struct {
	Message string
	Err     error
}

func (e *UserError) Error() string { return e.Message }

func (e *UserError) Unwrap() error { return e.Err }

// UserMessage возвращает текст ошибки обновления для пользователя:
// любой сбой загрузки из сети (нет связи, битый ответ, пустой ответ)
// заменяется фиксированным сообщением, ошибки хранилища идут как есть.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Message
	}
	if isFetchFailure(err) {
		return RefreshFailedMessage
	}
	return err.Error()
}

func isFetchFailure(err error) bool {
	for _, target := range []error{
		ErrNetworkFailure, ErrDecodeFailure, ErrEmptyResponse,
		remote.ErrNetwork, remote.ErrDecode, remote.ErrEmptyResponse,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
