package models

import (
	"errors"
	"fmt"
)

var (
	ErrMissingField     = errors.New("missing required field")
	ErrInvalidName      = errors.New("invalid name")
	ErrMissingChunk     = errors.New("chunk file is required")
	ErrChecksumMismatch = errors.New("sha256 mismatch")
	ErrChunkTooLarge    = errors.New("chunk too large")
	ErrChunkExists      = errors.New("chunk already exists")
	ErrTransferNotFound = errors.New("transfer not found")
)

// Kind классифицирует ошибку приёма/размещения чанка.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Error — типизированная ошибка: вид, операция, поле (для валидации) и причина.
type Error struct {
	Kind  Kind
	Op    string
	Field string
	Err   error
}

func (e *Error) Error() string {
	switch {
	case e.Field != "" && e.Op != "":
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Field, e.Err)
	case e.Field != "":
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Err.Error()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// ValidationError описывает отклонённую заявку (отсутствующее или некорректное поле).
func ValidationError(field string, err error) error {
	return &Error{Kind: KindValidation, Op: "validate", Field: field, Err: err}
}

// StorageError оборачивает сбой файловой системы во время размещения.
func StorageError(op string, err error) error {
	return &Error{Kind: KindStorage, Op: op, Err: err}
}

// ConflictError возвращается, когда финальный путь уже занят и политика запрещает перезапись.
func ConflictError(op string, err error) error {
	return &Error{Kind: KindConflict, Op: op, Err: err}
}

// NotFoundError — запрошенная передача отсутствует на диске.
func NotFoundError(op string, err error) error {
	return &Error{Kind: KindNotFound, Op: op, Err: err}
}

// KindOf возвращает вид ошибки; для ошибок без типа — KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// FieldOf возвращает имя поля для ошибок валидации.
func FieldOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}
