// Package httperrors переводит типизированные ошибки приёма чанков в HTTP-ответы.
package httperrors

import (
	"errors"
	"net/http"

	"github.com/codeRisshi25/flowai/internal/models"
	"github.com/codeRisshi25/flowai/pkg/receiverproto"
)

// Тексты ответов, на которые опираются существующие клиенты.
const (
	MsgMissingIdentity = "Missing transferId or chunkIndex."
	MsgSaveFailed      = "Error saving chunk."
)

// Status возвращает HTTP-код для ошибки.
func Status(err error) int {
	switch models.KindOf(err) {
	case models.KindValidation:
		switch {
		case errors.Is(err, models.ErrChunkTooLarge):
			return http.StatusRequestEntityTooLarge
		case errors.Is(err, models.ErrChecksumMismatch):
			return http.StatusUnprocessableEntity
		default:
			return http.StatusBadRequest
		}
	case models.KindConflict:
		return http.StatusConflict
	case models.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Write пишет ответ об ошибке. Внутренние подробности сбоев хранилища
// клиенту не отдаются.
func Write(w http.ResponseWriter, err error) {
	code := Status(err)

	switch {
	case code == http.StatusInternalServerError:
		http.Error(w, MsgSaveFailed, code)
	case isMissingIdentity(err):
		http.Error(w, MsgMissingIdentity, code)
	default:
		http.Error(w, err.Error(), code)
	}
}

func isMissingIdentity(err error) bool {
	if !errors.Is(err, models.ErrMissingField) {
		return false
	}
	switch models.FieldOf(err) {
	case receiverproto.FieldTransferID, receiverproto.FieldChunkIndex:
		return true
	}
	return false
}
