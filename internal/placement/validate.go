package placement

import (
	"fmt"
	"strings"

	"github.com/codeRisshi25/flowai/internal/chunkfs"
	"github.com/codeRisshi25/flowai/internal/models"
	"github.com/codeRisshi25/flowai/pkg/receiverproto"
)

const maxNameLen = 255

// Имена полей формы; используются в ошибках валидации.
const (
	FieldTransferID  = receiverproto.FieldTransferID
	FieldChunkIndex  = receiverproto.FieldChunkIndex
	FieldOrgFileName = receiverproto.FieldOrgFileName
	FieldChunk       = receiverproto.FieldChunk
	FieldChecksum    = receiverproto.FieldChecksum
)

// Validate проверяет заявку до любых изменений на диске.
func Validate(sub models.Submission) error {
	if sub.TransferID == "" {
		return models.ValidationError(FieldTransferID, models.ErrMissingField)
	}
	if sub.ChunkIndex == "" {
		return models.ValidationError(FieldChunkIndex, models.ErrMissingField)
	}
	if sub.OrgFileName == "" {
		return models.ValidationError(FieldOrgFileName, models.ErrMissingField)
	}
	if err := validateName(FieldTransferID, sub.TransferID); err != nil {
		return err
	}
	if err := validateOrgFileName(sub.OrgFileName); err != nil {
		return err
	}
	if sub.StagedPath == "" {
		return models.ValidationError(FieldChunk, models.ErrMissingChunk)
	}
	if sub.ClientChecksum != "" && !strings.EqualFold(sub.ClientChecksum, sub.SHA256) {
		return models.ValidationError(FieldChecksum, models.ErrChecksumMismatch)
	}

	return nil
}

// validateName допускает только один сегмент пути внутри корня uploads.
func validateName(field, name string) error {
	switch {
	case name == "":
		return models.ValidationError(field, models.ErrMissingField)
	case name == "." || name == "..":
	case strings.ContainsAny(name, `/\`):
	case strings.ContainsRune(name, 0):
	case len(name) > maxNameLen:
	case name == chunkfs.StagingDir:
	default:
		return nil
	}

	return models.ValidationError(field, fmt.Errorf("%q: %w", name, models.ErrInvalidName))
}

// validateOrgFileName дополнительно запрещает суффикс версии, чтобы имя клиента
// не совпало с копией, созданной политикой version.
func validateOrgFileName(name string) error {
	if err := validateName(FieldOrgFileName, name); err != nil {
		return err
	}
	if isVersionName(name) {
		return models.ValidationError(FieldOrgFileName, fmt.Errorf("%q: reserved suffix %q: %w", name, versionSep, models.ErrInvalidName))
	}
	return nil
}
