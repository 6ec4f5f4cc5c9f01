package httperrors

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codeRisshi25/flowai/internal/models"
)

func TestWrite(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		body string
	}{
		{"missing transfer", models.ValidationError("transferId", models.ErrMissingField), http.StatusBadRequest, MsgMissingIdentity},
		{"missing index", models.ValidationError("chunkIndex", models.ErrMissingField), http.StatusBadRequest, MsgMissingIdentity},
		{"missing name", models.ValidationError("orgFileName", models.ErrMissingField), http.StatusBadRequest, "orgFileName"},
		{"invalid name", models.ValidationError("orgFileName", fmt.Errorf("%q: %w", "..", models.ErrInvalidName)), http.StatusBadRequest, "invalid name"},
		{"too large", models.ValidationError("chunk", models.ErrChunkTooLarge), http.StatusRequestEntityTooLarge, "too large"},
		{"checksum", models.ValidationError("checksum", models.ErrChecksumMismatch), http.StatusUnprocessableEntity, "sha256 mismatch"},
		{"conflict", models.ConflictError("promote", models.ErrChunkExists), http.StatusConflict, "already exists"},
		{"not found", models.NotFoundError("list chunks", models.ErrTransferNotFound), http.StatusNotFound, "transfer not found"},
		{"storage", models.StorageError("promote", errors.New("rename /srv/uploads/x: input/output error")), http.StatusInternalServerError, MsgSaveFailed},
		{"untyped", errors.New("boom"), http.StatusInternalServerError, MsgSaveFailed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Write(rec, tc.err)

			assert.Equal(t, tc.code, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.body)
			assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
		})
	}
}

func TestWriteHidesStorageDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, models.StorageError("promote", errors.New("/secret/path")))
	assert.NotContains(t, rec.Body.String(), "/secret/path")
}
