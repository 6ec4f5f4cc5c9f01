// Package staging принимает multipart-тело запроса и пишет файл чанка во
// временный каталог хранилища под уникальным именем. Бизнес-идентификаторы
// здесь не проверяются: это делает placement.
package staging

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/codeRisshi25/flowai/internal/chunkfs"
	"github.com/codeRisshi25/flowai/internal/models"
	"github.com/codeRisshi25/flowai/pkg/receiverproto"
)

const (
	// formOverhead — запас на заголовки частей и текстовые поля поверх размера чанка.
	formOverhead = 1 << 20
	maxFieldSize = 4 << 10
)

// Intake пишет чанки в <uploads>/.staging.
type Intake struct {
	store    *chunkfs.Store
	maxBytes int64
	log      logrus.FieldLogger
}

// New создаёт приёмник; maxBytes <= 0 отключает ограничение размера.
func New(store *chunkfs.Store, maxBytes int64, log logrus.FieldLogger) *Intake {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Intake{
		store:    store,
		maxBytes: maxBytes,
		log:      log.WithField("component", "staging"),
	}
}

// Receive читает multipart-форму потоком: текстовые поля собираются в любом
// порядке относительно файла, файл chunk сразу пишется на диск. Если части
// chunk не было, StagedPath остаётся пустым.
func (in *Intake) Receive(w http.ResponseWriter, r *http.Request) (sub models.Submission, err error) {
	if in.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, in.maxBytes+formOverhead)
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return models.Submission{}, models.ValidationError("body", fmt.Errorf("multipart form expected: %w", err))
	}

	// при любой ошибке не оставляем недописанный файл
	defer func() {
		if err != nil && sub.StagedPath != "" {
			in.Discard(sub.StagedPath)
			sub.StagedPath = ""
		}
	}()

	for {
		part, perr := mr.NextPart()
		if perr == io.EOF {
			break
		}
		if perr != nil {
			return sub, classifyReadErr("read multipart", perr)
		}

		switch name := part.FormName(); {
		case name == receiverproto.FieldChunk && part.FileName() != "":
			if sub.StagedPath != "" {
				_ = part.Close()
				return sub, models.ValidationError(name, errors.New("duplicate chunk part"))
			}
			if err := in.stage(part, &sub); err != nil {
				_ = part.Close()
				return sub, err
			}
		case name == receiverproto.FieldTransferID:
			sub.TransferID, err = readField(part)
		case name == receiverproto.FieldChunkIndex:
			sub.ChunkIndex, err = readField(part)
		case name == receiverproto.FieldOrgFileName:
			sub.OrgFileName, err = readField(part)
		case name == receiverproto.FieldChecksum:
			sub.ClientChecksum, err = readField(part)
		default:
			// неизвестные поля пропускаем
			_, err = io.Copy(io.Discard, part)
			if err != nil {
				err = classifyReadErr("skip part", err)
			}
		}
		_ = part.Close()
		if err != nil {
			return sub, err
		}
	}

	// отсутствие части chunk проверяет placement.Validate после метаданных
	return sub, nil
}

// stage пишет файл части в staging, считая размер и sha256.
func (in *Intake) stage(part *multipart.Part, sub *models.Submission) error {
	rel := in.store.Join(chunkfs.StagingDir, stagedName(part.FileName()))

	f, err := in.store.CreateExclusive(rel)
	if err != nil {
		return models.StorageError("stage", err)
	}
	// путь фиксируем сразу: deferred-очистка в Receive удалит файл при ошибке
	sub.StagedPath = rel

	h := sha256.New()
	var src io.Reader = part
	if in.maxBytes > 0 {
		src = io.LimitReader(part, in.maxBytes+1)
	}

	dst := &trackingWriter{w: f}
	n, err := io.Copy(io.MultiWriter(dst, h), src)
	if cerr := f.Close(); err == nil && cerr != nil {
		return models.StorageError("stage", cerr)
	}
	if dst.err != nil {
		return models.StorageError("stage", dst.err)
	}
	if err != nil {
		return classifyReadErr("stage", err)
	}
	if in.maxBytes > 0 && n > in.maxBytes {
		return models.ValidationError(receiverproto.FieldChunk, fmt.Errorf("%d bytes: %w", in.maxBytes, models.ErrChunkTooLarge))
	}

	sub.Size = n
	sub.SHA256 = hex.EncodeToString(h.Sum(nil))
	return nil
}

// Discard удаляет staged-файл; ошибки только логируются.
func (in *Intake) Discard(rel string) {
	if rel == "" {
		return
	}
	if err := in.store.Remove(rel); err != nil {
		in.log.WithError(err).WithField("staged_path", rel).Warn("discard staged file failed")
	}
}

// stagedName — уникальное имя временного файла: uuid плюс базовое имя клиента.
func stagedName(original string) string {
	base := path.Base(strings.ReplaceAll(original, `\`, "/"))
	base = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return '_'
		}
		return r
	}, base)
	if base == "." || base == "/" || base == "" {
		base = "chunk"
	}
	if len(base) > 128 {
		base = base[len(base)-128:]
	}
	return uuid.NewString() + "-" + base
}

// trackingWriter запоминает ошибку записи, чтобы отличить сбой диска от обрыва клиента.
type trackingWriter struct {
	w   io.Writer
	err error
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	if err != nil {
		t.err = err
	}
	return n, err
}

func readField(part *multipart.Part) (string, error) {
	b, err := io.ReadAll(io.LimitReader(part, maxFieldSize+1))
	if err != nil {
		return "", classifyReadErr("read field", err)
	}
	if len(b) > maxFieldSize {
		return "", models.ValidationError(part.FormName(), errors.New("field too long"))
	}
	return string(b), nil
}

func classifyReadErr(op string, err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return models.ValidationError(receiverproto.FieldChunk, fmt.Errorf("%s: %w", op, models.ErrChunkTooLarge))
	}
	return models.ValidationError("body", fmt.Errorf("%s: %w", op, err))
}
