// Package placement переносит staged-чанки на постоянное место
// <uploads>/<transferId>/<orgFileName>.
//
// Движок не хранит состояния между вызовами: источником истины служит дерево
// каталогов. Каталог передачи создаётся идемпотентно, чанк перемещается одним
// rename (или жёсткой ссылкой для reject/version) в пределах тома, поэтому
// после успеха staged-файла уже нет, а при ошибке он остаётся на месте.
package placement

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/codeRisshi25/flowai/internal/chunkfs"
	"github.com/codeRisshi25/flowai/internal/models"
)

// Observer получает уведомление о каждом успешно размещённом чанке.
// Ошибка наблюдателя логируется и не отменяет размещение.
type Observer interface {
	ChunkPlaced(ctx context.Context, p models.Placement) error
}

// Deps — зависимости движка.
type Deps struct {
	Store     *chunkfs.Store
	Policy    Policy
	Observers []Observer
	Logger    logrus.FieldLogger
	// MaxConcurrent > 0 ограничивает число одновременных размещений.
	MaxConcurrent int
}

// Engine размещает чанки.
type Engine struct {
	store     *chunkfs.Store
	policy    Policy
	observers []Observer
	log       logrus.FieldLogger
	sem       chan struct{}
	now       func() time.Time
}

// New конструирует движок с заданными зависимостями.
func New(deps Deps) *Engine {
	policy := deps.Policy
	if policy == "" {
		policy = DefaultPolicy
	}

	log := deps.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	e := &Engine{
		store:     deps.Store,
		policy:    policy,
		observers: deps.Observers,
		log:       log.WithField("component", "placement"),
		now:       time.Now,
	}
	if deps.MaxConcurrent > 0 {
		e.sem = make(chan struct{}, deps.MaxConcurrent)
	}

	return e
}

// Policy возвращает действующую политику дубликатов.
func (e *Engine) Policy() Policy {
	return e.policy
}

// PlaceChunk валидирует заявку, гарантирует каталог передачи и перемещает
// staged-файл на финальный путь.
func (e *Engine) PlaceChunk(ctx context.Context, sub models.Submission) (models.Placement, error) {
	if err := Validate(sub); err != nil {
		return models.Placement{}, err
	}

	if err := e.acquire(ctx); err != nil {
		return models.Placement{}, fmt.Errorf("wait placement slot: %w", err)
	}
	defer e.release()

	if err := e.EnsureTransferDir(sub.TransferID); err != nil {
		return models.Placement{}, err
	}

	var (
		stored   = sub.OrgFileName
		replaced bool
		err      error
	)
	switch e.policy {
	case PolicyReject:
		err = e.promoteExclusive(sub.StagedPath, e.store.Join(sub.TransferID, stored))
	case PolicyVersion:
		stored, err = e.promoteVersioned(sub.StagedPath, sub.TransferID, sub.OrgFileName)
	default:
		replaced, err = e.promoteOverwrite(sub.StagedPath, e.store.Join(sub.TransferID, stored))
	}
	if err != nil {
		return models.Placement{}, err
	}

	p := models.Placement{
		TransferID:  sub.TransferID,
		ChunkIndex:  sub.ChunkIndex,
		OrgFileName: sub.OrgFileName,
		StoredName:  stored,
		Path:        e.store.Abs(e.store.Join(sub.TransferID, stored)),
		Size:        sub.Size,
		SHA256:      sub.SHA256,
		Replaced:    replaced,
		Policy:      string(e.policy),
		PlacedAt:    e.now().UTC(),
	}

	e.log.WithFields(logrus.Fields{
		"transfer_id": p.TransferID,
		"chunk_index": p.ChunkIndex,
		"stored_name": p.StoredName,
		"replaced":    p.Replaced,
	}).Debug("chunk placed")

	e.notify(ctx, p)
	return p, nil
}

// EnsureTransferDir создаёт каталог передачи, если его ещё нет.
// Конкурентное создание тем же запросом ошибкой не считается.
func (e *Engine) EnsureTransferDir(transferID string) error {
	if err := validateName(FieldTransferID, transferID); err != nil {
		return err
	}
	if err := e.store.MkdirAll(transferID); err != nil {
		return models.StorageError("ensure transfer dir", err)
	}
	return nil
}

// FinalPath вычисляет абсолютный путь чанка; chunkIndex на него не влияет.
func (e *Engine) FinalPath(transferID, orgFileName string) (string, error) {
	if err := validateName(FieldTransferID, transferID); err != nil {
		return "", err
	}
	if err := validateOrgFileName(orgFileName); err != nil {
		return "", err
	}
	return e.store.Abs(e.store.Join(transferID, orgFileName)), nil
}

// ListChunks возвращает размещённые чанки передачи, отсортированные по имени.
func (e *Engine) ListChunks(_ context.Context, transferID string) ([]models.ChunkInfo, error) {
	if err := validateName(FieldTransferID, transferID); err != nil {
		return nil, err
	}

	entries, err := e.store.ReadDir(transferID)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, models.NotFoundError("list chunks", fmt.Errorf("%s: %w", transferID, models.ErrTransferNotFound))
		}
		return nil, models.StorageError("list chunks", err)
	}

	out := make([]models.ChunkInfo, 0, len(entries))
	for _, fi := range entries {
		if fi.IsDir() {
			continue
		}
		out = append(out, models.ChunkInfo{
			Name:    fi.Name(),
			Size:    fi.Size(),
			ModTime: fi.ModTime().UTC(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out, nil
}

func (e *Engine) promoteOverwrite(staged, target string) (bool, error) {
	// Только для отчёта: rename заменит файл независимо от результата.
	replaced, _ := e.store.Exists(target)

	if err := e.store.Rename(staged, target); err != nil {
		return false, models.StorageError("promote", err)
	}
	return replaced, nil
}

// promoteExclusive переносит staged-файл на target, только если имя свободно.
func (e *Engine) promoteExclusive(staged, target string) error {
	ok, err := e.claim(staged, target)
	if err != nil {
		return err
	}
	if !ok {
		return models.ConflictError("promote", fmt.Errorf("%s: %w", target, models.ErrChunkExists))
	}
	return nil
}

func (e *Engine) promoteVersioned(staged, transferID, name string) (string, error) {
	for n := 0; n <= maxVersions; n++ {
		candidate := versionName(name, n)

		ok, err := e.claim(staged, e.store.Join(transferID, candidate))
		if err != nil {
			return "", err
		}
		if ok {
			return candidate, nil
		}
	}

	return "", models.ConflictError("promote", fmt.Errorf("%s: no free version slot: %w", name, models.ErrChunkExists))
}

// claim занимает свободное имя target содержимым staged. false — имя занято.
//
// Основной путь — жёсткая ссылка: имя появляется сразу с данными, пустого
// файла на финальном пути не бывает. Если ФС не умеет ссылки, имя занимается
// пустым резервом через O_EXCL и перезаписывается rename'ом.
func (e *Engine) claim(staged, target string) (bool, error) {
	linked, err := e.store.LinkExclusive(staged, target)
	switch {
	case err == nil && !linked:
		return false, nil
	case err == nil:
		if rmErr := e.store.Remove(staged); rmErr != nil {
			// данные уже на месте; остаток в staging уберёт janitor
			e.log.WithError(rmErr).WithField("staged_path", staged).Warn("remove staged link failed")
		}
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, models.StorageError("promote", err)
	}

	e.log.WithError(err).WithField("target", target).Debug("hard link unavailable, falling back to reservation")

	ok, err := e.store.Reserve(target)
	if err != nil {
		return false, models.StorageError("reserve", err)
	}
	if !ok {
		return false, nil
	}
	return true, e.renameOntoReservation(staged, target)
}

func (e *Engine) renameOntoReservation(staged, target string) error {
	if err := e.store.Rename(staged, target); err != nil {
		if rmErr := e.store.Remove(target); rmErr != nil {
			e.log.WithError(rmErr).WithField("target", target).Warn("remove reservation failed")
		}
		return models.StorageError("promote", err)
	}
	return nil
}

func (e *Engine) notify(ctx context.Context, p models.Placement) {
	if len(e.observers) == 0 {
		return
	}

	// чанк уже на месте, отмена запроса не должна терять уведомления
	octx := context.WithoutCancel(ctx)
	for _, o := range e.observers {
		if err := o.ChunkPlaced(octx, p); err != nil {
			e.log.WithError(err).WithFields(logrus.Fields{
				"transfer_id": p.TransferID,
				"stored_name": p.StoredName,
			}).Warn("placement observer failed")
		}
	}
}

func (e *Engine) acquire(ctx context.Context) error {
	if e.sem == nil {
		return nil
	}
	select {
	case e.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) release() {
	if e.sem != nil {
		<-e.sem
	}
}
