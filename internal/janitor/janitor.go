// Package janitor удаляет брошенные staged-файлы.
package janitor

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/codeRisshi25/flowai/internal/chunkfs"
)

// Result — итог одного прохода.
type Result struct {
	Removed      int   `json:"removed"`
	RemovedBytes int64 `json:"removed_bytes"`
	Kept         int   `json:"kept"`
}

// Janitor чистит каталог staging от файлов старше TTL.
type Janitor struct {
	store *chunkfs.Store
	ttl   time.Duration
	log   logrus.FieldLogger
	now   func() time.Time
}

func New(store *chunkfs.Store, ttl time.Duration, log logrus.FieldLogger) *Janitor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Janitor{
		store: store,
		ttl:   ttl,
		log:   log.WithField("component", "janitor"),
		now:   time.Now,
	}
}

// Start стартует периодическую очистку. Возвращает функцию остановки.
func (j *Janitor) Start(every time.Duration) func() {
	if every <= 0 || j.ttl <= 0 {
		return func() {}
	}

	ticker := time.NewTicker(every)
	stop := make(chan struct{})
	var once sync.Once
	go func() {
		for {
			select {
			case <-ticker.C:
				if _, err := j.SweepOnce(); err != nil {
					j.log.WithError(err).Warn("staging sweep failed")
				}
			case <-stop:
				ticker.Stop()
				return
			}
		}
	}()

	return func() {
		once.Do(func() {
			close(stop)
		})
	}
}

// SweepOnce удаляет staged-файлы, которые не менялись дольше TTL.
// Файлы моложе TTL могут принадлежать запросу в процессе и не трогаются.
// При TTL <= 0 проход ничего не делает: иначе под удаление попали бы
// файлы запросов, которые ещё не дошли до rename.
func (j *Janitor) SweepOnce() (Result, error) {
	var res Result
	if j.ttl <= 0 {
		return res, nil
	}

	entries, err := j.store.ReadDir(chunkfs.StagingDir)
	if err != nil {
		return res, err
	}

	now := j.now()
	for _, fi := range entries {
		if fi.IsDir() {
			continue
		}
		if now.Sub(fi.ModTime()) < j.ttl {
			res.Kept++
			continue
		}

		rel := j.store.Join(chunkfs.StagingDir, fi.Name())
		if err := j.store.Remove(rel); err != nil {
			j.log.WithError(err).WithField("file", rel).Warn("remove stale staged file")
			res.Kept++
			continue
		}
		res.Removed++
		res.RemovedBytes += fi.Size()
	}

	if res.Removed > 0 {
		j.log.WithFields(logrus.Fields{
			"removed": res.Removed,
			"bytes":   res.RemovedBytes,
		}).Info("stale staged files removed")
	}

	return res, nil
}
