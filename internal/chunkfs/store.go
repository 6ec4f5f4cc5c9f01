// Package chunkfs — файловое хранилище чанков поверх go-billy.
//
// Все пути задаются относительно корня uploads. Файловая система открывается в
// режиме BoundOS: любой путь, выходящий за пределы корня, отсекается securejoin.
package chunkfs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// StagingDir — каталог для временных файлов внутри корня uploads.
// Держим его на том же томе, что и каталоги передач, чтобы rename был атомарным.
const StagingDir = ".staging"

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Store хранит передачи (каталоги) и их чанки (файлы).
type Store struct {
	root string
	fs   billy.Filesystem
}

// Open создаёт корень и staging-каталог при необходимости и возвращает хранилище.
func Open(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("chunkfs: resolve root %q: %w", root, err)
	}
	if err := os.MkdirAll(filepath.Join(abs, StagingDir), dirPerm); err != nil {
		return nil, fmt.Errorf("chunkfs: create root %q: %w", abs, err)
	}

	return &Store{
		root: abs,
		fs:   osfs.New(abs, osfs.WithBoundOS()),
	}, nil
}

// Root возвращает абсолютный путь корня uploads.
func (s *Store) Root() string {
	return s.root
}

// Abs переводит относительный путь в абсолютный путь на диске.
func (s *Store) Abs(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// MkdirAll создаёт каталог; существующий каталог ошибкой не считается.
func (s *Store) MkdirAll(rel string) error {
	if err := s.fs.MkdirAll(rel, dirPerm); err != nil {
		return fmt.Errorf("chunkfs: mkdirall %q: %w", rel, err)
	}
	return nil
}

// CreateExclusive создаёт новый файл для записи; если файл уже есть — ошибка fs.ErrExist.
//
//nolint:ireturn // billy.File is the natural handle type here.
func (s *Store) CreateExclusive(rel string) (billy.File, error) {
	f, err := s.fs.OpenFile(rel, os.O_CREATE|os.O_EXCL|os.O_WRONLY, filePerm)
	if err != nil {
		return nil, fmt.Errorf("chunkfs: create %q: %w", rel, err)
	}
	return f, nil
}

// Reserve атомарно занимает имя пустым файлом. false — имя уже занято.
func (s *Store) Reserve(rel string) (bool, error) {
	f, err := s.CreateExclusive(rel)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, err
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("chunkfs: close reservation %q: %w", rel, err)
	}
	return true, nil
}

// LinkExclusive создаёт жёсткую ссылку to на файл from. false — имя to уже занято.
// Имя появляется на диске сразу вместе с содержимым.
func (s *Store) LinkExclusive(from, to string) (bool, error) {
	src, err := s.resolve(from)
	if err != nil {
		return false, err
	}
	dst, err := s.resolve(to)
	if err != nil {
		return false, err
	}

	if err := os.Link(src, dst); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("chunkfs: link %q -> %q: %w", from, to, err)
	}
	return true, nil
}

// resolve переводит путь в абсолютный и отсекает выход за пределы корня.
func (s *Store) resolve(rel string) (string, error) {
	abs := s.Abs(rel)
	r, err := filepath.Rel(s.root, abs)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("chunkfs: path %q escapes root", rel)
	}
	return abs, nil
}

// Rename перемещает файл; существующий файл назначения перезаписывается.
func (s *Store) Rename(from, to string) error {
	if err := s.fs.Rename(from, to); err != nil {
		return fmt.Errorf("chunkfs: rename %q -> %q: %w", from, to, err)
	}
	return nil
}

// Remove удаляет файл или пустой каталог.
func (s *Store) Remove(rel string) error {
	if err := s.fs.Remove(rel); err != nil {
		return fmt.Errorf("chunkfs: remove %q: %w", rel, err)
	}
	return nil
}

// Stat возвращает информацию о файле.
func (s *Store) Stat(rel string) (os.FileInfo, error) {
	fi, err := s.fs.Stat(rel)
	if err != nil {
		return nil, fmt.Errorf("chunkfs: stat %q: %w", rel, err)
	}
	return fi, nil
}

// Exists сообщает, существует ли путь.
func (s *Store) Exists(rel string) (bool, error) {
	_, err := s.fs.Stat(rel)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("chunkfs: stat %q: %w", rel, err)
	}
}

// ReadDir возвращает содержимое каталога.
func (s *Store) ReadDir(rel string) ([]os.FileInfo, error) {
	entries, err := s.fs.ReadDir(rel)
	if err != nil {
		return nil, fmt.Errorf("chunkfs: readdir %q: %w", rel, err)
	}
	return entries, nil
}

// Join склеивает сегменты пути в формате хранилища.
func (s *Store) Join(elem ...string) string {
	return s.fs.Join(elem...)
}
