package chunkfs

import (
	"errors"
	"io/fs"
)

// Usage — агрегированная статистика по каталогу uploads.
type Usage struct {
	TotalBytes  int64 `json:"total_bytes"`
	Transfers   int   `json:"transfers"`
	Chunks      int   `json:"chunks"`
	Staged      int   `json:"staged"`
	StagedBytes int64 `json:"staged_bytes"`
}

// Usage обходит корень: каталоги передач и staging. Раскладка двухуровневая,
// поэтому рекурсивный обход не нужен.
func (s *Store) Usage() (Usage, error) {
	var u Usage

	entries, err := s.ReadDir(".")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return u, nil
		}
		return u, err
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}

		files, err := s.ReadDir(e.Name())
		if err != nil {
			// каталог мог исчезнуть между ReadDir и обходом
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return u, err
		}

		staging := e.Name() == StagingDir
		if !staging {
			u.Transfers++
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			u.TotalBytes += f.Size()
			if staging {
				u.Staged++
				u.StagedBytes += f.Size()
			} else {
				u.Chunks++
			}
		}
	}

	return u, nil
}
