package models

import "time"

// Submission — заявка на размещение одного чанка: метаданные формы плюс staged-файл.
type Submission struct {
	TransferID  string
	ChunkIndex  string
	OrgFileName string
	// StagedPath задан относительно корня uploads.
	StagedPath     string
	Size           int64
	SHA256         string
	ClientChecksum string
}

// Placement описывает чанк, перемещённый на постоянное место.
type Placement struct {
	TransferID  string    `json:"transfer_id"`
	ChunkIndex  string    `json:"chunk_index"`
	OrgFileName string    `json:"org_file_name"`
	StoredName  string    `json:"stored_name"`
	Path        string    `json:"path,omitempty"`
	Size        int64     `json:"size"`
	SHA256      string    `json:"sha256"`
	Replaced    bool      `json:"replaced"`
	Policy      string    `json:"policy"`
	PlacedAt    time.Time `json:"placed_at"`
}

// ChunkInfo — элемент листинга передачи.
type ChunkInfo struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// ChunkPlan описывает, на сколько частей нужно разбить файл и какого они размера.
type ChunkPlan struct {
	Total int
	Size  int64
}
