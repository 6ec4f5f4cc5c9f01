// Package receiverproto описывает HTTP-протокол приёма чанков: маршруты, поля формы и ответы.
package receiverproto

// Маршруты receiver'а.
const (
	PathRoot        = "/"
	PathUploadChunk = "/upload-chunk"
	PathChunksFmt   = "/transfers/%s/chunks"
	PathHealth      = "/health"
	PathMetrics     = "/metrics"
	PathAdminGC     = "/admin/gc"
)

// Поля multipart-формы /upload-chunk.
const (
	FieldTransferID  = "transferId"
	FieldChunkIndex  = "chunkIndex"
	FieldOrgFileName = "orgFileName"
	FieldChunk       = "chunk"
	FieldChecksum    = "checksum"
)

// Greeting — ответ на GET /.
const Greeting = "Hello from FlowAI Receiver!"

// SuccessMessage — поле message успешного ответа /upload-chunk.
const SuccessMessage = "File successfully"

// UploadChunkResponse — тело ответа 200 на /upload-chunk.
type UploadChunkResponse struct {
	Message    string `json:"message"`
	TransferID string `json:"transferId"`
	ChunkIndex string `json:"chunkIndex"`
	StoredName string `json:"storedName,omitempty"`
	Size       int64  `json:"size"`
	SHA256     string `json:"sha256,omitempty"`
}

// ChunkEntry — элемент листинга передачи.
type ChunkEntry struct {
	Name    string `json:"name"`
	Size    int64  `json:"size"`
	ModTime string `json:"modTime"`
}

// ChunkListResponse — тело ответа GET /transfers/{transferId}/chunks.
type ChunkListResponse struct {
	TransferID string       `json:"transferId"`
	Chunks     []ChunkEntry `json:"chunks"`
}

// HealthResponse — payload ответа /health.
type HealthResponse struct {
	OK         bool  `json:"ok"`
	TotalBytes int64 `json:"total_bytes"`
	Transfers  int   `json:"transfers"`
	Chunks     int   `json:"chunks"`
	Staged     int   `json:"staged"`
}
