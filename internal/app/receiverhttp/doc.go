// Package receiverhttp реализует HTTP-интерфейс receiver'а FlowAI, принимающего
// чанки передач и раскладывающего их по каталогам на локальном диске. Эндпоинты:
//   - GET / — приветствие, используется как простая проверка доступности.
//   - POST /upload-chunk — принимает multipart-форму (transferId, chunkIndex,
//     orgFileName, файл chunk, опционально checksum) и размещает чанк в
//     <uploads>/<transferId>/<orgFileName>.
//   - GET /transfers/{transferId}/chunks — листинг размещённых чанков передачи.
//   - GET /transfers/{transferId}/placements — записи журнала, если он включён.
//   - GET /health — статистика каталога uploads.
//   - GET /metrics — метрики Prometheus.
//   - POST /admin/gc — внеочередная очистка staging.
package receiverhttp
