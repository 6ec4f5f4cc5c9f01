// Package receiverclient — HTTP-клиент receiver'а FlowAI: отправка отдельных
// чанков и нарезка файла на чанки с параллельной загрузкой.
package receiverclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/codeRisshi25/flowai/pkg/receiverproto"
)

// ChunkRequest описывает один чанк для POST /upload-chunk.
type ChunkRequest struct {
	TransferID  string
	Index       int
	OrgFileName string
	Reader      io.Reader
	// SHA256 — опциональная контрольная сумма в hex; сервер сверит её с полученными байтами.
	SHA256 string
}

// StatusError — ответ receiver'а с кодом не 2xx.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("receiver responded %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("receiver responded %d: %s", e.Code, e.Message)
}

type Client interface {
	// UploadChunk Отправить один чанк
	UploadChunk(ctx context.Context, baseURL string, req ChunkRequest) (receiverproto.UploadChunkResponse, error)
	// ListChunks Получить список размещённых чанков передачи
	ListChunks(ctx context.Context, baseURL, transferID string) (receiverproto.ChunkListResponse, error)
	// SendFile Нарезать файл на чанки и отправить их
	SendFile(ctx context.Context, baseURL string, req SendRequest) (SendResult, error)
}

type httpClient struct {
	c *http.Client
}

// New создаёт HTTP-клиент; nil означает http.DefaultClient.
func New(c *http.Client) Client {
	if c == nil {
		c = http.DefaultClient
	}
	return &httpClient{c: c}
}

// UploadChunk стримит multipart-тело через pipe, не буферизуя чанк в памяти.
func (h *httpClient) UploadChunk(ctx context.Context, baseURL string, req ChunkRequest) (receiverproto.UploadChunkResponse, error) {
	var out receiverproto.UploadChunkResponse

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeForm(mw, req))
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint(baseURL, receiverproto.PathUploadChunk), pr)
	if err != nil {
		_ = pr.CloseWithError(err)
		return out, err
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := h.c.Do(httpReq)
	if err != nil {
		_ = pr.CloseWithError(err)
		return out, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return out, err
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decode upload response: %w", err)
	}
	return out, nil
}

// ListChunks запрашивает листинг передачи.
func (h *httpClient) ListChunks(ctx context.Context, baseURL, transferID string) (receiverproto.ChunkListResponse, error) {
	var out receiverproto.ChunkListResponse

	u := endpoint(baseURL, fmt.Sprintf(receiverproto.PathChunksFmt, url.PathEscape(transferID)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return out, err
	}

	resp, err := h.c.Do(req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return out, err
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decode chunk list: %w", err)
	}
	return out, nil
}

// writeForm пишет поля до файла, как это делают браузерные клиенты.
func writeForm(mw *multipart.Writer, req ChunkRequest) error {
	fields := [][2]string{
		{receiverproto.FieldTransferID, req.TransferID},
		{receiverproto.FieldChunkIndex, strconv.Itoa(req.Index)},
		{receiverproto.FieldOrgFileName, req.OrgFileName},
	}
	if req.SHA256 != "" {
		fields = append(fields, [2]string{receiverproto.FieldChecksum, req.SHA256})
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return err
		}
	}

	if req.Reader != nil {
		fw, err := mw.CreateFormFile(receiverproto.FieldChunk, req.OrgFileName)
		if err != nil {
			return err
		}
		if _, err := io.Copy(fw, req.Reader); err != nil {
			return err
		}
	}

	return mw.Close()
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	return &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(b))}
}

func endpoint(baseURL, path string) string {
	return strings.TrimRight(baseURL, "/") + path
}
