package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"streamchat/internal/domain"
)

// Transport abre el stream de respuesta para un request de chat. El body
// devuelto lo cierra quien lo consume.
type Transport interface {
	Stream(ctx context.Context, req domain.ChatRequest) (io.ReadCloser, error)
}

// HTTPTransport habla con el endpoint proxy por HTTP.
type HTTPTransport struct {
	url    string
	client *http.Client
}

// NewHTTPTransport construye un transport contra url. Sin client propio usa
// uno sin timeout global, para no cortar streams largos; solo limita la
// espera de headers.
func NewHTTPTransport(url string, client *http.Client) *HTTPTransport {
	if client == nil {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.ResponseHeaderTimeout = 60 * time.Second
		client = &http.Client{Transport: tr}
	}
	return &HTTPTransport{
		url:    strings.TrimSpace(url),
		client: client,
	}
}

func (t *HTTPTransport) Stream(ctx context.Context, req domain.ChatRequest) (io.ReadCloser, error) {
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return nil, &RequestError{Kind: KindTransport, Message: "encode request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, &RequestError{Kind: KindTransport, Message: "create request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/plain")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrAborted
		}
		return nil, &RequestError{Kind: KindTransport, Message: "network error", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, rejection(resp)
	}

	if resp.Body == nil || resp.Body == http.NoBody {
		return nil, &RequestError{Kind: KindMalformedStream, Status: resp.StatusCode, Message: "No response body"}
	}
	return resp.Body, nil
}

func rejection(resp *http.Response) error {
	reqErr := &RequestError{
		Kind:    KindServerRejected,
		Status:  resp.StatusCode,
		Message: defaultFailureMessage,
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		reqErr.Details = fmt.Sprintf("read error body: %v", err)
		return reqErr
	}

	var apiErr domain.APIError
	if err := json.Unmarshal(raw, &apiErr); err != nil {
		reqErr.Details = fmt.Sprintf("status=%d body=%q", resp.StatusCode, strings.TrimSpace(string(raw)))
		return reqErr
	}
	if apiErr.Error != "" {
		reqErr.Message = apiErr.Error
	}
	reqErr.Details = apiErr.Details
	return reqErr
}
