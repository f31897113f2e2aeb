package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pipecenter/pipecenter-api/pkg/apperror"
)

// maxBlobSize is the largest blob a GET accepts; anything bigger is an error
const maxBlobSize = 32 << 20

// RemoteStore talks to a blob HTTP endpoint: PUT/GET/DELETE {baseURL}/{key}
// authorized with a bearer token.
type RemoteStore struct {
	baseURL string
	token   string
	client  *http.Client
	maxSize int64
}

// NewRemoteStore creates a remote blob store. A zero timeout means 15s.
func NewRemoteStore(baseURL, token string, timeout time.Duration) *RemoteStore {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RemoteStore{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
		maxSize: maxBlobSize,
	}
}

func (s *RemoteStore) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.do(ctx, http.MethodGet, key, nil)
	if err != nil {
		return nil, apperror.NewStorageError("get", key, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxSize+1))
		if err != nil {
			return nil, apperror.NewStorageError("get", key, err)
		}
		// A truncated collection must never be parsed and written back
		if int64(len(data)) > s.maxSize {
			return nil, apperror.NewStorageError("get", key, fmt.Errorf("blob exceeds %d bytes", s.maxSize))
		}
		return data, nil
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, apperror.NewStorageError("get", key, unexpectedStatus(resp))
	}
}

func (s *RemoteStore) Put(ctx context.Context, key string, data []byte) error {
	resp, err := s.do(ctx, http.MethodPut, key, data)
	if err != nil {
		return apperror.NewStorageError("put", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return apperror.NewStorageError("put", key, unexpectedStatus(resp))
	}
	return nil
}

func (s *RemoteStore) Delete(ctx context.Context, key string) (bool, error) {
	resp, err := s.do(ctx, http.MethodDelete, key, nil)
	if err != nil {
		return false, apperror.NewStorageError("delete", key, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, apperror.NewStorageError("delete", key, unexpectedStatus(resp))
	}
}

func (s *RemoteStore) Name() string { return "blob" }

func (s *RemoteStore) Persistent() bool { return true }

func (s *RemoteStore) do(ctx context.Context, method, key string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+"/"+url.PathEscape(key), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.client.Do(req)
}

func unexpectedStatus(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("unexpected HTTP status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
}
