// Package hosted guarda los documentos en el storage del servicio hosted
// (API REST estilo storage/v1 con buckets y URLs firmadas).
package hosted

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"family-care/internal/platform/httpclient"
	"family-care/internal/ports/objectstore"
)

var ErrNotConfigured = errors.New("hosted storage not configured")

type Config struct {
	BaseURL string
	APIKey  string
	Bucket  string
	Timeout time.Duration
}

type Store struct {
	http   *httpclient.Client
	base   string
	bucket string
}

func NewStore(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" || strings.TrimSpace(cfg.APIKey) == "" || strings.TrimSpace(cfg.Bucket) == "" {
		return nil, ErrNotConfigured
	}
	c, err := httpclient.NewWithBaseURL(strings.TrimSpace(cfg.BaseURL), cfg.Timeout)
	if err != nil {
		return nil, err
	}
	key := strings.TrimSpace(cfg.APIKey)
	c.DefaultHeaders = map[string]string{
		"apikey":        key,
		"Authorization": "Bearer " + key,
	}
	return &Store{http: c, base: c.BaseURL, bucket: strings.TrimSpace(cfg.Bucket)}, nil
}

func (s *Store) objectPath(path string) string {
	return "/storage/v1/object/" + url.PathEscape(s.bucket) + "/" + escapePath(path)
}

func (s *Store) Put(ctx context.Context, path, contentType string, data []byte) error {
	_, _, err := s.http.DoRaw(ctx, http.MethodPost, s.objectPath(path), map[string]string{
		"Content-Type": contentType,
		"x-upsert":     "false",
	}, bytes.NewReader(data), 0)
	if err != nil {
		return fmt.Errorf("hosted storage put: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, path string) (objectstore.Object, error) {
	raw, ct, err := s.http.DoRaw(ctx, http.MethodGet, s.objectPath(path), nil, nil, 0)
	if err != nil {
		return objectstore.Object{}, mapErr("get", err)
	}
	return objectstore.Object{Path: path, ContentType: ct, Data: raw}, nil
}

func (s *Store) Delete(ctx context.Context, path string) error {
	if _, _, err := s.http.DoRaw(ctx, http.MethodDelete, s.objectPath(path), nil, nil, 0); err != nil {
		return mapErr("delete", err)
	}
	return nil
}

// SignedURL pide una URL firmada; el servicio devuelve un path relativo a /storage/v1.
func (s *Store) SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	secs := int(ttl / time.Second)
	if secs <= 0 {
		secs = 60
	}

	var out struct {
		SignedURL string `json:"signedURL"`
	}
	signPath := "/storage/v1/object/sign/" + url.PathEscape(s.bucket) + "/" + escapePath(path)
	if err := s.http.DoJSON(ctx, http.MethodPost, signPath, nil, map[string]int{"expiresIn": secs}, &out); err != nil {
		return "", mapErr("sign", err)
	}
	if strings.TrimSpace(out.SignedURL) == "" {
		return "", fmt.Errorf("hosted storage sign: empty signedURL")
	}
	if strings.HasPrefix(out.SignedURL, "http://") || strings.HasPrefix(out.SignedURL, "https://") {
		return out.SignedURL, nil
	}
	return s.base + "/storage/v1" + "/" + strings.TrimLeft(out.SignedURL, "/"), nil
}

func mapErr(op string, err error) error {
	if httpclient.StatusCode(err) == http.StatusNotFound {
		return objectstore.ErrNotFound
	}
	return fmt.Errorf("hosted storage %s: %w", op, err)
}

// escapePath escapa cada segmento y conserva las barras.
func escapePath(p string) string {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}

var _ objectstore.Store = (*Store)(nil)
