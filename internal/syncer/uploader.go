package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"fieldwork/internal/config"
	"fieldwork/internal/survey"
)

const userAgent = "Fieldwork/0.1.0"

// Uploader delivers one serialized packet to the destination under a key.
type Uploader interface {
	Upload(ctx context.Context, key string, packet *survey.Packet) error
	// Probe checks destination reachability; the daemon feeds the result
	// into the coordinator's connectivity signal.
	Probe(ctx context.Context) error
	Name() string
}

// UploadKey derives the destination key for a packet: date components come
// from the packet's completion time, the suffix from the upload instant.
func UploadKey(packet *survey.Packet, uploadTime time.Time) string {
	completed := packet.CompletedAt.UTC()
	return fmt.Sprintf("surveys/%04d/%02d/%02d/%s_%d.json",
		completed.Year(), int(completed.Month()), completed.Day(),
		packet.SurveyID, uploadTime.UTC().UnixMilli())
}

// NewUploader selects the destination implementation from config: http(s)
// URLs get the HTTP uploader, anything else is treated as a directory.
func NewUploader(cfg *config.Config) Uploader {
	timeout := time.Duration(cfg.Sync.RequestTimeout) * time.Second
	if cfg.DestinationIsHTTP() {
		return NewHTTPUploader(cfg.Sync.Destination, timeout)
	}
	return NewDirUploader(cfg.Sync.Destination)
}

// HTTPUploader PUTs packets to a base URL.
type HTTPUploader struct {
	baseURL string
	client  *http.Client
}

// NewHTTPUploader builds an uploader with a bounded per-request timeout so
// a hung destination fails one packet rather than the whole batch.
func NewHTTPUploader(baseURL string, timeout time.Duration) *HTTPUploader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPUploader{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (u *HTTPUploader) Name() string { return "http" }

func (u *HTTPUploader) Upload(ctx context.Context, key string, packet *survey.Packet) error {
	body, err := json.Marshal(packet)
	if err != nil {
		return fmt.Errorf("marshal packet: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u.baseURL+"/"+key, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("upload packet: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("destination returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (u *HTTPUploader) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("build probe request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("probe destination: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 500 {
		return fmt.Errorf("destination returned %d", resp.StatusCode)
	}
	return nil
}

// DirUploader writes packets into a local directory tree using the same
// key layout as the HTTP destination. It stands in for cloud storage.
type DirUploader struct {
	dir string
}

func NewDirUploader(dir string) *DirUploader {
	return &DirUploader{dir: dir}
}

func (u *DirUploader) Name() string { return "dir" }

func (u *DirUploader) Upload(ctx context.Context, key string, packet *survey.Packet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(packet, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal packet: %w", err)
	}

	target := filepath.Join(u.dir, filepath.FromSlash(path.Clean(key)))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create upload directory: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("write packet: %w", err)
	}
	return nil
}

// Probe reports the directory destination as always reachable; it is
// local by definition.
func (u *DirUploader) Probe(context.Context) error { return nil }
