package zonefile

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/domainforge/domainforge-core/internal/core/domain"
	"github.com/domainforge/domainforge-core/internal/core/ports/driven"
)

var _ driven.ZonefileDownloader = (*Downloader)(nil)

const (
	downloadTotalTimeout   = 3600 * time.Second
	downloadConnectTimeout = 30 * time.Second
	domainsFileName        = "domains.txt"
)

// Endpoint path segments accepted by Download, mirroring
// original_source's ZonefileType::endpoint.
const (
	EndpointFull           = "full"
	EndpointDailyAdditions = "dailyupdate"
	EndpointDailyRemovals  = "dailyremove"
)

// Downloader fetches a zone-file ZIP archive over HTTP, extracts
// domains.txt from it, and cleans up the archive.
type Downloader struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *slog.Logger
}

// New creates a Downloader with the 3600s total / 30s connect timeout
// budget used by original_source's zonefile-client.
func New(baseURL, token string, logger *slog.Logger) *Downloader {
	if logger == nil {
		logger = slog.Default()
	}
	dialer := &net.Dialer{Timeout: downloadConnectTimeout}
	return &Downloader{
		httpClient: &http.Client{
			Timeout: downloadTotalTimeout,
			Transport: &http.Transport{
				DialContext: dialer.DialContext,
			},
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		logger:  logger,
	}
}

// Download fetches {base}/{token}/get/{endpoint}/list/zip, extracts
// domains.txt into destDir, removes the temporary archive, and returns
// the extracted file's path. endpoint is one of the Endpoint* constants.
func (d *Downloader) Download(ctx context.Context, endpoint, destDir string) (string, error) {
	url := fmt.Sprintf("%s/%s/get/%s/list/zip", d.baseURL, d.token, endpoint)

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", domain.NewError(domain.KindIo, fmt.Errorf("mkdir %s: %w", destDir, err))
	}

	zipPath := filepath.Join(destDir, fmt.Sprintf("%s.zip", endpoint))
	if err := d.downloadFile(ctx, url, zipPath); err != nil {
		return "", err
	}
	defer os.Remove(zipPath)

	extracted, err := d.extractDomainsTxt(zipPath, destDir)
	if err != nil {
		return "", err
	}
	return extracted, nil
}

// downloadFile streams the HTTP response body to destPath, logging
// progress every 100MiB the way original_source's download_file does.
func (d *Downloader) downloadFile(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return domain.NewError(domain.KindIo, fmt.Errorf("download %s: %w", url, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.NewError(domain.KindIo, fmt.Errorf("download %s: status %d", url, resp.StatusCode))
	}

	out, err := os.Create(destPath)
	if err != nil {
		return domain.NewError(domain.KindIo, fmt.Errorf("create %s: %w", destPath, err))
	}
	defer out.Close()

	const logInterval = 100 << 20
	counter := &progressWriter{logger: d.logger, interval: logInterval}
	if _, err := io.Copy(out, io.TeeReader(resp.Body, counter)); err != nil {
		return domain.NewError(domain.KindIo, fmt.Errorf("write %s: %w", destPath, err))
	}
	return nil
}

type progressWriter struct {
	logger   *slog.Logger
	interval int64
	written  int64
	lastLog  int64
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n := len(b)
	p.written += int64(n)
	if p.written-p.lastLog >= p.interval {
		p.lastLog = p.written
		p.logger.Info("download progress", slog.Int64("bytes", p.written))
	}
	return n, nil
}

// extractDomainsTxt searches zipPath for a file named domains.txt at any
// depth and extracts it into destDir.
func (d *Downloader) extractDomainsTxt(zipPath, destDir string) (string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", domain.NewError(domain.KindIo, fmt.Errorf("open zip %s: %w", zipPath, err))
	}
	defer r.Close()

	var entry *zip.File
	for _, f := range r.File {
		name := filepath.Base(f.Name)
		if name == domainsFileName {
			entry = f
			break
		}
	}
	if entry == nil {
		return "", domain.NewError(domain.KindIo, fmt.Errorf("zip %s: no %s entry found", zipPath, domainsFileName))
	}

	rc, err := entry.Open()
	if err != nil {
		return "", domain.NewError(domain.KindIo, fmt.Errorf("open zip entry: %w", err))
	}
	defer rc.Close()

	destPath := filepath.Join(destDir, domainsFileName)
	out, err := os.Create(destPath)
	if err != nil {
		return "", domain.NewError(domain.KindIo, fmt.Errorf("create %s: %w", destPath, err))
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return "", domain.NewError(domain.KindIo, fmt.Errorf("extract %s: %w", domainsFileName, err))
	}
	return destPath, nil
}

// DownloadToMemory fetches and extracts domains.txt without leaving the
// archive or extracted file on disk, returning the extracted bytes
// directly. Supplements the disk-based Download for callers that stream
// straight into an in-process pipeline.
func (d *Downloader) DownloadToMemory(ctx context.Context, endpoint string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s/get/%s/list/zip", d.baseURL, d.token, endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewError(domain.KindIo, fmt.Errorf("download %s: %w", url, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, domain.NewError(domain.KindIo, fmt.Errorf("download %s: status %d", url, resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewError(domain.KindIo, fmt.Errorf("read response: %w", err))
	}

	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, domain.NewError(domain.KindIo, fmt.Errorf("open zip: %w", err))
	}

	for _, f := range zr.File {
		if filepath.Base(f.Name) == domainsFileName {
			rc, err := f.Open()
			if err != nil {
				return nil, domain.NewError(domain.KindIo, fmt.Errorf("open zip entry: %w", err))
			}
			defer rc.Close()
			data, err := io.ReadAll(rc)
			if err != nil {
				return nil, domain.NewError(domain.KindIo, fmt.Errorf("read zip entry: %w", err))
			}
			return data, nil
		}
	}
	return nil, domain.NewError(domain.KindIo, fmt.Errorf("zip: no %s entry found", domainsFileName))
}
