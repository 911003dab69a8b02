package driven

import "context"

// ZonefileDownloader fetches a zone-file list (full, daily additions, or
// daily removals) as a ZIP and extracts domains.txt alongside it.
type ZonefileDownloader interface {
	// Download fetches {base}/{token}/get/{endpoint}/list/zip, extracts
	// domains.txt, and returns the path it was written to.
	Download(ctx context.Context, endpoint string, destDir string) (path string, err error)
}
