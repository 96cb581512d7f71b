package store

import "time"

// ManifestEntry records one ingested store generation.
type ManifestEntry struct {
	Current      bool
	DownloadDate time.Time
	Checksum     string
	SizeBytes    int64
	RowCount     int64
}
