package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/de-tools/housing-atlas/pkg/models/store"
)

const manifestDateLayout = "2006-01-02"

var manifestColumns = []string{"is_current", "download_date", "checksum", "size_bytes", "row_count"}

// Manifest is the tab-delimited generation log kept next to the store.
// One row per ingested generation; exactly one row is current. It
// survives store swaps, so the checksum gate can compare against the
// active generation without opening the db.
type Manifest struct {
	path    string
	entries []store.ManifestEntry
}

// OpenManifest reads the manifest at path. A missing file yields an
// empty manifest.
func OpenManifest(path string) (*Manifest, error) {
	m := &Manifest{path: path}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'

	if _, err := r.Read(); err == io.EOF {
		return m, nil
	} else if err != nil {
		return nil, fmt.Errorf("read manifest header: %w", err)
	}

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read manifest row: %w", err)
		}
		entry, err := parseManifestRow(record)
		if err != nil {
			return nil, err
		}
		m.entries = append(m.entries, entry)
	}

	return m, nil
}

func parseManifestRow(record []string) (store.ManifestEntry, error) {
	if len(record) != len(manifestColumns) {
		return store.ManifestEntry{}, fmt.Errorf("manifest row has %d columns, want %d", len(record), len(manifestColumns))
	}
	date, err := time.Parse(manifestDateLayout, record[1])
	if err != nil {
		return store.ManifestEntry{}, fmt.Errorf("parse manifest date %q: %w", record[1], err)
	}
	size, err := strconv.ParseInt(record[3], 10, 64)
	if err != nil {
		return store.ManifestEntry{}, fmt.Errorf("parse manifest size %q: %w", record[3], err)
	}
	rowCount, err := strconv.ParseInt(record[4], 10, 64)
	if err != nil {
		return store.ManifestEntry{}, fmt.Errorf("parse manifest row count %q: %w", record[4], err)
	}
	return store.ManifestEntry{
		Current:      record[0] == "true",
		DownloadDate: date,
		Checksum:     record[2],
		SizeBytes:    size,
		RowCount:     rowCount,
	}, nil
}

// Current returns the active generation's entry, if any.
func (m *Manifest) Current() (store.ManifestEntry, bool) {
	for _, e := range m.entries {
		if e.Current {
			return e, true
		}
	}
	return store.ManifestEntry{}, false
}

func (m *Manifest) Entries() []store.ManifestEntry {
	out := make([]store.ManifestEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Append records a new current generation, demoting all prior rows.
// The file is rewritten via a temp file and rename.
func (m *Manifest) Append(entry store.ManifestEntry) error {
	entry.Current = true
	for i := range m.entries {
		m.entries[i].Current = false
	}
	m.entries = append(m.entries, entry)

	tmp := m.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create manifest temp file: %w", err)
	}

	w := csv.NewWriter(f)
	w.Comma = '\t'

	records := [][]string{manifestColumns}
	for _, e := range m.entries {
		records = append(records, []string{
			strconv.FormatBool(e.Current),
			e.DownloadDate.Format(manifestDateLayout),
			e.Checksum,
			strconv.FormatInt(e.SizeBytes, 10),
			strconv.FormatInt(e.RowCount, 10),
		})
	}
	if err := w.WriteAll(records); err != nil {
		_ = f.Close()
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close manifest temp file: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}
