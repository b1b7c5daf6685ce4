// Package vitaldb provides the external collaborators around the extraction
// core: the VitalDB metadata client with its on-disk cache, the five-stage
// case inclusion filter, and the EDF-backed waveform loader with an optional
// bounded in-memory track cache.
package vitaldb

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hemodyn-data/ioh.report/internal/monitoring"
)

// DefaultBaseURL is the public VitalDB open-dataset API.
const DefaultBaseURL = "https://api.vitaldb.net"

// Case is one row of the clinical cases table, reduced to the columns the
// inclusion filter consumes.
type Case struct {
	ID             int
	Age            float64
	AnesthesiaType string
	OperationName  string
}

// TrackInfo names one recorded track of a case.
type TrackInfo struct {
	CaseID int
	Name   string
}

// MetadataClient downloads the cases and trks metadata tables, caching each
// as a CSV file so subsequent runs never hit the network.
type MetadataClient struct {
	BaseURL    string
	CacheDir   string
	HTTPClient *http.Client
}

// NewMetadataClient returns a client caching under cacheDir.
func NewMetadataClient(cacheDir string) *MetadataClient {
	return &MetadataClient{
		BaseURL:    DefaultBaseURL,
		CacheDir:   cacheDir,
		HTTPClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

// Cases returns the clinical case table.
func (c *MetadataClient) Cases(ctx context.Context) ([]Case, error) {
	header, rows, err := c.dataset(ctx, "cases")
	if err != nil {
		return nil, err
	}

	col, err := columnIndex(header, "caseid", "age", "ane_type", "opname")
	if err != nil {
		return nil, fmt.Errorf("cases table: %w", err)
	}

	out := make([]Case, 0, len(rows))
	for _, row := range rows {
		id, err := strconv.Atoi(row[col["caseid"]])
		if err != nil {
			continue // malformed row, ignore
		}
		age, _ := strconv.ParseFloat(row[col["age"]], 64)
		out = append(out, Case{
			ID:             id,
			Age:            age,
			AnesthesiaType: row[col["ane_type"]],
			OperationName:  row[col["opname"]],
		})
	}
	return out, nil
}

// Tracks returns the track availability table.
func (c *MetadataClient) Tracks(ctx context.Context) ([]TrackInfo, error) {
	header, rows, err := c.dataset(ctx, "trks")
	if err != nil {
		return nil, err
	}

	col, err := columnIndex(header, "caseid", "tname")
	if err != nil {
		return nil, fmt.Errorf("trks table: %w", err)
	}

	out := make([]TrackInfo, 0, len(rows))
	for _, row := range rows {
		id, err := strconv.Atoi(row[col["caseid"]])
		if err != nil {
			continue
		}
		out = append(out, TrackInfo{CaseID: id, Name: row[col["tname"]]})
	}
	return out, nil
}

// dataset returns the parsed CSV for the named table, downloading and caching
// it on first use.
func (c *MetadataClient) dataset(ctx context.Context, name string) (header []string, rows [][]string, err error) {
	path := filepath.Join(c.CacheDir, "metadata", name+".csv")

	if _, statErr := os.Stat(path); statErr != nil {
		monitoring.Logf("downloading %s metadata and storing in the local cache", name)
		if err := c.download(ctx, name, path); err != nil {
			return nil, nil, err
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open cached %s table: %w", name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // metadata tables carry ragged optional columns

	header, err = r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s header: %w", name, err)
	}
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse %s table: %w", name, err)
		}
		if len(row) >= len(header) {
			rows = append(rows, row)
		}
	}
	return header, rows, nil
}

func (c *MetadataClient) download(ctx context.Context, name, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metadata cache dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/"+name, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s table: %w", name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch %s table: status %s", name, resp.Status)
	}

	// write to a temp file first so an interrupted download never poisons
	// the cache
	tmp, err := os.CreateTemp(filepath.Dir(path), name+".*.partial")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to store %s table: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// columnIndex maps the wanted column names to their positions in the header.
func columnIndex(header []string, wanted ...string) (map[string]int, error) {
	idx := make(map[string]int, len(wanted))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	out := make(map[string]int, len(wanted))
	for _, name := range wanted {
		i, ok := idx[name]
		if !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
		out[name] = i
	}
	return out, nil
}
