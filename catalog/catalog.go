// Package catalog fetches, caches and filters the UniProt proteome
// metadata tables backing the browser page.
package catalog

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/sync/errgroup"

	"github.com/cognition-bio/cognition/logging"
	"github.com/cognition-bio/cognition/models"
)

const (
	refURL   = "https://rest.uniprot.org/proteomes/stream?compressed=true&fields=upid%2Corganism%2Cprotein_count%2Clineage&format=tsv&query=%28*%29+AND+%28proteome_type%3A1%29"
	otherURL = "https://rest.uniprot.org/proteomes/stream?compressed=true&fields=upid%2Corganism%2Cprotein_count%2Clineage&format=tsv&query=%28*%29+AND+%28proteome_type%3A2%29&sort=cpd+asc"

	TypeReference = "reference"
	TypeOther     = "other"
)

var log = logging.New("catalog")

// Service holds the two in-memory proteome tables. Reads vastly
// outnumber refreshes, hence the RWMutex.
type Service struct {
	client      *http.Client
	snapshotDir string
	refURL      string
	otherURL    string

	mu        sync.RWMutex
	ref       []models.Proteome
	other     []models.Proteome
	fetchedAt time.Time
}

func NewService(snapshotDir string) *Service {
	retry := retryablehttp.NewClient()
	retry.RetryMax = 2
	retry.RetryWaitMin = 2 * time.Second
	retry.RetryWaitMax = 8 * time.Second
	retry.HTTPClient.Timeout = 60 * time.Second
	retry.Logger = nil

	return &Service{
		client:      retry.StandardClient(),
		snapshotDir: snapshotDir,
		refURL:      refURL,
		otherURL:    otherURL,
	}
}

// Refresh fetches both tables concurrently. On fetch failure it falls
// back to the local snapshot TSVs; when those are missing too, the
// tables are left empty rather than failing the caller.
func (s *Service) Refresh(ctx context.Context) error {
	var ref, other []models.Proteome

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.fetchTable(gctx, s.refURL, TypeReference)
		ref = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.fetchTable(gctx, s.otherURL, TypeOther)
		other = rows
		return err
	})

	if err := g.Wait(); err != nil {
		log.Warn().Err(err).Msg("remote catalog fetch failed, trying local snapshot")
		var refErr, otherErr error
		ref, refErr = s.loadSnapshot("ref.tsv", TypeReference)
		other, otherErr = s.loadSnapshot("other.tsv", TypeOther)
		if refErr != nil || otherErr != nil {
			log.Error().AnErr("ref", refErr).AnErr("other", otherErr).Msg("snapshot load failed, serving empty tables")
			s.store(nil, nil)
			return err
		}
	}

	s.store(ref, other)
	log.Info().Int("reference", len(ref)).Int("other", len(other)).Msg("catalog loaded")
	return nil
}

func (s *Service) store(ref, other []models.Proteome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ref = ref
	s.other = other
	s.fetchedAt = time.Now()
}

func (s *Service) fetchTable(ctx context.Context, url, kind string) ([]models.Proteome, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog fetch %s: unexpected status %s", kind, resp.Status)
	}

	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("catalog fetch %s: %w", kind, err)
	}
	defer gz.Close()

	return parseTSV(gz, kind)
}

func (s *Service) loadSnapshot(name, kind string) ([]models.Proteome, error) {
	f, err := os.Open(filepath.Join(s.snapshotDir, name))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseTSV(f, kind)
}

// parseTSV reads the four-column proteome table. Rows without an
// organism are dropped, matching the upstream cleanup.
func parseTSV(r io.Reader, kind string) ([]models.Proteome, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024) // lineage columns get long

	var rows []models.Proteome
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			first = false // header row
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 4 || strings.TrimSpace(cols[1]) == "" {
			continue
		}
		count, _ := strconv.ParseInt(strings.TrimSpace(cols[2]), 10, 64)
		rows = append(rows, models.Proteome{
			ID:           strings.TrimSpace(cols[0]),
			Organism:     cols[1],
			ProteinCount: count,
			Lineage:      cols[3],
			Type:         kind,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// Counts returns the raw table sizes shown next to the type toggles.
func (s *Service) Counts() (ref, other int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ref), len(s.other)
}

// FetchedAt reports when the tables were last loaded.
func (s *Service) FetchedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetchedAt
}
