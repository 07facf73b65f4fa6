// Package downloader runs bulk FASTA downloads for filtered catalog
// rows: bounded concurrency, per-item retry and a failure side report.
package downloader

import (
	"bytes"
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/sync/errgroup"

	"github.com/cognition-bio/cognition/logging"
	"github.com/cognition-bio/cognition/models"
)

const (
	// batchSize bounds concurrent UniProt requests.
	batchSize = 50
	// maxAttempts is the per-item request budget.
	maxAttempts = 3

	fastaURL = "https://rest.uniprot.org/uniprotkb/stream?compressed=true&format=fasta&query=proteome:%s"
)

var log = logging.New("downloader")

type State string

const (
	StateRunning  State = "running"
	StateComplete State = "complete"
	StateFailed   State = "failed"
)

// Job is one bulk download. Successes append to a single FASTA file in
// a per-job scratch directory; failed organisms collect into a CSV
// report. Some items failing does not fail the job.
type Job struct {
	ID string

	mu        sync.Mutex
	state     State
	total     int
	processed int
	failed    []string
	errMsg    string

	dir        string
	fastaPath  string
	failedPath string
}

// Progress is the polled job status.
type Progress struct {
	ID        string `json:"id"`
	State     State  `json:"state"`
	Total     int    `json:"total"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
	HasReport bool   `json:"has_report"`
	Error     string `json:"error,omitempty"`
}

func (j *Job) Progress() Progress {
	j.mu.Lock()
	defer j.mu.Unlock()
	return Progress{
		ID:        j.ID,
		State:     j.state,
		Total:     j.total,
		Processed: j.processed,
		Failed:    len(j.failed),
		HasReport: j.failedPath != "",
		Error:     j.errMsg,
	}
}

// FastaPath returns the artifact path once the job completed.
func (j *Job) FastaPath() (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != StateComplete {
		return "", false
	}
	return j.fastaPath, true
}

// FailedPath returns the failure report path, when any item failed.
func (j *Job) FailedPath() (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.failedPath == "" {
		return "", false
	}
	return j.failedPath, true
}

// Manager owns running and finished jobs keyed by id.
type Manager struct {
	mu   sync.Mutex
	jobs map[string]*Job

	client   *http.Client
	urlTmpl  string
	batchGap time.Duration
}

func NewManager() *Manager {
	retry := retryablehttp.NewClient()
	retry.RetryMax = maxAttempts - 1
	retry.RetryWaitMin = 2 * time.Second
	retry.RetryWaitMax = 8 * time.Second
	retry.HTTPClient.Timeout = 60 * time.Second
	retry.Logger = nil

	return &Manager{
		jobs:     make(map[string]*Job),
		client:   retry.StandardClient(),
		urlTmpl:  fastaURL,
		batchGap: time.Second,
	}
}

// Start kicks off a download for the given rows and returns the job
// immediately; progress is polled.
func (m *Manager) Start(rows []models.Proteome) (*Job, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no proteomes selected for download")
	}

	dir, err := os.MkdirTemp("", "cognition-fasta-*")
	if err != nil {
		return nil, err
	}

	job := &Job{
		ID:        uuid.New().String(),
		state:     StateRunning,
		total:     len(rows),
		dir:       dir,
		fastaPath: filepath.Join(dir, "proteomes.fasta"),
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	go m.run(job, rows)
	return job, nil
}

// Get looks up a job by id.
func (m *Manager) Get(id string) (*Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	return job, ok
}

// Remove forgets a job and deletes its scratch directory. Called after
// the artifact has been served.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	job, ok := m.jobs[id]
	delete(m.jobs, id)
	m.mu.Unlock()

	if ok && job.dir != "" {
		os.RemoveAll(job.dir)
	}
}

func (m *Manager) run(job *Job, rows []models.Proteome) {
	out, err := os.Create(job.fastaPath)
	if err != nil {
		job.fail(err)
		return
	}
	defer out.Close()

	type result struct {
		data     []byte
		organism string
	}

	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]
		results := make([]result, len(batch))

		var g errgroup.Group
		for i, row := range batch {
			i, row := i, row
			g.Go(func() error {
				data, err := m.fetchProteome(row.ID)
				if err != nil {
					log.Warn().Err(err).Str("proteome", row.ID).Msg("download failed")
					data = nil
				}
				results[i] = result{data: data, organism: row.Organism}
				return nil
			})
		}
		g.Wait()

		for _, res := range results {
			if res.data != nil {
				if _, err := out.Write(res.data); err != nil {
					job.fail(err)
					return
				}
			}
			job.mu.Lock()
			job.processed++
			if res.data == nil {
				job.failed = append(job.failed, res.organism)
			}
			job.mu.Unlock()
		}

		if end < len(rows) {
			time.Sleep(m.batchGap) // stay polite to the upstream API
		}
	}

	if err := job.writeReport(); err != nil {
		job.fail(err)
		return
	}

	job.mu.Lock()
	job.state = StateComplete
	job.mu.Unlock()
}

func (j *Job) fail(err error) {
	j.mu.Lock()
	j.state = StateFailed
	j.errMsg = err.Error()
	j.mu.Unlock()
}

func (j *Job) writeReport() error {
	j.mu.Lock()
	failed := make([]string, len(j.failed))
	copy(failed, j.failed)
	j.mu.Unlock()

	if len(failed) == 0 {
		return nil
	}

	path := filepath.Join(j.dir, "failed_downloads.csv")
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Failed Taxa"}); err != nil {
		return err
	}
	for _, organism := range failed {
		if err := w.Write([]string{organism}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	j.mu.Lock()
	j.failedPath = path
	j.mu.Unlock()
	return nil
}

// fetchProteome pulls one proteome's FASTA stream. The payload arrives
// gzip-compressed as content, not transfer encoding, so it is
// decompressed by magic-byte sniff.
func (m *Manager) fetchProteome(proteomeID string) ([]byte, error) {
	resp, err := m.client.Get(fmt.Sprintf(m.urlTmpl, url.QueryEscape(proteomeID)))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("proteome %s: unexpected status %s", proteomeID, resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(raw) >= 2 && raw[0] == 0x1f && raw[1] == 0x8b {
		gz, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		return io.ReadAll(gz)
	}
	return raw, nil
}
