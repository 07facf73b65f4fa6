package catalog

import (
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const refTSV = "Proteome Id\tOrganism\tProtein count\tTaxonomic lineage\n" +
	"UP000005640\tHomo sapiens (Human)\t20600\tEukaryota, Metazoa\n" +
	"UP000000625\tEscherichia coli (strain K12)\t4400\tBacteria, Pseudomonadota\n" +
	"UP999999999\t\t0\tBacteria\n"

const otherTSV = "Proteome Id\tOrganism\tProtein count\tTaxonomic lineage\n" +
	"UP000001410\tEscherichia coli O157:H7\t5300\tBacteria, Pseudomonadota\n"

func gzipHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gz := gzip.NewWriter(w)
		gz.Write([]byte(body))
		gz.Close()
	}
}

// fastClient is a test client without the production backoff waits.
func fastClient() *http.Client {
	retry := retryablehttp.NewClient()
	retry.RetryMax = 1
	retry.RetryWaitMin = time.Millisecond
	retry.RetryWaitMax = 5 * time.Millisecond
	retry.Logger = nil
	return retry.StandardClient()
}

func TestParseTSV(t *testing.T) {
	rows, err := parseTSV(strings.NewReader(refTSV), TypeReference)
	require.NoError(t, err)

	require.Len(t, rows, 2, "header and organism-less rows dropped")
	assert.Equal(t, "UP000005640", rows[0].ID)
	assert.Equal(t, "Homo sapiens (Human)", rows[0].Organism)
	assert.Equal(t, int64(20600), rows[0].ProteinCount)
	assert.Equal(t, "Eukaryota, Metazoa", rows[0].Lineage)
	assert.Equal(t, TypeReference, rows[0].Type)
}

func TestParseTSVEmptyInput(t *testing.T) {
	rows, err := parseTSV(strings.NewReader(""), TypeOther)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRefreshLoadsBothTables(t *testing.T) {
	refSrv := httptest.NewServer(gzipHandler(refTSV))
	defer refSrv.Close()
	otherSrv := httptest.NewServer(gzipHandler(otherTSV))
	defer otherSrv.Close()

	s := &Service{
		client:      fastClient(),
		snapshotDir: t.TempDir(),
		refURL:      refSrv.URL,
		otherURL:    otherSrv.URL,
	}

	require.NoError(t, s.Refresh(context.Background()))

	ref, other := s.Counts()
	assert.Equal(t, 2, ref)
	assert.Equal(t, 1, other)
	assert.False(t, s.FetchedAt().IsZero())
}

func TestRefreshFallsBackToSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ref.tsv"), []byte(refTSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.tsv"), []byte(otherTSV), 0o644))

	s := &Service{
		client:      fastClient(),
		snapshotDir: dir,
		refURL:      srv.URL,
		otherURL:    srv.URL,
	}

	require.NoError(t, s.Refresh(context.Background()))

	ref, other := s.Counts()
	assert.Equal(t, 2, ref)
	assert.Equal(t, 1, other)
}

func TestRefreshWithoutSnapshotServesEmptyTables(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := &Service{
		client:      fastClient(),
		snapshotDir: t.TempDir(),
		refURL:      srv.URL,
		otherURL:    srv.URL,
	}

	err := s.Refresh(context.Background())
	assert.Error(t, err)

	ref, other := s.Counts()
	assert.Zero(t, ref)
	assert.Zero(t, other)
	assert.Empty(t, s.Filter(FilterOptions{}), "filtering stays usable")
}
