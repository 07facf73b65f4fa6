package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cognition-bio/cognition/catalog"
)

// StartDownload launches a bulk FASTA download for the rows matching
// the posted filter.
func StartDownload(c *gin.Context) {
	var input struct {
		Types            []string `json:"types"`
		Taxa             []string `json:"taxa"`
		RemoveRedundancy bool     `json:"remove_redundancy"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	rows := Catalog.Filter(catalog.FilterOptions{
		Types:            input.Types,
		Taxa:             input.Taxa,
		RemoveRedundancy: input.RemoveRedundancy,
	})

	job, err := Downloads.Start(rows)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, job.Progress())
}

func DownloadStatus(c *gin.Context) {
	job, ok := Downloads.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown download"})
		return
	}
	c.JSON(http.StatusOK, job.Progress())
}

// ServeFasta streams the combined FASTA artifact and then discards the
// job's scratch directory.
func ServeFasta(c *gin.Context) {
	job, ok := Downloads.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown download"})
		return
	}
	path, ready := job.FastaPath()
	if !ready {
		c.JSON(http.StatusConflict, gin.H{"error": "Download not complete"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="proteomes.fasta"`)
	c.File(path)
	Downloads.Remove(job.ID)
}

// ServeFailures returns the CSV of organisms that could not be fetched.
func ServeFailures(c *gin.Context) {
	job, ok := Downloads.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown download"})
		return
	}
	path, ok := job.FailedPath()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No failures recorded"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="failed_downloads.csv"`)
	c.File(path)
}
