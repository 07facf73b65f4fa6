package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cognition-bio/cognition/catalog"
)

// filterFromQuery builds catalog filter options from query parameters.
// "types" and "taxa" are comma-separated lists.
func filterFromQuery(c *gin.Context) catalog.FilterOptions {
	return catalog.FilterOptions{
		Types:            splitList(c.Query("types")),
		Taxa:             splitList(c.Query("taxa")),
		RemoveRedundancy: c.Query("remove_redundancy") == "true",
	}
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// BrowseCatalog returns one page of the filtered proteome table.
func BrowseCatalog(c *gin.Context) {
	rows := Catalog.Filter(filterFromQuery(c))

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	c.JSON(http.StatusOK, gin.H{
		"rows":        catalog.Page(rows, page, size),
		"total":       len(rows),
		"total_pages": catalog.TotalPages(len(rows), size),
		"page":        page,
		"fetched_at":  Catalog.FetchedAt(),
	})
}

// CatalogSummary aggregates the filtered rows without paginating.
func CatalogSummary(c *gin.Context) {
	rows := Catalog.Filter(filterFromQuery(c))
	c.JSON(http.StatusOK, catalog.Summarize(rows))
}

// RefreshCatalog re-pulls both UniProt tables. A failed pull falls back
// to the last snapshot; the response says which happened.
func RefreshCatalog(c *gin.Context) {
	err := Catalog.Refresh(c.Request.Context())
	ref, other := Catalog.Counts()

	resp := gin.H{"reference": ref, "other": other, "fetched_at": Catalog.FetchedAt()}
	if err != nil {
		resp["warning"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}
