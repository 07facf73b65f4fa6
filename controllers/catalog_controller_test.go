package controllers

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestFilterFromQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/catalog?types=reference&taxa=homo,%20coli%20,&remove_redundancy=true", nil)

	opts := filterFromQuery(c)
	assert.Equal(t, []string{"reference"}, opts.Types)
	assert.Equal(t, []string{"homo", "coli"}, opts.Taxa, "entries trimmed, blanks dropped")
	assert.True(t, opts.RemoveRedundancy)
}

func TestSplitListEmpty(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Nil(t, splitList("  ,  , "))
}
