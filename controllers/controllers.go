// Package controllers holds the HTTP handlers. Shared services are
// package globals wired once from main.
package controllers

import (
	"github.com/cognition-bio/cognition/catalog"
	"github.com/cognition-bio/cognition/downloader"
	"github.com/cognition-bio/cognition/hpc"
)

var (
	Sessions  *hpc.Manager
	Catalog   *catalog.Service
	Downloads *downloader.Manager
)

func Setup(sessions *hpc.Manager, cat *catalog.Service, downloads *downloader.Manager) {
	Sessions = sessions
	Catalog = cat
	Downloads = downloads
}
