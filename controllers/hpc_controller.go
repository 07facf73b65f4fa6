package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cognition-bio/cognition/hpc"
)

const connectTimeout = 15 * time.Second

// session returns the caller's remote session, created lazily.
func session(c *gin.Context) *hpc.Session {
	return Sessions.Get(c.MustGet("user_id").(int))
}

// httpStatus maps session errors onto response codes.
func httpStatus(err error) int {
	switch {
	case hpc.IsNotConnected(err):
		return http.StatusConflict
	case hpc.IsValidation(err):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func Connect(c *gin.Context) {
	var input struct {
		Host     string `json:"host"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if input.Host == "" || input.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Host and username are required"})
		return
	}

	if err := session(c).Connect(input.Host, input.Username, input.Password, connectTimeout); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, session(c).Status())
}

func Disconnect(c *gin.Context) {
	if err := session(c).Disconnect(); err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Disconnected"})
}

func SessionStatus(c *gin.Context) {
	c.JSON(http.StatusOK, session(c).Status())
}

func ListFiles(c *gin.Context) {
	listing, err := session(c).List()
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, listing)
}

// SelectEntry marks an entry in the current listing; an empty name
// clears the selection.
func SelectEntry(c *gin.Context) {
	var input struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	s := session(c)
	if input.Name == "" {
		s.ClearSelection()
		c.JSON(http.StatusOK, gin.H{"selection": nil})
		return
	}

	entry, err := s.Select(input.Name)
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"selection": entry})
}

// OpenEntry navigates into a selected directory or loads a selected
// file into the editor.
func OpenEntry(c *gin.Context) {
	buf, err := session(c).Open()
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}
	if buf != nil {
		c.JSON(http.StatusOK, gin.H{"editor": buf})
		return
	}
	c.JSON(http.StatusOK, session(c).Status())
}

// DeleteEntry removes the selected entry on the remote host.
func DeleteEntry(c *gin.Context) {
	name, err := session(c).Delete()
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": name})
}

// DownloadSelection streams the selected file, or a zip of the
// selected directory.
func DownloadSelection(c *gin.Context) {
	archive, err := session(c).Download()
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+archive.Filename+`"`)
	c.Data(http.StatusOK, archive.ContentType, archive.Data)
}

func SaveFile(c *gin.Context) {
	var input struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if err := session(c).Save(input.Content); err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Saved"})
}

func Console(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"scrollback": session(c).Scrollback()})
}

func Exec(c *gin.Context) {
	var input struct {
		Command string `json:"command"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	result, err := session(c).Execute(input.Command)
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}
	if result == nil {
		c.JSON(http.StatusOK, gin.H{"transcript": ""})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Upload receives multipart files and writes them into the session's
// current directory.
func Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form"})
		return
	}

	var files []hpc.UploadFile
	var closers []func() error
	defer func() {
		for _, cl := range closers {
			cl()
		}
	}()

	for _, header := range form.File["files"] {
		f, err := header.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read upload " + header.Filename})
			return
		}
		closers = append(closers, f.Close)
		files = append(files, hpc.UploadFile{Name: header.Filename, Reader: f})
	}

	done, err := session(c).UploadFiles(files)
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error(), "uploaded": done})
		return
	}
	c.JSON(http.StatusOK, gin.H{"uploaded": done})
}
