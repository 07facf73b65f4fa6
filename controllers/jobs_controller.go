package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cognition-bio/cognition/models"
)

func Queue(c *gin.Context) {
	jobs, err := session(c).Queue()
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

func JobOptions(c *gin.Context) {
	opts, err := session(c).LoadJobOptions()
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, opts)
}

func AddModule(c *gin.Context) {
	var input struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || input.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Module name required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"selected_modules": session(c).AddJobModule(input.Name)})
}

func RemoveModule(c *gin.Context) {
	var input struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || input.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Module name required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"selected_modules": session(c).RemoveJobModule(input.Name)})
}

// SubmitJob renders a batch script on the remote host and hands it to
// the scheduler. Submission failures return the script and scheduler
// output so the dialog can show what went wrong.
func SubmitJob(c *gin.Context) {
	var spec models.JobSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	result, diag, err := session(c).SubmitJob(spec)
	if err != nil {
		resp := gin.H{"error": err.Error()}
		if diag != nil {
			resp["diagnostic"] = diag
		}
		c.JSON(httpStatus(err), resp)
		return
	}
	c.JSON(http.StatusOK, result)
}
