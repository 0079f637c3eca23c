package controllers

import (
	"errors"
	"net/http"

	"blogapi/logger"
	"blogapi/models"
	"blogapi/services"

	"github.com/gin-gonic/gin"
)

type UploadController struct {
	uploads *services.UploadService
}

func NewUploadController(uploads *services.UploadService) *UploadController {
	return &UploadController{uploads: uploads}
}

type UploadResponse struct {
	URL string `json:"url"`
}

// UploadImage godoc
// @Summary   Upload an image
// @Tags      uploads
// @Accept    multipart/form-data
// @Produce   json
// @Security  BearerAuth
// @Param     image  formData  file  true  "JPEG or PNG image"
// @Success   200 {object} UploadResponse
// @Failure   400 {object} models.ErrorResponse
// @Failure   500 {object} models.ErrorResponse
// @Router    /upload [post]
func (uc *UploadController) UploadImage(c *gin.Context) {
	log := logger.FromContext(c.Request.Context())

	file, err := c.FormFile("image")
	if err != nil {
		log.Info("upload without image field", "error", err)
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "No image provided"})
		return
	}

	url, err := uc.uploads.SaveImage(file)
	switch {
	case errors.Is(err, services.ErrUnsupportedImage):
		log.Info("upload rejected", "file", file.Filename, "error", err)
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Only JPEG and PNG images are allowed"})
		return
	case errors.Is(err, services.ErrImageTooLarge):
		log.Info("upload rejected", "file", file.Filename, "size", file.Size, "error", err)
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "File too large"})
		return
	case err != nil:
		log.Error("upload failed", "file", file.Filename, "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Upload failed"})
		return
	}

	log.Info("image uploaded", "url", url, "size", file.Size)
	c.JSON(http.StatusOK, UploadResponse{URL: url})
}
