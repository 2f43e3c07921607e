package handlers

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/SainiAdi-04/Task-Manager/logging"
	"github.com/SainiAdi-04/Task-Manager/utils"

	"github.com/google/uuid"
)

// MaxImageSize bounds uploaded profile images.
const MaxImageSize = 5 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
}

type UploadHandler struct {
	dir string
}

func NewUploadHandler(dir string) *UploadHandler {
	return &UploadHandler{dir: dir}
}

// UploadImage stores the multipart "image" field and returns its public URL.
func (h *UploadHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxImageSize+1<<20)
	if err := r.ParseMultipartForm(MaxImageSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.RespondWithError(w, http.StatusBadRequest, "File too large, max 5MB")
			return
		}
		if !errors.Is(err, http.ErrNotMultipart) {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid upload")
			return
		}
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	if header.Size > MaxImageSize {
		utils.RespondWithError(w, http.StatusBadRequest, "File too large, max 5MB")
		return
	}
	if !allowedImageTypes[header.Header.Get("Content-Type")] {
		utils.RespondWithError(w, http.StatusBadRequest, "Only .jpeg, .jpg and .png formats are allowed")
		return
	}

	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		logging.Logger.Errorf("Event ID: UPLOAD_DIR_FAILED, Description: Cannot create %s: %v", h.dir, err)
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.ErrorResponse{Message: "Server error", Error: err.Error()})
		return
	}

	name := uuid.New().String() + "-" + filepath.Base(header.Filename)
	dst, err := os.Create(filepath.Join(h.dir, name))
	if err != nil {
		logging.Logger.Errorf("Event ID: UPLOAD_CREATE_FAILED, Description: %v", err)
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.ErrorResponse{Message: "Server error", Error: err.Error()})
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		logging.Logger.Errorf("Event ID: UPLOAD_WRITE_FAILED, Description: %v", err)
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.ErrorResponse{Message: "Server error", Error: err.Error()})
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}

	logging.Logger.Infof("Event ID: IMAGE_UPLOADED, Description: Stored profile image %s (%d bytes)", name, header.Size)
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{
		"imageUrl": scheme + "://" + r.Host + "/uploads/" + name,
	})
}
