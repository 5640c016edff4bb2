package handlers

import (
	"log"
	"net/http"
)

const maxImageSize = 10 << 20

// ImageAssessment is the screening result for an uploaded photo. The risk
// fields are placeholders until a real model is integrated.
type ImageAssessment struct {
	Risk            string   `json:"risk"`
	Confidence      float64  `json:"confidence"`
	Notes           string   `json:"notes"`
	Recommendations []string `json:"recommendations"`
}

type ImageHandler struct{}

func NewImageHandler() *ImageHandler {
	return &ImageHandler{}
}

// AnalyzeImage accepts a multipart upload under the "image" field and
// returns a risk assessment.
func (h *ImageHandler) AnalyzeImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		respondWithError(w, http.StatusBadRequest, "Image file is required", "POST", "/image")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Image file is required", "POST", "/image")
		return
	}
	defer file.Close()

	log.Printf("Image uploaded: %s (%d bytes)", header.Filename, header.Size)

	respondWithJSON(w, http.StatusOK, ImageAssessment{
		Risk:       "low",
		Confidence: 0.85,
		Notes:      "Image analysis placeholder - integrate with ML model",
		Recommendations: []string{
			"Continue current feeding practices",
			"Monitor growth regularly",
			"Ensure adequate protein intake",
		},
	}, "POST", "/image")
}
