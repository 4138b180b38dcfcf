package llm

import (
	"encoding/base64"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// ImageConfidenceThreshold is the OCR confidence below which the original
// image is attached to the extraction request.
const ImageConfidenceThreshold = 0.6

// MaxAttachMB caps the size of an attached image.
const MaxAttachMB = 8

// ShouldAttachImage decides whether the request's image should accompany the
// OCR text, and returns it as a data URL when it should.
func ShouldAttachImage(req ExtractRequest) (attach bool, dataURL, mimeType string) {
	if req.ImagePath == "" || req.PrepConfidence >= ImageConfidenceThreshold {
		return false, "", ""
	}
	if st, err := os.Stat(req.ImagePath); err != nil || st.IsDir() || st.Size() > MaxAttachMB*1024*1024 {
		return false, "", ""
	}
	u, mt, err := readAsDataURL(req.ImagePath)
	if err != nil {
		return false, "", ""
	}
	return true, u, mt
}

func readAsDataURL(path string) (string, string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	mt := mime.TypeByExtension("." + ext)
	if mt == "" {
		// fallbacks
		switch ext {
		case "jpg", "jpeg":
			mt = "image/jpeg"
		case "png":
			mt = "image/png"
		default:
			mt = "application/octet-stream"
		}
	}
	data := base64.StdEncoding.EncodeToString(b)
	return "data:" + mt + ";base64," + data, mt, nil
}
