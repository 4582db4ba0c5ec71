package service

import "net/http"

// sniffImageFormat inspects the payload and returns its MIME type and
// file extension. Only formats the classifier accepts pass; everything
// else is rejected before any store or infer call.
func sniffImageFormat(data []byte) (contentType, ext string, ok bool) {
	switch http.DetectContentType(data) {
	case "image/jpeg":
		return "image/jpeg", "jpg", true
	case "image/png":
		return "image/png", "png", true
	case "image/gif":
		return "image/gif", "gif", true
	case "image/webp":
		return "image/webp", "webp", true
	}
	return "", "", false
}
