package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSniffImageFormat(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		wantType string
		wantExt  string
		wantOK   bool
	}{
		{
			name:     "png",
			data:     append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 8)...),
			wantType: "image/png",
			wantExt:  "png",
			wantOK:   true,
		},
		{
			name:     "jpeg",
			data:     append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, make([]byte, 8)...),
			wantType: "image/jpeg",
			wantExt:  "jpg",
			wantOK:   true,
		},
		{
			name:     "gif",
			data:     append([]byte("GIF89a"), make([]byte, 8)...),
			wantType: "image/gif",
			wantExt:  "gif",
			wantOK:   true,
		},
		{
			name:     "webp",
			data:     append([]byte("RIFF\x00\x00\x00\x00WEBPVP8 "), make([]byte, 8)...),
			wantType: "image/webp",
			wantExt:  "webp",
			wantOK:   true,
		},
		{
			name:   "html",
			data:   []byte("<html><body>nope</body></html>"),
			wantOK: false,
		},
		{
			name:   "plain text",
			data:   []byte("just some text"),
			wantOK: false,
		},
		{
			name:   "empty",
			data:   nil,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contentType, ext, ok := sniffImageFormat(tt.data)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantType, contentType)
				assert.Equal(t, tt.wantExt, ext)
			}
		})
	}
}
