package filestore

import (
	"path"
	"strings"
)

// MIME content types of stored images.
const (
	ContentTypeJPEG        = "image/jpeg"
	ContentTypePNG         = "image/png"
	ContentTypeWebP        = "image/webp"
	ContentTypeOctetStream = "application/octet-stream"
)

// ContentTypeByExt guesses the content type of p from its extension.
func ContentTypeByExt(p string) string {
	switch strings.ToLower(path.Ext(p)) {
	case ".jpg", ".jpeg":
		return ContentTypeJPEG
	case ".png":
		return ContentTypePNG
	case ".webp":
		return ContentTypeWebP
	}
	return ContentTypeOctetStream
}
