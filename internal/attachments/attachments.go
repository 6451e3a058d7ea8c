package attachments

import (
	"bytes"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
	"go.uber.org/zap"

	"sanee/messenger/internal/logger"
)

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// IsImage reports whether the filename looks like an image attachment.
func IsImage(filename string) bool {
	return imageExts[strings.ToLower(filepath.Ext(filename))]
}

// Open prepares a file for upload. Images whose largest side exceeds maxDim
// are downscaled and re-encoded as JPEG before hitting the wire; everything
// else is passed through untouched. The file is read eagerly, so the returned
// reader holds no descriptor.
func Open(path string, maxDim int) (filename string, r io.Reader, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	filename = filepath.Base(path)
	if !IsImage(filename) || maxDim <= 0 {
		return filename, bytes.NewReader(data), nil
	}

	scaled, resized, err := Downscale(data, maxDim)
	if err != nil {
		// Undecodable "image" files are uploaded as-is; the server decides.
		logger.L.Debug("attachment not decodable as image", zap.String("file", filename), zap.Error(err))
		return filename, bytes.NewReader(data), nil
	}
	if resized {
		filename = strings.TrimSuffix(filename, filepath.Ext(filename)) + ".jpg"
	}
	return filename, bytes.NewReader(scaled), nil
}

// Downscale shrinks an encoded image so neither dimension exceeds maxDim.
// Images already within bounds are returned unchanged. The second return
// value reports whether a resize (and JPEG re-encode) happened.
func Downscale(data []byte, maxDim int) ([]byte, bool, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false, err
	}
	bounds := img.Bounds()
	if bounds.Dx() <= maxDim && bounds.Dy() <= maxDim {
		return data, false, nil
	}
	thumb := resize.Thumbnail(uint(maxDim), uint(maxDim), img, resize.Lanczos3)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 85}); err != nil {
		return nil, false, err
	}
	return buf.Bytes(), true, nil
}
