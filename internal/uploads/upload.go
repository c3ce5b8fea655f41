package uploads

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"medreport-backend/internal/shared/util"
)

// MaxUploadBytes is the largest accepted report image.
const MaxUploadBytes = 5 << 20

var (
	ErrMissingFile = errors.New("no image uploaded")
	ErrTooLarge    = errors.New("image exceeds 5 MiB limit")
	ErrNotImage    = errors.New("uploaded file is not an image")
)

// RawUpload is a validated report image held in memory until text extraction.
type RawUpload struct {
	Data     []byte
	MimeType string
	Size     int64
	FileName string
}

// FromFileHeader validates a multipart part and reads it. Size and type are
// checked before the body is read; the declared Content-Type wins over
// sniffing when present.
func FromFileHeader(fh *multipart.FileHeader) (RawUpload, error) {
	if fh == nil {
		return RawUpload{}, ErrMissingFile
	}
	if err := checkSize(fh.Size); err != nil {
		return RawUpload{}, err
	}
	declared := declaredType(fh.Header.Get("Content-Type"))
	if declared != "" {
		if err := checkType(declared); err != nil {
			return RawUpload{}, err
		}
	}

	f, err := fh.Open()
	if err != nil {
		return RawUpload{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, MaxUploadBytes+1))
	if err != nil {
		return RawUpload{}, fmt.Errorf("read upload: %w", err)
	}
	name, _ := util.SanitizeFileName(fh.Filename)
	return FromBytes(data, declared, name)
}

// FromFile reads and validates an image from disk.
func FromFile(path string) (RawUpload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return RawUpload{}, err
	}
	if err := checkSize(info.Size()); err != nil {
		return RawUpload{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return RawUpload{}, err
	}
	declared := declaredType(mime.TypeByExtension(strings.ToLower(filepath.Ext(path))))
	return FromBytes(data, declared, filepath.Base(path))
}

// FromBytes validates an in-memory image. An empty declaredType is sniffed.
func FromBytes(data []byte, declaredType, fileName string) (RawUpload, error) {
	if len(data) == 0 {
		return RawUpload{}, ErrMissingFile
	}
	if err := checkSize(int64(len(data))); err != nil {
		return RawUpload{}, err
	}
	mimeType := declaredType
	if mimeType == "" {
		mimeType = mimetype.Detect(data).String()
	}
	if err := checkType(mimeType); err != nil {
		return RawUpload{}, err
	}
	return RawUpload{
		Data:     data,
		MimeType: mimeType,
		Size:     int64(len(data)),
		FileName: fileName,
	}, nil
}

// declaredType drops parameters and treats the generic binary type as undeclared.
func declaredType(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(raw); err == nil {
		raw = mt
	}
	raw = strings.ToLower(raw)
	if raw == "application/octet-stream" {
		return ""
	}
	return raw
}

func checkSize(size int64) error {
	if size > MaxUploadBytes {
		return ErrTooLarge
	}
	return nil
}

func checkType(mimeType string) error {
	if !strings.HasPrefix(strings.ToLower(mimeType), "image/") {
		return fmt.Errorf("%w: %s", ErrNotImage, mimeType)
	}
	return nil
}
