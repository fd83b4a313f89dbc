package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"scribe/internal/config"
	"scribe/internal/forms"
	"scribe/internal/models"
	"scribe/internal/observability"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultMediaRoot            = "media"
	DefaultImageMaxUploadSizeMB = 5
	MaxImageEdge                = 1280
	WebPQuality                 = 80
	// MaxImagePixels caps the decoded size of an upload.
	MaxImagePixels = 40_000_000
	// PostImageDir is the media subdirectory holding post images.
	PostImageDir = "posts"
)

// PreparedImage is a validated upload re-encoded as WebP and ready to be written.
type PreparedImage struct {
	Name    string
	Content []byte
	Width   int
	Height  int
}

// ImageService normalizes post images and stores them under the media root.
type ImageService struct {
	mediaRoot          string
	maxUploadSizeBytes int64
}

func NewImageService(cfg *config.Config) *ImageService {
	mediaRoot := DefaultMediaRoot
	maxUploadSizeMB := DefaultImageMaxUploadSizeMB
	if cfg != nil {
		if cfg.MediaRoot != "" {
			mediaRoot = cfg.MediaRoot
		}
		if cfg.ImageMaxUploadSizeMB > 0 {
			maxUploadSizeMB = cfg.ImageMaxUploadSizeMB
		}
	}
	return &ImageService{
		mediaRoot:          mediaRoot,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// MediaRoot returns the directory images are written to.
func (s *ImageService) MediaRoot() string {
	return s.mediaRoot
}

// Prepare validates an upload and re-encodes it. Rejections are validation
// AppErrors whose message is shown on the image field.
func (s *ImageService) Prepare(up *forms.Upload) (*PreparedImage, error) {
	if up.Empty() {
		return nil, models.NewValidationError("No file was submitted.")
	}
	if int64(len(up.Content)) > s.maxUploadSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB).", s.maxUploadSizeBytes/(1024*1024)))
	}
	if !isAllowedImageMIME(http.DetectContentType(up.Content)) {
		return nil, models.NewValidationError(forms.MsgInvalidImage)
	}

	start := time.Now()
	defer func() { observability.ImageProcessingLatency.Observe(time.Since(start).Seconds()) }()

	cfg, _, err := image.DecodeConfig(bytes.NewReader(up.Content))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, models.NewValidationError(forms.MsgInvalidImage)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return nil, models.NewValidationError(forms.MsgInvalidImage)
	}

	decoded, _, err := image.Decode(bytes.NewReader(up.Content))
	if err != nil {
		return nil, models.NewValidationError(forms.MsgInvalidImage)
	}
	scaled := resizeToFit(decoded, MaxImageEdge)

	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, scaled, &webp.Options{Quality: WebPQuality}); err != nil {
		return nil, models.NewInternalError(err)
	}
	sum := sha256.Sum256(buf.Bytes())
	b := scaled.Bounds()
	return &PreparedImage{
		Name:    PostImageDir + "/" + hex.EncodeToString(sum[:]) + ".webp",
		Content: buf.Bytes(),
		Width:   b.Dx(),
		Height:  b.Dy(),
	}, nil
}

// Save writes a prepared image and returns its media-relative path.
// Identical images share one file.
func (s *ImageService) Save(_ context.Context, img *PreparedImage) (string, error) {
	path := s.Path(img.Name)
	if _, err := os.Stat(path); err == nil {
		return img.Name, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", models.NewInternalError(err)
	}
	if err := os.WriteFile(path, img.Content, 0o600); err != nil {
		return "", models.NewInternalError(err)
	}
	return img.Name, nil
}

// Path resolves a media-relative name on disk.
func (s *ImageService) Path(name string) string {
	return filepath.Join(s.mediaRoot, filepath.FromSlash(name))
}

func resizeToFit(src image.Image, maxEdge int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 || (w <= maxEdge && h <= maxEdge) {
		return src
	}

	scale := float64(maxEdge) / float64(w)
	if h > w {
		scale = float64(maxEdge) / float64(h)
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func isAllowedImageMIME(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	switch ct {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}
