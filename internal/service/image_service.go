package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif" // Register GIF decoder
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"net/http"
	"sort"
	"strings"

	"avatio/internal/config"
	"avatio/internal/models"
	"avatio/internal/storage"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultImageMaxUploadSizeMB = 10
	MasterMaxSize               = 2048
	AvatarMaxSize               = 512
	WebPQuality                 = 80
	maxThemeColors              = 3
	themeSampleSize             = 32
)

// Upload targets.
const (
	ImageTargetSetup  = "setup"
	ImageTargetAvatar = "avatar"
)

// UploadImageInput is one uploaded file.
type UploadImageInput struct {
	UserID      uint
	Target      string
	ContentType string
	Content     []byte
}

// UploadedImage describes a stored image. The URL stays unreferenced until a
// setup, draft or profile links it.
type UploadedImage struct {
	URL         string   `json:"url"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	ThemeColors []string `json:"themeColors"`
}

// ImageService validates uploads, re-encodes them to WebP and stores them.
type ImageService struct {
	store              storage.ObjectStore
	resolver           storage.URLResolver
	maxUploadSizeBytes int64
}

// NewImageService returns a new ImageService.
func NewImageService(store storage.ObjectStore, resolver storage.URLResolver, cfg *config.Config) *ImageService {
	maxUploadSizeMB := DefaultImageMaxUploadSizeMB
	if cfg != nil && cfg.ImageMaxUploadSizeMB > 0 {
		maxUploadSizeMB = cfg.ImageMaxUploadSizeMB
	}
	return &ImageService{
		store:              store,
		resolver:           resolver,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// MaxUploadSizeBytes is the largest accepted upload.
func (s *ImageService) MaxUploadSizeBytes() int64 {
	return s.maxUploadSizeBytes
}

// Upload stores in under the namespace of its target.
func (s *ImageService) Upload(ctx context.Context, in UploadImageInput) (*UploadedImage, error) {
	if in.UserID == 0 {
		return nil, models.NewValidationError("Invalid user")
	}

	var namespace string
	maxSize := MasterMaxSize
	switch in.Target {
	case ImageTargetSetup:
		namespace = storage.SetupNamespace
	case ImageTargetAvatar:
		namespace = storage.AvatarNamespace
		maxSize = AvatarMaxSize
	default:
		return nil, models.NewValidationError("target must be one of: setup, avatar")
	}

	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}

	detectedType := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detectedType) {
		return nil, models.NewValidationError("Invalid image type")
	}

	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	if !isSupportedDecodedFormat(format) {
		return nil, models.NewValidationError("Unsupported image format")
	}

	sourceMimeType := decodedFormatToMime(format)
	if provided := normalizeContentType(in.ContentType); strings.HasPrefix(provided, "image/") && !isMatchingContentType(provided, sourceMimeType) {
		return nil, models.NewValidationError("Image content type mismatch")
	}

	master := resizeToFit(decoded, maxSize, maxSize)
	encoded, err := encodeWebP(master, WebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	key := namespace + uuid.NewString() + ".webp"
	if err := s.store.Put(ctx, key, bytes.NewReader(encoded), int64(len(encoded)), "image/webp"); err != nil {
		return nil, models.NewUpstreamError("Storage", err)
	}

	b := master.Bounds()
	return &UploadedImage{
		URL:         s.resolver.URLFor(key),
		Width:       b.Dx(),
		Height:      b.Dy(),
		ThemeColors: themeColors(master, maxThemeColors),
	}, nil
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

// themeColors returns up to n dominant colors of img as #rrggbb, most
// frequent first. Colors are bucketed at 4 bits per channel.
func themeColors(img image.Image, n int) []string {
	sample := image.NewRGBA(image.Rect(0, 0, themeSampleSize, themeSampleSize))
	draw.Draw(sample, sample.Bounds(), image.Transparent, image.Point{}, draw.Src)
	xdraw.ApproxBiLinear.Scale(sample, sample.Bounds(), img, img.Bounds(), xdraw.Over, nil)

	type bucket struct {
		key     uint16
		count   int
		r, g, b int
	}
	buckets := map[uint16]*bucket{}
	pix := sample.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		r, g, b, a := pix[i], pix[i+1], pix[i+2], pix[i+3]
		if a < 128 {
			continue
		}
		key := uint16(r>>4)<<8 | uint16(g>>4)<<4 | uint16(b>>4)
		bk, ok := buckets[key]
		if !ok {
			bk = &bucket{key: key}
			buckets[key] = bk
		}
		bk.count++
		bk.r += int(r)
		bk.g += int(g)
		bk.b += int(b)
	}

	ranked := make([]*bucket, 0, len(buckets))
	for _, bk := range buckets {
		ranked = append(ranked, bk)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].key < ranked[j].key
	})

	colors := make([]string, 0, n)
	for _, bk := range ranked {
		if len(colors) == n {
			break
		}
		colors = append(colors, fmt.Sprintf("#%02x%02x%02x", bk.r/bk.count, bk.g/bk.count, bk.b/bk.count))
	}
	return colors
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	p := normalizeContentType(provided)
	d := normalizeContentType(detected)
	if p == d {
		return true
	}
	return (p == "image/jpg" && d == "image/jpeg") || (p == "image/jpeg" && d == "image/jpg")
}

func isSupportedDecodedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg", "png", "gif", "webp":
		return true
	default:
		return false
	}
}

func decodedFormatToMime(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}
