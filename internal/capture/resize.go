package capture

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"strings"

	"golang.org/x/image/draw"
)

// Resize scales src into a pooled buffer of the target size. Callers hand
// the result back with PutImage once it has been saved.
func Resize(src image.Image, target image.Rectangle) (*image.RGBA, error) {
	if src == nil || src.Bounds().Empty() {
		return nil, fmt.Errorf("empty source image")
	}
	if target.Empty() {
		return nil, fmt.Errorf("empty target size %v", target)
	}
	dst := GetImage(target)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}

// Save encodes img to path; the format follows ext ("png" or "jpg").
func Save(img image.Image, path, ext string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(ext) {
	case "jpg", "jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 92})
	default:
		err = png.Encode(f, img)
	}
	if err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
