package preprocess

import (
	"image"

	"golang.org/x/image/draw"
)

// Upscale enlarges img by factor using Catmull-Rom resampling.
func Upscale(img image.Image, factor int) image.Image {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Crop copies r out of img into a new grayscale image with origin at (0, 0).
// r is clipped to the image bounds.
func Crop(img image.Image, r image.Rectangle) *image.Gray {
	r = r.Intersect(img.Bounds())
	dst := image.NewGray(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), img, r.Min, draw.Src)
	return dst
}
