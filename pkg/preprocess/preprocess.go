// Package preprocess turns a page image into a binary ink image and a mask of
// the ruling lines that form table grids.
package preprocess

import (
	"fmt"
	"image"
	"image/draw"
	"strings"
)

// ThresholdMethod selects how grayscale pixels are split into ink and paper.
type ThresholdMethod int

const (
	ThresholdOtsu ThresholdMethod = iota
	ThresholdAdaptive
)

func (m ThresholdMethod) String() string {
	if m == ThresholdAdaptive {
		return "adaptive"
	}
	return "otsu"
}

// UnmarshalText accepts "otsu" or "adaptive", so config files can name the
// method.
func (m *ThresholdMethod) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "otsu", "":
		*m = ThresholdOtsu
	case "adaptive":
		*m = ThresholdAdaptive
	default:
		return fmt.Errorf("preprocess: unknown threshold method %q", text)
	}
	return nil
}

// Config holds the morphology parameters used to isolate ruling lines.
type Config struct {
	Threshold     ThresholdMethod `yaml:"threshold"`
	AdaptiveBlock int             `yaml:"adaptive_block"` // Odd neighbourhood size for adaptive thresholding
	AdaptiveC     int             `yaml:"adaptive_c"`     // Constant subtracted from the local mean
	KernelLength  int             `yaml:"kernel_length"`  // Length of the line-detecting structuring element
	Iterations    int             `yaml:"iterations"`
	CloseLength   int             `yaml:"close_length"` // Gap bridged along a line after opening; 0 disables
}

// DefaultConfig returns the parameters tuned for 200 DPI scans.
func DefaultConfig() Config {
	return Config{
		Threshold:     ThresholdOtsu,
		AdaptiveBlock: 11,
		AdaptiveC:     2,
		KernelLength:  25,
		Iterations:    2,
		CloseLength:   3,
	}
}

// Result holds every intermediate image produced for one page.
type Result struct {
	Gray       *image.Gray
	Binary     *image.Gray // Ink is 255, paper is 0
	Horizontal *image.Gray
	Vertical   *image.Gray
	Mask       *image.Gray // Horizontal OR Vertical
}

// Run preprocesses img. A page without ruling lines yields an empty mask.
func Run(img image.Image, cfg Config) Result {
	def := DefaultConfig()
	if cfg.KernelLength <= 0 {
		cfg.KernelLength = def.KernelLength
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = def.Iterations
	}
	if cfg.AdaptiveBlock <= 1 {
		cfg.AdaptiveBlock = def.AdaptiveBlock
	}

	gray := Grayscale(img)

	var bin *image.Gray
	if cfg.Threshold == ThresholdAdaptive {
		bin = AdaptiveBinarize(gray, cfg.AdaptiveBlock, cfg.AdaptiveC)
	} else {
		bin = Binarize(gray, OtsuThreshold(gray))
	}

	horiz := Open(bin, cfg.KernelLength, 1, cfg.Iterations)
	vert := Open(bin, 1, cfg.KernelLength, cfg.Iterations)
	if cfg.CloseLength > 1 {
		horiz = Close(horiz, cfg.CloseLength, 1, 1)
		vert = Close(vert, 1, cfg.CloseLength, 1)
	}

	return Result{
		Gray:       gray,
		Binary:     bin,
		Horizontal: horiz,
		Vertical:   vert,
		Mask:       Or(horiz, vert),
	}
}

// Grayscale converts img to 8-bit luminance with origin at (0, 0).
func Grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// OtsuThreshold returns the threshold that maximises between-class variance.
func OtsuThreshold(gray *image.Gray) uint8 {
	var hist [256]int
	b := gray.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := gray.Pix[gray.PixOffset(b.Min.X, y):gray.PixOffset(b.Max.X, y)]
		for _, v := range row {
			hist[v]++
		}
	}

	total := b.Dx() * b.Dy()
	if total == 0 {
		return 0
	}
	var sum float64
	for i, n := range hist {
		sum += float64(i * n)
	}

	var (
		sumB, best float64
		weightB    int
		threshold  uint8
	)
	for t := 0; t < 256; t++ {
		weightB += hist[t]
		if weightB == 0 {
			continue
		}
		weightF := total - weightB
		if weightF == 0 {
			break
		}
		sumB += float64(t * hist[t])
		meanB := sumB / float64(weightB)
		meanF := (sum - sumB) / float64(weightF)
		between := float64(weightB) * float64(weightF) * (meanB - meanF) * (meanB - meanF)
		if between > best {
			best = between
			threshold = uint8(t)
		}
	}
	return threshold
}

// Binarize marks pixels darker than or equal to t as ink (255).
func Binarize(gray *image.Gray, t uint8) *image.Gray {
	b := gray.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := gray.Pix[gray.PixOffset(b.Min.X, b.Min.Y+y):]
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < b.Dx(); x++ {
			if src[x] <= t {
				dst[x] = 255
			}
		}
	}
	return out
}

// AdaptiveBinarize marks a pixel as ink when it is darker than the mean of its
// block×block neighbourhood minus c.
func AdaptiveBinarize(gray *image.Gray, block, c int) *image.Gray {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return out
	}

	// Summed-area table with a zero border row and column.
	sat := make([]int64, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		var rowSum int64
		src := gray.Pix[gray.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < w; x++ {
			rowSum += int64(src[x])
			sat[(y+1)*(w+1)+x+1] = sat[y*(w+1)+x+1] + rowSum
		}
	}

	r := block / 2
	for y := 0; y < h; y++ {
		y0, y1 := max(0, y-r), min(h, y+r+1)
		src := gray.Pix[gray.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < w; x++ {
			x0, x1 := max(0, x-r), min(w, x+r+1)
			sum := sat[y1*(w+1)+x1] - sat[y0*(w+1)+x1] - sat[y1*(w+1)+x0] + sat[y0*(w+1)+x0]
			mean := sum / int64((x1-x0)*(y1-y0))
			if int64(src[x]) <= mean-int64(c) {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}

// Or combines two masks of equal size.
func Or(a, b *image.Gray) *image.Gray {
	out := image.NewGray(a.Bounds())
	for i := range out.Pix {
		if a.Pix[i] != 0 || b.Pix[i] != 0 {
			out.Pix[i] = 255
		}
	}
	return out
}

// IsEmpty reports whether mask has no set pixels.
func IsEmpty(mask *image.Gray) bool {
	for _, v := range mask.Pix {
		if v != 0 {
			return false
		}
	}
	return true
}

// Invert swaps ink and paper.
func Invert(mask *image.Gray) *image.Gray {
	out := image.NewGray(mask.Bounds())
	for i, v := range mask.Pix {
		out.Pix[i] = 255 - v
	}
	return out
}
