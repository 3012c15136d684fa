package preprocess

import "image"

// Erode applies a kx×ky rectangular erosion. Pixels outside the image count
// as set so borders do not eat into lines touching the edge.
func Erode(bin *image.Gray, kx, ky int) *image.Gray {
	return separable(bin, kx, ky, true)
}

// Dilate applies a kx×ky rectangular dilation.
func Dilate(bin *image.Gray, kx, ky int) *image.Gray {
	return separable(bin, kx, ky, false)
}

// Open erodes iterations times and then dilates iterations times, removing
// every ink run shorter than the kernel along its axis.
func Open(bin *image.Gray, kx, ky, iterations int) *image.Gray {
	out := bin
	for i := 0; i < iterations; i++ {
		out = Erode(out, kx, ky)
	}
	for i := 0; i < iterations; i++ {
		out = Dilate(out, kx, ky)
	}
	if out == bin {
		out = clone(bin)
	}
	return out
}

// Close dilates then erodes, bridging gaps shorter than the kernel.
func Close(bin *image.Gray, kx, ky, iterations int) *image.Gray {
	out := bin
	for i := 0; i < iterations; i++ {
		out = Dilate(out, kx, ky)
	}
	for i := 0; i < iterations; i++ {
		out = Erode(out, kx, ky)
	}
	if out == bin {
		out = clone(bin)
	}
	return out
}

func clone(g *image.Gray) *image.Gray {
	out := image.NewGray(g.Bounds())
	copy(out.Pix, g.Pix)
	return out
}

// separable runs the rectangle as a horizontal pass followed by a vertical one.
func separable(bin *image.Gray, kx, ky int, erode bool) *image.Gray {
	b := bin.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		copy(out.Pix[y*out.Stride:y*out.Stride+w], bin.Pix[bin.PixOffset(b.Min.X, b.Min.Y+y):])
	}
	if w == 0 || h == 0 {
		return out
	}

	line := make([]uint8, max(w, h))
	res := make([]uint8, max(w, h))
	count := make([]int, max(w, h)+1)

	if kx > 1 {
		for y := 0; y < h; y++ {
			row := out.Pix[y*out.Stride : y*out.Stride+w]
			copy(line, row)
			window(line[:w], res[:w], count, kx, erode)
			copy(row, res[:w])
		}
	}
	if ky > 1 {
		for x := 0; x < w; x++ {
			for y := 0; y < h; y++ {
				line[y] = out.Pix[y*out.Stride+x]
			}
			window(line[:h], res[:h], count, ky, erode)
			for y := 0; y < h; y++ {
				out.Pix[y*out.Stride+x] = res[y]
			}
		}
	}
	return out
}

// window computes a 1-D min (erode) or max (dilate) of a binary line over a
// k-wide window anchored at its centre, using a prefix count of set pixels.
func window(in, out []uint8, count []int, k int, erode bool) {
	n := len(in)
	count[0] = 0
	for i, v := range in {
		c := 0
		if v != 0 {
			c = 1
		}
		count[i+1] = count[i] + c
	}

	a := k / 2
	for i := 0; i < n; i++ {
		var lo, hi int
		if erode {
			lo, hi = i-a, i+k-1-a
		} else {
			// Reflected window so opening restores runs exactly.
			lo, hi = i-(k-1-a), i+a
		}
		lo, hi = max(lo, 0), min(hi, n-1)
		set := count[hi+1] - count[lo]
		if erode {
			out[i] = 0
			if set == hi-lo+1 {
				out[i] = 255
			}
		} else {
			out[i] = 0
			if set > 0 {
				out[i] = 255
			}
		}
	}
}
