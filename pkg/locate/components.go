package locate

type component struct {
	rect          Rect
	touchesBorder bool
}

// components labels the connected regions of pixels equal to want.
// eight selects 8-connectivity, otherwise 4-connectivity is used.
func components(pix []bool, w, h int, want, eight bool) []component {
	seen := make([]bool, len(pix))
	var out []component
	var stack []int

	for start := range pix {
		if seen[start] || pix[start] != want {
			continue
		}
		seen[start] = true
		stack = append(stack[:0], start)

		minX, minY := w, h
		maxX, maxY := -1, -1
		border := false

		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := i%w, i/w

			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
			if x == 0 || y == 0 || x == w-1 || y == h-1 {
				border = true
			}

			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					if !eight && dx != 0 && dy != 0 {
						continue
					}
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					j := ny*w + nx
					if seen[j] || pix[j] != want {
						continue
					}
					seen[j] = true
					stack = append(stack, j)
				}
			}
		}

		out = append(out, component{
			rect:          Rect{X: minX, Y: minY, W: maxX - minX + 1, H: maxY - minY + 1},
			touchesBorder: border,
		})
	}
	return out
}
