package imaging

// LabelComponents groups foreground pixels into connected components and
// returns them as a LabelMask.
//
// Connectivity is 8-connected (diagonal neighbours join), which keeps
// roughly circular biological objects with ragged edges in one piece.
// Components are numbered 1..n in raster-scan order of their first pixel.
// foreground must hold width*height row-major values.
func LabelComponents(foreground []bool, width, height int) *LabelMask {
	m := NewLabelMask(width, height)
	next := 1

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			if foreground[i] && m.Pix[i] == 0 {
				floodFill(foreground, m, x, y, next)
				next++
			}
		}
	}
	return m
}

// Relabel splits every label of m into its 8-connected components and
// renumbers them 1..n in raster-scan order. Pixels of different labels never
// join even when adjacent.
func Relabel(m *LabelMask) *LabelMask {
	out := NewLabelMask(m.Width, m.Height)
	next := 1
	stack := make([]int, 0, 64)

	for start, label := range m.Pix {
		if label == 0 || out.Pix[start] != 0 {
			continue
		}
		stack = append(stack[:0], start)
		out.Pix[start] = next
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			px, py := i%m.Width, i/m.Width
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := px+dx, py+dy
					if nx < 0 || nx >= m.Width || ny < 0 || ny >= m.Height {
						continue
					}
					j := ny*m.Width + nx
					if m.Pix[j] == label && out.Pix[j] == 0 {
						out.Pix[j] = next
						stack = append(stack, j)
					}
				}
			}
		}
		next++
	}
	return out
}

// floodFill labels the component containing (startX, startY).
//
// Uses an explicit stack rather than recursion so large cells cannot
// overflow the goroutine stack.
func floodFill(foreground []bool, m *LabelMask, startX, startY, label int) {
	stack := []Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= m.Width || p.Y < 0 || p.Y >= m.Height {
			continue
		}
		i := p.Y*m.Width + p.X
		if !foreground[i] || m.Pix[i] != 0 {
			continue
		}
		m.Pix[i] = label

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, Point{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}
}
