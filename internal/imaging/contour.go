package imaging

import (
	"github.com/ironsheep/maskviz-mcp/internal/instances"
)

// FindContours traces the outlines of a binary mask.
//
// The mask is padded by one background pixel so that instances touching the
// border still yield closed outlines, then iso-lines at level 0.5 are
// extracted with marching squares. Each returned polyline is closed (the
// last vertex connects back to the first) and is expressed in the mask's own
// pixel coordinates, with pixel centers at integer positions. Because the
// mask is binary, every vertex lies halfway between a set and an unset
// pixel center.
//
// Diagonally touching pixels are treated as separate regions (background is
// the connected phase), so a checkerboard produces one outline per set pixel.
func FindContours(mask *instances.Mask) [][]Point {
	if mask == nil || mask.Area() == 0 {
		return nil
	}
	p := mask.Pad(1)

	// Segments are stored with doubled coordinates so every vertex is an
	// integer and endpoints can be matched exactly.
	type vertex struct{ x, y int }
	type segment struct{ a, b vertex }
	var segs []segment

	at := func(x, y int) int {
		if p.At(x, y) {
			return 1
		}
		return 0
	}

	for row := 0; row < p.Height-1; row++ {
		for col := 0; col < p.Width-1; col++ {
			tl := at(col, row)
			tr := at(col+1, row)
			br := at(col+1, row+1)
			bl := at(col, row+1)
			idx := tl<<3 | tr<<2 | br<<1 | bl
			if idx == 0 || idx == 15 {
				continue
			}

			x2, y2 := 2*col, 2*row
			top := vertex{x2 + 1, y2}
			right := vertex{x2 + 2, y2 + 1}
			bottom := vertex{x2 + 1, y2 + 2}
			left := vertex{x2, y2 + 1}

			switch idx {
			case 1, 14:
				segs = append(segs, segment{left, bottom})
			case 2, 13:
				segs = append(segs, segment{bottom, right})
			case 3, 12:
				segs = append(segs, segment{left, right})
			case 4, 11:
				segs = append(segs, segment{top, right})
			case 6, 9:
				segs = append(segs, segment{top, bottom})
			case 7, 8:
				segs = append(segs, segment{left, top})
			case 5:
				// tr and bl set, not connected
				segs = append(segs, segment{top, right}, segment{left, bottom})
			case 10:
				// tl and br set, not connected
				segs = append(segs, segment{left, top}, segment{bottom, right})
			}
		}
	}

	// Every vertex is shared by exactly two segments, so chains close.
	byVertex := make(map[vertex][]int, 2*len(segs))
	for i, s := range segs {
		byVertex[s.a] = append(byVertex[s.a], i)
		byVertex[s.b] = append(byVertex[s.b], i)
	}

	used := make([]bool, len(segs))
	var contours [][]Point
	toPoint := func(v vertex) Point {
		// undo the doubling and the one-pixel pad
		return Point{X: float64(v.x)/2 - 1, Y: float64(v.y)/2 - 1}
	}

	for start := range segs {
		if used[start] {
			continue
		}
		used[start] = true
		first := segs[start].a
		cur := segs[start].b
		chain := []Point{toPoint(first)}

		for cur != first {
			chain = append(chain, toPoint(cur))
			next := -1
			for _, si := range byVertex[cur] {
				if !used[si] {
					next = si
					break
				}
			}
			if next < 0 {
				break
			}
			used[next] = true
			if segs[next].a == cur {
				cur = segs[next].b
			} else {
				cur = segs[next].a
			}
		}
		contours = append(contours, chain)
	}
	return contours
}
