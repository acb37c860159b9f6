package detect

import "image"

// rawBox is one candidate detection decoded from the model output,
// before non-maximum suppression.
type rawBox struct {
	rect  image.Rectangle
	score float32
	class int
}

// decodeOutput converts a raw YOLO output tensor into candidate boxes.
//
// The tensor has shape [1, 4+numClasses, cells] flattened attribute-major:
// raw[a*cells+i] is attribute a of cell i. The first four attributes are
// the box center, width and height in model-input coordinates; the rest
// are per-class scores. Candidates below conf are dropped, and every
// surviving box is scaled back to frame coordinates with sx/sy.
func decodeOutput(raw []float32, numClasses, cells int, sx, sy float32, conf float32) []rawBox {
	var boxes []rawBox

	for i := 0; i < cells; i++ {
		bestScore := float32(0)
		bestClass := -1
		for c := 0; c < numClasses; c++ {
			score := raw[(4+c)*cells+i]
			if score > bestScore {
				bestScore = score
				bestClass = c
			}
		}

		if bestClass < 0 || bestScore < conf {
			continue
		}

		cx := raw[i]
		cy := raw[cells+i]
		w := raw[2*cells+i]
		h := raw[3*cells+i]

		x0 := int((cx - w/2) * sx)
		y0 := int((cy - h/2) * sy)
		x1 := int((cx + w/2) * sx)
		y1 := int((cy + h/2) * sy)

		boxes = append(boxes, rawBox{
			rect:  image.Rect(x0, y0, x1, y1),
			score: bestScore,
			class: bestClass,
		})
	}

	return boxes
}
