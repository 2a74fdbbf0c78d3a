package element

// Merge concatenates the text elements (recognizer order) and the
// deduplicated contour elements (acceptance order) and renumbers them.
//
// The returned slice is new; ids are overwritten with the 0-based index in
// the concatenation, so text elements always get the lowest ids and the
// result is contiguous 0..len-1. The inputs are not modified. TextInfo
// pointers are copied, not shared.
func Merge(text, contours []Element) []Element {
	merged := make([]Element, 0, len(text)+len(contours))
	for _, group := range [][]Element{text, contours} {
		for _, e := range group {
			if e.TextInfo != nil {
				info := *e.TextInfo
				e.TextInfo = &info
			}
			e.ID = len(merged)
			merged = append(merged, e)
		}
	}
	return merged
}

// Count tallies elements per kind.
func Count(elements []Element) (text, contours int) {
	for _, e := range elements {
		switch e.Kind {
		case KindText:
			text++
		case KindContour:
			contours++
		}
	}
	return text, contours
}
