package views

// Bin is one histogram bucket covering [Lower, Upper). The last bin of a
// histogram also includes Upper.
type Bin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Histogram splits [lo, hi] into equal-width bins and counts the values
// inside. Values outside the interval are left out.
func Histogram(values []float64, bins int, lo, hi float64) []Bin {
	if len(values) == 0 || bins <= 0 || hi < lo {
		return []Bin{}
	}
	if hi == lo {
		hi = lo + 1
	}

	width := (hi - lo) / float64(bins)
	result := make([]Bin, bins)
	for i := range result {
		result[i].Lower = lo + float64(i)*width
		result[i].Upper = lo + float64(i+1)*width
	}
	result[bins-1].Upper = hi

	for _, v := range values {
		if v < lo || v > hi {
			continue
		}
		idx := int((v - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		result[idx].Count++
	}
	return result
}

// AutoHistogram is Histogram over the full range of values.
func AutoHistogram(values []float64, bins int) []Bin {
	if len(values) == 0 {
		return []Bin{}
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return Histogram(values, bins, lo, hi)
}
