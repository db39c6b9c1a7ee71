package analytics

import "math"

const (
	colorSuccess     = "hsl(var(--success))"
	colorWarning     = "hsl(var(--warning))"
	colorDestructive = "hsl(var(--destructive))"
	colorMuted       = "hsl(var(--muted-foreground))"
)

// Summary is the distribution of per-enrollment attendance percentages.
type Summary struct {
	Count        int            `json:"-"`
	Average      float64        `json:"averageAttendance"`
	Above70      int            `json:"above70"`
	Below60      int            `json:"below60"`
	Distribution []Distribution `json:"distribution"`
	Ranges       []Range        `json:"ranges"`
}

// Distribution is one of the three named bands, as a share of all values.
type Distribution struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// Range is a histogram bucket.
type Range struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

// bucket bounds are [lo, hi) except the last, which includes 100.
var buckets = []struct {
	label  string
	lo, hi float64
}{
	{"0-20%", 0, 20},
	{"20-40%", 20, 40},
	{"40-60%", 40, 60},
	{"60-70%", 60, 70},
	{"70-80%", 70, 80},
	{"80-90%", 80, 90},
	{"90-100%", 90, 100},
}

// Aggregate summarises percentages. An empty input gives zeroed bands and buckets.
func Aggregate(percentages []float64) Summary {
	s := Summary{Count: len(percentages)}
	var sum float64
	var mid int
	counts := make([]int, len(buckets))
	for _, p := range percentages {
		sum += p
		switch {
		case p >= 70:
			s.Above70++
		case p >= 60:
			mid++
		default:
			s.Below60++
		}
		for i, b := range buckets {
			last := i == len(buckets)-1
			if p >= b.lo && (p < b.hi || last && p <= b.hi) {
				counts[i]++
				break
			}
		}
	}

	if s.Count > 0 {
		s.Average = round2(sum / float64(s.Count))
	}
	s.Distribution = []Distribution{
		{Name: "Above 70%", Value: share(s.Above70, s.Count), Color: colorSuccess},
		{Name: "60-70%", Value: share(mid, s.Count), Color: colorWarning},
		{Name: "Below 60%", Value: share(s.Below60, s.Count), Color: colorDestructive},
	}
	s.Ranges = make([]Range, len(buckets))
	for i, b := range buckets {
		s.Ranges[i] = Range{Range: b.label, Count: counts[i]}
	}
	return s
}

// BandColor picks the chart colour for an average.
func BandColor(avg float64) string {
	switch {
	case avg >= 70:
		return colorSuccess
	case avg >= 60:
		return colorWarning
	default:
		return colorDestructive
	}
}

func share(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(n) / float64(total) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
