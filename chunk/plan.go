package chunk

// Span is one chunk of a transfer. Offset is relative to the start of the
// transfer.
type Span struct {
	Offset int
	Length int
}

// Plan splits a transfer of length bytes into spans of at most gulp bytes.
// A non-positive length or gulp yields no spans.
func Plan(length int, gulp int) []Span {
	if length <= 0 || gulp <= 0 {
		return nil
	}

	spans := make([]Span, 0, (length+gulp-1)/gulp)
	for off := 0; off < length; off += gulp {
		spans = append(spans, Span{Offset: off, Length: min(gulp, length-off)})
	}

	return spans
}
