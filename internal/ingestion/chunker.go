package ingestion

// Span is one window over the parsed text.
type Span struct {
	Start   int
	Content string
}

// ChunkText slides a window of size chunkSize with the given overlap:
// each start advances by chunkSize-overlap, the last chunk may be shorter,
// a document shorter than chunkSize yields exactly one chunk and the empty
// document yields one empty chunk. Every full-length chunk shares exactly
// overlap characters with its successor.
func ChunkText(text string, chunkSize, overlap int) []Span {
	if chunkSize < 1 {
		chunkSize = 512
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize - 1
	}
	if len(text) <= chunkSize {
		return []Span{{Start: 0, Content: text}}
	}

	step := chunkSize - overlap
	var spans []Span
	for start := 0; start < len(text); start += step {
		end := start + chunkSize
		if end >= len(text) {
			spans = append(spans, Span{Start: start, Content: text[start:]})
			break
		}
		spans = append(spans, Span{Start: start, Content: text[start:end]})
	}
	return spans
}
