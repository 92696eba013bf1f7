package delivery

import "strings"

// SplitChunks breaks content into ordered chunks of at most max
// characters without splitting a line across two chunks. Joining the
// chunks back with "\n" reproduces the input exactly. A single line
// longer than max becomes its own oversized chunk.
func SplitChunks(content string, max int) []string {
	lines := strings.Split(content, "\n")

	var chunks []string
	var cur strings.Builder
	started := false
	for _, line := range lines {
		if !started {
			cur.WriteString(line)
			started = true
			continue
		}
		if cur.Len()+len(line)+1 > max {
			chunks = append(chunks, cur.String())
			cur.Reset()
			cur.WriteString(line)
			continue
		}
		cur.WriteString("\n")
		cur.WriteString(line)
	}
	if started {
		chunks = append(chunks, cur.String())
	}
	return chunks
}
