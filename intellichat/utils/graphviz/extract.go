package graphviz

import "strings"

// Extract pulls Graphviz-looking blocks out of model output.
//
// The text is split on triple-backtick fences; a segment is kept when it
// mentions `graph` or `digraph` and contains both braces. Brace balance is
// not validated — a malformed block is still returned and may fail at
// render time. Order and duplicates are preserved.
func Extract(text string) []string {
	segments := strings.Split(text, "```")
	var graphs []string
	for _, seg := range segments {
		if !strings.Contains(seg, "graph") && !strings.Contains(seg, "digraph") {
			continue
		}
		if strings.Contains(seg, "{") && strings.Contains(seg, "}") {
			graphs = append(graphs, seg)
		}
	}
	return graphs
}
