package tracker

// LabelNames extracts label names, skipping empty ones.
func LabelNames(labels []Label) []string {
	names := make([]string, 0, len(labels))
	for _, l := range labels {
		if l.Name != "" {
			names = append(names, l.Name)
		}
	}
	return names
}

// Unique drops items with a number already seen, preserving order.
func Unique(items []Item) []Item {
	seen := make(map[int]bool, len(items))
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if seen[it.Number] {
			continue
		}
		seen[it.Number] = true
		out = append(out, it)
	}
	return out
}

// Unlocked returns the items whose conversation is not locked.
func Unlocked(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if !it.Locked {
			out = append(out, it)
		}
	}
	return out
}
