package price

// Dedupe drops candidates that share a normalized (value, currency) key,
// keeping the highest-confidence instance. First-seen order is preserved,
// so stable-sorted inputs stay stable.
func Dedupe(in []Candidate) []Candidate {
	if len(in) < 2 {
		return in
	}
	index := map[string]int{}
	out := make([]Candidate, 0, len(in))
	for _, c := range in {
		if i, ok := index[c.Key()]; ok {
			if c.Confidence > out[i].Confidence {
				out[i] = c
			}
			continue
		}
		index[c.Key()] = len(out)
		out = append(out, c)
	}
	return out
}
