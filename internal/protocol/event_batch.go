package protocol

// Batch is a page of envelopes read from a journal. Next is the cursor to
// pass to the following read; it equals Since when nothing was read.
type Batch struct {
	Run       string     `json:"run"`
	Since     uint64     `json:"since"`
	Next      uint64     `json:"next"`
	Envelopes []Envelope `json:"envelopes"`
}

// Kinds counts envelopes per family/kind pair, keyed "family/KIND".
func (b Batch) Kinds() map[string]int {
	out := map[string]int{}
	for _, e := range b.Envelopes {
		out[e.Family+"/"+e.Kind]++
	}
	return out
}
