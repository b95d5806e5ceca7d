package trigram

// Stats holds aggregated statistics for a Generator.
type Stats struct {
	VocabSize    int  `json:"vocab_size"`   // The number of distinct tokens
	Pairs        int  `json:"pairs"`        // The number of distinct token pairs
	Observations int  `json:"observations"` // The number of recorded trigram windows
	Finalized    bool `json:"finalized"`
}

// Stats returns a snapshot of the generator's size. It is available in both states.
func (g *Generator) Stats() Stats {
	table := g.transitions()
	return Stats{
		VocabSize:    g.dict.Len(),
		Pairs:        table.Len(),
		Observations: table.Observations(),
		Finalized:    g.finalized,
	}
}
