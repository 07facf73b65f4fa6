package models

// Proteome is one row of the UniProt proteome catalog.
type Proteome struct {
	ID           string `json:"proteome_id"`
	Organism     string `json:"organism"`
	ProteinCount int64  `json:"protein_count"`
	Lineage      string `json:"taxonomic_lineage"`
	Type         string `json:"proteome_type"` // "reference" or "other"
}
