package models

// MitreKind distinguishes the ATT&CK entry families by ID prefix.
type MitreKind string

const (
	MitreTechnique  MitreKind = "technique"  // Txxxx
	MitreTactic     MitreKind = "tactic"     // TAxxxx
	MitreMitigation MitreKind = "mitigation" // Mxxxx
	MitreSoftware   MitreKind = "software"   // Sxxxx
	MitreGroup      MitreKind = "group"      // Gxxxx
)

// MitreEntry is one row of the static ATT&CK reference table.
type MitreEntry struct {
	ID          string    `json:"id" yaml:"id"`
	Kind        MitreKind `json:"kind" yaml:"kind"`
	Name        string    `json:"name" yaml:"name"`
	URL         string    `json:"url,omitempty" yaml:"url,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
}
