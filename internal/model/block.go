package model

// Tag and ceiling defaults for compressed blocks.
const (
	IndexTag       = "MEMORY-INDEX"
	SkillsTag      = "SKILLS-INDEX"
	IndexCeiling   = 4096
	DefaultCeiling = 2048
)

// Group is one keyed run of entries inside a block.
type Group struct {
	Key     string   `json:"key"`
	Entries []string `json:"entries"`
}

// Block is the single-line, marker-delimited summary of a stream.
type Block struct {
	Tag    string  `json:"tag"`
	Title  string  `json:"title"`
	Groups []Group `json:"groups"`
}

// EntryCount returns the number of entries across all groups.
func (b Block) EntryCount() int {
	n := 0
	for _, g := range b.Groups {
		n += len(g.Entries)
	}
	return n
}

// CeilingFor returns the byte ceiling associated with a block tag.
func CeilingFor(tag string) int {
	if tag == IndexTag {
		return IndexCeiling
	}
	return DefaultCeiling
}

// Artifact records the size of one file before and after a run. Block is
// the size of the compact block written into it, which is what Ceiling
// bounds.
type Artifact struct {
	Path    string `json:"path"`
	Before  int    `json:"before"`
	After   int    `json:"after"`
	Block   int    `json:"block,omitempty"`
	Ceiling int    `json:"ceiling,omitempty"`
}

// Changed reports whether the run altered the artifact's size.
func (a Artifact) Changed() bool {
	return a.Before != a.After
}

// OverCeiling reports whether the block exceeds its ceiling, if any.
func (a Artifact) OverCeiling() bool {
	return a.Ceiling > 0 && a.Block > a.Ceiling
}
