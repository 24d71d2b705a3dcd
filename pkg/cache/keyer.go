package cache

// RunKeyOpts are the run options that change a run result.
type RunKeyOpts struct {
	Mode   string `json:"mode"`
	Reduce bool   `json:"reduce"`
}

// Keyer builds cache keys.
type Keyer interface {
	// RunKey is the key of a run over the scenario with the given content
	// hash.
	RunKey(scenarioHash string, opts RunKeyOpts) string
}

// DefaultKeyer produces keys of the form "run:sha256".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// RunKey hashes the scenario hash together with opts.
func (DefaultKeyer) RunKey(scenarioHash string, opts RunKeyOpts) string {
	return hashKey("run", scenarioHash, opts)
}
