package output

// ActionResult reports a command that changes state.
type ActionResult struct {
	Action  string         `json:"action"`
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// WindowRecord is one saved window.
type WindowRecord struct {
	Index  int    `json:"index"`
	ID     string `json:"id,omitempty"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// SavedState is the persisted window list and where it lives.
type SavedState struct {
	Key      string         `json:"key"`
	Backend  string         `json:"backend"`
	Path     string         `json:"path,omitempty"`
	Count    int            `json:"count"`
	Resolved int            `json:"resolved"`
	Records  []WindowRecord `json:"records"`
}

// RestoreResult summarizes a restore pass.
type RestoreResult struct {
	Records int `json:"records"`
	Matched int `json:"matched"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// LiveWindow is an open window and its resolved identifier.
type LiveWindow struct {
	Key    string `json:"key"`
	Type   string `json:"type"`
	Title  string `json:"title"`
	ID     string `json:"id,omitempty"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}
