package app

// ViewState is the selection and preview state of the viewer.
// An empty id means "none". Both ids always name live catalog entries;
// the engine guarantees this by reducing RemovedAction atomically with
// every catalog removal.
type ViewState struct {
	Selected   string
	Previewing string
}

// Action is the base interface for all view-state transitions
type Action interface{}

// ===== SELECTION ACTIONS =====

// SelectAction is a single click on a grid or filmstrip entry
type SelectAction struct {
	ID string
}

// OpenPreviewAction is a double click on an entry
type OpenPreviewAction struct {
	ID string
}

// BackToGridAction leaves the full-screen preview
type BackToGridAction struct{}

// ===== NAVIGATION ACTIONS =====

// NavigateAction moves the preview to Target, the already resolved
// circular neighbour of the current preview
type NavigateAction struct {
	Target string
}

// ===== CATALOG ACTIONS =====

// RemovedAction repairs the state after ids left the catalog
type RemovedAction struct {
	IDs []string
}

// IsPreviewing reports whether the full-screen viewer is showing
func (s ViewState) IsPreviewing() bool {
	return s.Previewing != ""
}

// HasSelection reports whether an entry is selected
func (s ViewState) HasSelection() bool {
	return s.Selected != ""
}

// Reduce applies action to state and returns the new state.
// It is pure: existence checks against the catalog happen before an
// action is built.
func Reduce(state ViewState, action Action) ViewState {
	switch a := action.(type) {

	case SelectAction:
		if a.ID == "" {
			return state
		}
		state.Selected = a.ID
		return state

	case OpenPreviewAction:
		if a.ID == "" {
			return state
		}
		state.Selected = a.ID
		state.Previewing = a.ID
		return state

	case BackToGridAction:
		state.Previewing = ""
		return state

	case NavigateAction:
		// Arrow keys are inert in the grid
		if !state.IsPreviewing() || a.Target == "" {
			return state
		}
		state.Selected = a.Target
		state.Previewing = a.Target
		return state

	case RemovedAction:
		for _, id := range a.IDs {
			if state.Previewing == id {
				state.Previewing = ""
			}
			if state.Selected == id {
				state.Selected = ""
			}
		}
		return state
	}

	return state
}
