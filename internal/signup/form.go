package signup

import "sync"

// ButtonStyle is the CSS class that gives the link control its colour.
type ButtonStyle string

// Looks of the link control. The emphasis style and link label are shown
// while no identity is linked; the success style and unlink label after.
const (
	StyleEmphasis ButtonStyle = "btn-emphasis"
	StyleSuccess  ButtonStyle = "btn-success"

	LabelLink   = "Link Your GitHub Account"
	LabelUnlink = "Unlink Your GitHub Account"
)

// Form is the view-model of the sign-up page: the enabled state of the submit
// and link controls, the link control's label and style, and the declared tag
// checkboxes. It is the only place that state lives.
//
// An in-flight identity toggle and an in-flight submission are tracked
// separately. The link control is enabled only while neither is running, so
// whichever finishes first cannot re-enable it under the other.
type Form struct {
	mu            sync.Mutex
	submitEnabled bool
	toggling      bool
	submitting    bool
	linked        bool
	checkboxes    []TagCheckbox
}

// FormState is an immutable copy of a Form, used for rendering.
type FormState struct {
	SubmitEnabled bool
	LinkEnabled   bool
	LinkLabel     string
	LinkStyle     ButtonStyle
	Linked        bool
	Checkboxes    []TagCheckbox
}

// NewForm starts unlinked: submit disabled, link enabled.
func NewForm(checkboxes []TagCheckbox) *Form {
	cb := make([]TagCheckbox, len(checkboxes))
	copy(cb, checkboxes)

	return &Form{checkboxes: cb}
}

// SubmitEnabled reports whether the submit control accepts clicks. It is
// false while a submission is running.
func (f *Form) SubmitEnabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitEnabled && !f.submitting
}

// LinkEnabled reports whether the link control accepts clicks: no identity
// toggle and no submission may be in flight.
func (f *Form) LinkEnabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.toggling && !f.submitting
}

// Linked reports whether the link control shows the linked look.
func (f *Form) Linked() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.linked
}

// LinkLabel is the text of the link control.
func (f *Form) LinkLabel() string {
	return f.Snapshot().LinkLabel
}

// LinkStyle is the style of the link control.
func (f *Form) LinkStyle() ButtonStyle {
	return f.Snapshot().LinkStyle
}

// SetSubmitEnabled records whether submit should be enabled once no
// submission is running.
func (f *Form) SetSubmitEnabled(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitEnabled = enabled
}

// SetLinked switches the link control between its linked and unlinked look.
func (f *Form) SetLinked(linked bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.linked = linked
}

// beginToggle marks an identity toggle as in flight. It reports false, and
// changes nothing, when the link control is disabled.
func (f *Form) beginToggle() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.toggling || f.submitting {
		return false
	}
	f.toggling = true
	return true
}

func (f *Form) endToggle() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toggling = false
}

// beginSubmit disables both controls until endSubmit.
func (f *Form) beginSubmit() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitting = true
}

// endSubmit re-enables submit whatever the outcome. The link control comes
// back only if no toggle is still running.
func (f *Form) endSubmit() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitting = false
	f.submitEnabled = true
}

// Check sets the checked state of the checkbox with the given id. It reports
// false when no such checkbox was declared.
func (f *Form) Check(id string, checked bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.checkboxes {
		if f.checkboxes[i].ID == id {
			f.checkboxes[i].Checked = checked
			return true
		}
	}
	return false
}

// CheckValue is Check keyed by tag value instead of checkbox id.
func (f *Form) CheckValue(value string, checked bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.checkboxes {
		if f.checkboxes[i].Value == value {
			f.checkboxes[i].Checked = checked
			return true
		}
	}
	return false
}

// Checkboxes returns a copy of the declared checkboxes.
func (f *Form) Checkboxes() []TagCheckbox {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]TagCheckbox, len(f.checkboxes))
	copy(out, f.checkboxes)
	return out
}

// InterestTags returns the values of the checked boxes in declaration order.
func (f *Form) InterestTags() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	tags := make([]string, 0, len(f.checkboxes))
	for _, cb := range f.checkboxes {
		if cb.Checked {
			tags = append(tags, cb.Value)
		}
	}
	return tags
}

// Snapshot copies the form for rendering.
func (f *Form) Snapshot() FormState {
	f.mu.Lock()
	defer f.mu.Unlock()

	state := FormState{
		SubmitEnabled: f.submitEnabled && !f.submitting,
		LinkEnabled:   !f.toggling && !f.submitting,
		Linked:        f.linked,
		LinkLabel:     LabelLink,
		LinkStyle:     StyleEmphasis,
		Checkboxes:    make([]TagCheckbox, len(f.checkboxes)),
	}
	copy(state.Checkboxes, f.checkboxes)

	if f.linked {
		state.LinkLabel = LabelUnlink
		state.LinkStyle = StyleSuccess
	}
	return state
}
