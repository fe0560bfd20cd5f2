package entity

// SelectOption is one entry of a select control, in document order.
type SelectOption struct {
	Value string `json:"value"`
	Text  string `json:"text"`
}

// FormField describes one fillable control discovered on a page. Produced
// fresh per run and never persisted beyond the run's report.
type FormField struct {
	// Index is the control's position among the form's fillable controls,
	// in document order. The fill script addresses controls by this index.
	Index       int            `json:"index"`
	Tag         string         `json:"tag"`
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	ID          string         `json:"id"`
	Label       string         `json:"label"`
	Placeholder string         `json:"placeholder"`
	Required    bool           `json:"required"`
	Options     []SelectOption `json:"options,omitempty"`
}

// DiscoveredForm is the best contact-form candidate found in one
// document or frame. Score is 2 when the form carries a textarea, 1 when
// it only carries an email input, 0 otherwise.
type DiscoveredForm struct {
	// FrameID is empty for the main document, otherwise the identifier of
	// the frame the form lives in.
	FrameID string `json:"frame_id,omitempty"`
	// FormIndex is the form's position among all forms in its document.
	FormIndex int         `json:"form_index"`
	Score     int         `json:"score"`
	Fields    []FormField `json:"fields"`
}
