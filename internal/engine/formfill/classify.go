// Package formfill classifies the controls of a discovered form by
// semantic role and builds the fill plan executed in the browser.
// Classification is a pure function of the field descriptors so the same
// snapshot always yields the same plan.
package formfill

import (
	"regexp"
	"strings"

	"github.com/trevnoctilla/campaigns-api/internal/entity"
)

// Role is the semantic purpose assigned to a form control.
type Role string

const (
	RoleEmail     Role = "email"
	RolePhone     Role = "phone"
	RoleFirstName Role = "first_name"
	RoleLastName  Role = "last_name"
	RoleFullName  Role = "full_name"
	RoleCompany   Role = "company"
	RoleSubject   Role = "subject"
	RoleMessage   Role = "message"
	RoleGeneric   Role = "generic"
	RoleSelect    Role = "select_option"
	RoleCheckbox  Role = "checkbox"
)

// Assignment is one write the fill script performs, addressed by the same
// (form, control) indexes the form scan produced.
type Assignment struct {
	FormIndex  int    `json:"form_index"`
	FieldIndex int    `json:"field_index"`
	Action     string `json:"action"`
	Value      string `json:"value"`
	Role       Role   `json:"role"`
	FieldName  string `json:"field_name,omitempty"`
}

// Plan is the full set of writes for one form.
type Plan struct {
	FrameID     string
	FormIndex   int
	Assignments []Assignment
}

// HasRole reports whether the plan writes a field of the given role.
func (p Plan) HasRole(role Role) bool {
	for _, a := range p.Assignments {
		if a.Role == role {
			return true
		}
	}
	return false
}

// Satisfied reports whether the plan covers the message or an
// email-equivalent field, the minimum for a run to count as completed.
func (p Plan) Satisfied() bool {
	return p.HasRole(RoleMessage) || p.HasRole(RoleEmail)
}

// Placeholder written into generic required text inputs; an empty generic
// field commonly trips required-field validation.
const genericPlaceholder = "N/A"

// skippedTypes are control types never touched by the filler.
var skippedTypes = map[string]bool{
	"hidden": true, "submit": true, "button": true, "reset": true,
	"image": true, "password": true, "file": true, "search": true,
	"radio": true,
}

// branchSignals mark checkboxes that act as a single-choice branch or
// location selector. At most one of these is checked per form.
var branchSignals = []string{"location", "branch", "office", "standort", "department", "region", "filiale"}

var placeholderOption = regexp.MustCompile(`(?i)choose|select|please|--`)

// rule is one entry of the ordered classification table. The first rule
// whose predicate matches decides the field's role; later rules are never
// consulted.
type rule struct {
	role  Role
	match func(field entity.FormField, signal string) bool
	value func(profile entity.SenderProfile) string
}

var textRules = []rule{
	{
		role: RoleEmail,
		match: func(f entity.FormField, s string) bool {
			return f.Type == "email" || strings.Contains(s, "email") || strings.Contains(s, "e-mail")
		},
		value: func(p entity.SenderProfile) string { return p.Email },
	},
	{
		role: RolePhone,
		match: func(f entity.FormField, s string) bool {
			return f.Type == "tel" || strings.Contains(s, "phone") || strings.Contains(s, "telefon")
		},
		value: func(p entity.SenderProfile) string { return p.Phone },
	},
	{
		role: RoleFirstName,
		match: func(f entity.FormField, s string) bool {
			return strings.Contains(s, "first") && !strings.Contains(s, "last") && !strings.Contains(s, "company")
		},
		value: func(p entity.SenderProfile) string { return p.FirstName },
	},
	{
		role:  RoleLastName,
		match: func(f entity.FormField, s string) bool { return strings.Contains(s, "last") },
		value: func(p entity.SenderProfile) string { return p.LastName },
	},
	{
		role: RoleCompany,
		match: func(f entity.FormField, s string) bool {
			return strings.Contains(s, "company") || strings.Contains(s, "organisation") || strings.Contains(s, "organization")
		},
		value: func(p entity.SenderProfile) string {
			if p.Company != "" {
				return p.Company
			}
			return genericPlaceholder
		},
	},
	{
		role: RoleSubject,
		match: func(f entity.FormField, s string) bool {
			return strings.Contains(s, "subject") || strings.Contains(s, "betreff")
		},
		value: func(p entity.SenderProfile) string { return p.Subject },
	},
	{
		role: RoleFullName,
		match: func(f entity.FormField, s string) bool {
			return strings.Contains(s, "name") && !strings.Contains(s, "user") && !strings.Contains(s, "file")
		},
		value: func(p entity.SenderProfile) string { return strings.TrimSpace(p.FirstName + " " + p.LastName) },
	},
	{
		// Last resort: an empty generic text input commonly fails
		// required-field validation, so write a neutral placeholder.
		role:  RoleGeneric,
		match: func(f entity.FormField, s string) bool { return f.Type == "text" || f.Type == "" },
		value: func(entity.SenderProfile) string { return genericPlaceholder },
	},
}

// Build classifies every control of the form and returns the fill plan.
// Unclassifiable fields are left out entirely; the filler never guesses
// destructively and never submits.
func Build(form *entity.DiscoveredForm, profile entity.SenderProfile) Plan {
	if form == nil {
		return Plan{}
	}
	plan := Plan{FrameID: form.FrameID, FormIndex: form.FormIndex}

	branchChecked := false
	for _, field := range form.Fields {
		if skippedTypes[field.Type] {
			continue
		}

		signal := roleSignal(field)

		switch field.Tag {
		case "textarea":
			value := profile.Message
			if value == "" {
				continue
			}
			plan.add(form.FormIndex, field, RoleMessage, "value", value)

		case "select":
			value, ok := chooseOption(field.Options)
			if !ok {
				continue
			}
			plan.add(form.FormIndex, field, RoleSelect, "select", value)

		case "input":
			if field.Type == "checkbox" {
				if isBranchSignal(signal) {
					if branchChecked {
						continue
					}
					branchChecked = true
					plan.add(form.FormIndex, field, RoleCheckbox, "check", "")
				} else if field.Required {
					plan.add(form.FormIndex, field, RoleCheckbox, "check", "")
				}
				continue
			}

			for _, r := range textRules {
				if !r.match(field, signal) {
					continue
				}
				value := r.value(profile)
				if value == "" {
					break
				}
				plan.add(form.FormIndex, field, r.role, "value", value)
				break
			}
		}
	}

	return plan
}

func (p *Plan) add(formIndex int, field entity.FormField, role Role, action, value string) {
	p.Assignments = append(p.Assignments, Assignment{
		FormIndex:  formIndex,
		FieldIndex: field.Index,
		Action:     action,
		Value:      value,
		Role:       role,
		FieldName:  fieldName(field),
	})
}

// roleSignal concatenates the lowercased name, id, label and placeholder
// of a control. Every textual rule matches against this.
func roleSignal(field entity.FormField) string {
	return strings.ToLower(strings.Join([]string{field.Name, field.ID, field.Label, field.Placeholder}, " "))
}

// chooseOption picks the first option that does not look like a
// placeholder; otherwise the second option when more than one exists, else
// the first.
func chooseOption(options []entity.SelectOption) (string, bool) {
	if len(options) == 0 {
		return "", false
	}
	for _, opt := range options {
		if strings.TrimSpace(opt.Text) == "" {
			continue
		}
		if placeholderOption.MatchString(opt.Text) {
			continue
		}
		return optionValue(opt), true
	}
	if len(options) > 1 {
		return optionValue(options[1]), true
	}
	return optionValue(options[0]), true
}

// optionValue resolves what to write into the select. Options without a
// value attribute carry their text as the implicit value.
func optionValue(opt entity.SelectOption) string {
	if opt.Value != "" {
		return opt.Value
	}
	return strings.TrimSpace(opt.Text)
}

func isBranchSignal(signal string) bool {
	for _, keyword := range branchSignals {
		if strings.Contains(signal, keyword) {
			return true
		}
	}
	return false
}

func fieldName(field entity.FormField) string {
	if field.Name != "" {
		return field.Name
	}
	if field.ID != "" {
		return field.ID
	}
	return field.Label
}
