// Package formscan enumerates and scores the forms of a rendered page so
// the engine can pick the one most likely to be a contact form.
package formscan

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/trevnoctilla/campaigns-api/internal/entity"
)

// Doc is one document scope to scan: the main document (empty FrameID) or
// a frame snapshot.
type Doc struct {
	FrameID string
	HTML    string
}

// ParseForms extracts every visible form of an HTML document, in document
// order, with its fillable controls described. Control indexes follow the
// same enumeration the fill script uses: all input/textarea/select
// elements per form, in document order.
func ParseForms(html, frameID string) ([]entity.DiscoveredForm, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	var forms []entity.DiscoveredForm
	doc.Find("form").Each(func(formIndex int, formSel *goquery.Selection) {
		if !visible(formSel) {
			return
		}

		form := entity.DiscoveredForm{FrameID: frameID, FormIndex: formIndex}
		formSel.Find("input, textarea, select").Each(func(controlIndex int, controlSel *goquery.Selection) {
			form.Fields = append(form.Fields, describeControl(doc, controlSel, controlIndex))
		})
		form.Score = score(form.Fields)
		forms = append(forms, form)
	})

	return forms, nil
}

// Select picks the highest scoring form; document order breaks ties. A
// score-0 form is still returned when it is all the page has, it may be a
// minimal contact form.
func Select(forms []entity.DiscoveredForm) *entity.DiscoveredForm {
	var best *entity.DiscoveredForm
	for i := range forms {
		if best == nil || forms[i].Score > best.Score {
			best = &forms[i]
		}
	}
	return best
}

// Locate scans the scopes in order, main document first, and returns the
// best form of the first scope that has any visible form. Nil means the
// terminal no-form outcome.
func Locate(docs []Doc) (*entity.DiscoveredForm, error) {
	for _, doc := range docs {
		forms, err := ParseForms(doc.HTML, doc.FrameID)
		if err != nil {
			continue
		}
		if best := Select(forms); best != nil {
			return best, nil
		}
	}
	return nil, nil
}

func describeControl(doc *goquery.Document, sel *goquery.Selection, index int) entity.FormField {
	tag := goquery.NodeName(sel)
	field := entity.FormField{
		Index:       index,
		Tag:         tag,
		Type:        strings.ToLower(attr(sel, "type")),
		Name:        attr(sel, "name"),
		ID:          attr(sel, "id"),
		Placeholder: attr(sel, "placeholder"),
		Label:       resolveLabel(doc, sel),
	}
	if _, ok := sel.Attr("required"); ok {
		field.Required = true
	}
	if tag == "input" && field.Type == "" {
		field.Type = "text"
	}
	if tag == "select" {
		sel.Find("option").Each(func(_ int, opt *goquery.Selection) {
			value, _ := opt.Attr("value")
			field.Options = append(field.Options, entity.SelectOption{
				Value: value,
				Text:  strings.TrimSpace(opt.Text()),
			})
		})
	}
	return field
}

// resolveLabel prefers an explicit label bound by id, then an enclosing or
// preceding label, then aria-label.
func resolveLabel(doc *goquery.Document, sel *goquery.Selection) string {
	if id := attr(sel, "id"); id != "" {
		if label := doc.Find(`label[for="` + id + `"]`).First(); label.Length() > 0 {
			if text := strings.TrimSpace(label.Text()); text != "" {
				return text
			}
		}
	}
	if parent := sel.Closest("label"); parent.Length() > 0 {
		if text := strings.TrimSpace(parent.Text()); text != "" {
			return text
		}
	}
	if prev := sel.Prev(); prev.Length() > 0 {
		if text := strings.TrimSpace(prev.Text()); text != "" {
			return text
		}
	}
	return attr(sel, "aria-label")
}

// score ranks a form's likelihood of being the outreach target: a
// textarea outranks an email input, which outranks neither. Email-only
// newsletter widgets lose to a real message form this way.
func score(fields []entity.FormField) int {
	best := 0
	for _, field := range fields {
		switch {
		case field.Tag == "textarea":
			return 2
		case field.Tag == "input" && field.Type == "email":
			best = 1
		}
	}
	return best
}

// visible is a static approximation: rendered pages mark dead forms with
// hidden attributes or inline display:none.
func visible(sel *goquery.Selection) bool {
	if _, hidden := sel.Attr("hidden"); hidden {
		return false
	}
	style := strings.ReplaceAll(strings.ToLower(attr(sel, "style")), " ", "")
	if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
		return false
	}
	return true
}

func attr(sel *goquery.Selection, name string) string {
	value, _ := sel.Attr(name)
	return strings.TrimSpace(value)
}
