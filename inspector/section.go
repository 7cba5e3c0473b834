package inspector

// Section is a titled group of fields, usually one component.
type Section struct {
	Title  string
	Fields []Field
}

// Inspect builds a section for every non-nil component, in order.
// Components without visible fields are omitted.
func Inspect(components ...Named) []Section {
	sections := make([]Section, 0, len(components))
	for _, c := range components {
		fields := ExtractFields(c.Value)
		if len(fields) == 0 {
			continue
		}
		sections = append(sections, Section{Title: c.Name, Fields: fields})
	}
	return sections
}

// Named pairs a component with its display title.
type Named struct {
	Name  string
	Value any
}
