// Package model defines the core section, category and block types.
package model

// Field is one labelled value taken from an emphasized-label bullet.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Section is the unit of meaning extracted from one second-level heading
// and its body.
type Section struct {
	Header  string   `json:"header"`
	Fields  []Field  `json:"fields,omitempty"`
	Bullets []string `json:"bullets,omitempty"`
	Prose   string   `json:"prose,omitempty"`
}

// SetField stores a field and returns its index. A key that is already
// present keeps its position and takes the new value.
func (s *Section) SetField(key, value string) int {
	for i := range s.Fields {
		if s.Fields[i].Key == key {
			s.Fields[i].Value = value
			return i
		}
	}
	s.Fields = append(s.Fields, Field{Key: key, Value: value})
	return len(s.Fields) - 1
}

// Field returns the value stored under key.
func (s Section) Field(key string) (string, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Empty reports whether the section has a heading and nothing else.
func (s Section) Empty() bool {
	return len(s.Fields) == 0 && len(s.Bullets) == 0 && s.Prose == ""
}

// Classified pairs a section with the category it resolved to.
type Classified struct {
	Category Category `json:"category"`
	Section  Section  `json:"section"`
	Source   string   `json:"source,omitempty"`
}
