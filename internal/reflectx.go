package internal

import (
	"reflect"
	"strings"
)

// ParseFlexTag parses `flexbuffers:"[name][,omitempty]"` on an exported
// field into (name, omitempty, ok). Untagged fields use the Go field name;
// "-" and unexported fields report !ok.
func ParseFlexTag(f reflect.StructField) (string, bool, bool) {
	if !f.IsExported() {
		return "", false, false
	}
	tag := f.Tag.Get("flexbuffers")
	if tag == "-" {
		return "", false, false
	}
	parts := strings.Split(tag, ",")
	name := strings.TrimSpace(parts[0])
	if name == "" {
		name = f.Name
	}
	var omitempty bool
	for _, p := range parts[1:] {
		if strings.TrimSpace(p) == "omitempty" {
			omitempty = true
		}
	}
	return name, omitempty, true
}
