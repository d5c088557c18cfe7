package mid

import (
	"reflect"
	"strings"
)

// formOrJSONName reports fields by the name clients used, query bindings use
// the form tag and bodies the json tag.
func formOrJSONName(field reflect.StructField) string {
	for _, key := range []string{"json", "form"} {
		tag, ok := field.Tag.Lookup(key)
		if !ok {
			continue
		}

		name := strings.SplitN(tag, ",", 2)[0]
		if name == "-" {
			return ""
		}

		if name != "" {
			return name
		}
	}

	return field.Name
}
