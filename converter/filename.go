package converter

import "strings"

// OutputFileName replaces the extension of name (the text after the last
// dot) with ext. A name without an extension gets ext appended.
func OutputFileName(name, ext string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 && i < len(name)-1 && !strings.ContainsAny(name[i+1:], `/\`) {
		name = name[:i]
	}
	return name + "." + ext
}
