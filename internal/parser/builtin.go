package parser

// builtinTypes are the Go predeclared types the .api language accepts as
// field types. Any other bare identifier in a type position is a reference
// to a declared type.
var builtinTypes = map[string]bool{
	"bool":       true,
	"uint8":      true,
	"uint16":     true,
	"uint32":     true,
	"uint64":     true,
	"int8":       true,
	"int16":      true,
	"int32":      true,
	"int64":      true,
	"float32":    true,
	"float64":    true,
	"complex64":  true,
	"complex128": true,
	"string":     true,
	"int":        true,
	"uint":       true,
	"uintptr":    true,
	"byte":       true,
	"rune":       true,
	"any":        true,
	"error":      true,
}

// IsBuiltinType reports whether name is a predeclared type.
func IsBuiltinType(name string) bool {
	return builtinTypes[name]
}
