package gen

import (
	"strings"
	"unicode"

	"github.com/benn-herrera/loadergen/model"
)

// ToPascalCase converts a snake_case string to PascalCase.
func ToPascalCase(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' })
	var result strings.Builder
	for _, part := range parts {
		result.WriteString(strings.ToUpper(part[:1]))
		if len(part) > 1 {
			result.WriteString(part[1:])
		}
	}
	return result.String()
}

// UpperSnakeCase converts a name to UPPER_SNAKE_CASE.
func UpperSnakeCase(s string) string {
	return model.UpperSnake(s)
}

// LowerName returns the file and symbol stem for a feature set name, e.g. "GLES2" -> "gles2".
func LowerName(s string) string {
	return strings.ToLower(strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(s))
}

// PFNName returns the function pointer typedef name for a command, e.g. "glClear" -> "PFNGLCLEARPROC".
func PFNName(command string) string {
	return "PFN" + strings.ToUpper(command) + "PROC"
}

// StripCommandPrefix removes the lower-case API prefix of a command, e.g. "glClear" -> "Clear".
// Names without an upper-case letter are returned unchanged.
func StripCommandPrefix(command string) string {
	for i, r := range command {
		if unicode.IsUpper(r) {
			if i == 0 {
				return command
			}
			return command[i:]
		}
	}
	return command
}

// StripFeaturePrefix removes the API prefix of a feature or extension name,
// e.g. "GL_VERSION_1_0" -> "VERSION_1_0".
func StripFeaturePrefix(name string) string {
	if _, rest, ok := strings.Cut(name, "_"); ok && rest != "" {
		return rest
	}
	return name
}

// CReturnType returns the C return type of a command.
func CReturnType(cmd *model.CommandDef) string {
	if strings.TrimSpace(cmd.Returns) == "" {
		return "void"
	}
	return strings.TrimSpace(cmd.Returns)
}

// ReturnsVoid reports whether the command returns nothing.
func ReturnsVoid(cmd *model.CommandDef) bool {
	return CReturnType(cmd) == "void"
}

// CParamList returns the C parameter declaration list of a command.
func CParamList(cmd *model.CommandDef) string {
	if len(cmd.Params) == 0 {
		return "void"
	}
	params := make([]string, len(cmd.Params))
	for i, p := range cmd.Params {
		params[i] = strings.TrimSpace(p.Type) + " " + p.Name
	}
	return strings.Join(params, ", ")
}

// CArgList returns the argument names of a command joined for a call expression.
func CArgList(cmd *model.CommandDef) string {
	args := make([]string, len(cmd.Params))
	for i, p := range cmd.Params {
		args[i] = p.Name
	}
	return strings.Join(args, ", ")
}
