package gen

import (
	"fmt"
	"strings"

	"github.com/benn-herrera/loadergen/model"
)

// C backend options.
const (
	OptionAlias      = "ALIAS"
	OptionDebug      = "DEBUG"
	OptionHeaderOnly = "HEADER_ONLY"
	OptionLoader     = "LOADER"
	OptionMakefile   = "MAKEFILE"
	OptionMX         = "MX"
	OptionMXGlobal   = "MX_GLOBAL"
	OptionOnDemand   = "ON_DEMAND"
)

// PlatformHeaderPath is the header shared by every C feature set of a request.
const PlatformHeaderPath = "include/loadergen/platform.h"

var cOptions = []OptionInfo{
	{Name: OptionAlias, Description: "Fill missing commands from their aliases after loading"},
	{Name: OptionDebug, Description: "Route every call through pre and post callbacks"},
	{Name: OptionHeaderOnly, Description: "Emit the implementation inside the header"},
	{Name: OptionLoader, Description: "Include a loader that opens the system library itself"},
	{Name: OptionMakefile, Description: "Emit a Makefile building the sources into a library"},
	{Name: OptionMX, Description: "Store function pointers in a context struct instead of globals"},
	{Name: OptionMXGlobal, Description: "Expose a current context and call through it"},
	{Name: OptionOnDemand, Description: "Resolve each function on its first call"},
}

var cRules = []Rule{
	{Option: OptionMXGlobal, Requires: []string{OptionMX}},
	{Option: OptionOnDemand, Excludes: []string{OptionMX}},
	{Option: OptionDebug, Excludes: []string{OptionMX}},
	{Option: OptionMakefile, Excludes: []string{OptionHeaderOnly}},
}

// CBackend returns the backend emitting a C function loader.
func CBackend() Backend {
	return Backend{
		Name:        "c",
		Description: "C loader: header with types, enums and function pointers plus a load function",
		Options:     cOptions,
		NewConfig:   func() Config { return NewOptionSet(cOptions, cRules...) },
		New: func(outputDir string, opener Opener) Generator {
			return &CGenerator{outputDir: outputDir, opener: opener}
		},
	}
}

// CGenerator emits C loaders.
type CGenerator struct {
	outputDir string
	opener    Opener
	sources   model.OrderedSet
}

func (g *CGenerator) Select(spec *model.Specification, api string, version model.Version, profile string, extensions []string, cfg Config) (*model.FeatureSet, error) {
	fs, err := SelectFeatures(spec, api, version, profile, extensions)
	if err != nil {
		return nil, err
	}
	if cfg.Enabled(OptionAlias) {
		addAliases(spec, fs)
	}
	return fs, nil
}

// addAliases adds every command aliasing, or aliased by, a selected command.
func addAliases(spec *model.Specification, fs *model.FeatureSet) {
	var commands model.OrderedSet
	commands.Add(fs.Commands...)
	for _, c := range spec.Commands {
		if c.Alias == "" {
			continue
		}
		if fs.HasCommand(c.Alias) {
			commands.Add(c.Name)
		}
		if fs.HasCommand(c.Name) {
			commands.Add(c.Alias)
		}
	}
	fs.Commands = commands.Items()
}

func (g *CGenerator) Generate(spec *model.Specification, fs *model.FeatureSet, cfg Config) error {
	e, err := newCEmitter(spec, fs, cfg)
	if err != nil {
		return err
	}

	if err := writeFile(g.opener, PlatformHeaderPath, []byte(cPlatformHeader)); err != nil {
		return err
	}

	header := e.header()
	if e.headerOnly {
		header = e.wrapHeaderOnly(header)
	}
	if err := writeFile(g.opener, e.headerPath(), []byte(header)); err != nil {
		return err
	}
	if e.headerOnly {
		return nil
	}
	source := "src/" + e.name + ".c"
	if err := writeFile(g.opener, source, []byte(e.source())); err != nil {
		return err
	}
	g.sources.Add(source)
	if !cfg.Enabled(OptionMakefile) {
		return nil
	}
	// rewritten after every feature set so it lists all sources generated so far
	return writeFile(g.opener, MakefilePath, []byte(cMakefile(g.sources.Items(), e.loader)))
}

const cPlatformHeader = `#ifndef LOADERGEN_PLATFORM_H
#define LOADERGEN_PLATFORM_H

#include <stddef.h>

#if defined(_WIN32) && !defined(__CYGWIN__)
#define LOADERGEN_API_PTR __stdcall
#else
#define LOADERGEN_API_PTR
#endif

#ifndef LOADERGEN_API_CALL
#define LOADERGEN_API_CALL extern
#endif

#define LOADERGEN_MAKE_VERSION(major, minor) ((major) * 10000 + (minor))
#define LOADERGEN_VERSION_MAJOR(version) ((version) / 10000)
#define LOADERGEN_VERSION_MINOR(version) ((version) % 10000)

typedef void (*LoadergenProc)(void);
typedef LoadergenProc (*LoadergenLoadFunc)(const char *name);
typedef LoadergenProc (*LoadergenUserLoadFunc)(void *userptr, const char *name);
typedef void (*LoadergenPreCallback)(const char *name, LoadergenProc proc, int nargs, ...);
typedef void (*LoadergenPostCallback)(void *ret, const char *name, LoadergenProc proc, int nargs, ...);

#endif
`

type cEmitter struct {
	spec *model.Specification
	fs   *model.FeatureSet

	alias, debug, headerOnly, loader, mx, mxGlobal, onDemand bool

	name     string // lower-case symbol and file stem
	prefix   string // upper-case macro prefix
	ctxType  string
	commands []*model.CommandDef
}

func newCEmitter(spec *model.Specification, fs *model.FeatureSet, cfg Config) (*cEmitter, error) {
	e := &cEmitter{
		spec:       spec,
		fs:         fs,
		alias:      cfg.Enabled(OptionAlias),
		debug:      cfg.Enabled(OptionDebug),
		headerOnly: cfg.Enabled(OptionHeaderOnly),
		loader:     cfg.Enabled(OptionLoader),
		mx:         cfg.Enabled(OptionMX),
		mxGlobal:   cfg.Enabled(OptionMXGlobal),
		onDemand:   cfg.Enabled(OptionOnDemand),
		name:       LowerName(fs.Name),
		prefix:     UpperSnakeCase(fs.Name),
	}
	e.ctxType = "Loadergen" + ToPascalCase(e.name) + "Context"
	for _, name := range fs.Commands {
		cmd := spec.Command(name)
		if cmd == nil {
			return nil, fmt.Errorf("feature set %s: command %q not defined in specification %q", fs.Name, name, spec.Name)
		}
		e.commands = append(e.commands, cmd)
	}
	return e, nil
}

func (e *cEmitter) headerPath() string {
	return "include/" + LowerName(e.spec.Name) + "/" + e.name + ".h"
}

// flag and global names carry the feature-set name so every feature set of a
// specification can be linked into one library.
func (e *cEmitter) flag(feature string) string {
	return "LOADERGEN_" + e.prefix + "_" + feature
}

func (e *cEmitter) global(cmd string) string {
	return "loadergen_" + e.name + "_" + cmd
}

func (e *cEmitter) debugGlobal(cmd string) string {
	return "loadergen_" + e.name + "_debug_" + cmd
}

func (e *cEmitter) ptr(cmd string) string {
	if e.mx {
		return "context->" + StripCommandPrefix(cmd)
	}
	return e.global(cmd)
}

// maxVersion returns the highest version among the contributing selections.
func (e *cEmitter) maxVersion() model.Version {
	var v model.Version
	for _, info := range e.fs.Info {
		if v.Less(info.Version) {
			v = info.Version
		}
	}
	return v
}

func (e *cEmitter) header() string {
	var b strings.Builder
	guard := "LOADERGEN_" + e.prefix + "_H"

	fmt.Fprintf(&b, "#ifndef %s\n", guard)
	fmt.Fprintf(&b, "#define %s\n\n", guard)
	b.WriteString("#include <loadergen/platform.h>\n\n")
	b.WriteString("#ifdef __cplusplus\nextern \"C\" {\n#endif\n\n")

	fmt.Fprintf(&b, "#define LOADERGEN_%s 1\n", e.prefix)
	for _, info := range e.fs.Info {
		api := UpperSnakeCase(info.API)
		fmt.Fprintf(&b, "#define LOADERGEN_%s_VERSION_MAJOR %d\n", api, info.Version.Major)
		fmt.Fprintf(&b, "#define LOADERGEN_%s_VERSION_MINOR %d\n", api, info.Version.Minor)
	}
	b.WriteString("\n")

	// Spec declaration order keeps dependent typedefs after their dependencies.
	for _, t := range e.spec.Types {
		if containsString(e.fs.Types, t.Name) {
			fmt.Fprintf(&b, "%s\n", t.Definition)
		}
	}
	if len(e.fs.Types) > 0 {
		b.WriteString("\n")
	}

	for _, name := range e.fs.Enums {
		if en := e.spec.Enum(name); en != nil {
			fmt.Fprintf(&b, "#define %s %s\n", en.Name, en.Value)
		}
	}
	if len(e.fs.Enums) > 0 {
		b.WriteString("\n")
	}

	for _, f := range e.fs.Features {
		fmt.Fprintf(&b, "#define %s 1\n", f)
	}
	for _, x := range e.fs.Extensions {
		fmt.Fprintf(&b, "#define %s 1\n", x)
	}
	b.WriteString("\n")

	for _, cmd := range e.commands {
		fmt.Fprintf(&b, "typedef %s (LOADERGEN_API_PTR *%s)(%s);\n", CReturnType(cmd), PFNName(cmd.Name), CParamList(cmd))
	}
	b.WriteString("\n")

	if e.mx {
		e.writeContextDecl(&b)
	} else {
		e.writeGlobalDecl(&b)
	}

	b.WriteString("#ifdef __cplusplus\n}\n#endif\n\n")
	b.WriteString("#endif\n")
	return b.String()
}

func (e *cEmitter) writeGlobalDecl(b *strings.Builder) {
	for _, f := range e.featureFlags() {
		fmt.Fprintf(b, "LOADERGEN_API_CALL int %s;\n", e.flag(f))
	}
	b.WriteString("\n")

	for _, cmd := range e.commands {
		fmt.Fprintf(b, "LOADERGEN_API_CALL %s %s;\n", PFNName(cmd.Name), e.global(cmd.Name))
		if e.debug {
			fmt.Fprintf(b, "LOADERGEN_API_CALL %s %s;\n", PFNName(cmd.Name), e.debugGlobal(cmd.Name))
			fmt.Fprintf(b, "#define %s %s\n", cmd.Name, e.debugGlobal(cmd.Name))
		} else {
			fmt.Fprintf(b, "#define %s %s\n", cmd.Name, e.global(cmd.Name))
		}
	}
	b.WriteString("\n")

	if e.debug {
		fmt.Fprintf(b, "void loadergen_%s_set_pre_callback(LoadergenPreCallback cb);\n", e.name)
		fmt.Fprintf(b, "void loadergen_%s_set_post_callback(LoadergenPostCallback cb);\n", e.name)
	}
	if e.onDemand {
		fmt.Fprintf(b, "void loadergen_%s_set_on_demand_loader(LoadergenLoadFunc load);\n", e.name)
	}
	fmt.Fprintf(b, "int loadergen_load_%s(LoadergenLoadFunc load);\n", e.name)
	fmt.Fprintf(b, "int loadergen_load_%s_user(LoadergenUserLoadFunc load, void *userptr);\n", e.name)
	if e.loader {
		fmt.Fprintf(b, "int loadergen_loader_load_%s(void);\n", e.name)
		fmt.Fprintf(b, "void loadergen_loader_unload_%s(void);\n", e.name)
	}
	b.WriteString("\n")
}

func (e *cEmitter) writeContextDecl(b *strings.Builder) {
	fmt.Fprintf(b, "typedef struct %s {\n", e.ctxType)
	b.WriteString("    void *userptr;\n")
	for _, f := range e.featureFlags() {
		fmt.Fprintf(b, "    int %s;\n", StripFeaturePrefix(f))
	}
	for _, cmd := range e.commands {
		fmt.Fprintf(b, "    %s %s;\n", PFNName(cmd.Name), StripCommandPrefix(cmd.Name))
	}
	fmt.Fprintf(b, "} %s;\n\n", e.ctxType)

	if e.mxGlobal {
		fmt.Fprintf(b, "LOADERGEN_API_CALL %s *loadergen_%s_context;\n", e.ctxType, e.name)
		fmt.Fprintf(b, "void loadergen_%s_set_context(%s *context);\n", e.name, e.ctxType)
		for _, cmd := range e.commands {
			fmt.Fprintf(b, "#define %s (loadergen_%s_context->%s)\n", cmd.Name, e.name, StripCommandPrefix(cmd.Name))
		}
		fmt.Fprintf(b, "int loadergen_load_%s(LoadergenLoadFunc load);\n", e.name)
	}
	fmt.Fprintf(b, "int loadergen_load_%s_context(%s *context, LoadergenLoadFunc load);\n", e.name, e.ctxType)
	fmt.Fprintf(b, "int loadergen_load_%s_context_user(%s *context, LoadergenUserLoadFunc load, void *userptr);\n", e.name, e.ctxType)
	if e.loader {
		fmt.Fprintf(b, "int loadergen_loader_load_%s_context(%s *context);\n", e.name, e.ctxType)
		if e.mxGlobal {
			fmt.Fprintf(b, "int loadergen_loader_load_%s(void);\n", e.name)
		}
		fmt.Fprintf(b, "void loadergen_loader_unload_%s(void);\n", e.name)
	}
	b.WriteString("\n")
}

func (e *cEmitter) featureFlags() []string {
	flags := make([]string, 0, len(e.fs.Features)+len(e.fs.Extensions))
	flags = append(flags, e.fs.Features...)
	return append(flags, e.fs.Extensions...)
}

func (e *cEmitter) wrapHeaderOnly(header string) string {
	// the implementation goes inside the include guard, before the final #endif
	idx := strings.LastIndex(header, "#endif\n")
	var b strings.Builder
	b.WriteString(header[:idx])
	fmt.Fprintf(&b, "#ifdef LOADERGEN_%s_IMPLEMENTATION\n\n", e.prefix)
	b.WriteString(e.body())
	fmt.Fprintf(&b, "#endif /* LOADERGEN_%s_IMPLEMENTATION */\n\n", e.prefix)
	b.WriteString(header[idx:])
	return b.String()
}

func (e *cEmitter) source() string {
	var b strings.Builder
	fmt.Fprintf(&b, "#include <%s/%s.h>\n\n", LowerName(e.spec.Name), e.name)
	b.WriteString(e.body())
	return b.String()
}

// body is the implementation shared by the source file and the header-only variant.
func (e *cEmitter) body() string {
	var b strings.Builder
	b.WriteString("#include <stddef.h>\n\n")

	if !e.mx {
		for _, f := range e.featureFlags() {
			fmt.Fprintf(&b, "int %s = 0;\n", e.flag(f))
		}
		b.WriteString("\n")
	}

	if e.onDemand {
		e.writeOnDemand(&b)
	} else if !e.mx {
		for _, cmd := range e.commands {
			fmt.Fprintf(&b, "%s %s = NULL;\n", PFNName(cmd.Name), e.global(cmd.Name))
		}
		b.WriteString("\n")
	}

	if e.debug {
		e.writeDebug(&b)
	}

	e.writeLoad(&b)

	if e.loader {
		e.writeLibraryLoader(&b)
	}
	return b.String()
}

func (e *cEmitter) writeOnDemand(b *strings.Builder) {
	fmt.Fprintf(b, "static LoadergenLoadFunc loadergen_%s_on_demand_load = NULL;\n\n", e.name)
	fmt.Fprintf(b, "void loadergen_%s_set_on_demand_loader(LoadergenLoadFunc load) {\n", e.name)
	fmt.Fprintf(b, "    loadergen_%s_on_demand_load = load;\n}\n\n", e.name)

	for _, cmd := range e.commands {
		fmt.Fprintf(b, "static %s LOADERGEN_API_PTR loadergen_on_demand_impl_%s(%s) {\n", CReturnType(cmd), cmd.Name, CParamList(cmd))
		fmt.Fprintf(b, "    %s = (%s) loadergen_%s_on_demand_load(\"%s\");\n", e.global(cmd.Name), PFNName(cmd.Name), e.name, cmd.Name)
		if ReturnsVoid(cmd) {
			fmt.Fprintf(b, "    %s(%s);\n", e.global(cmd.Name), CArgList(cmd))
		} else {
			fmt.Fprintf(b, "    return %s(%s);\n", e.global(cmd.Name), CArgList(cmd))
		}
		b.WriteString("}\n")
		fmt.Fprintf(b, "%s %s = loadergen_on_demand_impl_%s;\n\n", PFNName(cmd.Name), e.global(cmd.Name), cmd.Name)
	}
}

func (e *cEmitter) writeDebug(b *strings.Builder) {
	fmt.Fprintf(b, "static void loadergen_%s_default_pre(const char *name, LoadergenProc proc, int nargs, ...) {\n", e.name)
	b.WriteString("    (void) name; (void) proc; (void) nargs;\n}\n")
	fmt.Fprintf(b, "static void loadergen_%s_default_post(void *ret, const char *name, LoadergenProc proc, int nargs, ...) {\n", e.name)
	b.WriteString("    (void) ret; (void) name; (void) proc; (void) nargs;\n}\n\n")
	fmt.Fprintf(b, "static LoadergenPreCallback loadergen_%s_pre = loadergen_%s_default_pre;\n", e.name, e.name)
	fmt.Fprintf(b, "static LoadergenPostCallback loadergen_%s_post = loadergen_%s_default_post;\n\n", e.name, e.name)

	fmt.Fprintf(b, "void loadergen_%s_set_pre_callback(LoadergenPreCallback cb) {\n", e.name)
	fmt.Fprintf(b, "    loadergen_%s_pre = cb != NULL ? cb : loadergen_%s_default_pre;\n}\n", e.name, e.name)
	fmt.Fprintf(b, "void loadergen_%s_set_post_callback(LoadergenPostCallback cb) {\n", e.name)
	fmt.Fprintf(b, "    loadergen_%s_post = cb != NULL ? cb : loadergen_%s_default_post;\n}\n\n", e.name, e.name)

	for _, cmd := range e.commands {
		args := ""
		if len(cmd.Params) > 0 {
			args = ", " + CArgList(cmd)
		}
		nargs := len(cmd.Params)
		fmt.Fprintf(b, "static %s LOADERGEN_API_PTR loadergen_debug_impl_%s(%s) {\n", CReturnType(cmd), cmd.Name, CParamList(cmd))
		if ReturnsVoid(cmd) {
			fmt.Fprintf(b, "    loadergen_%s_pre(\"%s\", (LoadergenProc) %s, %d%s);\n", e.name, cmd.Name, e.global(cmd.Name), nargs, args)
			fmt.Fprintf(b, "    %s(%s);\n", e.global(cmd.Name), CArgList(cmd))
			fmt.Fprintf(b, "    loadergen_%s_post(NULL, \"%s\", (LoadergenProc) %s, %d%s);\n", e.name, cmd.Name, e.global(cmd.Name), nargs, args)
		} else {
			fmt.Fprintf(b, "    %s ret;\n", CReturnType(cmd))
			fmt.Fprintf(b, "    loadergen_%s_pre(\"%s\", (LoadergenProc) %s, %d%s);\n", e.name, cmd.Name, e.global(cmd.Name), nargs, args)
			fmt.Fprintf(b, "    ret = %s(%s);\n", e.global(cmd.Name), CArgList(cmd))
			fmt.Fprintf(b, "    loadergen_%s_post((void *) &ret, \"%s\", (LoadergenProc) %s, %d%s);\n", e.name, cmd.Name, e.global(cmd.Name), nargs, args)
			b.WriteString("    return ret;\n")
		}
		b.WriteString("}\n")
		fmt.Fprintf(b, "%s %s = loadergen_debug_impl_%s;\n\n", PFNName(cmd.Name), e.debugGlobal(cmd.Name), cmd.Name)
	}
}

func (e *cEmitter) writeLoad(b *strings.Builder) {
	fmt.Fprintf(b, "static LoadergenProc loadergen_%s_call_load(void *userptr, const char *name) {\n", e.name)
	b.WriteString("    return (*(LoadergenLoadFunc *) userptr)(name);\n}\n\n")

	flagRef := func(f string) string {
		if e.mx {
			return "context->" + StripFeaturePrefix(f)
		}
		return e.flag(f)
	}

	if e.mx {
		fmt.Fprintf(b, "int loadergen_load_%s_context_user(%s *context, LoadergenUserLoadFunc load, void *userptr) {\n", e.name, e.ctxType)
		b.WriteString("    if (context == NULL || load == NULL) {\n        return 0;\n    }\n")
		b.WriteString("    context->userptr = userptr;\n")
	} else {
		fmt.Fprintf(b, "int loadergen_load_%s_user(LoadergenUserLoadFunc load, void *userptr) {\n", e.name)
		b.WriteString("    if (load == NULL) {\n        return 0;\n    }\n")
	}

	for _, cmd := range e.commands {
		fmt.Fprintf(b, "    %s = (%s) load(userptr, \"%s\");\n", e.ptr(cmd.Name), PFNName(cmd.Name), cmd.Name)
	}

	if e.alias {
		for _, cmd := range e.commands {
			if cmd.Alias == "" || !e.fs.HasCommand(cmd.Alias) {
				continue
			}
			a, t := e.ptr(cmd.Name), e.ptr(cmd.Alias)
			fmt.Fprintf(b, "    if (%s == NULL && %s != NULL) %s = (%s) %s;\n", t, a, t, PFNName(cmd.Alias), a)
			fmt.Fprintf(b, "    if (%s == NULL && %s != NULL) %s = (%s) %s;\n", a, t, a, PFNName(cmd.Name), t)
		}
	}

	// the base command of the lowest feature must resolve for the load to count
	if base := e.baseCommand(); base != "" {
		fmt.Fprintf(b, "    if (%s == NULL) {\n        return 0;\n    }\n", e.ptr(base))
	}

	for _, f := range e.fs.Features {
		fmt.Fprintf(b, "    %s = 1;\n", flagRef(f))
	}
	for _, x := range e.fs.Extensions {
		var checks []string
		for _, c := range requireOf(e.spec, x).Commands {
			checks = append(checks, e.ptr(c)+" != NULL")
		}
		if len(checks) == 0 {
			// extensions without commands cannot be probed here
			fmt.Fprintf(b, "    %s = 1;\n", flagRef(x))
			continue
		}
		fmt.Fprintf(b, "    %s = %s;\n", flagRef(x), strings.Join(checks, " && "))
	}

	v := e.maxVersion()
	fmt.Fprintf(b, "    return LOADERGEN_MAKE_VERSION(%d, %d);\n}\n\n", v.Major, v.Minor)

	if e.mx {
		fmt.Fprintf(b, "int loadergen_load_%s_context(%s *context, LoadergenLoadFunc load) {\n", e.name, e.ctxType)
		fmt.Fprintf(b, "    return loadergen_load_%s_context_user(context, loadergen_%s_call_load, &load);\n}\n\n", e.name, e.name)
		if e.mxGlobal {
			fmt.Fprintf(b, "static %s loadergen_%s_default_context;\n", e.ctxType, e.name)
			fmt.Fprintf(b, "%s *loadergen_%s_context = &loadergen_%s_default_context;\n\n", e.ctxType, e.name, e.name)
			fmt.Fprintf(b, "void loadergen_%s_set_context(%s *context) {\n", e.name, e.ctxType)
			fmt.Fprintf(b, "    loadergen_%s_context = context != NULL ? context : &loadergen_%s_default_context;\n}\n\n", e.name, e.name)
			fmt.Fprintf(b, "int loadergen_load_%s(LoadergenLoadFunc load) {\n", e.name)
			fmt.Fprintf(b, "    return loadergen_load_%s_context(loadergen_%s_context, load);\n}\n\n", e.name, e.name)
		}
		return
	}
	fmt.Fprintf(b, "int loadergen_load_%s(LoadergenLoadFunc load) {\n", e.name)
	fmt.Fprintf(b, "    return loadergen_load_%s_user(loadergen_%s_call_load, &load);\n}\n\n", e.name, e.name)
}

// baseCommand returns the first command required by the first selected feature.
func (e *cEmitter) baseCommand() string {
	for _, f := range e.fs.Features {
		for _, c := range requireOf(e.spec, f).Commands {
			if e.fs.HasCommand(c) {
				return c
			}
		}
	}
	return ""
}

type libraryNames struct {
	windows, apple, unix []string
}

var systemLibraries = map[string]libraryNames{
	"gl": {
		windows: []string{"opengl32.dll"},
		apple:   []string{"/System/Library/Frameworks/OpenGL.framework/OpenGL"},
		unix:    []string{"libGL.so.1", "libGL.so"},
	},
	"gles1": {
		windows: []string{"libGLES_CM.dll"},
		apple:   []string{"libGLESv1_CM.dylib"},
		unix:    []string{"libGLESv1_CM.so.1", "libGLESv1_CM.so"},
	},
	"gles2": {
		windows: []string{"libGLESv2.dll"},
		apple:   []string{"libGLESv2.dylib"},
		unix:    []string{"libGLESv2.so.2", "libGLESv2.so"},
	},
	"egl": {
		windows: []string{"libEGL.dll"},
		apple:   []string{"libEGL.dylib"},
		unix:    []string{"libEGL.so.1", "libEGL.so"},
	},
	"vulkan": {
		windows: []string{"vulkan-1.dll"},
		apple:   []string{"libvulkan.dylib", "libvulkan.1.dylib", "libMoltenVK.dylib"},
		unix:    []string{"libvulkan.so.1", "libvulkan.so"},
	},
}

func librariesFor(api string) libraryNames {
	if libs, ok := systemLibraries[api]; ok {
		return libs
	}
	return libraryNames{
		windows: []string{api + ".dll"},
		apple:   []string{"lib" + api + ".dylib"},
		unix:    []string{"lib" + api + ".so"},
	}
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return strings.Join(quoted, ", ")
}

func (e *cEmitter) writeLibraryLoader(b *strings.Builder) {
	api := e.fs.Name
	if len(e.fs.Info) > 0 {
		api = e.fs.Info[0].API
	}
	libs := librariesFor(api)

	b.WriteString("#ifndef LOADERGEN_LIBRARY_DEFINED\n#define LOADERGEN_LIBRARY_DEFINED\n")
	b.WriteString("#if defined(_WIN32)\n#include <windows.h>\n")
	b.WriteString("typedef HMODULE LoadergenLibrary;\n")
	b.WriteString("#define loadergen_library_open(name) LoadLibraryA(name)\n")
	b.WriteString("#define loadergen_library_symbol(lib, name) ((LoadergenProc) GetProcAddress((lib), (name)))\n")
	b.WriteString("#define loadergen_library_close(lib) FreeLibrary(lib)\n")
	b.WriteString("#else\n#include <dlfcn.h>\n")
	b.WriteString("typedef void *LoadergenLibrary;\n")
	b.WriteString("#define loadergen_library_open(name) dlopen((name), RTLD_LAZY | RTLD_LOCAL)\n")
	b.WriteString("#define loadergen_library_symbol(lib, name) ((LoadergenProc) dlsym((lib), (name)))\n")
	b.WriteString("#define loadergen_library_close(lib) dlclose(lib)\n")
	b.WriteString("#endif\n#endif\n\n")

	fmt.Fprintf(b, "static LoadergenLibrary loadergen_%s_library = NULL;\n\n", e.name)
	fmt.Fprintf(b, "static LoadergenProc loadergen_%s_library_load(void *userptr, const char *name) {\n", e.name)
	b.WriteString("    return loadergen_library_symbol((LoadergenLibrary) userptr, name);\n}\n\n")

	fmt.Fprintf(b, "static int loadergen_%s_library_open(void) {\n", e.name)
	b.WriteString("#if defined(_WIN32)\n")
	fmt.Fprintf(b, "    static const char *names[] = {%s};\n", quoteAll(libs.windows))
	b.WriteString("#elif defined(__APPLE__)\n")
	fmt.Fprintf(b, "    static const char *names[] = {%s};\n", quoteAll(libs.apple))
	b.WriteString("#else\n")
	fmt.Fprintf(b, "    static const char *names[] = {%s};\n", quoteAll(libs.unix))
	b.WriteString("#endif\n")
	b.WriteString("    size_t i;\n")
	fmt.Fprintf(b, "    for (i = 0; i < sizeof(names) / sizeof(names[0]) && loadergen_%s_library == NULL; i++) {\n", e.name)
	fmt.Fprintf(b, "        loadergen_%s_library = loadergen_library_open(names[i]);\n    }\n", e.name)
	fmt.Fprintf(b, "    return loadergen_%s_library != NULL;\n}\n\n", e.name)

	if e.mx {
		fmt.Fprintf(b, "int loadergen_loader_load_%s_context(%s *context) {\n", e.name, e.ctxType)
		fmt.Fprintf(b, "    if (!loadergen_%s_library_open()) {\n        return 0;\n    }\n", e.name)
		fmt.Fprintf(b, "    return loadergen_load_%s_context_user(context, loadergen_%s_library_load, (void *) loadergen_%s_library);\n}\n\n", e.name, e.name, e.name)
		if e.mxGlobal {
			fmt.Fprintf(b, "int loadergen_loader_load_%s(void) {\n", e.name)
			fmt.Fprintf(b, "    return loadergen_loader_load_%s_context(loadergen_%s_context);\n}\n\n", e.name, e.name)
		}
	} else {
		fmt.Fprintf(b, "int loadergen_loader_load_%s(void) {\n", e.name)
		fmt.Fprintf(b, "    if (!loadergen_%s_library_open()) {\n        return 0;\n    }\n", e.name)
		fmt.Fprintf(b, "    return loadergen_load_%s_user(loadergen_%s_library_load, (void *) loadergen_%s_library);\n}\n\n", e.name, e.name, e.name)
	}

	fmt.Fprintf(b, "void loadergen_loader_unload_%s(void) {\n", e.name)
	fmt.Fprintf(b, "    if (loadergen_%s_library != NULL) {\n", e.name)
	fmt.Fprintf(b, "        loadergen_library_close(loadergen_%s_library);\n", e.name)
	fmt.Fprintf(b, "        loadergen_%s_library = NULL;\n    }\n}\n", e.name)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
