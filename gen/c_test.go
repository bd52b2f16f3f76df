package gen

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func TestCGenerator_Files(t *testing.T) {
	spec := loadSpec(t, "gl.yaml")
	out := generate(t, CBackend(), spec, "gl", "3.3", "core", nil)

	want := []string{"include/gl/gl.h", PlatformHeaderPath, "src/gl.c"}
	if got := out.names(); !reflect.DeepEqual(got, want) {
		t.Errorf("files = %v, want %v", got, want)
	}
}

func TestCGenerator_Header(t *testing.T) {
	spec := loadSpec(t, "gl.yaml")
	out := generate(t, CBackend(), spec, "gl", "3.3", "core", []string{"GL_ARB_sync"})
	h := string(out.files["include/gl/gl.h"])

	checks := []string{
		"#ifndef LOADERGEN_GL_H",
		"#include <loadergen/platform.h>",
		"#define LOADERGEN_GL_VERSION_MAJOR 3",
		"#define LOADERGEN_GL_VERSION_MINOR 3",
		"typedef unsigned int GLenum;",
		"#define GL_COLOR_BUFFER_BIT 0x00004000",
		"#define GL_VERSION_3_2 1",
		"#define GL_ARB_sync 1",
		"typedef void (LOADERGEN_API_PTR *PFNGLCLEARPROC)(GLbitfield mask);",
		"typedef const GLubyte * (LOADERGEN_API_PTR *PFNGLGETSTRINGPROC)(GLenum name);",
		"LOADERGEN_API_CALL PFNGLCLEARPROC loadergen_gl_glClear;",
		"#define glClear loadergen_gl_glClear",
		"LOADERGEN_API_CALL int LOADERGEN_GL_GL_VERSION_1_0;",
		"int loadergen_load_gl(LoadergenLoadFunc load);",
	}
	for _, c := range checks {
		if !strings.Contains(h, c) {
			t.Errorf("header missing %q", c)
		}
	}
	for _, absent := range []string{"glBegin", "GL_QUADS", "glCreateBuffers", "loadergen_loader_load_gl"} {
		if strings.Contains(h, absent) {
			t.Errorf("header should not contain %q", absent)
		}
	}
	// GLsync depends on nothing, GLDEBUGPROC is not selected
	if strings.Contains(h, "GLDEBUGPROC") {
		t.Error("unselected types must not be emitted")
	}
}

func TestCGenerator_Source(t *testing.T) {
	spec := loadSpec(t, "gl.yaml")
	out := generate(t, CBackend(), spec, "gl", "3.3", "core", []string{"GL_ARB_sync"})
	src := string(out.files["src/gl.c"])

	checks := []string{
		"#include <gl/gl.h>",
		"PFNGLCLEARPROC loadergen_gl_glClear = NULL;",
		`loadergen_gl_glClear = (PFNGLCLEARPROC) load(userptr, "glClear");`,
		"if (loadergen_gl_glClear == NULL) {",
		"LOADERGEN_GL_GL_VERSION_3_2 = 1;",
		"LOADERGEN_GL_GL_ARB_sync = loadergen_gl_glFenceSync != NULL;",
		"return LOADERGEN_MAKE_VERSION(3, 3);",
		"return loadergen_load_gl_user(loadergen_gl_call_load, &load);",
	}
	for _, c := range checks {
		if !strings.Contains(src, c) {
			t.Errorf("source missing %q", c)
		}
	}
}

func TestCGenerator_PlatformHeaderStable(t *testing.T) {
	spec := loadSpec(t, "gl.yaml")
	b := CBackend()
	cfg := b.NewConfig()
	out := newMemOpener()
	g := b.New("out", out)

	for _, sel := range []struct{ api, version string }{{"gl", "4.6"}, {"gles2", "3.2"}} {
		fs, err := g.Select(spec, sel.api, version(t, sel.version), "", nil, cfg)
		if err != nil {
			t.Fatalf("Select: %v", err)
		}
		before := out.files[PlatformHeaderPath]
		if err := g.Generate(spec, fs, cfg); err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if before != nil && !bytes.Equal(before, out.files[PlatformHeaderPath]) {
			t.Error("shared platform header changed between generate calls")
		}
	}
	if out.writes[PlatformHeaderPath] != 2 {
		t.Errorf("platform header writes = %d, want 2", out.writes[PlatformHeaderPath])
	}
	for _, name := range []string{"include/gl/gl.h", "include/gl/gles2.h", "src/gl.c", "src/gles2.c"} {
		if _, ok := out.files[name]; !ok {
			t.Errorf("missing %s", name)
		}
	}
}

func TestCGenerator_HeaderOnly(t *testing.T) {
	spec := loadSpec(t, "egl.yaml")
	out := generate(t, CBackend(), spec, "egl", "1.4", "", nil, OptionHeaderOnly)

	if _, ok := out.files["src/egl.c"]; ok {
		t.Error("HEADER_ONLY must not emit a source file")
	}
	h := string(out.files["include/egl/egl.h"])
	impl := strings.Index(h, "#ifdef LOADERGEN_EGL_IMPLEMENTATION")
	if impl < 0 {
		t.Fatal("missing implementation guard")
	}
	if !strings.Contains(h[impl:], "int loadergen_load_egl_user(") {
		t.Error("implementation should follow the guard")
	}
	if !strings.HasSuffix(h, "#endif\n") {
		t.Error("header must end with the include guard")
	}
}

func TestCGenerator_MX(t *testing.T) {
	spec := loadSpec(t, "gl.yaml")
	out := generate(t, CBackend(), spec, "gl", "1.1", "", []string{"GL_KHR_debug"}, OptionMX, OptionMXGlobal, OptionLoader)
	h := string(out.files["include/gl/gl.h"])
	src := string(out.files["src/gl.c"])

	for _, c := range []string{
		"typedef struct LoadergenGlContext {",
		"    PFNGLCLEARPROC Clear;",
		"    int VERSION_1_1;",
		"    int KHR_debug;",
		"#define glClear (loadergen_gl_context->Clear)",
		"int loadergen_load_gl_context(LoadergenGlContext *context, LoadergenLoadFunc load);",
		"int loadergen_loader_load_gl_context(LoadergenGlContext *context);",
	} {
		if !strings.Contains(h, c) {
			t.Errorf("header missing %q", c)
		}
	}
	if strings.Contains(h, "LOADERGEN_API_CALL PFNGLCLEARPROC") {
		t.Error("MX must not declare global function pointers")
	}
	for _, c := range []string{
		`context->Clear = (PFNGLCLEARPROC) load(userptr, "glClear");`,
		"context->VERSION_1_1 = 1;",
		"LoadergenGlContext *loadergen_gl_context = &loadergen_gl_default_context;",
		`"libGL.so.1", "libGL.so"`,
		`"opengl32.dll"`,
	} {
		if !strings.Contains(src, c) {
			t.Errorf("source missing %q", c)
		}
	}
}

func TestCGenerator_DebugAndOnDemand(t *testing.T) {
	spec := loadSpec(t, "egl.yaml")
	out := generate(t, CBackend(), spec, "egl", "1.0", "", nil, OptionDebug, OptionOnDemand)
	h := string(out.files["include/egl/egl.h"])
	src := string(out.files["src/egl.c"])

	if !strings.Contains(h, "#define eglGetError loadergen_egl_debug_eglGetError") {
		t.Error("DEBUG should route calls through the debug pointer")
	}
	if !strings.Contains(h, "void loadergen_egl_set_on_demand_loader(LoadergenLoadFunc load);") {
		t.Error("ON_DEMAND should declare the loader setter")
	}
	for _, c := range []string{
		"static EGLint LOADERGEN_API_PTR loadergen_debug_impl_eglGetError(void) {",
		`loadergen_egl_pre("eglGetError", (LoadergenProc) loadergen_egl_eglGetError, 0);`,
		"    return ret;",
		`loadergen_egl_pre("eglGetDisplay", (LoadergenProc) loadergen_egl_eglGetDisplay, 1, display_id);`,
		"PFNEGLGETERRORPROC loadergen_egl_eglGetError = loadergen_on_demand_impl_eglGetError;",
		`loadergen_egl_eglGetError = (PFNEGLGETERRORPROC) loadergen_egl_on_demand_load("eglGetError");`,
	} {
		if !strings.Contains(src, c) {
			t.Errorf("source missing %q", c)
		}
	}
}

func TestCGenerator_Alias(t *testing.T) {
	spec := loadSpec(t, "gl.yaml")
	b := CBackend()
	cfg := b.NewConfig()
	cfg.Set(OptionAlias, true)
	g := b.New("out", newMemOpener())

	fs, err := g.Select(spec, "gles2", version(t, "3.2"), "", nil, cfg)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if !fs.HasCommand("glDebugMessageCallbackKHR") {
		t.Fatal("ALIAS should add commands aliasing selected ones")
	}

	out := generate(t, b, spec, "gles2", "3.2", "", nil, OptionAlias)
	src := string(out.files["src/gles2.c"])
	want := "if (loadergen_gles2_glDebugMessageCallback == NULL && loadergen_gles2_glDebugMessageCallbackKHR != NULL) " +
		"loadergen_gles2_glDebugMessageCallback = (PFNGLDEBUGMESSAGECALLBACKPROC) loadergen_gles2_glDebugMessageCallbackKHR;"
	if !strings.Contains(src, want) {
		t.Errorf("source missing alias fallback:\n%s", src)
	}

	plain, err := b.New("out", newMemOpener()).Select(spec, "gles2", version(t, "3.2"), "", nil, b.NewConfig())
	if err != nil {
		t.Fatal(err)
	}
	if plain.HasCommand("glDebugMessageCallbackKHR") {
		t.Error("aliases must only be added with ALIAS")
	}
}

func TestCGenerator_Makefile(t *testing.T) {
	gl := loadSpec(t, "gl.yaml")
	b := CBackend()
	cfg := b.NewConfig()
	cfg.Set(OptionMakefile, true)
	cfg.Set(OptionLoader, true)
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	out := newMemOpener()
	g := b.New("out", out)
	for _, api := range []string{"gles2", "gl"} {
		fs, err := g.Select(gl, api, version(t, "2.0"), "", nil, cfg)
		if err != nil {
			t.Fatalf("Select %s: %v", api, err)
		}
		if err := g.Generate(gl, fs, cfg); err != nil {
			t.Fatalf("Generate %s: %v", api, err)
		}
	}

	mk := string(out.files[MakefilePath])
	if out.writes[MakefilePath] != 2 {
		t.Errorf("Makefile written %d times, want 2", out.writes[MakefilePath])
	}
	for _, want := range []string{
		"SOURCES := src/gl.c \\\n           src/gles2.c\n",
		"LDLIBS    += -ldl",
		"$(AR) rcs $@ $^",
	} {
		if !strings.Contains(mk, want) {
			t.Errorf("Makefile missing %q:\n%s", want, mk)
		}
	}
}

// globalDefinitions returns the file-scope, non-static definitions of a C source.
func globalDefinitions(src string) []string {
	var defs []string
	for _, line := range strings.Split(src, "\n") {
		if line == "" || line[0] == ' ' || line[0] == '#' || line[0] == '}' || strings.HasPrefix(line, "static ") {
			continue
		}
		decl, _, ok := strings.Cut(line, " = ")
		if !ok {
			decl, _, ok = strings.Cut(line, "(")
		}
		if !ok {
			continue
		}
		fields := strings.Fields(decl)
		defs = append(defs, strings.TrimLeft(fields[len(fields)-1], "*"))
	}
	return defs
}

func TestCGenerator_MakefileSourcesLinkTogether(t *testing.T) {
	gl := loadSpec(t, "gl.yaml")
	b := CBackend()
	for _, options := range [][]string{
		{OptionMakefile, OptionLoader},
		{OptionMakefile, OptionDebug},
		{OptionMakefile, OptionOnDemand},
		{OptionMakefile, OptionMX, OptionMXGlobal},
	} {
		cfg := b.NewConfig()
		for _, o := range options {
			cfg.Set(o, true)
		}
		if err := cfg.Validate(); err != nil {
			t.Fatal(err)
		}
		out := newMemOpener()
		g := b.New("out", out)
		for _, api := range []string{"gl", "gles2"} {
			fs, err := g.Select(gl, api, version(t, "2.0"), "", []string{"GL_KHR_debug"}, cfg)
			if err != nil {
				t.Fatalf("%v: Select %s: %v", options, api, err)
			}
			if err := g.Generate(gl, fs, cfg); err != nil {
				t.Fatalf("%v: Generate %s: %v", options, api, err)
			}
		}

		seen := map[string]string{}
		for _, source := range []string{"src/gl.c", "src/gles2.c"} {
			defs := globalDefinitions(string(out.files[source]))
			if len(defs) == 0 {
				t.Fatalf("%v: no definitions found in %s", options, source)
			}
			for _, def := range defs {
				if other, ok := seen[def]; ok && other != source {
					t.Errorf("%v: %s defined in both %s and %s", options, def, other, source)
				}
				seen[def] = source
			}
		}
		if _, ok := seen["loadergen_gl_glClear"]; !ok && !cfg.Enabled(OptionMX) {
			t.Errorf("%v: expected loadergen_gl_glClear among %v", options, seen)
		}
	}
}

func TestCGenerator_MakefileExcludesHeaderOnly(t *testing.T) {
	cfg := CBackend().NewConfig()
	cfg.Set(OptionMakefile, true)
	cfg.Set(OptionHeaderOnly, true)
	if err := cfg.Validate(); err == nil {
		t.Error("expected MAKEFILE and HEADER_ONLY to be rejected together")
	}
}
