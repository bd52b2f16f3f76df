package gen

import (
	"fmt"
	"sort"
	"strings"
)

// MakefilePath is where the C backend writes its Makefile.
const MakefilePath = "Makefile"

// cMakefile builds the generated C sources into a static and a shared library.
func cMakefile(sources []string, loader bool) string {
	sorted := append([]string(nil), sources...)
	sort.Strings(sorted)

	var b strings.Builder
	b.WriteString("# Generated by loadergen. Do not edit.\n\n")

	b.WriteString("CC        ?= cc\n")
	b.WriteString("AR        ?= ar\n")
	b.WriteString("CFLAGS    ?= -O2 -Wall\n")
	b.WriteString("CPPFLAGS  := -Iinclude\n")
	b.WriteString("LIB_NAME  := libloadergen\n")
	b.WriteString("BUILD_DIR := build\n\n")

	b.WriteString("# ── Platform detection ────────────────────────────────────────────────────────\n\n")
	b.WriteString("UNAME_S := $(shell uname -s)\n")
	b.WriteString("ifeq ($(UNAME_S),Darwin)\n")
	b.WriteString("  DYLIB_EXT := dylib\n")
	b.WriteString("else\n")
	b.WriteString("  DYLIB_EXT := so\n")
	if loader {
		b.WriteString("  LDLIBS    += -ldl\n")
	}
	b.WriteString("endif\n\n")

	b.WriteString("# ── Sources ───────────────────────────────────────────────────────────────────\n\n")
	fmt.Fprintf(&b, "SOURCES := %s\n", strings.Join(sorted, " \\\n           "))
	b.WriteString("OBJECTS := $(patsubst src/%.c,$(BUILD_DIR)/%.o,$(SOURCES))\n\n")

	b.WriteString(".PHONY: all static shared clean\n\n")
	b.WriteString("all: static\n\n")
	b.WriteString("static: $(BUILD_DIR)/$(LIB_NAME).a\n\n")
	b.WriteString("shared: $(BUILD_DIR)/$(LIB_NAME).$(DYLIB_EXT)\n\n")

	b.WriteString("$(BUILD_DIR)/%.o: src/%.c\n")
	b.WriteString("\t@mkdir -p $(BUILD_DIR)\n")
	b.WriteString("\t$(CC) $(CPPFLAGS) $(CFLAGS) -fPIC -c $< -o $@\n\n")

	b.WriteString("$(BUILD_DIR)/$(LIB_NAME).a: $(OBJECTS)\n")
	b.WriteString("\t$(AR) rcs $@ $^\n\n")

	b.WriteString("$(BUILD_DIR)/$(LIB_NAME).$(DYLIB_EXT): $(OBJECTS)\n")
	b.WriteString("\t$(CC) -shared -o $@ $^ $(LDLIBS)\n\n")

	b.WriteString("clean:\n")
	b.WriteString("\trm -rf $(BUILD_DIR)\n")
	return b.String()
}
