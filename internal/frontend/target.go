package frontend

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/rohankatakam/typextract/internal/cdecl"
)

// Target describes the data model and ABI quirks of a target triple.
type Target struct {
	Triple string
	Arch   string
	OS     string

	PointerBits     int64
	LongBits        int64
	LongDoubleBits  int64
	LongDoubleAlign int64
	// DoubleFieldAlign and LongLongFieldAlign are the member alignments of
	// 8-byte types, which i386 lowers to 4.
	DoubleFieldAlign   int64
	LongLongFieldAlign int64
	WCharBits          int64
	WCharSigned        bool
	CharSigned         bool
	HasInt128          bool
	// VaList selects the shape of __builtin_va_list.
	VaList VaListKind

	builtins map[string]*cdecl.BuiltinType
}

// VaListKind is the ABI form of __builtin_va_list.
type VaListKind int

const (
	// VaListCharPtr is a plain char pointer.
	VaListCharPtr VaListKind = iota
	// VaListSysV is struct __va_list_tag[1] (x86-64 System V).
	VaListSysV
	// VaListAAPCS64 is struct __va_list with five members (AArch64).
	VaListAAPCS64
	// VaListAAPCS is struct __va_list { void *__ap; } (32-bit Arm).
	VaListAAPCS
)

// HostTriple is the triple of the machine the tool runs on.
func HostTriple() string {
	arch := map[string]string{
		"amd64":   "x86_64",
		"386":     "i386",
		"arm64":   "aarch64",
		"arm":     "arm",
		"wasm":    "wasm32",
		"riscv64": "riscv64",
	}[runtime.GOARCH]
	if arch == "" {
		arch = "x86_64"
	}
	switch runtime.GOOS {
	case "darwin":
		return arch + "-apple-darwin"
	case "windows":
		return arch + "-pc-windows-msvc"
	default:
		return arch + "-unknown-linux-gnu"
	}
}

// NewTarget resolves a triple. An empty triple means the host.
func NewTarget(triple string) (*Target, error) {
	if triple == "" {
		triple = HostTriple()
	}
	parts := strings.Split(triple, "-")
	arch := parts[0]
	os := "linux"
	for _, p := range parts[1:] {
		switch {
		case strings.HasPrefix(p, "linux"):
			os = "linux"
		case strings.HasPrefix(p, "darwin"), strings.HasPrefix(p, "macos"), strings.HasPrefix(p, "ios"):
			os = "darwin"
		case strings.HasPrefix(p, "windows"), p == "win32", strings.HasPrefix(p, "mingw"):
			os = "windows"
		case p == "wasi", p == "emscripten":
			os = p
		}
	}

	t := &Target{
		Triple:             triple,
		Arch:               arch,
		OS:                 os,
		DoubleFieldAlign:   64,
		LongLongFieldAlign: 64,
		WCharBits:          32,
		WCharSigned:        true,
		CharSigned:         true,
	}

	switch arch {
	case "x86_64", "amd64":
		t.Arch = "x86_64"
		t.PointerBits, t.LongBits = 64, 64
		t.LongDoubleBits, t.LongDoubleAlign = 128, 128
		t.HasInt128 = true
		t.VaList = VaListSysV
	case "aarch64", "arm64":
		t.Arch = "aarch64"
		t.PointerBits, t.LongBits = 64, 64
		t.LongDoubleBits, t.LongDoubleAlign = 128, 128
		t.HasInt128 = true
		t.CharSigned = os == "darwin"
		t.VaList = VaListAAPCS64
		if os == "darwin" {
			t.LongDoubleBits, t.LongDoubleAlign = 64, 64
			t.VaList = VaListCharPtr
		}
	case "riscv64":
		t.PointerBits, t.LongBits = 64, 64
		t.LongDoubleBits, t.LongDoubleAlign = 128, 128
		t.HasInt128 = true
		t.CharSigned = false
	case "i386", "i486", "i586", "i686", "x86":
		t.Arch = "i386"
		t.PointerBits, t.LongBits = 32, 32
		t.LongDoubleBits, t.LongDoubleAlign = 96, 32
		t.DoubleFieldAlign, t.LongLongFieldAlign = 32, 32
	case "arm", "armv7", "armv7a", "thumbv7":
		t.Arch = "arm"
		t.PointerBits, t.LongBits = 32, 32
		t.LongDoubleBits, t.LongDoubleAlign = 64, 64
		t.CharSigned = false
		t.WCharSigned = false
		t.VaList = VaListAAPCS
	case "wasm32":
		t.PointerBits, t.LongBits = 32, 32
		t.LongDoubleBits, t.LongDoubleAlign = 128, 64
	default:
		return nil, fmt.Errorf("unknown target triple '%s'", triple)
	}

	if os == "windows" {
		t.LongBits = 32
		t.LongDoubleBits, t.LongDoubleAlign = 64, 64
		t.WCharBits, t.WCharSigned = 16, false
		t.VaList = VaListCharPtr
		if t.Arch == "i386" {
			t.DoubleFieldAlign, t.LongLongFieldAlign = 64, 64
		}
	}

	t.builtins = t.buildBuiltins()
	return t, nil
}

func (t *Target) buildBuiltins() map[string]*cdecl.BuiltinType {
	m := make(map[string]*cdecl.BuiltinType)
	integer := func(name string, bits int64, signed bool) {
		m[name] = &cdecl.BuiltinType{Name: name, SizeBits: bits, AlignBits: bits, Integer: true, Signed: signed}
	}
	integer("char", 8, t.CharSigned)
	integer("signed char", 8, true)
	integer("unsigned char", 8, false)
	integer("short", 16, true)
	integer("unsigned short", 16, false)
	integer("int", 32, true)
	integer("unsigned int", 32, false)
	integer("long", t.LongBits, true)
	integer("unsigned long", t.LongBits, false)
	integer("long long", 64, true)
	integer("unsigned long long", 64, false)
	integer("_Bool", 8, false)
	integer("bool", 8, false)
	integer("char8_t", 8, false)
	integer("char16_t", 16, false)
	integer("char32_t", 32, false)
	integer("wchar_t", t.WCharBits, t.WCharSigned)
	if t.HasInt128 {
		integer("__int128", 128, true)
		integer("unsigned __int128", 128, false)
	}

	m["float"] = &cdecl.BuiltinType{Name: "float", SizeBits: 32, AlignBits: 32}
	m["double"] = &cdecl.BuiltinType{Name: "double", SizeBits: 64, AlignBits: 64}
	m["long double"] = &cdecl.BuiltinType{Name: "long double", SizeBits: t.LongDoubleBits, AlignBits: t.LongDoubleAlign}
	m["_Float16"] = &cdecl.BuiltinType{Name: "_Float16", SizeBits: 16, AlignBits: 16}
	m["__fp16"] = &cdecl.BuiltinType{Name: "__fp16", SizeBits: 16, AlignBits: 16}
	m["void"] = &cdecl.BuiltinType{Name: "void", Void: true}
	if t.HasInt128 {
		m["__float128"] = &cdecl.BuiltinType{Name: "__float128", SizeBits: 128, AlignBits: 128}
	}
	return m
}

// Builtin returns the canonical builtin type with the given spelling.
func (t *Target) Builtin(name string) *cdecl.BuiltinType {
	return t.builtins[name]
}

// FieldAlign is the alignment a builtin gets as a struct member.
func (t *Target) FieldAlign(b *cdecl.BuiltinType) int64 {
	switch {
	case b.Name == "double" || (b.Name == "long double" && t.LongDoubleBits == 64):
		return min(b.AlignBits, t.DoubleFieldAlign)
	case b.Integer && b.SizeBits == 64:
		return min(b.AlignBits, t.LongLongFieldAlign)
	}
	return b.AlignBits
}

// typeSpelling is the GCC-style spelling of an integer type used in the
// predefined *_TYPE__ macros.
func typeSpelling(bits int64, signed bool, longBits int64) string {
	var s string
	switch {
	case bits == 8:
		if signed {
			return "signed char"
		}
		return "unsigned char"
	case bits == 16:
		s = "short"
	case bits == 32:
		s = "int"
	case bits == 64 && longBits == 64:
		s = "long int"
	default:
		s = "long long int"
	}
	if !signed {
		if s == "int" {
			return "unsigned int"
		}
		if s == "short" {
			return "unsigned short"
		}
		return strings.TrimSuffix(s, " int") + " unsigned int"
	}
	return s
}

func maxSigned(bits int64) string {
	return strconv.FormatUint(uint64(1)<<uint(bits-1)-1, 10)
}

// PredefinedMacros returns the object-like macros a compiler defines for
// this target and language, in definition order.
func (t *Target) PredefinedMacros(lang Language, std string) [][2]string {
	var defs [][2]string
	def := func(name, value string) {
		defs = append(defs, [2]string{name, value})
	}

	def("__clang__", "1")
	def("__clang_major__", "18")
	def("__clang_minor__", "1")
	def("__GNUC__", "4")
	def("__GNUC_MINOR__", "2")
	def("__GNUC_PATCHLEVEL__", "1")
	def("__STDC__", "1")
	def("__STDC_HOSTED__", "1")
	if lang == LangCXX {
		def("__cplusplus", cxxVersion(std))
		def("__GNUG__", "4")
	} else {
		def("__STDC_VERSION__", cVersion(std))
	}

	def("__CHAR_BIT__", "8")
	def("__SIZEOF_SHORT__", "2")
	def("__SIZEOF_INT__", "4")
	def("__SIZEOF_LONG__", strconv.FormatInt(t.LongBits/8, 10))
	def("__SIZEOF_LONG_LONG__", "8")
	def("__SIZEOF_POINTER__", strconv.FormatInt(t.PointerBits/8, 10))
	def("__SIZEOF_FLOAT__", "4")
	def("__SIZEOF_DOUBLE__", "8")
	def("__SIZEOF_LONG_DOUBLE__", strconv.FormatInt(t.LongDoubleBits/8, 10))
	def("__SIZEOF_SIZE_T__", strconv.FormatInt(t.PointerBits/8, 10))
	def("__SIZEOF_WCHAR_T__", strconv.FormatInt(t.WCharBits/8, 10))
	if t.HasInt128 {
		def("__SIZEOF_INT128__", "16")
	}

	def("__SCHAR_MAX__", "127")
	def("__SHRT_MAX__", "32767")
	def("__INT_MAX__", "2147483647")
	def("__LONG_MAX__", maxSigned(t.LongBits)+"L")
	def("__LONG_LONG_MAX__", "9223372036854775807LL")
	def("__PTRDIFF_MAX__", maxSigned(t.PointerBits)+"L")
	def("__SIZE_MAX__", strconv.FormatUint(uint64(1)<<uint(t.PointerBits-1)*2-1, 10)+"UL")

	ptrInt := typeSpelling(t.PointerBits, true, t.LongBits)
	ptrUint := typeSpelling(t.PointerBits, false, t.LongBits)
	def("__SIZE_TYPE__", ptrUint)
	def("__PTRDIFF_TYPE__", ptrInt)
	def("__INTPTR_TYPE__", ptrInt)
	def("__UINTPTR_TYPE__", ptrUint)
	def("__INTMAX_TYPE__", typeSpelling(64, true, t.LongBits))
	def("__UINTMAX_TYPE__", typeSpelling(64, false, t.LongBits))
	wchar := "int"
	if t.WCharBits == 16 {
		wchar = "unsigned short"
	} else if !t.WCharSigned {
		wchar = "unsigned int"
	}
	def("__WCHAR_TYPE__", wchar)
	for _, bits := range []int64{8, 16, 32, 64} {
		def(fmt.Sprintf("__INT%d_TYPE__", bits), typeSpelling(bits, true, t.LongBits))
		def(fmt.Sprintf("__UINT%d_TYPE__", bits), typeSpelling(bits, false, t.LongBits))
	}

	def("__ORDER_LITTLE_ENDIAN__", "1234")
	def("__ORDER_BIG_ENDIAN__", "4321")
	def("__BYTE_ORDER__", "__ORDER_LITTLE_ENDIAN__")
	if !t.CharSigned {
		def("__CHAR_UNSIGNED__", "1")
	}

	if t.PointerBits == 64 && t.LongBits == 64 {
		def("__LP64__", "1")
		def("_LP64", "1")
	} else if t.PointerBits == 32 {
		def("__ILP32__", "1")
	}

	switch t.Arch {
	case "x86_64":
		def("__x86_64__", "1")
		def("__x86_64", "1")
		def("__amd64__", "1")
		def("__amd64", "1")
	case "i386":
		def("__i386__", "1")
		def("__i386", "1")
	case "aarch64":
		def("__aarch64__", "1")
	case "arm":
		def("__arm__", "1")
	case "riscv64":
		def("__riscv", "1")
	case "wasm32":
		def("__wasm__", "1")
		def("__wasm32__", "1")
	}

	switch t.OS {
	case "linux":
		def("__linux__", "1")
		def("__linux", "1")
		def("__gnu_linux__", "1")
		def("__unix__", "1")
		def("__unix", "1")
		def("__ELF__", "1")
	case "darwin":
		def("__APPLE__", "1")
		def("__MACH__", "1")
	case "windows":
		def("_WIN32", "1")
		if t.PointerBits == 64 {
			def("_WIN64", "1")
		}
	}
	return defs
}

func cVersion(std string) string {
	switch {
	case strings.Contains(std, "89"), strings.Contains(std, "90"):
		return "199409L"
	case strings.Contains(std, "99"):
		return "199901L"
	case strings.Contains(std, "11"):
		return "201112L"
	case strings.Contains(std, "2x"), strings.Contains(std, "23"):
		return "202311L"
	default:
		return "201710L"
	}
}

func cxxVersion(std string) string {
	switch {
	case strings.Contains(std, "98"), strings.Contains(std, "03"):
		return "199711L"
	case strings.Contains(std, "11"):
		return "201103L"
	case strings.Contains(std, "14"):
		return "201402L"
	case strings.Contains(std, "20"), strings.Contains(std, "2a"):
		return "202002L"
	case strings.Contains(std, "23"), strings.Contains(std, "2b"):
		return "202302L"
	default:
		return "201703L"
	}
}

// BiggestAlign is the alignment in bits of a bare aligned attribute.
func (t *Target) BiggestAlign() int64 {
	if t.Arch == "arm" {
		return 64
	}
	return 128
}
