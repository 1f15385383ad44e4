package jsinterp

import (
	"errors"
	"testing"

	"github.com/robertkrimen/otto"
)

// Player-script shaped fixture: one transform object plus a dispatch
// function, the structure signature ciphers have used for years.
const cipherSource = `
var Nz={
d7:function(a){a.reverse()},
J2:function(a,b){a.splice(0,b)},
w9:function(a,b){var c=a[0];a[0]=a[b%a.length];a[b%a.length]=c}};
sig=function(a){a=a.split("");Nz.d7(a,71);Nz.J2(a,3);Nz.w9(a,2);return a.join("")};
`

func TestExtractFunctionCipherChain(t *testing.T) {
	fn, err := ExtractFunction(cipherSource, "sig")
	if err != nil {
		t.Fatalf("ExtractFunction: %v", err)
	}
	// "abcdefgh" -> reverse -> "hgfedcba" -> drop 3 -> "edcba" -> swap(0,2) -> "cdeba"
	got, err := fn("abcdefgh")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got != "cdeba" {
		t.Errorf("cipher output = %q, want %q", got, "cdeba")
	}
}

func TestExtractFunctionReverseDropJoin(t *testing.T) {
	src := `var Ab={r:function(a){a.reverse()},s:function(a,b){a.splice(0,b)}};
dec=function(a){a=a.split("");Ab.r(a);Ab.s(a,3);return a.join("")};`
	fn, err := ExtractFunction(src, "dec")
	if err != nil {
		t.Fatalf("ExtractFunction: %v", err)
	}
	got, err := fn("abcdefgh")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got != "edcba" {
		t.Errorf("output = %q, want %q", got, "edcba")
	}
}

func TestExtractFunctionDollarNames(t *testing.T) {
	src := `var $x$={v:function(a){a.reverse()}};$aZ$=function(a){a=a.split("");$x$.v(a);return a.join("")};`
	fn, err := ExtractFunction(src, "$aZ$")
	if err != nil {
		t.Fatalf("ExtractFunction with $ name: %v", err)
	}
	got, err := fn("abc")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got != "cba" {
		t.Errorf("output = %q, want %q", got, "cba")
	}
}

func TestExtractFunctionNotFound(t *testing.T) {
	_, err := ExtractFunction(cipherSource, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestExtractFunctionRejectsUnsupportedSyntax(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{
			name: "nested function expression",
			src:  `f=function(a){return a.map(function(x){return x})};`,
		},
		{
			name: "try catch",
			src:  `f=function(a){try{return a}catch(e){return ""}};`,
		},
		{
			name: "object literal",
			src:  `f=function(a){var b={k:1};return a};`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractFunction(tt.src, "f")
			if !errors.Is(err, ErrUnsupported) {
				t.Errorf("expected ErrUnsupported, got %v", err)
			}
		})
	}
}

// An extraction failure must never degrade into an identity transform.
func TestNoSilentIdentityFallback(t *testing.T) {
	_, err := ExtractFunction(`f=function(a){return unknownHelper.op(a)};`, "f")
	if err == nil {
		t.Fatal("expected error for unresolvable helper, got callable")
	}
}

func TestArithmeticAndConditionals(t *testing.T) {
	src := `tok=function(a){var b=a.split("");var c=0;
for(var i=0;i<b.length;i++){c=(c+b[i].charCodeAt(0))%26}
b.reverse();
return b.join("")+(c>13?"_hi":"_lo")+String.fromCharCode(97+c)};`
	fn, err := ExtractFunction(src, "tok")
	if err != nil {
		t.Fatalf("ExtractFunction: %v", err)
	}
	got, err := fn("abc")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	// 97+98+99 = 294, 294%26 = 8 -> "_lo" + 'i'
	if got != "cba_loi" {
		t.Errorf("output = %q, want %q", got, "cba_loi")
	}
}

func TestWhileLoopAndCompoundAssign(t *testing.T) {
	src := `f=function(a){var i=0;var out="";while(i<a.length){out+=a.charAt(a.length-1-i);i++}return out};`
	fn, err := ExtractFunction(src, "f")
	if err != nil {
		t.Fatalf("ExtractFunction: %v", err)
	}
	got, err := fn("stream")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got != "maerts" {
		t.Errorf("output = %q, want %q", got, "maerts")
	}
}

func TestStepLimitStopsRunawayLoop(t *testing.T) {
	src := `f=function(a){while(1){a=a+"x"}return a};`
	fn, err := ExtractFunction(src, "f")
	if err != nil {
		t.Fatalf("ExtractFunction: %v", err)
	}
	if _, err := fn("seed"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected step-limit error, got %v", err)
	}
}

// Cross-check the interpreter against a real JS engine on the grammar it
// claims to support. Divergence here means the mini interpreter is wrong,
// not the fixture.
func TestInterpreterMatchesOttoOracle(t *testing.T) {
	fixtures := []struct {
		name string
		src  string
		fn   string
		args []string
	}{
		{
			name: "cipher chain",
			src:  cipherSource,
			fn:   "sig",
			args: []string{"abcdefghijklmnop", "0123456789abcdef", "zz"},
		},
		{
			name: "char arithmetic",
			src: `tok=function(a){var b=a.split("");var c=0;
for(var i=0;i<b.length;i++){c=(c+b[i].charCodeAt(0))%64}
b.reverse();return b.join("")+String.fromCharCode(48+c%10)};`,
			fn:   "tok",
			args: []string{"throttle-token", "AbC-123_xyz"},
		},
		{
			name: "slice and swap",
			src: `var Qk={s:function(a,b){a.splice(0,b)},w:function(a,b){var c=a[0];a[0]=a[b%a.length];a[b%a.length]=c}};
f=function(a){a=a.split("");Qk.w(a,5);Qk.s(a,2);Qk.w(a,1);return a.join("")};`,
			fn:   "f",
			args: []string{"signature-sample-value"},
		},
	}

	for _, fx := range fixtures {
		t.Run(fx.name, func(t *testing.T) {
			fn, err := ExtractFunction(fx.src, fx.fn)
			if err != nil {
				t.Fatalf("ExtractFunction: %v", err)
			}

			vm := otto.New()
			if _, err := vm.Run(fx.src); err != nil {
				t.Fatalf("otto run: %v", err)
			}

			for _, arg := range fx.args {
				got, err := fn(arg)
				if err != nil {
					t.Fatalf("interp(%q): %v", arg, err)
				}
				value, err := vm.Call(fx.fn, nil, arg)
				if err != nil {
					t.Fatalf("otto call(%q): %v", arg, err)
				}
				want, err := value.ToString()
				if err != nil {
					t.Fatalf("otto result: %v", err)
				}
				if got != want {
					t.Errorf("input %q: interp %q, otto %q", arg, got, want)
				}
			}
		})
	}
}
