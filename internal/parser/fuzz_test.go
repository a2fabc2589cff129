package parser_test

import (
	"reflect"
	"testing"

	"github.com/pomsky-lang/pomsky-go/internal/parser"
)

func addSeedCorpus(f *testing.F) {
	f.Add("")
	f.Add("'hello'")
	f.Add("[w d s]")
	f.Add("!['a'-'z']")
	f.Add("'a'{2,5} lazy")
	f.Add("let x = 'a'|'b'; x*")
	f.Add(":name(>> 'a' | << 'b')")
	f.Add("::name")
	f.Add("^")
	f.Add("[^a]")
	f.Add("(?:a)")
	f.Add("\\d+")
	f.Add("[")
	f.Add("let let = 'a';")
	f.Add("'a' !! 'b'")
}

// FuzzParseNoPanic checks that Parse always returns either a result or an
// error, never a panic, for arbitrary source text.
func FuzzParseNoPanic(f *testing.F) {
	addSeedCorpus(f)

	f.Fuzz(func(t *testing.T, source string) {
		defer func() {
			if r := recover(); r != nil {
				t.Errorf("Parse panicked on %q: %v", source, r)
			}
		}()
		_, _ = parser.Parse(source, parser.Options{})
	})
}

// FuzzParseDeterminism checks that parsing the same source twice produces
// the same outcome (both succeed with equal roots, or both fail the same
// way).
func FuzzParseDeterminism(f *testing.F) {
	addSeedCorpus(f)

	f.Fuzz(func(t *testing.T, source string) {
		res1, err1 := parser.Parse(source, parser.Options{})
		res2, err2 := parser.Parse(source, parser.Options{})

		if (err1 == nil) != (err2 == nil) {
			t.Errorf("non-deterministic success on %q: %v vs %v", source, err1, err2)
			return
		}
		if err1 != nil {
			if err1.Error() != err2.Error() {
				t.Errorf("non-deterministic error on %q: %q vs %q", source, err1.Error(), err2.Error())
			}
			return
		}
		if len(res1.BindingOrder) != len(res2.BindingOrder) {
			t.Errorf("non-deterministic binding count on %q", source)
		}
		if !reflect.DeepEqual(res1.Root, res2.Root) {
			t.Errorf("non-deterministic root on %q", source)
		}
	})
}
