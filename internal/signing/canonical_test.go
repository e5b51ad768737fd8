//go:build !integration

package signing_test

import (
	"testing"

	"github.com/302ai/paywith302-demo/internal/signing"
)

func TestCanonicalize_EmptinessFilter(t *testing.T) {
	// Arrange: empty string, null and empty object must all fall away,
	// leaving exactly the two surviving pairs in lexicographic order.
	params := signing.Params{
		"app_id": signing.String("A1"),
		"amount": signing.Number("39.99"),
		"email":  signing.String(""),
		"note":   signing.Null(),
		"extra":  signing.Object(map[string]signing.Value{}),
	}

	got := signing.Canonicalize(params, signing.Options{})

	want := "amount=39.99&app_id=A1"
	if got != want {
		t.Fatalf("canonical string = %q, want %q", got, want)
	}
}

func TestCanonicalize_ExcludesSignatureSlots(t *testing.T) {
	params := signing.Params{
		"app_id":    signing.String("A1"),
		"amount":    signing.Number("39.99"),
		"signature": signing.String("deadbeef"),
		"sign":      signing.String("deadbeef"),
	}

	got := signing.Canonicalize(params, signing.Options{})

	want := "amount=39.99&app_id=A1"
	if got != want {
		t.Fatalf("canonical string = %q, want %q", got, want)
	}
}

func TestCanonicalize_CustomExcludeKeys(t *testing.T) {
	params := signing.Params{
		"a":   signing.String("1"),
		"b":   signing.String("2"),
		"mac": signing.String("feed"),
	}

	got := signing.Canonicalize(params, signing.Options{ExcludeKeys: []string{"mac"}})

	if want := "a=1&b=2"; got != want {
		t.Fatalf("canonical string = %q, want %q", got, want)
	}
	// With custom excludes in force the default slots are ordinary fields.
	params["signature"] = signing.String("x")
	got = signing.Canonicalize(params, signing.Options{ExcludeKeys: []string{"mac"}})
	if want := "a=1&b=2&signature=x"; got != want {
		t.Fatalf("canonical string = %q, want %q", got, want)
	}
}

func TestCanonicalize_KeepsZeroAndFalse(t *testing.T) {
	params := signing.Params{
		"count":   signing.Int(0),
		"enabled": signing.Bool(false),
	}

	got := signing.Canonicalize(params, signing.Options{})

	if want := "count=0&enabled=false"; got != want {
		t.Fatalf("canonical string = %q, want %q", got, want)
	}
}

func TestCanonicalize_SpacesEncodeAsPlus(t *testing.T) {
	params := signing.Params{
		"subject": signing.String("Plan Pro"),
	}

	got := signing.Canonicalize(params, signing.Options{})

	if want := "subject=Plan+Pro"; got != want {
		t.Fatalf("canonical string = %q, want %q", got, want)
	}
}

func TestCanonicalize_PercentEncodesReservedCharacters(t *testing.T) {
	params := signing.Params{
		"email": signing.String("a@b.c"),
		"memo":  signing.String("x y&z=1"),
	}

	got := signing.Canonicalize(params, signing.Options{})

	want := "email=a%40b.c&memo=x+y%26z%3D1"
	if got != want {
		t.Fatalf("canonical string = %q, want %q", got, want)
	}
}

func TestCanonicalize_NestedObjectKeysSortAtEveryDepth(t *testing.T) {
	a := signing.Params{
		"extra": signing.Object(map[string]signing.Value{
			"zeta": signing.Int(1),
			"lvl": signing.Object(map[string]signing.Value{
				"b": signing.String("2"),
				"a": signing.String("1"),
			}),
		}),
	}
	b := signing.Params{
		"extra": signing.Object(map[string]signing.Value{
			"lvl": signing.Object(map[string]signing.Value{
				"a": signing.String("1"),
				"b": signing.String("2"),
			}),
			"zeta": signing.Int(1),
		}),
	}

	ca := signing.Canonicalize(a, signing.Options{})
	cb := signing.Canonicalize(b, signing.Options{})

	if ca != cb {
		t.Fatalf("permuted nested maps diverged:\n a=%q\n b=%q", ca, cb)
	}
	want := "extra=%7B%22lvl%22%3A%7B%22a%22%3A%221%22%2C%22b%22%3A%222%22%7D%2C%22zeta%22%3A1%7D"
	if ca != want {
		t.Fatalf("canonical string = %q, want %q", ca, want)
	}
}

func TestCanonicalize_NestedStructureRules(t *testing.T) {
	t.Run("null object entries are dropped", func(t *testing.T) {
		params := signing.Params{
			"extra": signing.Object(map[string]signing.Value{
				"keep": signing.String("v"),
				"gone": signing.Null(),
			}),
		}
		got := signing.Canonicalize(params, signing.Options{})
		if want := "extra=%7B%22keep%22%3A%22v%22%7D"; got != want {
			t.Fatalf("canonical string = %q, want %q", got, want)
		}
	})

	t.Run("null array elements keep their slot", func(t *testing.T) {
		params := signing.Params{
			"items": signing.Array(signing.Int(1), signing.Null(), signing.Int(2)),
		}
		got := signing.Canonicalize(params, signing.Options{})
		if want := "items=%5B1%2Cnull%2C2%5D"; got != want {
			t.Fatalf("canonical string = %q, want %q", got, want)
		}
	})

	t.Run("nested empties are not filtered", func(t *testing.T) {
		params := signing.Params{
			"extra": signing.Object(map[string]signing.Value{
				"tags": signing.Array(),
				"meta": signing.Object(map[string]signing.Value{}),
			}),
		}
		got := signing.Canonicalize(params, signing.Options{})
		want := "extra=%7B%22meta%22%3A%7B%7D%2C%22tags%22%3A%5B%5D%7D"
		if got != want {
			t.Fatalf("canonical string = %q, want %q", got, want)
		}
	})
}

func TestCanonicalize_ArrayOrderIsSignificant(t *testing.T) {
	a := signing.Params{"ids": signing.Array(signing.Int(1), signing.Int(2))}
	b := signing.Params{"ids": signing.Array(signing.Int(2), signing.Int(1))}

	if signing.Canonicalize(a, signing.Options{}) == signing.Canonicalize(b, signing.Options{}) {
		t.Fatal("reordered array elements must change the canonical string")
	}
}

func TestCanonicalize_TimestampInjection(t *testing.T) {
	t.Run("injected when absent", func(t *testing.T) {
		params := signing.Params{"app_id": signing.String("A1")}
		got := signing.Canonicalize(params, signing.Options{Timestamp: 1724500000})
		if want := "app_id=A1&timestamp=1724500000"; got != want {
			t.Fatalf("canonical string = %q, want %q", got, want)
		}
	})

	t.Run("existing timestamp wins", func(t *testing.T) {
		params := signing.Params{
			"app_id":    signing.String("A1"),
			"timestamp": signing.Int(1111),
		}
		got := signing.Canonicalize(params, signing.Options{Timestamp: 2222})
		if want := "app_id=A1&timestamp=1111"; got != want {
			t.Fatalf("canonical string = %q, want %q", got, want)
		}
	})

	t.Run("zero option injects nothing", func(t *testing.T) {
		params := signing.Params{"app_id": signing.String("A1")}
		got := signing.Canonicalize(params, signing.Options{})
		if want := "app_id=A1"; got != want {
			t.Fatalf("canonical string = %q, want %q", got, want)
		}
	})
}

func TestCanonicalize_EmptyInput(t *testing.T) {
	if got := signing.Canonicalize(signing.Params{}, signing.Options{}); got != "" {
		t.Fatalf("canonical string of empty params = %q, want empty", got)
	}
	all := signing.Params{
		"a": signing.Null(),
		"b": signing.String(""),
	}
	if got := signing.Canonicalize(all, signing.Options{}); got != "" {
		t.Fatalf("canonical string of all-empty params = %q, want empty", got)
	}
}

func TestFromJSONObject_OrderIndependence(t *testing.T) {
	// The same payload serialized with different member order must
	// canonicalize identically, nested members included.
	doc1 := []byte(`{"app_id":"A1","amount":39.99,"extra":{"b":2,"a":"x y"}}`)
	doc2 := []byte(`{"extra":{"a":"x y","b":2},"amount":39.99,"app_id":"A1"}`)

	p1, err := signing.FromJSONObject(doc1)
	if err != nil {
		t.Fatalf("FromJSONObject(doc1): %v", err)
	}
	p2, err := signing.FromJSONObject(doc2)
	if err != nil {
		t.Fatalf("FromJSONObject(doc2): %v", err)
	}

	c1 := signing.Canonicalize(p1, signing.Options{})
	c2 := signing.Canonicalize(p2, signing.Options{})
	if c1 != c2 {
		t.Fatalf("reordered JSON diverged:\n doc1=%q\n doc2=%q", c1, c2)
	}
	want := "amount=39.99&app_id=A1&extra=%7B%22a%22%3A%22x+y%22%2C%22b%22%3A2%7D"
	if c1 != want {
		t.Fatalf("canonical string = %q, want %q", c1, want)
	}
}

func TestFromJSONObject_PreservesNumberLiterals(t *testing.T) {
	body := []byte(`{"amount":39.99,"qty":1,"big":12345678901234567890}`)

	params, err := signing.FromJSONObject(body)
	if err != nil {
		t.Fatalf("FromJSONObject: %v", err)
	}

	got := signing.Canonicalize(params, signing.Options{})
	want := "amount=39.99&big=12345678901234567890&qty=1"
	if got != want {
		t.Fatalf("canonical string = %q, want %q", got, want)
	}
}

func TestFromJSONObject_RejectsNonObject(t *testing.T) {
	for _, body := range []string{`[1,2]`, `"str"`, `{"bad":`, ``} {
		if _, err := signing.FromJSONObject([]byte(body)); err == nil {
			t.Fatalf("FromJSONObject(%q) accepted invalid input", body)
		}
	}
}
