package model

import (
	"encoding/json"
	"math"
	"testing"
)

func TestValueJSON(t *testing.T) {
	for _, tc := range []struct {
		name string
		in   string
		kind ValueKind
		out  string
	}{
		{"String", `"abc"`, ValueString, `"abc"`},
		{"NumericString", `"42"`, ValueString, `"42"`},
		{"Int", `42`, ValueInt, `42`},
		{"NegativeInt", `-7`, ValueInt, `-7`},
		{"Float", `1.5`, ValueFloat, `1.5`},
		{"WholeFloat", `5.0`, ValueFloat, `5.0`},
		{"Exponent", `1e3`, ValueFloat, `1000.0`},
		{"LargeFloat", `1e21`, ValueFloat, `1e+21`},
		{"True", `true`, ValueBool, `true`},
		{"False", `false`, ValueBool, `false`},
		{"Null", `null`, ValueNull, `null`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var v Value
			if err := json.Unmarshal([]byte(tc.in), &v); err != nil {
				t.Fatalf("unmarshal %s: %v", tc.in, err)
			}
			if v.Kind() != tc.kind {
				t.Fatalf("kind = %v, want %v", v.Kind(), tc.kind)
			}
			got, err := json.Marshal(v)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(got) != tc.out {
				t.Fatalf("marshal = %s, want %s", got, tc.out)
			}

			// Re-decoding the output keeps the kind.
			var again Value
			if err := json.Unmarshal(got, &again); err != nil {
				t.Fatalf("re-unmarshal: %v", err)
			}
			if !again.Equal(v) {
				t.Fatalf("re-decoded %#v, want %#v", again, v)
			}
		})
	}
}

func TestValueUnmarshalRejects(t *testing.T) {
	for _, in := range []string{`{}`, `[1]`, `99999999999999999999`} {
		var v Value
		if err := json.Unmarshal([]byte(in), &v); err == nil {
			t.Errorf("unmarshal %s: expected error", in)
		}
	}
}

func TestValueMarshalNonFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := json.Marshal(Float(f)); err == nil {
			t.Errorf("marshal %v: expected error", f)
		}
	}
}

func TestValueEqual(t *testing.T) {
	if Int(5).Equal(Float(5)) {
		t.Error("Int(5) must not equal Float(5)")
	}
	if String("5").Equal(Int(5)) {
		t.Error(`String("5") must not equal Int(5)`)
	}
	if !Null().Equal(Value{}) {
		t.Error("zero Value should be null")
	}
	if !Bool(true).Equal(Bool(true)) {
		t.Error("Bool(true) should equal itself")
	}
}

func TestValueText(t *testing.T) {
	for _, tc := range []struct {
		v    Value
		want string
	}{
		{String("a,b"), "a,b"},
		{Int(12), "12"},
		{Float(2.5), "2.5"},
		{Float(3), "3.0"},
		{Bool(true), "true"},
		{Null(), ""},
	} {
		if got := tc.v.Text(); got != tc.want {
			t.Errorf("%#v.Text() = %q, want %q", tc.v, got, tc.want)
		}
	}
}

func TestFieldsOrder(t *testing.T) {
	var f Fields
	if err := json.Unmarshal([]byte(`{"z":1,"a":"x","m":true,"a":"y"}`), &f); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	keys := f.Keys()
	want := []string{"z", "a", "m"}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys = %v, want %v", keys, want)
		}
	}
	if v, _ := f.Get("a"); !v.Equal(String("y")) {
		t.Fatalf("a = %#v, want last value", v)
	}

	out, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"z":1,"a":"y","m":true}` {
		t.Fatalf("marshal = %s", out)
	}
	if f.Len() != 3 {
		t.Fatalf("len = %d, want 3", f.Len())
	}
}

func TestFieldsRejectNested(t *testing.T) {
	var f Fields
	if err := json.Unmarshal([]byte(`{"a":{"b":1}}`), &f); err == nil {
		t.Fatal("expected error for nested object")
	}
	if err := json.Unmarshal([]byte(`[1,2]`), &f); err == nil {
		t.Fatal("expected error for array")
	}
}
