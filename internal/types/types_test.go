package types

import "testing"

func TestSizedTypeEqual(t *testing.T) {
	a := Int(64, true)
	b := Int(64, true)
	c := Int(64, false)
	if !a.Equal(b) {
		t.Fatal("expected int64 == int64")
	}
	if a.Equal(c) {
		t.Fatal("expected int64 != uint64")
	}
}

func TestSizedTypeStringRoundtrip(t *testing.T) {
	cases := []struct {
		t    SizedType
		want string
	}{
		{Int64, "int64"},
		{UInt64, "uint64"},
		{String(5), "string[5]"},
		{Aggregation(AggCount), "count_t"},
		{Aggregation(AggHist), "hist_t"},
	}
	for _, c := range cases {
		if got := c.t.String(); got != c.want {
			t.Errorf("got %q want %q", got, c.want)
		}
	}
}

func TestTupleEquality(t *testing.T) {
	a := Tuple(Int64, String(3))
	b := Tuple(Int64, String(3))
	c := Tuple(Int64, String(4))
	if !a.Equal(b) {
		t.Fatal("expected equal tuples")
	}
	if a.Equal(c) {
		t.Fatal("expected unequal tuples (capacity differs)")
	}
}

func TestRecordIdentityEquality(t *testing.T) {
	in := NewInterner()
	s1 := in.Intern("struct foo", func() *Struct { return &Struct{Fields: []Field{{Name: "a", Type: Int64}}} })
	s2, _ := in.Lookup("struct foo")
	if s1 != s2 {
		t.Fatal("expected interned struct pointer identity")
	}
	rt1 := RecordType(s1)
	rt2 := RecordType(s2)
	if !rt1.Equal(rt2) {
		t.Fatal("expected record types to be equal by identity")
	}
}

func TestLiteralFits(t *testing.T) {
	if !LiteralFits(255, 8, false) {
		t.Fatal("255 should fit uint8")
	}
	if LiteralFits(256, 8, false) {
		t.Fatal("256 should not fit uint8")
	}
	if LiteralFits(10000, 8, true) {
		t.Fatal("10000 should not fit uint8/int8")
	}
}

func TestAggIterationForbidden(t *testing.T) {
	if !AggHist.IterationForbidden() {
		t.Fatal("hist_t must be iteration-forbidden")
	}
	if AggCount.IterationForbidden() {
		t.Fatal("count_t is fine to iterate")
	}
}
