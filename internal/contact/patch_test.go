package contact

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ensemble/internal/value"
)

func TestApplyDiffRoundTrip(t *testing.T) {
	fx := fixtures()
	for nameA, rawA := range fx {
		for nameB, rawB := range fx {
			t.Run(nameA+"/"+nameB, func(t *testing.T) {
				a := mustNormalize(t, rawA)
				b := mustNormalize(t, rawB)

				patched, err := b.Clone().ApplyDiff(a.Diff(b))
				require.NoError(t, err)
				assertEquivalent(t, a, patched)
			})
		}
	}
}

func TestApplyDiffMutatesReceiver(t *testing.T) {
	r := New()
	d := Diff{Changed: value.Obj(value.O("sex", value.String("Female")))}

	got, err := r.ApplyDiff(d)
	require.NoError(t, err)
	assert.Same(t, r, got)
	assertSameValue(t, value.String("Female"), r.Get("sex"))
}

func TestApplyDiffRemovesBeforeAdding(t *testing.T) {
	r := mustNormalize(t, RawMap{"category": []any{"a", "b", "c"}})
	d := Diff{
		Added:   value.Obj(value.O("category", value.Strings("a"))),
		Removed: value.Obj(value.O("category", value.Strings("a"))),
	}

	_, err := r.ApplyDiff(d)
	require.NoError(t, err)
	assertSameValue(t, value.Strings("b", "c", "a"), r.Get("category"))
}

func TestApplyDiffRestoresRepeatsAlreadyPresent(t *testing.T) {
	bob := email("home", "bob@example.com")
	tests := []struct {
		name  string
		field string
		a, b  value.List
	}{
		{"scalar list", "nickname", value.Strings("Bob", "Bob"), value.Strings("Bob")},
		{"struct list", "email", value.List{bob, bob}, value.List{bob}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := mustNormalize(t, RawMap{tt.field: tt.a})
			b := mustNormalize(t, RawMap{tt.field: tt.b})

			d := a.Diff(b)
			assertSameValue(t, tt.b, d.Added[tt.field])

			patched, err := b.Clone().ApplyDiff(d)
			require.NoError(t, err)
			assertSameValue(t, tt.a, patched.Get(tt.field))
			assertEquivalent(t, a, patched)
		})
	}
}

func TestApplyDiffAppendsEveryAddedElement(t *testing.T) {
	r := mustNormalize(t, RawMap{"nickname": []any{"Doc"}})
	d := Diff{Added: value.Obj(value.O("nickname", value.Strings("Doc", "Greg")))}

	_, err := r.ApplyDiff(d)
	require.NoError(t, err)
	assertSameValue(t, value.Strings("Doc", "Doc", "Greg"), r.Get("nickname"))
}

func TestApplyDiffAddsRepeatedElements(t *testing.T) {
	r := New()
	d := Diff{Added: value.Obj(value.O("nickname", value.Strings("Doc", "Doc")))}

	_, err := r.ApplyDiff(d)
	require.NoError(t, err)
	assertSameValue(t, value.Strings("Doc", "Doc"), r.Get("nickname"))
}

func TestApplyDiffRemovesOneMatchPerEntry(t *testing.T) {
	r := mustNormalize(t, RawMap{"nickname": []any{"Doc", "Greg", "Doc"}})
	d := Diff{Removed: value.Obj(value.O("nickname", value.Strings("Doc", "Nobody")))}

	_, err := r.ApplyDiff(d)
	require.NoError(t, err)
	assertSameValue(t, value.Strings("Greg", "Doc"), r.Get("nickname"))
}

func TestApplyDiffNormalizesIncomingValues(t *testing.T) {
	r := New()
	d := Diff{
		Added:   value.Obj(value.O("tel", value.Obj(value.O("type", value.String("Work")), value.O("value", value.String("555-0100"))))),
		Changed: value.Obj(value.O("bday", value.String("1980-04-13"))),
	}

	_, err := r.ApplyDiff(d)
	require.NoError(t, err)

	assertSameValue(t, value.List{tel("Work", "555-0100")}, r.Get("tel"))
	assertSameValue(t, value.NewTime(time.Date(1980, 4, 13, 0, 0, 0, 0, time.UTC)), r.Get("bday"))
}

func TestApplyDiffRejectsInvalidDiffs(t *testing.T) {
	tests := []struct {
		name  string
		diff  Diff
		field string
	}{
		{
			name:  "unknown field in changed",
			diff:  Diff{Changed: value.Obj(value.O("shoeSize", value.Int(11)))},
			field: "shoeSize",
		},
		{
			name:  "unknown field in added",
			diff:  Diff{Added: value.Obj(value.O("pets", value.Strings("cat")))},
			field: "pets",
		},
		{
			name:  "scalar field in removed",
			diff:  Diff{Removed: value.Obj(value.O("sex", value.Strings("Male")))},
			field: "sex",
		},
		{
			name:  "list for scalar change",
			diff:  Diff{Changed: value.Obj(value.O("popularity", value.List{value.Int(1)}))},
			field: "popularity",
		},
		{
			name:  "scalar element in struct list",
			diff:  Diff{Added: value.Obj(value.O("email", value.Strings("a@b.c")))},
			field: "email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mustNormalize(t, fixtures()["wilson"])
			before := r.Clone()

			// Valid partitions alongside the bad one must not be applied either.
			tt.diff.Added = withEntry(tt.diff.Added, "nickname", value.Strings("Jimmy"))
			tt.diff.Changed = withEntry(tt.diff.Changed, "genderIdentity", value.String("M"))

			got, err := r.ApplyDiff(tt.diff)
			require.Error(t, err)
			assert.Nil(t, got)

			var sv *SchemaViolationError
			require.ErrorAs(t, err, &sv)
			assert.Equal(t, tt.field, sv.Field)
			assert.True(t, before.Equal(r), "record mutated by a rejected diff")
		})
	}
}

func withEntry(obj value.Object, key string, v value.Value) value.Object {
	out := value.Object{}
	for k, existing := range obj {
		out[k] = existing
	}
	if _, ok := out[key]; !ok {
		out[key] = v
	}
	return out
}
