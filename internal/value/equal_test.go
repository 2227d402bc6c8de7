package value

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEqualScalars(t *testing.T) {
	assert.True(t, Equal(String("a"), String("a")))
	assert.False(t, Equal(String("a"), String("A")))
	assert.True(t, Equal(Int(1), Int(1)))
	assert.False(t, Equal(Int(1), String("1")))
	assert.True(t, Equal(Bool(true), Bool(true)))
	assert.True(t, Equal(Null{}, nil))
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(Null{}, String("")))
}

func TestEqualTimeComparesInstant(t *testing.T) {
	a := Time(time.Date(1980, 4, 13, 5, 0, 0, 0, time.UTC))
	b := Time(time.Date(1980, 4, 13, 0, 0, 0, 0, time.FixedZone("EST", -5*3600)))

	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, String(a.String())))
}

func TestEqualListsAreOrdered(t *testing.T) {
	assert.True(t, Equal(Strings("this", "is", "a", "test"), Strings("this", "is", "a", "test")))
	assert.False(t, Equal(Strings("This", "is", "a", "test"), Strings("test", "is", "a", "This")))
	assert.False(t, Equal(Strings("this", "is"), Strings("this")))
}

func TestEqualObjectsIgnoreKeyOrder(t *testing.T) {
	a := Object{"multiple": String("member"), "object": String("instance")}
	b := Object{"object": String("instance"), "multiple": String("member")}
	assert.True(t, Equal(a, b))

	assert.False(t, Equal(a, Object{"multiple": String("member"), "changed": String("instance")}))
	assert.False(t, Equal(a, Object{"multiple": String("member"), "object": String("changed")}))
	assert.False(t, Equal(Object{"single": String("member")}, Object{}))
}

func TestEqualNested(t *testing.T) {
	mk := func(leaf string) Value {
		return List{
			Object{"nested": Object{"some": String("value"), "inside": Object{"another": String(leaf)}}},
			String("Another string"),
		}
	}

	assert.True(t, Equal(mk("object"), mk("object")))
	assert.False(t, Equal(mk("object"), mk("changed")))
	assert.True(t, Equal(List{Object{"empty": Object{}}}, List{Object{"empty": Object{}}}))
}

func TestIndexOfAndContains(t *testing.T) {
	list := List{
		Obj(O("type", Strings("Work")), O("value", String("a"))),
		Obj(O("type", Strings("Home")), O("value", String("b"))),
	}

	assert.Equal(t, 1, IndexOf(list, Obj(O("value", String("b")), O("type", Strings("Home")))))
	assert.Equal(t, -1, IndexOf(list, Obj(O("value", String("b")))))
	assert.True(t, Contains(list, list[0]))
	assert.False(t, Contains(nil, String("x")))
}

func TestCloneIsDeep(t *testing.T) {
	orig := Object{"type": Strings("Work"), "value": String("x")}

	cp := CloneObject(orig)
	cp["type"].(List)[0] = String("Home")
	cp["value"] = String("y")

	assert.Equal(t, Strings("Work"), orig["type"])
	assert.Equal(t, String("x"), orig["value"])
	assert.Equal(t, List{}, CloneList(nil))
	assert.Equal(t, Null{}, Clone(nil))
}
