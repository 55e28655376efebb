package mapping

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/mapresolve/internal/errs"
)

const sampleOfficial = `# compiler: R8
# pg_map_id: 1a2b
com.example.Foo -> a:
    int value -> f
    com.example.Bar partner -> g
    1:3:void doThing() -> m
    4:9:com.example.Bar doThing(int,com.example.Bar[]):12:17 -> n
    void <init>() -> <init>
com.example.Bar -> b:
    java.lang.String name -> a
    long[][] grid(java.util.List) -> c
`

func TestParseOfficial(t *testing.T) {
	t.Parallel()

	o, err := ParseOfficial(strings.NewReader(sampleOfficial))
	require.NoError(t, err)
	require.Equal(t, 2, o.Len())

	classes := o.Classes()
	assert.Equal(t, "com.example.Foo", classes[0].Public)
	assert.Equal(t, "com.example.Bar", classes[1].Public)

	obf, ok := o.ObfuscatedName("com.example.Foo")
	require.True(t, ok)
	assert.Equal(t, "a", obf)

	public, ok := o.PublicName("b")
	require.True(t, ok)
	assert.Equal(t, "com.example.Bar", public)

	_, ok = o.ObfuscatedName("com.example.Missing")
	assert.False(t, ok)

	foo, ok := o.Class("com.example.Foo")
	require.True(t, ok)
	assert.Equal(t, []OfficialField{
		{Public: "value", Obfuscated: "f", Type: "int"},
		{Public: "partner", Obfuscated: "g", Type: "com.example.Bar"},
	}, foo.Fields)

	require.Len(t, foo.Methods, 3)
	assert.Equal(t, "doThing", foo.Methods[0].Public)
	assert.Equal(t, "m", foo.Methods[0].Obfuscated)
	assert.Equal(t, "()V", foo.Methods[0].Descriptor)

	// Class types are rewritten to obfuscated names, arrays keep their dimensions.
	assert.Equal(t, "n", foo.Methods[1].Obfuscated)
	assert.Equal(t, "(I[Lb;)Lb;", foo.Methods[1].Descriptor)

	bar, ok := o.Class("com.example.Bar")
	require.True(t, ok)
	assert.Equal(t, "(Ljava/util/List;)[[J", bar.Methods[0].Descriptor)
}

func TestParseOfficialForwardReference(t *testing.T) {
	t.Parallel()

	// Descriptors are resolved after the whole file is read.
	input := "x.A -> a:\n    x.B make() -> m\nx.B -> b:\n"
	o, err := ParseOfficial(strings.NewReader(input))
	require.NoError(t, err)

	a, ok := o.Class("x.A")
	require.True(t, ok)
	assert.Equal(t, "()Lb;", a.Methods[0].Descriptor)
}

func TestParseOfficialInvalid(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"member first":    "    int value -> f\n",
		"class no colon":  "com.example.Foo -> a\n",
		"class no arrow":  "com.example.Foo:\n",
		"member no arrow": "com.example.Foo -> a:\n    int value\n",
		"field no type":   "com.example.Foo -> a:\n    value -> f\n",
		"unbalanced":      "com.example.Foo -> a:\n    void run(int -> r\n",
		"duplicate class": "x.A -> a:\nx.A -> b:\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseOfficial(strings.NewReader(input))
			require.Error(t, err)
			assert.ErrorIs(t, err, errs.ErrFormat)
		})
	}
}
