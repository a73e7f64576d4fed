package sandbox

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestExportPrimitives(t *testing.T) {
	vm := goja.New()
	tests := []struct {
		script string
		want   any
	}{
		{"undefined", nil},
		{"null", nil},
		{"true", true},
		{"'text'", "text"},
		{"42", int64(42)},
		{"4.0", int64(4)},
		{"1.25", 1.25},
		{"-0", math.Copysign(0, -1)},
	}
	for _, tt := range tests {
		t.Run(tt.script, func(t *testing.T) {
			v, err := vm.RunString(tt.script)
			require.NoError(t, err)
			got, err := exportValue(v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExportStringifiesExoticObjects(t *testing.T) {
	vm := goja.New()
	v, err := vm.RunString(`({fn: function named() {}, re: /x+/g, arr: [undefined]})`)
	require.NoError(t, err)

	got, err := exportValue(v)
	require.NoError(t, err)
	m := got.(map[string]any)
	assert.Contains(t, m["fn"], "named")
	assert.Equal(t, "/x+/g", m["re"])
	assert.Equal(t, []any{nil}, m["arr"])
}

func TestExportDetectsCycles(t *testing.T) {
	vm := goja.New()
	v, err := vm.RunString(`const a = [1]; a.push(a); a`)
	require.NoError(t, err)

	_, err = exportValue(v)
	assert.ErrorIs(t, err, ErrValueCycle)
}

func TestExportAllowsSharedReferences(t *testing.T) {
	vm := goja.New()
	v, err := vm.RunString(`const leaf = {k: 1}; ({a: leaf, b: leaf})`)
	require.NoError(t, err)

	got, err := exportValue(v)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": map[string]any{"k": int64(1)}, "b": map[string]any{"k": int64(1)}}, got)
}

func TestExportRejectsDeepNesting(t *testing.T) {
	vm := goja.New()
	v, err := vm.RunString(`let x = 0; for (let i = 0; i < 200; i++) { x = [x] } x`)
	require.NoError(t, err)

	_, err = exportValue(v)
	assert.ErrorIs(t, err, ErrValueTooDeep)
}

func TestExportRejectsOversizedArrays(t *testing.T) {
	vm := goja.New()
	tests := map[string]string{
		"sparse":  `const a = []; a.length = 50000000; a`,
		"nested":  `const a = []; a.length = 60000; [a, a]`,
		"wideObj": `const o = {}; for (let i = 0; i <= 100000; i++) { o["k" + i] = i } o`,
	}
	for name, script := range tests {
		t.Run(name, func(t *testing.T) {
			v, err := vm.RunString(script)
			require.NoError(t, err)

			start := time.Now()
			_, err = exportValue(v)
			assert.ErrorIs(t, err, ErrValueTooLarge)
			assert.Less(t, time.Since(start), 2*time.Second)
		})
	}
}

func TestExportNonFiniteNumbers(t *testing.T) {
	vm := goja.New()
	v, err := vm.RunString(`({nan: NaN, inf: Infinity, neg: -Infinity, list: [1 / 0]})`)
	require.NoError(t, err)

	got, err := exportValue(v)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"nan":  "NaN",
		"inf":  "Infinity",
		"neg":  "-Infinity",
		"list": []any{"Infinity"},
	}, got)
	assert.True(t, json.Valid([]byte(Format(got))))
}

func TestStringifyLongArrayLike(t *testing.T) {
	vm := goja.New()
	v, err := vm.RunString(`const a = []; a.length = 50000000; a`)
	require.NoError(t, err)

	assert.Equal(t, "[Array(50000000)]", stringify(v.(*goja.Object)))
}

func TestImportStructuredValues(t *testing.T) {
	vm := goja.New()
	type entry struct {
		Name string `json:"name"`
		Size int    `json:"size"`
	}

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"bytes", []byte("raw"), "raw"},
		{"strings", []string{"a", "b"}, []any{"a", "b"}},
		{"string map", map[string]string{"k": "v"}, map[string]any{"k": "v"}},
		{"records", []map[string]any{{"n": 1}}, []any{map[string]any{"n": int64(1)}}},
		{"struct", entry{Name: "f", Size: 3}, map[string]any{"name": "f", "size": int64(3)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gv, err := importValue(vm, tt.in)
			require.NoError(t, err)
			got, err := exportValue(gv)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestImportUnsupportedValue(t *testing.T) {
	_, err := importValue(goja.New(), func() {})
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "null", Format(nil))
	assert.Equal(t, "plain text", Format("plain text"))
	assert.Equal(t, "true", Format(true))
	assert.Equal(t, "[\n  1,\n  2\n]", Format([]any{int64(1), int64(2)}))
	assert.Equal(t, "{\n  \"a\": 1,\n  \"b\": 2\n}", Format(map[string]any{"b": int64(2), "a": int64(1)}))
}

// Values in the closed shape set survive a host -> guest -> host trip.
func TestValueRoundTripProperty(t *testing.T) {
	vm := goja.New()
	rapid.Check(t, func(t *rapid.T) {
		v := shapeGen(3).Draw(t, "value")
		gv, err := importValue(vm, v)
		if err != nil {
			t.Fatalf("import: %v", err)
		}
		back, err := exportValue(gv)
		if err != nil {
			t.Fatalf("export: %v", err)
		}
		assert.Equal(t, v, back)
	})
}

func shapeGen(depth int) *rapid.Generator[any] {
	leaves := []*rapid.Generator[any]{
		rapid.Just[any](nil),
		rapid.Map(rapid.Bool(), func(b bool) any { return b }),
		rapid.Map(rapid.Int64Range(-maxSafeInteger, maxSafeInteger), func(i int64) any { return i }),
		rapid.Map(rapid.String(), func(s string) any { return s }),
		rapid.Map(rapid.Float64Range(-1e6, 1e6), func(f float64) any { return normalizeNumber(f) }),
	}
	if depth == 0 {
		return rapid.OneOf(leaves...)
	}
	child := shapeGen(depth - 1)
	return rapid.OneOf(append(leaves,
		rapid.Map(rapid.SliceOfN(child, 0, 4), func(items []any) any {
			if items == nil {
				items = []any{}
			}
			return items
		}),
		rapid.Map(rapid.MapOfN(rapid.StringMatching(`[a-z]{1,6}`), child, 0, 4), func(m map[string]any) any {
			if m == nil {
				m = map[string]any{}
			}
			return m
		}),
	)...)
}
