package conf

import (
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/tidwall/sjson"
	lua "github.com/yuin/gopher-lua"
)

// Snapshot converts the whole configuration table into plain Go data:
// tables with a dense 1..n integer key set become []any, everything else
// becomes map[string]any. Functions, userdata and cyclic tables are
// omitted.
func (c *Config) Snapshot() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.eng == nil {
		return map[string]any{}
	}
	c.root.PushTop()
	t, ok := c.eng.Top().(*lua.LTable)
	c.eng.Pop(1)
	if !ok {
		return map[string]any{}
	}

	v, _ := goValue(t, map[*lua.LTable]bool{})
	m, ok := v.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return m
}

// ExportTOML renders the configuration snapshot as a TOML document.
func (c *Config) ExportTOML() ([]byte, error) {
	return toml.Marshal(c.Snapshot())
}

// ExportJSON renders the configuration snapshot as a JSON document. Keys
// are emitted in sorted order so the output is stable across runs.
func (c *Config) ExportJSON() ([]byte, error) {
	snap := c.Snapshot()
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := []byte(`{}`)
	var err error
	for _, k := range keys {
		out, err = sjson.SetBytes(out, jsonPathKey(k), snap[k])
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// jsonPathKey escapes a literal table key for use as a path component.
func jsonPathKey(k string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`)
	return r.Replace(k)
}

// goValue converts a script value to plain Go data. The boolean result is
// false for values with no Go representation. seen breaks table cycles.
func goValue(v lua.LValue, seen map[*lua.LTable]bool) (any, bool) {
	switch val := v.(type) {
	case *lua.LNilType:
		return nil, true
	case lua.LBool:
		return bool(val), true
	case lua.LNumber:
		return float64(val), true
	case lua.LString:
		return string(val), true
	case *lua.LTable:
		return tableValue(val, seen)
	default:
		return nil, false
	}
}

// tableValue converts a table, deciding between sequence and map form by
// comparing the sequence length with the total entry count.
func tableValue(t *lua.LTable, seen map[*lua.LTable]bool) (any, bool) {
	if seen[t] {
		return nil, false
	}
	seen[t] = true

	n := t.Len()
	entries := 0
	t.ForEach(func(_, _ lua.LValue) { entries++ })

	if n > 0 && entries == n {
		arr := make([]any, 0, n)
		for i := 1; i <= n; i++ {
			if gv, ok := goValue(t.RawGetInt(i), seen); ok {
				arr = append(arr, gv)
			}
		}
		return arr, true
	}

	m := make(map[string]any, entries)
	t.ForEach(func(k, v lua.LValue) {
		var name string
		switch key := k.(type) {
		case lua.LString:
			name = string(key)
		case lua.LNumber:
			name = key.String()
		default:
			return
		}
		if gv, ok := goValue(v, seen); ok {
			m[name] = gv
		}
	})
	return m, true
}
