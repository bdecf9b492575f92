package binding

import (
	"strconv"
	"strings"
)

// MaxPaths bounds the number of leaf paths listed for a preview document.
const MaxPaths = 200

// Paths lists the leaf paths of doc in document order, each one resolvable
// with Resolve. Only the first element of every array is walked, which is
// enough to pick fields out of uniform provider responses. At most limit
// paths are returned; a limit of 0 or less means MaxPaths.
func Paths(doc Value, limit int) []string {
	if limit <= 0 {
		limit = MaxPaths
	}
	out := make([]string, 0)
	walkPaths(doc, "", limit, &out)
	return out
}

func walkPaths(v Value, prefix string, limit int, out *[]string) {
	if len(*out) >= limit {
		return
	}
	switch v.kind {
	case KindObject:
		if len(v.obj.keys) == 0 && prefix != "" {
			*out = append(*out, prefix)
			return
		}
		for _, k := range v.obj.keys {
			walkPaths(v.obj.vals[k], joinKey(prefix, k), limit, out)
			if len(*out) >= limit {
				return
			}
		}
	case KindArray:
		if len(v.arr) == 0 {
			if prefix != "" {
				*out = append(*out, prefix)
			}
			return
		}
		walkPaths(v.arr[0], prefix+"[0]", limit, out)
	case KindAbsent:
	default:
		if prefix != "" {
			*out = append(*out, prefix)
		}
	}
}

func joinKey(prefix, key string) string {
	if needsQuoting(key) {
		q := `"`
		if strings.Contains(key, `"`) {
			q = "'"
		}
		return prefix + "[" + q + key + q + "]"
	}
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func needsQuoting(key string) bool {
	if key == "" || strings.ContainsAny(key, ".[]") {
		return true
	}
	_, err := strconv.Atoi(key)
	return err == nil
}
