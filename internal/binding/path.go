package binding

import (
	"errors"
	"strconv"
	"strings"
)

type segmentKind uint8

const (
	segKey    segmentKind = iota // .key, digits also index arrays
	segIndex                     // [n]
	segQuoted                    // ["key"] or ['key']
)

type segment struct {
	kind  segmentKind
	key   string
	index int
}

var errUnterminatedBracket = errors.New("binding: unterminated bracket in path")

// arrayIndex reports the array position a segment addresses, if any.
func (s segment) arrayIndex() (int, bool) {
	switch s.kind {
	case segIndex:
		return s.index, true
	case segKey:
		if n, ok := parseIndex(s.key); ok {
			return n, true
		}
	}
	return 0, false
}

func parseIndex(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parsePath splits a path like `series[0].close` or `["Global Quote"]["05. price"]`
// into segments. Empty dot segments are dropped.
func parsePath(path string) ([]segment, error) {
	var segs []segment
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			segs = append(segs, segment{kind: segKey, key: cur.String()})
			cur.Reset()
		}
	}

	for i := 0; i < len(path); i++ {
		c := path[i]
		switch c {
		case '.':
			flush()
		case '[':
			flush()
			end := strings.IndexByte(path[i+1:], ']')
			if end < 0 {
				return nil, errUnterminatedBracket
			}
			inner := path[i+1 : i+1+end]
			// a quoted key may itself contain ']'
			if len(inner) > 0 && (inner[0] == '"' || inner[0] == '\'') {
				quote := inner[0]
				closeAt := strings.IndexByte(path[i+2:], quote)
				if closeAt < 0 {
					return nil, errUnterminatedBracket
				}
				key := path[i+2 : i+2+closeAt]
				next := i + 2 + closeAt + 1
				if next >= len(path) || path[next] != ']' {
					return nil, errUnterminatedBracket
				}
				segs = append(segs, segment{kind: segQuoted, key: key})
				i = next
				continue
			}
			if n, ok := parseIndex(strings.TrimSpace(inner)); ok {
				segs = append(segs, segment{kind: segIndex, index: n})
			} else {
				segs = append(segs, segment{kind: segQuoted, key: inner})
			}
			i += end + 1
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return segs, nil
}

// Resolve walks root along path and returns the value found there, or an
// absent Value when any step does not apply. An empty path returns root.
//
// A dot segment is also tried joined with the following dot segments, so keys
// such as "05. price" resolve without quoting. The plain key wins when both
// lead somewhere.
func Resolve(root Value, path string) Value {
	if path == "" {
		return root
	}
	segs, err := parsePath(path)
	if err != nil {
		return Value{}
	}
	return resolveSegments(root, segs)
}

func resolveSegments(cur Value, segs []segment) Value {
	if len(segs) == 0 {
		return cur
	}
	s := segs[0]
	switch cur.kind {
	case KindObject:
		if s.kind == segIndex {
			return Value{}
		}
		if v, ok := cur.lookup(s.key); ok {
			if got := resolveSegments(v, segs[1:]); !got.IsAbsent() || s.kind != segKey {
				return got
			}
		}
		if s.kind != segKey {
			return Value{}
		}
		key := s.key
		for j := 1; j < len(segs) && segs[j].kind == segKey; j++ {
			key += "." + segs[j].key
			if v, ok := cur.lookup(key); ok {
				if got := resolveSegments(v, segs[j+1:]); !got.IsAbsent() {
					return got
				}
			}
		}
		return Value{}
	case KindArray:
		n, ok := s.arrayIndex()
		if !ok || n >= len(cur.arr) {
			return Value{}
		}
		return resolveSegments(cur.arr[n], segs[1:])
	default:
		return Value{}
	}
}
