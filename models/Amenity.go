package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/kataras/golog"
	"golang.org/x/exp/slices"
)

// ErrAmenityShape is returned for amenity payloads that are none of the
// supported shapes.
var ErrAmenityShape = errors.New("unsupported amenities payload")

// AmenityRef is a car's reference to an amenity. Name is only known when the
// API sent objects or the reference was matched against the vocabulary.
type AmenityRef struct {
	ID   int    `json:"id"`
	Name string `json:"name,omitempty"`
}

// AmenityRefs is the normalized amenity set of a car: unique ids in arrival order.
type AmenityRefs []AmenityRef

// UnmarshalJSON never fails: a car with an unreadable amenity payload keeps
// the ids it can recover instead of breaking the whole list it arrived in.
func (r *AmenityRefs) UnmarshalJSON(b []byte) error {
	refs, err := ParseAmenityRefs(b)
	if err != nil {
		refs = recoverAmenityRefs(b)
		golog.Warnf("⚠️  amenities %s: %v, kept %v", truncate(b, 64), err, refs.IDs())
	}
	*r = refs
	return nil
}

// recoverAmenityRefs reads a keyed object ({"0":3,"1":7}) by its values in
// key order. Anything else yields an empty set.
func recoverAmenityRefs(raw []byte) AmenityRefs {
	refs := AmenityRefs{}
	var obj map[string]json.RawMessage
	if firstNonSpace(raw) != '{' || json.Unmarshal(raw, &obj) != nil {
		return refs
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeys)
	for _, k := range keys {
		if ref, ok := parseAmenityItem(obj[k]); ok {
			refs = refs.add(ref)
		}
	}
	return refs
}

// compareKeys orders numeric keys numerically and everything else after them.
func compareKeys(a, b string) int {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return na - nb
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return strings.Compare(a, b)
}

func firstNonSpace(b []byte) byte {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return 0
	}
	return b[0]
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// ParseAmenityRefs normalizes the four shapes the API uses for a car's amenities:
//
//	[{"id":3,"name":"AC"}, ...]   array of objects
//	[3, 7]                        array of numbers
//	["3", "7"]                    array of numeric strings
//	"3,7"                         comma-separated string
//
// null and empty values yield an empty set. Entries that are not valid ids are dropped.
func ParseAmenityRefs(raw []byte) (AmenityRefs, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return AmenityRefs{}, nil
	}

	var refs AmenityRefs
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		for _, part := range strings.Split(s, ",") {
			if id, ok := parseAmenityID(part); ok {
				refs = refs.add(AmenityRef{ID: id})
			}
		}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		for _, item := range items {
			ref, ok := parseAmenityItem(item)
			if ok {
				refs = refs.add(ref)
			}
		}
	default:
		return nil, ErrAmenityShape
	}

	if refs == nil {
		refs = AmenityRefs{}
	}
	return refs, nil
}

func parseAmenityItem(item json.RawMessage) (AmenityRef, bool) {
	item = bytes.TrimSpace(item)
	if len(item) == 0 {
		return AmenityRef{}, false
	}
	switch item[0] {
	case '{':
		var obj struct {
			ID          FlexInt `json:"id"`
			AmenityID   FlexInt `json:"amenity_id"`
			Name        string  `json:"name"`
			AmenityName string  `json:"amenity_name"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			return AmenityRef{}, false
		}
		id := int(obj.ID)
		if id <= 0 {
			id = int(obj.AmenityID)
		}
		if id <= 0 {
			return AmenityRef{}, false
		}
		return AmenityRef{ID: id, Name: firstNonEmpty(obj.Name, obj.AmenityName)}, true
	case '"':
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			return AmenityRef{}, false
		}
		id, ok := parseAmenityID(s)
		return AmenityRef{ID: id}, ok
	default:
		id, ok := parseAmenityID(string(item))
		return AmenityRef{ID: id}, ok
	}
}

func parseAmenityID(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	id, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, false
		}
		id = int(f)
	}
	if id <= 0 {
		return 0, false
	}
	return id, true
}

func (r AmenityRefs) add(ref AmenityRef) AmenityRefs {
	for i := range r {
		if r[i].ID == ref.ID {
			if r[i].Name == "" {
				r[i].Name = ref.Name
			}
			return r
		}
	}
	return append(r, ref)
}

// IDs returns the amenity ids in order.
func (r AmenityRefs) IDs() []int {
	ids := make([]int, 0, len(r))
	for _, ref := range r {
		ids = append(ids, ref.ID)
	}
	return ids
}

// Has reports whether the set contains id.
func (r AmenityRefs) Has(id int) bool {
	for _, ref := range r {
		if ref.ID == id {
			return true
		}
	}
	return false
}

// FilterKnown drops every reference whose id is not in the vocabulary and
// fills in missing names from it.
func (r AmenityRefs) FilterKnown(vocabulary []Amenity) AmenityRefs {
	names := make(map[int]string, len(vocabulary))
	for _, a := range vocabulary {
		names[a.ID] = a.Name
	}
	out := AmenityRefs{}
	for _, ref := range r {
		name, ok := names[ref.ID]
		if !ok {
			continue
		}
		if ref.Name == "" {
			ref.Name = name
		}
		out = append(out, ref)
	}
	return out
}
