package extract

import (
	"errors"

	"github.com/tidwall/gjson"
)

// ErrInvalidJSON is returned by ParseJSON for malformed documents.
var ErrInvalidJSON = errors.New("invalid JSON document")

// ParseJSON turns a raw JSON response into a node tree the extractor can
// walk. Objects become Mappings, arrays become Sequences and strings stay
// text, so base64 payloads are found through the mapping keys.
func ParseJSON(data []byte) (any, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	return fromJSON(gjson.ParseBytes(data)), nil
}

func fromJSON(r gjson.Result) any {
	switch {
	case r.IsObject():
		return jsonObject{r: r}
	case r.IsArray():
		return jsonArray(r.Array())
	}
	switch r.Type {
	case gjson.String:
		return r.Str
	case gjson.True, gjson.False:
		return r.Bool()
	case gjson.Number:
		return r.Num
	}
	return nil
}

type jsonObject struct {
	r gjson.Result
}

// Lookup matches keys literally; gjson path syntax is not applied.
func (o jsonObject) Lookup(key string) (any, bool) {
	var (
		found bool
		value gjson.Result
	)
	o.r.ForEach(func(k, v gjson.Result) bool {
		if k.String() == key {
			found, value = true, v
			return false
		}
		return true
	})
	if !found {
		return nil, false
	}
	return fromJSON(value), true
}

type jsonArray []gjson.Result

func (a jsonArray) Len() int        { return len(a) }
func (a jsonArray) Index(i int) any { return fromJSON(a[i]) }
