package billing

import (
	"bytes"
	"encoding/json"
	"maps"
	"reflect"
	"strings"

	"github.com/shopspring/decimal"
)

// Extra holds document members this package does not model. They are
// written back verbatim so a read-modify-write never loses them.
type Extra map[string]json.RawMessage

// with returns a copy of e where key, if present, carries v instead.
func (e Extra) with(key string, v any) Extra {
	if _, ok := e[key]; !ok {
		return e
	}

	b, err := json.Marshal(v)
	if err != nil {
		return e
	}

	out := maps.Clone(e)
	out[key] = b

	return out
}

// aliasString reads key as a string, ignoring anything else.
func (e Extra) aliasString(key string) string {
	var s string
	if raw, ok := e[key]; ok {
		_ = json.Unmarshal(raw, &s)
	}

	return s
}

var (
	documentKeys  = jsonNames(BusinessData{})
	issuerKeys    = jsonNames(Issuer{})
	accountKeys   = jsonNames(Account{})
	recipientKeys = jsonNames(Recipient{})
	templateKeys  = jsonNames(Template{})
	invoiceKeys   = jsonNames(Invoice{})
	lineItemKeys  = jsonNames(LineItem{})
)

// jsonNames lists the member names a struct encodes to.
func jsonNames(v any) map[string]bool {
	t := reflect.TypeOf(v)
	names := make(map[string]bool, t.NumField())

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)

		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}

		if name == "" {
			name = f.Name
		}

		names[name] = true
	}

	return names
}

// decodeWithExtra decodes b into v and returns the members of b that are
// not in known.
func decodeWithExtra(b []byte, v any, known map[string]bool) (Extra, error) {
	if err := json.Unmarshal(b, v); err != nil {
		return nil, err
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(b, &members); err != nil {
		return nil, err
	}

	var extra Extra

	for k, raw := range members {
		if known[k] {
			continue
		}

		if extra == nil {
			extra = Extra{}
		}

		extra[k] = raw
	}

	return extra, nil
}

// encodeWithExtra encodes v and adds the extra members it does not emit.
func encodeWithExtra(v any, extra Extra) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return b, err
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(b, &members); err != nil {
		return nil, err
	}

	for k, raw := range extra {
		if _, ok := members[k]; !ok {
			members[k] = raw
		}
	}

	return json.Marshal(members)
}

func isNull(raw json.RawMessage) bool {
	s := bytes.TrimSpace(raw)
	return len(s) == 0 || bytes.Equal(s, []byte("null")) || bytes.Equal(s, []byte(`""`))
}

// looseDecimal reads an amount written by any client version. Absent, null
// and empty values are zero.
func looseDecimal(raw json.RawMessage) (decimal.Decimal, error) {
	if isNull(raw) {
		return decimal.Zero, nil
	}

	var d decimal.Decimal
	if err := d.UnmarshalJSON(bytes.TrimSpace(raw)); err != nil {
		return decimal.Zero, err
	}

	return d, nil
}

// looseRate is looseDecimal for optional rates, where absent stays nil.
func looseRate(raw json.RawMessage) (*decimal.Decimal, error) {
	if isNull(raw) {
		return nil, nil
	}

	d, err := looseDecimal(raw)
	if err != nil {
		return nil, err
	}

	return &d, nil
}
