package importer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type field int

const (
	fieldName field = iota
	fieldTaxID
	fieldAddress
	fieldCity
	fieldPostalCode
	fieldProvince
	fieldFavorite
)

// aliases lists accepted header spellings per field, already folded.
var aliases = map[field][]string{
	fieldName:       {"nombre", "name", "razon social", "cliente", "client"},
	fieldTaxID:      {"cif", "nif", "cif/nif", "nif/cif", "tax id", "taxid", "vat"},
	fieldAddress:    {"direccion", "domicilio", "address"},
	fieldCity:       {"ciudad", "poblacion", "localidad", "city"},
	fieldPostalCode: {"cp", "codigo postal", "postal code", "zip"},
	fieldProvince:   {"provincia", "province"},
	fieldFavorite:   {"favorito", "favorite", "favourite"},
}

// columns maps a field to its index in a data row.
type columns map[field]int

// fold lowercases and strips accents so "Dirección" matches "direccion".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}

	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

// detectHeader returns the column map and index of the first row that names
// a recipient column.
func detectHeader(rows [][]string) (columns, int, bool) {
	lookup := make(map[string]field)
	for f, names := range aliases {
		for _, n := range names {
			lookup[n] = f
		}
	}

	for rowIdx, row := range rows {
		cols := make(columns)

		for i, cell := range row {
			f, ok := lookup[fold(cell)]
			if !ok {
				continue
			}

			if _, dup := cols[f]; !dup {
				cols[f] = i
			}
		}

		if _, ok := cols[fieldName]; ok {
			return cols, rowIdx, true
		}
	}

	return nil, 0, false
}

func (c columns) value(row []string, f field) string {
	idx, ok := c[f]
	if !ok || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

func parseFlag(s string) bool {
	switch fold(s) {
	case "1", "x", "si", "yes", "true", "y", "s":
		return true
	}

	return false
}
