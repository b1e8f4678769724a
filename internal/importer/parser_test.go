package importer_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/invoiceflow/internal/billing"
	"github.com/MrJamesThe3rd/invoiceflow/internal/importer"
)

func TestParseRecipients(t *testing.T) {
	type testCase struct {
		name    string
		input   []byte
		want    []billing.Recipient
		wantErr bool
	}

	tests := []testCase{
		{
			name: "SpanishSemicolonWithPreamble",
			input: []byte("Listado de clientes;;\n;;\n" +
				"Nombre;CIF;Dirección;Población;CP;Favorito\n" +
				"ACME SL;B12345678;Gran Vía 2;Madrid;28013;sí\n" +
				";;;;;\n" +
				"Globex;B87654321;Av. Diagonal 1;Barcelona;08019;\n"),
			want: []billing.Recipient{
				{Name: "ACME SL", TaxID: "B12345678", Address: "Gran Vía 2", City: "Madrid", PostalCode: "28013", IsFavorite: true},
				{Name: "Globex", TaxID: "B87654321", Address: "Av. Diagonal 1", City: "Barcelona", PostalCode: "08019"},
			},
		},
		{
			name:  "EnglishComma",
			input: []byte("name,tax id,address,favorite\n\"Initech, Inc\",US123,1 Main St,yes\n"),
			want: []billing.Recipient{
				{Name: "Initech, Inc", TaxID: "US123", Address: "1 Main St", IsFavorite: true},
			},
		},
		{
			name: "Windows1252",
			input: append([]byte("Nombre;Direcci\xf3n\n"),
				[]byte("Jos\xe9 Mu\xf1oz;Calle Ca\xf1o 3\n")...),
			want: []billing.Recipient{
				{Name: "José Muñoz", Address: "Calle Caño 3"},
			},
		},
		{
			name:  "UTF8BOM",
			input: append([]byte{0xEF, 0xBB, 0xBF}, []byte("Nombre;NIF\nAna;1Z\n")...),
			want:  []billing.Recipient{{Name: "Ana", TaxID: "1Z"}},
		},
		{
			name: "CommaAfterTitleRow",
			input: []byte("Clientes 2024\n\n" +
				"Nombre,CIF,Dirección\n" +
				"ACME SL,B12345678,\"Gran Vía 2; 3º\"\n"),
			want: []billing.Recipient{
				{Name: "ACME SL", TaxID: "B12345678", Address: "Gran Vía 2; 3º"},
			},
		},
		{
			name:    "NoHeader",
			input:   []byte("foo;bar\n1;2\n"),
			wantErr: true,
		},
		{
			name:    "MissingName",
			input:   []byte("Nombre;CIF\n;B1\n"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := importer.ParseRecipients(bytes.NewReader(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, billing.ErrInvalidInput)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRecipients_MissingNameReportsRow(t *testing.T) {
	_, err := importer.ParseRecipients(strings.NewReader("Nombre;CIF\nAna;1\n;B1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 3")
}

func TestParseRecipients_RejectsOversizedInput(t *testing.T) {
	input := append([]byte("Nombre;CIF\nAna;1Z\n"), bytes.Repeat([]byte(" "), importer.MaxImportSize)...)

	_, err := importer.ParseRecipients(bytes.NewReader(input))
	require.Error(t, err)
	assert.ErrorIs(t, err, billing.ErrInvalidInput)
	assert.Contains(t, err.Error(), "file too large")
}

func TestParseRecipients_AcceptsInputAtLimit(t *testing.T) {
	head := []byte("Nombre;CIF\nAna;1Z\n")
	input := append(head, bytes.Repeat([]byte("\n"), importer.MaxImportSize-len(head))...)

	got, err := importer.ParseRecipients(bytes.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []billing.Recipient{{Name: "Ana", TaxID: "1Z"}}, got)
}
