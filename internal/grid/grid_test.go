package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCSV(t *testing.T) {
	data := []byte("Date,Amount,Description\n2024-05-01,100,coffee\n2024-05-02,200,books\n")
	rows, err := Extract(data, "export.csv")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Date", "Amount", "Description"}, rows[0])
	assert.Equal(t, []string{"2024-05-02", "200", "books"}, rows[2])
}

func TestExtractSemicolonDelimited(t *testing.T) {
	data := []byte("Date;Amount;Description\n2024-05-01;100,50;kaffee\n")
	rows, err := Extract(data, "export.csv")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"2024-05-01", "100,50", "kaffee"}, rows[1])
}

func TestExtractTabDelimited(t *testing.T) {
	data := []byte("Date\tAmount\tDescription\n2024-05-01\t100\tcoffee\n")
	rows, err := Extract(data, "report.txt")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Date", "Amount", "Description"}, rows[0])
}

func TestExtractEmptyFile(t *testing.T) {
	_, err := Extract([]byte(""), "empty.csv")
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = Extract([]byte("just one line\n"), "one.csv")
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestSniffDelimiter(t *testing.T) {
	tests := []struct {
		name string
		data string
		want rune
	}{
		{name: "comma", data: "a,b,c\n1,2,3", want: ','},
		{name: "semicolon", data: "a;b;c\n1;2;3", want: ';'},
		{name: "tab", data: "a\tb\tc", want: '\t'},
		{name: "pipe", data: "a|b|c", want: '|'},
		{name: "no delimiter defaults to comma", data: "plain text", want: ','},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sniffDelimiter([]byte(tt.data)))
		})
	}
}

func TestIsPDF(t *testing.T) {
	assert.True(t, IsPDF([]byte("%PDF-1.7 ...")))
	assert.False(t, IsPDF([]byte("Date,Amount\n")))
}

func TestIsEncryptedPDF(t *testing.T) {
	assert.True(t, IsEncryptedPDF([]byte("%PDF-1.7 ... /Encrypt 12 0 R ...")))
	assert.False(t, IsEncryptedPDF([]byte("%PDF-1.7 plain document")))
	assert.False(t, IsEncryptedPDF([]byte("%PDF-1.7 ... /Encrypt null ...")))
}

func TestLocateHeader(t *testing.T) {
	keywords := []string{"Date", "Amount", "Description", "Narration"}

	t.Run("first row header", func(t *testing.T) {
		rows := [][]string{
			{"Date", "Amount", "Description"},
			{"2024-05-01", "100", "coffee"},
		}
		assert.Equal(t, 0, LocateHeader(rows, keywords))
	})

	t.Run("header after bank preamble", func(t *testing.T) {
		rows := [][]string{
			{"Account Statement", "", ""},
			{"Customer: A SMITH", "Branch: 0042", "IFSC: XX0001"},
			{"", "", ""},
			{"Txn Date", "Narration", "Withdrawal Amount", "Deposit Amount"},
			{"01/05/2024", "UPI-SWIGGY", "120.00", ""},
			{"02/05/2024", "NEFT SALARY", "", "50000.00"},
		}
		assert.Equal(t, 3, LocateHeader(rows, keywords))
	})

	t.Run("numeric rows are penalized", func(t *testing.T) {
		rows := [][]string{
			{"1", "2", "3"},
			{"Date", "Amount", "Description"},
			{"2024-05-01", "100", "coffee"},
		}
		assert.Equal(t, 1, LocateHeader(rows, keywords))
	})

	t.Run("two column export behind preamble", func(t *testing.T) {
		rows := [][]string{
			{"Statement for 00123"},
			{"Date", "Amount"},
			{"2024-05-01", "120.00"},
		}
		assert.Equal(t, 1, LocateHeader(rows, keywords))
	})

	t.Run("nothing qualifies returns zero", func(t *testing.T) {
		rows := [][]string{
			{"x"},
			{"y"},
		}
		assert.Equal(t, 0, LocateHeader(rows, keywords))
	})
}

func TestCell(t *testing.T) {
	row := []string{"a", "b"}
	assert.Equal(t, "a", Cell(row, 0))
	assert.Equal(t, "b", Cell(row, 1))
	assert.Equal(t, "", Cell(row, 2), "ragged rows read as empty")
	assert.Equal(t, "", Cell(row, -1))
}
