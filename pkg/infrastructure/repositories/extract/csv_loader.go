package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// CSV encodings
const (
	EncodingAuto = "auto"
	EncodingUTF8 = "utf-8"
	EncodingGBK  = "gbk"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readCSV reads all records of a CSV file. In auto mode a file that is not
// valid UTF-8 is decoded as GBK.
func readCSV(path, encoding string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	var r io.Reader = bytes.NewReader(data)
	switch encoding {
	case EncodingUTF8:
	case EncodingGBK:
		r = transform.NewReader(r, simplifiedchinese.GBK.NewDecoder())
	case EncodingAuto, "":
		if !utf8.Valid(data) {
			r = transform.NewReader(r, simplifiedchinese.GBK.NewDecoder())
		}
	default:
		return nil, fmt.Errorf("unknown CSV encoding: %s", encoding)
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	return records, nil
}
