package labels

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/Brownie44l1/classify-api/internal/model"
)

// Unknown is returned for any class index the table has no entry for.
const Unknown = "Unknown"

// Table maps class indices to human-readable names, in file order.
type Table []string

// Load reads newline-delimited labels. Each line is whitespace-trimmed;
// blank lines become empty entries so indices stay aligned with the model's
// output vector.
func Load(r io.Reader) (Table, error) {
	var table Table
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		table = append(table, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading labels")
	}
	return table, nil
}

// LoadFile loads a label table from a bundled asset file.
func LoadFile(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &model.LoadError{Asset: path, Err: err}
	}
	defer f.Close()

	table, err := Load(f)
	if err != nil {
		return nil, &model.LoadError{Asset: path, Err: err}
	}
	return table, nil
}

// Lookup never fails: an out-of-range index yields Unknown.
func (t Table) Lookup(i int) string {
	if i < 0 || i >= len(t) {
		return Unknown
	}
	return t[i]
}
