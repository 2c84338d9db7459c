package report

import (
	"fmt"
	"io"
)

// WriteColumnList prints one "<key>\t<source>\t<header>" line per column.
func WriteColumnList(w io.Writer, cols []Column) error {
	for _, c := range cols {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", c.Key, c.Kind, c.Name()); err != nil {
			return err
		}
	}
	return nil
}
