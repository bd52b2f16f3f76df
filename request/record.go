package request

import (
	"fmt"
	"net/url"
	"strings"
)

// RecordFile is the name of the reproducibility record inside a deliverable.
const RecordFile = ".serialized"

// recordSeparator joins the values of one field in the record.
const recordSeparator = ","

// EncodeRecord rebuilds the submission as a single URL-encoded line. Values
// containing "none" are dropped, the rest of each field is joined with ",".
func EncodeRecord(form url.Values) string {
	record := url.Values{}
	for field, values := range form {
		kept := make([]string, 0, len(values))
		for _, v := range values {
			if strings.Contains(v, None) {
				continue
			}
			kept = append(kept, v)
		}
		record.Set(field, strings.Join(kept, recordSeparator))
	}
	return record.Encode()
}

// DecodeRecord parses a record written by EncodeRecord. Fields whose values
// were all dropped are omitted.
func DecodeRecord(record string) (url.Values, error) {
	raw, err := url.ParseQuery(strings.TrimSpace(record))
	if err != nil {
		return nil, fmt.Errorf("parsing record: %w", err)
	}
	form := url.Values{}
	for field, joined := range raw {
		for _, j := range joined {
			for _, v := range strings.Split(j, recordSeparator) {
				if v != "" {
					form.Add(field, v)
				}
			}
		}
	}
	return form, nil
}
