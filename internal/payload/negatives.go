package payload

import (
	"fmt"
	"strings"

	"github.com/mrz1836/goalsync/internal/constants"
	"github.com/mrz1836/goalsync/internal/fsutil"
)

// LoadNegativeASINs reads the global negative ASIN list. A missing file or an
// empty path yields an empty list.
func LoadNegativeASINs(path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	data, err := fsutil.ReadIfExists(path)
	if err != nil {
		return nil, fmt.Errorf("read negative asins %s: %w", path, err)
	}
	return ParseNegativeASINs(string(data)), nil
}

// ParseNegativeASINs splits comma or newline separated content, keeps only
// ten-character entries and drops repeats while preserving order.
//
//	ParseNegativeASINs("B000000001, B000000002\nshort\nB000000001")
//	// [B000000001 B000000002]
func ParseNegativeASINs(content string) []string {
	fields := strings.FieldsFunc(content, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})

	seen := make(map[string]struct{}, len(fields))
	asins := make([]string, 0, len(fields))
	for _, field := range fields {
		asin := strings.ToUpper(strings.TrimSpace(field))
		if len(asin) != constants.ASINLength {
			continue
		}
		if _, dup := seen[asin]; dup {
			continue
		}
		seen[asin] = struct{}{}
		asins = append(asins, asin)
	}
	return asins
}
