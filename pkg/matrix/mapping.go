package matrix

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matzehuels/simheat/pkg/errors"
)

// ReadMapping parses a two-column identifier-to-value file, as used for
// label and class maps:
//
//	genome_A<TAB>Escherichia coli K-12
//	genome_B<TAB>Escherichia coli O157
//
// Blank lines and '#' comments are skipped. Values may contain spaces.
// Later entries override earlier ones for the same identifier.
func ReadMapping(r io.Reader) (map[string]string, error) {
	out := make(map[string]string)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "\t")
		if !ok {
			key, value, ok = strings.Cut(trimmed, " ")
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if !ok || key == "" || value == "" {
			return nil, errors.New(errors.ErrCodeInvalidMapping, "line %d: expected identifier and value", lineNo)
		}
		out[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidMapping, err, "read mapping")
	}
	return out, nil
}

// ReadMappingFile opens path and parses it with [ReadMapping].
func ReadMappingFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "mapping file %s", path)
		}
		return nil, fmt.Errorf("open mapping: %w", err)
	}
	defer f.Close()
	return ReadMapping(f)
}
