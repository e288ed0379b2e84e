package codec

import (
	"bytes"
	"strings"
)

const (
	// TextRunSize max characters in one text run, counted as utf-16 code units
	TextRunSize = 16 * 1024
)

func splitText(value string) []string {
	var runs []string
	start, units := 0, 0
	for i, r := range value {
		width := 1
		if r >= 0x10000 {
			width = 2
		}

		if units+width > TextRunSize {
			runs = append(runs, value[start:i])
			start, units = i, 0
		}
		units += width
	}

	return append(runs, value[start:])
}

func writeText(value string, out *ObjectDataOutput) error {
	for _, run := range splitText(value) {
		err := out.WriteUTF(run)
		if err != nil {
			return err
		}
	}

	return nil
}

func readText(r *bytes.Reader, in *ObjectDataInput) (string, error) {
	var value strings.Builder
	for r.Len() > 0 {
		run, err := in.ReadUTF()
		if err != nil {
			return "", err
		}

		value.WriteString(run)
	}

	return value.String(), nil
}
