package deps

import "bytes"

// TrimJSON drops leading lines that cannot start a JSON document, such as
// warnings some tools print before their output.
func TrimJSON(data []byte) []byte {
	for len(data) > 0 {
		line := bytes.TrimSpace(firstLine(data))
		if len(line) > 0 && (line[0] == '{' || line[0] == '[') {
			return data
		}
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			return nil
		}
		data = data[i+1:]
	}
	return data
}

// JSONLines returns the lines of data that look like JSON objects, for tools
// emitting line-delimited JSON interleaved with plain text.
func JSONLines(data []byte) [][]byte {
	var out [][]byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) > 0 && line[0] == '{' {
			out = append(out, line)
		}
	}
	return out
}

func firstLine(data []byte) []byte {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return data[:i]
	}
	return data
}
