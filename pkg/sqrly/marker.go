package sqrly

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// MarkerFormatVersion identifies the marker line layout written into
// migration artifacts. WriteArtifact records it in a header line and Lint
// refuses migrations whose header names a different version.
const MarkerFormatVersion = 1

// MarkerPrefix starts every marker line. The source file's base name follows it.
const MarkerPrefix = "-- "

const formatHeaderPrefix = MarkerPrefix + "sqrly marker format: "

// ErrMarkerFormat is returned for migrations written with an unknown marker format.
var ErrMarkerFormat = errors.New("unsupported marker format")

// Marker returns the marker text for a source file, without the trailing newline.
func Marker(path string) string {
	return MarkerPrefix + filepath.Base(path)
}

// MarkerLine returns the full marker line written ahead of a source file's contents.
func MarkerLine(path string) string {
	return Marker(path) + "\n"
}

// ContainsMarker reports whether text carries the marker for path.
func ContainsMarker(text, path string) bool {
	return strings.Contains(text, Marker(path))
}

// FormatHeader returns the line that opens every migration artifact.
func FormatHeader() string {
	return formatHeaderPrefix + strconv.Itoa(MarkerFormatVersion) + "\n"
}

// FormatVersion returns the marker format declared by text's header line.
// Text without a header, such as a migration written by hand, is read as
// the current format.
func FormatVersion(text string) (int, error) {
	for _, line := range strings.Split(text, "\n") {
		v, ok := strings.CutPrefix(strings.TrimRight(line, "\r"), formatHeaderPrefix)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%w: bad header %q", ErrMarkerFormat, line)
		}
		return n, nil
	}
	return MarkerFormatVersion, nil
}
