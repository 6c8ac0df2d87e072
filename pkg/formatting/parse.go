package formatting

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParseFailed is returned when content is not JSON, either directly or
// inside a markdown code fence.
var ErrParseFailed = errors.New("failed to parse response")

var fencePattern = regexp.MustCompile("(?s)```[A-Za-z]*[ \\t]*\\n?(.*?)\\n?```")

// Unfence returns the body of the first markdown code fence in content, or
// the trimmed content when it holds no fence.
func Unfence(content string) string {
	content = strings.TrimSpace(content)
	if m := fencePattern.FindStringSubmatch(content); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}
	return content
}

// Parse unmarshals content as JSON into T. When direct decoding fails the
// body of a surrounding code fence is tried before giving up with
// ErrParseFailed.
func Parse[T any](content string) (T, error) {
	var result T
	trimmed := strings.TrimSpace(content)

	err := json.Unmarshal([]byte(trimmed), &result)
	if err == nil {
		return result, nil
	}

	if body := Unfence(trimmed); body != trimmed {
		if err = json.Unmarshal([]byte(body), &result); err == nil {
			return result, nil
		}
	}

	return result, fmt.Errorf("%w: %v", ErrParseFailed, err)
}
