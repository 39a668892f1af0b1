/*package version tracks the source version so configs and caches written
by older releases can be recognized.*/
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// SourceVersion is the semantic version number of the source code.
const SourceVersion = "0.3.1"

// Parse parses a semantic version number string and returns an error if
// the string is invalid.
func Parse(s string) (major, minor, patch int, err error) {
	errVersion := fmt.Errorf("Version string does not take the form of " +
		"three period-separated non-negative numbers")

	toks := strings.Split(s, ".")
	if len(toks) != 3 {
		return -1, -1, -1, errVersion
	}

	nums := [3]int{}
	for i := range toks {
		nums[i], err = strconv.Atoi(toks[i])
		if err != nil || nums[i] < 0 {
			return -1, -1, -1, errVersion
		}
	}
	return nums[0], nums[1], nums[2], nil
}

// Later returns true if s1 represents a later version of the source than
// s2. An error is returned if either is invalid.
func Later(s1, s2 string) (bool, error) {
	major1, minor1, patch1, err := Parse(s1)
	if err != nil {
		return false, err
	}
	major2, minor2, patch2, err := Parse(s2)
	if err != nil {
		return false, err
	}

	if major1 != major2 {
		return major1 > major2, nil
	}
	if minor1 != minor2 {
		return minor1 > minor2, nil
	}
	return patch1 > patch2, nil
}
