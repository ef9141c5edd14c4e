package normalize

import "os"

func homeDirForTest(t testingT) string {
	h, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory available")
	}
	return h
}

// testingT is the minimal subset of *testing.T this helper needs, so it
// stays usable from any _test.go file in the package without importing
// "testing" twice.
type testingT interface {
	Skip(args ...any)
}
