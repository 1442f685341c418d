package audit

import (
	"bufio"
	"fmt"
	"os"
)

// maxLine bounds a single journal line. Entries are a few hundred bytes;
// anything near this is corruption.
const maxLine = 1 << 20

// lineError pins a journal problem to a 1-based line number.
type lineError struct {
	line int
	msg  string
}

func (e *lineError) Error() string { return fmt.Sprintf("line %d: %s", e.line, e.msg) }

// eachLine calls fn with every line of the journal at path. The slice is
// only valid during the call. fn stops the walk by returning an error.
func eachLine(path string, fn func(n int, line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 4096), maxLine)
	n := 0
	for scanner.Scan() {
		n++
		if err := fn(n, scanner.Bytes()); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// tailHash returns the hash of the last line in path, or GenesisHash when
// the journal is empty or absent.
func tailHash(path string) (string, error) {
	hash := GenesisHash
	err := eachLine(path, func(_ int, line []byte) error {
		hash = HashLine(line)
		return nil
	})
	if os.IsNotExist(err) {
		return GenesisHash, nil
	}
	return hash, err
}
