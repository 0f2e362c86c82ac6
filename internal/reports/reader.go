// Package reports reads and parses the report files written by the test tools.
package reports

import (
	"fmt"
	"log"
	"os"
)

// Read returns the contents of a report file. A missing file is not an error:
// found is false and err is nil.
func Read(path string) (data []byte, found bool, err error) {
	data, err = os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read report %s: %w", path, err)
	}
	return data, true, nil
}

// Remove deletes a consumed scratch report. Already gone is fine.
func Remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to remove report %s: %v", path, err)
	}
}
