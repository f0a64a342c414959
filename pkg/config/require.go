package config

import (
	"fmt"
	"log"
	"sort"
	"strings"
)

// Require returns an error naming every env var whose resolved value is empty.
func Require(values map[string]string) error {
	var missing []string
	for name, v := range values {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("missing required env %s", strings.Join(missing, ", "))
}

func MustNonEmpty(values map[string]string) {
	if err := Require(values); err != nil {
		log.Fatal(err)
	}
}
