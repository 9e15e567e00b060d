package openstack

import (
	"bytes"
	_ "embed"
)

//go:embed data/release-table.csv
var defaultReleaseTable []byte

// LoadDefault parses the release table bundled with the binary. Operators
// who need to track a newer OpenStack release before a new build ships can
// still point the catalog at an external file via Load.
func LoadDefault() (*Catalog, error) {
	return Load(bytes.NewReader(defaultReleaseTable))
}
