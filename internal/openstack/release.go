// Package openstack provides the release catalog: the totally ordered set
// of OpenStack codenames, the workload-version compatibility tables, and
// the charm classification sets used to drive the plan assembler.
package openstack

import (
	"strings"

	"github.com/canonical/cou/internal/couerrors"
)

// codenames is the canonical, totally ordered list of OpenStack release
// codenames this tool understands, oldest first. Mirrors the authentic
// upstream OPENSTACK_CODENAMES table.
var codenames = []string{
	"diablo", "essex", "folsom", "grizzly", "havana", "icehouse", "juno",
	"kilo", "liberty", "mitaka", "newton", "ocata", "pike", "queens",
	"rocky", "stein", "train", "ussuri", "victoria", "wallaby", "xena",
	"yoga", "zed", "antelope",
}

// releaseYears maps a codename to the marketing year used by
// ReleaseYear, following the OpenStack "20XX.Y" numbering scheme.
var releaseYears = map[string]string{
	"diablo": "2011.2", "essex": "2012.1", "folsom": "2012.2",
	"grizzly": "2013.1", "havana": "2013.2", "icehouse": "2014.1",
	"juno": "2014.2", "kilo": "2015.1", "liberty": "2015.2",
	"mitaka": "2016.1", "newton": "2016.2", "ocata": "2017.1",
	"pike": "2017.2", "queens": "2018.1", "rocky": "2018.2",
	"stein": "2019.1", "train": "2019.2", "ussuri": "2020.1",
	"victoria": "2020.2", "wallaby": "2021.1", "xena": "2021.2",
	"yoga": "2022.1", "zed": "2022.2", "antelope": "2023.1",
}

var indexOf = func() map[string]int {
	m := make(map[string]int, len(codenames))
	for i, c := range codenames {
		m[c] = i
	}
	return m
}()

// Release is a totally ordered OpenStack codename. The zero value is not a
// valid Release; always construct through NewRelease.
type Release struct {
	index int
}

// NewRelease resolves codename into a Release, failing with
// couerrors.UnknownReleaseError when it is not in the catalog.
func NewRelease(codename string) (Release, error) {
	idx, ok := indexOf[strings.ToLower(codename)]
	if !ok {
		return Release{}, couerrors.NewUnknownRelease(codename)
	}
	return Release{index: idx}, nil
}

// MustRelease is NewRelease but panics on failure; intended for
// catalog-internal literals known to be valid at init time.
func MustRelease(codename string) Release {
	r, err := NewRelease(codename)
	if err != nil {
		panic(err)
	}
	return r
}

// String returns the release codename.
func (r Release) String() string { return codenames[r.index] }

// ReleaseYear returns the "20XX.Y" marketing version for this release.
func (r Release) ReleaseYear() string { return releaseYears[codenames[r.index]] }

// Compare returns -1, 0 or 1 according to whether r is before, equal to, or
// after other.
func (r Release) Compare(other Release) int {
	switch {
	case r.index < other.index:
		return -1
	case r.index > other.index:
		return 1
	default:
		return 0
	}
}

func (r Release) Before(other Release) bool { return r.index < other.index }
func (r Release) After(other Release) bool  { return r.index > other.index }
func (r Release) Equal(other Release) bool  { return r.index == other.index }
func (r Release) AtLeast(other Release) bool {
	return r.index >= other.index
}

// Next returns the release immediately after r. If r is already the
// highest known release, Next returns r unchanged (ok=false), matching the
// "release.next == release" check used to detect HighestReleaseAchieved.
func (r Release) Next() (next Release, ok bool) {
	if r.index+1 >= len(codenames) {
		return r, false
	}
	return Release{index: r.index + 1}, true
}

// Previous returns the release immediately before r, or (r, false) if r is
// already the oldest known release.
func (r Release) Previous() (prev Release, ok bool) {
	if r.index == 0 {
		return r, false
	}
	return Release{index: r.index - 1}, true
}

// AllReleases returns every known release, oldest first.
func AllReleases() []Release {
	out := make([]Release, len(codenames))
	for i := range codenames {
		out[i] = Release{index: i}
	}
	return out
}

// Min returns the earlier of a and b.
func Min(a, b Release) Release {
	if a.Before(b) {
		return a
	}
	return b
}

// Max returns the later of a and b.
func Max(a, b Release) Release {
	if a.After(b) {
		return a
	}
	return b
}
