package openstack

import "github.com/canonical/cou/internal/couerrors"

// ubuntuSeries is the ordered list of Ubuntu series codenames this tool
// recognizes, oldest first. Mirrors the upstream UBUNTU_RELEASES table.
var ubuntuSeries = []string{
	"lucid", "maverick", "natty", "oneiric", "precise", "quantal", "raring",
	"saucy", "trusty", "utopic", "vivid", "wily", "xenial", "yakkety",
	"zesty", "artful", "bionic", "cosmic", "disco", "eoan", "focal",
	"groovy", "hirsute", "impish", "jammy", "kinetic", "lunar", "noble",
}

var seriesIndex = func() map[string]int {
	m := make(map[string]int, len(ubuntuSeries))
	for i, s := range ubuntuSeries {
		m[s] = i
	}
	return m
}()

// Series is a totally ordered Ubuntu release codename.
type Series struct {
	index int
}

// NewSeries resolves codename into a Series.
func NewSeries(codename string) (Series, error) {
	idx, ok := seriesIndex[codename]
	if !ok {
		return Series{}, couerrors.NewUnknownRelease(codename)
	}
	return Series{index: idx}, nil
}

func (s Series) String() string { return ubuntuSeries[s.index] }

func (s Series) Before(other Series) bool { return s.index < other.index }
func (s Series) After(other Series) bool  { return s.index > other.index }
func (s Series) Equal(other Series) bool  { return s.index == other.index }

// MinSeries returns the lexicographically-earliest (per ubuntuSeries
// ordering) of a list of series codenames, used by current_cloud_series.
func MinSeries(codenames []string) (Series, error) {
	if len(codenames) == 0 {
		return Series{}, couerrors.NewNoTarget("no series to compare")
	}
	min, err := NewSeries(codenames[0])
	if err != nil {
		return Series{}, err
	}
	for _, c := range codenames[1:] {
		s, err := NewSeries(c)
		if err != nil {
			return Series{}, err
		}
		if s.Before(min) {
			min = s
		}
	}
	return min, nil
}

// distroDefaultCodename maps a series to the OpenStack release it ships by
// default in the Ubuntu archive (the "distro" origin pocket).
var distroDefaultCodename = map[string]string{
	"bionic": "queens",
	"focal":  "ussuri",
	"jammy":  "yoga",
	"noble":  "caracal",
}

// DistroDefaultCodename returns the OpenStack release that the "distro"
// origin pocket provides for series. If the series uses an OpenStack
// codename unknown to this catalog (e.g. a release newer than antelope),
// an error is returned by the caller's subsequent NewRelease call instead
// of here, keeping this lookup a pure data map.
func DistroDefaultCodename(series string) (string, bool) {
	codename, ok := distroDefaultCodename[series]
	return codename, ok
}

// seriesSupportedRange bounds the OpenStack releases Ubuntu Cloud Archive
// backports for a given series: from the distro pocket's release up to the
// last cloud-archive pocket opened for that series.
var seriesSupportedRange = map[string][2]string{
	"bionic": {"queens", "stein"},
	"focal":  {"ussuri", "wallaby"},
	"jammy":  {"yoga", "antelope"},
}

// SupportedRange returns the lowest and highest OpenStack releases this
// tool considers supported for series, used by the Plan Assembler's
// determine_upgrade_target to reject a detected release outside Ubuntu
// Cloud Archive's backport window for that series.
func SupportedRange(series string) (lowest, highest Release, err error) {
	bounds, ok := seriesSupportedRange[series]
	if !ok {
		return Release{}, Release{}, couerrors.NewOutOfSupportRange(series, series)
	}
	lowest, err = NewRelease(bounds[0])
	if err != nil {
		return Release{}, Release{}, err
	}
	highest, err = NewRelease(bounds[1])
	if err != nil {
		return Release{}, Release{}, err
	}
	return lowest, highest, nil
}
