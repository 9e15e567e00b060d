package openstack

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"

	"github.com/juju/errors"

	"github.com/canonical/cou/internal/couerrors"
)

// versionRange is a half-open [lo, hi) workload-version interval mapped to
// a release codename.
type versionRange struct {
	lo, hi   semver
	codename string
}

// Catalog is the process-wide, load-once release catalog: the data an
// implementer is expected to treat as authoritative rather than part of
// this package's Go source, per the CSV asset design.
//
// Catalog is immutable after Load and safe for concurrent read access.
type Catalog struct {
	ranges          map[string][]versionRange // charm -> workload-version ranges
	auxTracks       map[string]map[string]string // charm -> codename -> track
	trackCodenames  map[string]map[string][]string // charm -> track -> codenames
	cephCodename    map[string]map[string]string // charm -> os codename -> ceph codename
	upgradeOrder    []string
	subordinates    map[string]bool
	auxSubordinates map[string]bool
	channelBased    map[string]bool
	cephCharms      map[string]bool
	dataPlaneCharms map[string]bool
	auxiliaryCharms map[string]bool
}

// Load parses the release-table CSV asset from r into a Catalog.
func Load(r io.Reader) (*Catalog, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Annotate(err, "parsing release table")
	}
	if len(records) == 0 {
		return nil, errors.New("release table is empty")
	}
	header := records[0]
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[h] = i
	}
	get := func(row []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	cat := &Catalog{
		ranges:          map[string][]versionRange{},
		auxTracks:       map[string]map[string]string{},
		trackCodenames:  map[string]map[string][]string{},
		cephCodename:    map[string]map[string]string{},
		subordinates:    map[string]bool{},
		auxSubordinates: map[string]bool{},
		channelBased:    map[string]bool{},
		cephCharms:      map[string]bool{},
		dataPlaneCharms: map[string]bool{},
		auxiliaryCharms: map[string]bool{},
	}

	type orderEntry struct {
		charm string
		ord   int
	}
	var orderEntries []orderEntry

	for _, row := range records[1:] {
		kind := get(row, "kind")
		charm := get(row, "charm")
		switch kind {
		case "codename_range", "ovn_range", "ceph_range":
			lo := parseVersion(get(row, "lo"))
			hi := parseVersion(get(row, "hi"))
			codename := get(row, "codename")
			cat.ranges[charm] = append(cat.ranges[charm], versionRange{lo: lo, hi: hi, codename: codename})
		case "aux_track":
			codename := get(row, "codename")
			track := get(row, "track")
			if cat.auxTracks[charm] == nil {
				cat.auxTracks[charm] = map[string]string{}
			}
			cat.auxTracks[charm][codename] = track
			if cat.trackCodenames[charm] == nil {
				cat.trackCodenames[charm] = map[string][]string{}
			}
			cat.trackCodenames[charm][track] = append(cat.trackCodenames[charm][track], codename)
		case "ceph_codename_map":
			osCodename := get(row, "codename")
			cephCodename := get(row, "set")
			if cat.cephCodename[charm] == nil {
				cat.cephCodename[charm] = map[string]string{}
			}
			cat.cephCodename[charm][osCodename] = cephCodename
		case "set_member":
			set := get(row, "set")
			switch set {
			case "subordinate":
				cat.subordinates[charm] = true
			case "auxiliary_subordinate":
				cat.auxSubordinates[charm] = true
			case "channel_based":
				cat.channelBased[charm] = true
			case "ceph":
				cat.cephCharms[charm] = true
			case "data_plane":
				cat.dataPlaneCharms[charm] = true
			case "auxiliary":
				cat.auxiliaryCharms[charm] = true
			case "upgrade_order":
				// membership only; position comes from the "order" rows below
			}
		case "order":
			ord, _ := strconv.Atoi(get(row, "ord"))
			orderEntries = append(orderEntries, orderEntry{charm: charm, ord: ord})
		}
	}

	sort.Slice(orderEntries, func(i, j int) bool { return orderEntries[i].ord < orderEntries[j].ord })
	for _, e := range orderEntries {
		cat.upgradeOrder = append(cat.upgradeOrder, e.charm)
	}

	return cat, nil
}

// CompatibleCodenames returns the set of codenames compatible with the
// given workload version of charm. Returns nil if no range contains the
// version, per the UnknownVersion contract (callers distinguish "empty" as
// an error case themselves since not every caller wants to fail loudly).
func (c *Catalog) CompatibleCodenames(charm, version string) []string {
	v := parseVersion(version)
	ranges, ok := c.ranges[charm]
	if !ok {
		return nil
	}
	var out []string
	for _, rg := range ranges {
		if v.inRange(rg.lo, rg.hi) {
			out = append(out, rg.codename)
		}
	}
	return out
}

// LatestCompatibleRelease resolves the single "best" release for a
// workload version, per get_latest_os_version: the max() of the
// compatible set.
func (c *Catalog) LatestCompatibleRelease(charm, version string) (Release, error) {
	codenames := c.CompatibleCodenames(charm, version)
	if len(codenames) == 0 {
		return Release{}, errors.Annotatef(couerrors.NewUnknownRelease(version), "charm %q version %q", charm, version)
	}
	best, err := NewRelease(codenames[0])
	if err != nil {
		return Release{}, err
	}
	for _, cn := range codenames[1:] {
		r, err := NewRelease(cn)
		if err != nil {
			return Release{}, err
		}
		best = Max(best, r)
	}
	return best, nil
}

// HasWorkloadRanges reports whether charm has any workload-version ranges
// registered, i.e. whether it is a principal application this catalog
// knows how to classify by workload version.
func (c *Catalog) HasWorkloadRanges(charm string) bool {
	_, ok := c.ranges[charm]
	return ok
}

// TrackToCodenames returns the set of OpenStack releases an auxiliary
// charm's channel track corresponds to on the given charm, e.g.
// ("rabbitmq-server", "3.9") -> {yoga, zed, antelope}.
func (c *Catalog) TrackToCodenames(charm, track string) []string {
	return c.trackCodenames[charm][track]
}

// CodenameToTrack returns the channel track an auxiliary charm should be
// set to in order to run the given OpenStack release.
func (c *Catalog) CodenameToTrack(charm, codename string) (string, bool) {
	track, ok := c.auxTracks[charm][codename]
	return track, ok
}

// UpgradeOrder returns the ordered list of principal charm names
// controlling the control-plane group ordering.
func (c *Catalog) UpgradeOrder() []string { return append([]string(nil), c.upgradeOrder...) }

// IsSubordinate, IsAuxiliarySubordinate, IsChannelBased, IsCeph,
// IsDataPlane and IsAuxiliary report charm-set membership.
func (c *Catalog) IsSubordinate(charm string) bool         { return c.subordinates[charm] }
func (c *Catalog) IsAuxiliarySubordinate(charm string) bool { return c.auxSubordinates[charm] }
func (c *Catalog) IsChannelBased(charm string) bool         { return c.channelBased[charm] }
func (c *Catalog) IsCeph(charm string) bool                 { return c.cephCharms[charm] }
func (c *Catalog) IsDataPlane(charm string) bool            { return c.dataPlaneCharms[charm] }
func (c *Catalog) IsAuxiliary(charm string) bool            { return c.auxiliaryCharms[charm] }

// OpenStackToCephRelease translates an OpenStack release codename to the
// Ceph release that should back it on the given ceph charm, used for the
// require-osd-release pre/post-upgrade steps.
func (c *Catalog) OpenStackToCephRelease(charm, osCodename string) (string, bool) {
	cephCodename, ok := c.cephCodename[charm][osCodename]
	return cephCodename, ok
}
