package application

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/canonical/cou/internal/couerrors"
	"github.com/canonical/cou/internal/juju"
	"github.com/canonical/cou/internal/openstack"
)

// charmOriginSetting names the charm config key that selects the APT
// repository, per charm. Charms not listed here default to
// "openstack-origin".
var charmOriginSetting = map[string]string{
	"ovn-central": "source",
	"ovn-chassis": "source",
	"ceph-mon":    "source",
	"ceph-osd":    "source",
}

// Application is the typed, immutable representation of one deployed
// application, built once per Analysis. All derived-attribute methods are
// pure functions of the stored fields; there is no variant subclassing —
// Kind selects behavior in plan.go via a registry-driven switch.
type Application struct {
	Name          string
	Charm         string
	Channel       string
	Origin        string // "ch" | "cs"
	Series        string
	Config        map[string]juju.ConfigValue
	SubordinateTo []string
	CanUpgradeTo  string
	Units         map[string]juju.Unit
	Machines      map[string]juju.Machine
	Kind          Kind

	catalog *openstack.Catalog
}

// New constructs a typed Application from raw controller data, classifying
// it against cat's registry.
func New(raw juju.Application, cat *openstack.Catalog) *Application {
	return &Application{
		Name:          raw.Name,
		Charm:         raw.Charm,
		Channel:       raw.Channel,
		Origin:        raw.Origin,
		Series:        raw.Series,
		Config:        raw.Config,
		SubordinateTo: raw.SubordinateTo,
		CanUpgradeTo:  raw.CanUpgradeTo,
		Units:         raw.Units,
		Machines:      raw.Machines,
		Kind:          ClassifyCharm(cat, raw.Charm),
		catalog:       cat,
	}
}

// OriginSetting returns the charm config key that controls the APT
// repository for this application.
func (a *Application) OriginSetting() string {
	if key, ok := charmOriginSetting[a.Charm]; ok {
		return key
	}
	return "openstack-origin"
}

// OSOrigin returns the current value of the origin setting, if configured.
func (a *Application) OSOrigin() (string, bool) {
	cfg, ok := a.Config[a.OriginSetting()]
	if !ok {
		return "", false
	}
	s, ok := cfg.Value.(string)
	return s, ok
}

var cloudOriginPattern = regexp.MustCompile(`^cloud:[a-z]+-([a-z]+)(-proposed)?$`)

// AptSourceCodename derives the OpenStack release implied by the origin
// setting: "distro" maps through the series' default codename, "cloud:
// <series>-<codename>" is parsed directly, anything else is unresolvable.
func (a *Application) AptSourceCodename() (openstack.Release, error) {
	origin, ok := a.OSOrigin()
	if !ok {
		return openstack.Release{}, couerrors.NewApplicationError(a.Name, "no origin setting configured")
	}
	if origin == "distro" {
		codename, ok := openstack.DistroDefaultCodename(a.Series)
		if !ok {
			return openstack.Release{}, couerrors.NewApplicationError(a.Name, "no distro default codename for series %q", a.Series)
		}
		return openstack.NewRelease(codename)
	}
	if m := cloudOriginPattern.FindStringSubmatch(origin); m != nil {
		return openstack.NewRelease(m[1])
	}
	return openstack.Release{}, couerrors.NewApplicationError(a.Name, "unparsable origin setting %q", origin)
}

// ChannelTrack returns the track portion of the application's channel
// (the part before "/").
func (a *Application) ChannelTrack() string {
	track, _, _ := strings.Cut(a.Channel, "/")
	return track
}

// ChannelCodename resolves the application's channel track to an
// OpenStack release: directly for principal charms (the track *is* the
// codename), through the catalog's auxiliary track table otherwise.
func (a *Application) ChannelCodename() (openstack.Release, error) {
	track := a.ChannelTrack()
	if a.Kind.IsPrincipalLike() {
		return openstack.NewRelease(track)
	}
	codenames := a.catalog.TrackToCodenames(a.Charm, track)
	if len(codenames) == 0 {
		return openstack.Release{}, couerrors.NewInvalidChannel(a.Name, a.Channel)
	}
	best, err := openstack.NewRelease(codenames[0])
	if err != nil {
		return openstack.Release{}, err
	}
	for _, cn := range codenames[1:] {
		r, err := openstack.NewRelease(cn)
		if err != nil {
			return openstack.Release{}, err
		}
		best = openstack.Max(best, r)
	}
	return best, nil
}

// OSReleaseUnits maps each unit name to the release its workload version
// resolves to.
func (a *Application) OSReleaseUnits() (map[string]openstack.Release, error) {
	out := make(map[string]openstack.Release, len(a.Units))
	for name, u := range a.Units {
		r, err := a.catalog.LatestCompatibleRelease(a.Charm, u.WorkloadVersion)
		if err != nil {
			return nil, couerrors.NewApplicationError(a.Name, "unit %q: %v", name, err)
		}
		out[name] = r
	}
	return out, nil
}

// IsVersionless reports whether every unit has an empty workload version.
func (a *Application) IsVersionless() bool {
	for _, u := range a.Units {
		if u.WorkloadVersion != "" {
			return false
		}
	}
	return true
}

// CurrentOSRelease is the application's current OpenStack release:
// min(unit releases) resolved from workload versions for every variant
// except the channel-anchored ones, the channel codename for those.
func (a *Application) CurrentOSRelease() (openstack.Release, error) {
	if a.Kind.DerivesFromWorkloadVersion() {
		releases, err := a.OSReleaseUnits()
		if err != nil {
			return openstack.Release{}, err
		}
		if len(releases) == 0 {
			return openstack.Release{}, couerrors.NewApplicationError(a.Name, "no units to derive current release from")
		}
		var min openstack.Release
		first := true
		for _, r := range releases {
			if first || r.Before(min) {
				min = r
				first = false
			}
		}
		return min, nil
	}
	return a.ChannelCodename()
}

// WaitTimeout and WaitForModel return the post-upgrade idle-wait policy
// for this application's variant.
func (a *Application) WaitTimeout(standard, long time.Duration) time.Duration {
	switch a.Kind {
	case KindCephMon, KindRabbitMQServer, KindKeystone, KindOctavia, KindNovaCompute:
		return long
	default:
		return standard
	}
}

func (a *Application) WaitForModel() bool {
	switch a.Kind {
	case KindCephMon, KindRabbitMQServer, KindKeystone, KindNovaCompute:
		return true
	default:
		return false
	}
}

// PackagesToHold lists packages that must be apt-marked hold during the
// package-upgrade step, to avoid a mid-upgrade restart.
func (a *Application) PackagesToHold() []string {
	if a.Kind == KindMysqlInnodbCluster {
		return []string{"mysql-server-core-8.0"}
	}
	return nil
}

// SortedUnitNames returns unit names in a deterministic order.
func (a *Application) SortedUnitNames() []string {
	names := make([]string, 0, len(a.Units))
	for n := range a.Units {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// CharmNameFromURL extracts the bare charm name from a charm URL, e.g.
// "ch:amd64/jammy/keystone-638" -> "keystone", stripping the trailing
// revision number and any "local:"/"ch:"/"cs:" schema prefix.
func CharmNameFromURL(charmURL string) string {
	last := charmURL
	if idx := strings.LastIndex(charmURL, "/"); idx >= 0 {
		last = charmURL[idx+1:]
	}
	last = revisionSuffix.ReplaceAllString(last, "")
	if idx := strings.LastIndex(last, ":"); idx >= 0 {
		last = last[idx+1:]
	}
	return last
}

var revisionSuffix = regexp.MustCompile(`-[0-9]+$`)

// enableAutoRestartsKey is the charm config option checked by
// checkAutoRestarts.
const enableAutoRestartsKey = "enable-auto-restarts"

func (a *Application) autoRestartsDisabled() bool {
	cfg, ok := a.Config[enableAutoRestartsKey]
	if !ok {
		return false
	}
	b, ok := cfg.Value.(bool)
	return ok && !b
}

func (a *Application) String() string {
	return fmt.Sprintf("%s (%s, kind=%s)", a.Name, a.Charm, a.Kind)
}
