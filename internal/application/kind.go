// Package application implements the typed application model: classifying
// a raw juju.Application into one of the variants described in
// spec.md §4.3, computing its derived attributes, and generating its
// upgrade plan.
//
// Variants are a tagged union, not a class hierarchy: Kind tags an
// Application and a small charm -> Kind registry resolves it, mirroring
// the "tagged-variant dispatch via registry" design note rather than the
// early inheritance-based AppFactory shape found in the original
// implementation.
package application

import "github.com/canonical/cou/internal/openstack"

// Kind tags an Application with the variant whose step-generation rules
// apply to it.
type Kind int

const (
	KindPlain Kind = iota // unclassified; excluded from planning
	KindPrincipal
	KindKeystone
	KindOctavia
	KindNovaCompute
	KindChannelBased
	KindRabbitMQServer
	KindMysqlInnodbCluster
	KindSubordinate
	KindAuxiliarySubordinate
	KindCephMon
	KindOvnPrincipal
	KindOvnSubordinate
)

func (k Kind) String() string {
	switch k {
	case KindPrincipal:
		return "principal"
	case KindKeystone:
		return "keystone"
	case KindOctavia:
		return "octavia"
	case KindNovaCompute:
		return "nova-compute"
	case KindChannelBased:
		return "channel-based"
	case KindRabbitMQServer:
		return "rabbitmq-server"
	case KindMysqlInnodbCluster:
		return "mysql-innodb-cluster"
	case KindSubordinate:
		return "subordinate"
	case KindAuxiliarySubordinate:
		return "auxiliary-subordinate"
	case KindCephMon:
		return "ceph-mon"
	case KindOvnPrincipal:
		return "ovn-principal"
	case KindOvnSubordinate:
		return "ovn-subordinate"
	default:
		return "plain"
	}
}

// charmKindOverrides lists charms whose upgrade behavior doesn't follow
// purely from catalog set membership.
var charmKindOverrides = map[string]Kind{
	"keystone":              KindKeystone,
	"octavia":               KindOctavia,
	"nova-compute":          KindNovaCompute,
	"rabbitmq-server":       KindRabbitMQServer,
	"mysql-innodb-cluster":  KindMysqlInnodbCluster,
	"ceph-mon":              KindCephMon,
	"ovn-central":           KindOvnPrincipal,
	"ovn-chassis":           KindOvnSubordinate,
}

// ClassifyCharm resolves a charm name to its Kind using the registry of
// overrides first, then the catalog's classification sets, finally
// falling back to Principal for any charm the catalog knows a workload
// range for, and Plain otherwise.
func ClassifyCharm(cat *openstack.Catalog, charm string) Kind {
	if kind, ok := charmKindOverrides[charm]; ok {
		return kind
	}
	switch {
	case cat.IsAuxiliarySubordinate(charm):
		return KindAuxiliarySubordinate
	case cat.IsSubordinate(charm):
		return KindSubordinate
	case cat.IsChannelBased(charm):
		return KindChannelBased
	}
	if cat.HasWorkloadRanges(charm) {
		return KindPrincipal
	}
	return KindPlain
}

// IsPrincipalLike reports whether k's channel track *is* an OpenStack
// codename directly (so possible_current_channels/target_channel need no
// auxiliary track lookup). Auxiliary variants (CephMon, RabbitMQServer,
// MysqlInnodbCluster, Ovn*) track is not a codename even though they
// derive current_os_release the same way — see DerivesFromWorkloadVersion.
func (k Kind) IsPrincipalLike() bool {
	switch k {
	case KindPrincipal, KindKeystone, KindOctavia, KindNovaCompute:
		return true
	default:
		return false
	}
}

// DerivesFromWorkloadVersion reports whether k's current_os_release comes
// from resolving unit workload versions against the release catalog
// (true for every variant except the channel-anchored ones: Subordinate,
// OvnSubordinate, AuxiliarySubordinate and ChannelBased, which cannot use
// workload version because either the principal already owns the
// packages, or the charm has no meaningful per-release package at all).
func (k Kind) DerivesFromWorkloadVersion() bool {
	switch k {
	case KindSubordinate, KindOvnSubordinate, KindAuxiliarySubordinate, KindChannelBased:
		return false
	default:
		return true
	}
}

// IsSubordinateFamily reports whether k is one of the subordinate
// variants, which skip the apt_source_codename check in
// _check_application_target because they have no openstack-origin
// config of their own (packages belong to the principal charm).
func (k Kind) IsSubordinateFamily() bool {
	switch k {
	case KindSubordinate, KindOvnSubordinate, KindAuxiliarySubordinate:
		return true
	default:
		return false
	}
}

// HasPackageUpgradeStep reports whether k's pre-upgrade plan includes the
// per-unit apt package upgrade step (subordinates don't own packages).
func (k Kind) HasPackageUpgradeStep() bool {
	switch k {
	case KindSubordinate, KindAuxiliarySubordinate, KindOvnSubordinate:
		return false
	default:
		return true
	}
}

// HasPostUpgradeSteps reports whether k ever emits post-upgrade steps.
func (k Kind) HasPostUpgradeSteps() bool {
	switch k {
	case KindSubordinate, KindOvnSubordinate:
		return false
	default:
		return true
	}
}
