package workflow

import "github.com/vsinha/scanflow/pkg/application/services/resolve"

// ProcessID identifies one configured scan process
type ProcessID string

const (
	Checkout                ProcessID = "checkout"
	ClusterPicking          ProcessID = "cluster_picking"
	ZonePicking             ProcessID = "zone_picking"
	LocationContentTransfer ProcessID = "location_content_transfer"
	Delivery                ProcessID = "delivery"
	SinglePackTransfer      ProcessID = "single_pack_transfer"
)

// Options are the behavioral switches distinguishing one process from
// another. The state machine itself is shared; only these differ.
type Options struct {
	// Side selects whether location scans narrow on line sources or
	// destinations.
	Side resolve.Side `yaml:"-"`

	// StartByDocument lets the start scan resolve a transfer name
	// before falling back to a location.
	StartByDocument bool `yaml:"start_by_document"`

	// StartByPackage lets the start scan resolve a package, working on
	// the lines sourced from it.
	StartByPackage bool `yaml:"start_by_package"`

	// PrefillQuantity starts the destination screen at the full
	// reserved quantity instead of counting scans up from the first.
	PrefillQuantity bool `yaml:"prefill_quantity"`

	// AllowPackage permits package destinations (picking into a
	// buffer). RequirePackage additionally forbids direct location
	// drops.
	AllowPackage   bool `yaml:"allow_package"`
	RequirePackage bool `yaml:"require_package"`

	// SystemWideUnload widens the unload scope beyond the working
	// location.
	SystemWideUnload bool `yaml:"system_wide_unload"`

	// ZeroCheck asks the operator to confirm emptied source stock.
	ZeroCheck bool `yaml:"zero_check"`

	// AllowedDestBarcode bounds final destinations to the sublocations
	// of the location carrying this barcode. Empty means unrestricted.
	AllowedDestBarcode string `yaml:"allowed_dest_barcode"`
}

// Process binds an id to its options
type Process struct {
	ID      ProcessID
	Options Options
}

// DefaultProcesses returns the six built-in scan processes. Deployments
// override these through configuration.
func DefaultProcesses() map[ProcessID]*Process {
	return map[ProcessID]*Process{
		Checkout: {
			ID: Checkout,
			Options: Options{
				Side:         resolve.SideSource,
				AllowPackage: true,
				ZeroCheck:    true,
			},
		},
		ClusterPicking: {
			ID: ClusterPicking,
			Options: Options{
				Side:             resolve.SideSource,
				StartByDocument:  true,
				AllowPackage:     true,
				RequirePackage:   true,
				SystemWideUnload: true,
				ZeroCheck:        true,
			},
		},
		ZonePicking: {
			ID: ZonePicking,
			Options: Options{
				Side:             resolve.SideSource,
				PrefillQuantity:  true,
				AllowPackage:     true,
				SystemWideUnload: true,
				ZeroCheck:        true,
			},
		},
		LocationContentTransfer: {
			ID: LocationContentTransfer,
			Options: Options{
				Side:            resolve.SideSource,
				PrefillQuantity: true,
				ZeroCheck:       true,
			},
		},
		Delivery: {
			ID: Delivery,
			Options: Options{
				Side:            resolve.SideSource,
				StartByDocument: true,
				PrefillQuantity: true,
			},
		},
		SinglePackTransfer: {
			ID: SinglePackTransfer,
			Options: Options{
				Side:            resolve.SideSource,
				StartByPackage:  true,
				PrefillQuantity: true,
			},
		},
	}
}
