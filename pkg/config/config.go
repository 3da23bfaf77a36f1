// Package config defines the plain data structures describing a running
// repeater bridge: a system's identity and ACLs, each configured
// transport (Homebrew master/peer/OpenBridge, MMDVM serial), and the
// conference-bridge routing rules between them. These structs carry no
// parsing methods and do no file or environment I/O -- unlike the
// teacher's config package, which reads YAML and environment variables
// via github.com/spf13/viper directly inside this package. That parsing
// responsibility moves to cmd/dmrbridged, the only place that turns a
// YAML document into values of these types; keeping it out of here lets
// pkg/bridge and its tests construct configuration by hand, the way the
// teacher's own tests build SystemConfig/BridgeRule literals directly
// without touching a file.
package config

// RepeaterConfig is the top-level configuration for one dmrbridged
// process: identity, global ACL defaults, the set of transports it
// speaks, and the bridging rules tying them together.
type RepeaterConfig struct {
	Name        string
	Description string

	PingInterval int // seconds between Homebrew keepalive pings
	MaxMissed    int // missed pings before a peer is dropped

	UseACL              bool
	RegACL              string
	SubACL              string
	TG1ACL              string
	TG2ACL              string
	PrivateCallsEnabled bool

	Homebrews map[string]HomebrewConfig
	MMDVMs    map[string]MMDVMConfig
	Bridges   map[string][]BridgeRule

	Logging LoggingConfig
	Metrics MetricsConfig
}

// HomebrewMode selects which side of the HBv3/OpenBridge handshake a
// configured Homebrew transport plays.
type HomebrewMode string

const (
	HomebrewModeMaster     HomebrewMode = "MASTER"
	HomebrewModePeer       HomebrewMode = "PEER"
	HomebrewModeOpenBridge HomebrewMode = "OPENBRIDGE"
)

// HomebrewConfig configures one Homebrew/DMR+ IPSC-style UDP transport,
// grounded on the teacher's SystemConfig but narrowed to the fields the
// protocol state machine in pkg/homebrew actually consumes.
type HomebrewConfig struct {
	Name    string // key into RepeaterConfig.Homebrews; identifies this transport to bridge rules
	Mode    HomebrewMode
	Enabled bool

	ListenAddr string // MASTER: bind address; PEER/OPENBRIDGE: unused
	ListenPort int

	MasterAddr string // PEER/OPENBRIDGE: remote master/bridge address
	MasterPort int

	Passphrase string // shared secret for RPTK/HMAC derivation

	Callsign    string
	RadioID     uint32
	RXFreqHz    uint32
	TXFreqHz    uint32
	TXPowerW    uint8
	ColorCode   uint8
	Latitude    float64
	Longitude   float64
	HeightM     uint16
	Location    string
	Description string
	URL         string
	SoftwareID  string
	PackageID   string

	NetworkID uint32 // OPENBRIDGE only
	BothSlots bool   // OPENBRIDGE only: bridge both timeslots over one stream

	MaxPeers            int // MASTER only
	PrivateCallsEnabled bool

	GroupHangtimeSec int

	UseACL bool
	RegACL string
	SubACL string
	TG1ACL string
	TG2ACL string
	TGACL  string // OPENBRIDGE: single combined talkgroup ACL
}

// MMDVMConfig configures one MMDVM-compatible serial modem transport.
type MMDVMConfig struct {
	Name    string // key into RepeaterConfig.MMDVMs; identifies this transport to bridge rules
	Enabled bool

	Port     string // e.g. /dev/ttyACM0
	BaudRate int

	RXFreqHz  uint32
	TXFreqHz  uint32
	ColorCode uint8

	RXLevel  uint8
	TXLevel  uint8
	TXDelay  uint8
	RXOffset int16
	TXOffset int16

	DuplexBypass bool // single radio, one timeslot at a time
}

// RouteAction distinguishes BridgeRule's "always-on static route" form
// from the teacher's talkgroup-activated "on/off" conference form.
type RouteAction string

const (
	RouteActionAlways RouteAction = "ALWAYS"
	RouteActionOnOff  RouteAction = "ON_OFF"
)

// BridgeRule is one routing rule within a named conference bridge,
// grounded on the teacher's BridgeRule but adapted to the transport-
// agnostic RoutingPolicy model described in SPEC_FULL.md 6: a rule
// names the transport/timeslot pair it applies to, and either routes
// unconditionally or is toggled on/off by specific activation and
// deactivation talkgroups.
type BridgeRule struct {
	Transport string // key into RepeaterConfig.Homebrews or .MMDVMs
	Timeslot  uint8  // 1 or 2
	Action    RouteAction

	TalkgroupID uint32 // ALWAYS: the single talkgroup routed

	ActivateTGs   []uint32 // ON_OFF: talkgroups that open the bridge
	DeactivateTGs []uint32 // ON_OFF: talkgroups that close it
	TimeoutMin    int      // ON_OFF: auto-deactivate this many minutes after activation

	Active bool // current runtime state for ON_OFF rules; ignored for ALWAYS
}

// LoggingConfig configures pkg/logger's output.
type LoggingConfig struct {
	Level  string
	Format string
	File   string
}

// MetricsConfig toggles the in-process counters in pkg/metrics.
type MetricsConfig struct {
	Enabled bool
}

// Defaults returns a RepeaterConfig populated with the teacher's
// default values (ping interval, ACL defaults, logging level) for
// callers that want a sane baseline before overlaying a parsed file.
func Defaults() RepeaterConfig {
	return RepeaterConfig{
		Name:                "dmrcore",
		Description:         "Go DMR repeater bridge",
		PingInterval:        5,
		MaxMissed:           3,
		UseACL:              true,
		RegACL:              "PERMIT:ALL",
		SubACL:              "DENY:1",
		TG1ACL:              "PERMIT:ALL",
		TG2ACL:              "PERMIT:ALL",
		PrivateCallsEnabled: false,
		Homebrews:           map[string]HomebrewConfig{},
		MMDVMs:              map[string]MMDVMConfig{},
		Bridges:             map[string][]BridgeRule{},
		Logging:             LoggingConfig{Level: "info", Format: "text"},
		Metrics:             MetricsConfig{Enabled: true},
	}
}
