package main

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/dbehnke/dmrcore/pkg/config"
)

// yamlConfig mirrors config.RepeaterConfig's shape with the
// mapstructure tags viper needs; pkg/config itself carries none; see
// its package doc comment. loadConfig is the only place a YAML
// document becomes a config.RepeaterConfig.
type yamlConfig struct {
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`

	PingInterval int `mapstructure:"ping_interval"`
	MaxMissed    int `mapstructure:"max_missed"`

	UseACL              bool   `mapstructure:"use_acl"`
	RegACL              string `mapstructure:"reg_acl"`
	SubACL              string `mapstructure:"sub_acl"`
	TG1ACL              string `mapstructure:"tg1_acl"`
	TG2ACL              string `mapstructure:"tg2_acl"`
	PrivateCallsEnabled bool   `mapstructure:"private_calls_enabled"`

	Homebrews map[string]yamlHomebrewConfig `mapstructure:"homebrews"`
	MMDVMs    map[string]yamlMMDVMConfig    `mapstructure:"mmdvms"`
	Bridges   map[string][]yamlBridgeRule   `mapstructure:"bridges"`

	Logging yamlLoggingConfig `mapstructure:"logging"`
	Metrics yamlMetricsConfig `mapstructure:"metrics"`
}

type yamlHomebrewConfig struct {
	Mode    string `mapstructure:"mode"`
	Enabled bool   `mapstructure:"enabled"`

	ListenAddr string `mapstructure:"listen_addr"`
	ListenPort int    `mapstructure:"listen_port"`

	MasterAddr string `mapstructure:"master_addr"`
	MasterPort int    `mapstructure:"master_port"`

	Passphrase string `mapstructure:"passphrase"`

	Callsign    string  `mapstructure:"callsign"`
	RadioID     uint32  `mapstructure:"radio_id"`
	RXFreqHz    uint32  `mapstructure:"rx_freq_hz"`
	TXFreqHz    uint32  `mapstructure:"tx_freq_hz"`
	TXPowerW    uint8   `mapstructure:"tx_power_w"`
	ColorCode   uint8   `mapstructure:"color_code"`
	Latitude    float64 `mapstructure:"latitude"`
	Longitude   float64 `mapstructure:"longitude"`
	HeightM     uint16  `mapstructure:"height_m"`
	Location    string  `mapstructure:"location"`
	Description string  `mapstructure:"description"`
	URL         string  `mapstructure:"url"`
	SoftwareID  string  `mapstructure:"software_id"`
	PackageID   string  `mapstructure:"package_id"`

	NetworkID uint32 `mapstructure:"network_id"`
	BothSlots bool   `mapstructure:"both_slots"`

	MaxPeers            int  `mapstructure:"max_peers"`
	PrivateCallsEnabled bool `mapstructure:"private_calls_enabled"`

	GroupHangtimeSec int `mapstructure:"group_hangtime_sec"`

	UseACL bool   `mapstructure:"use_acl"`
	RegACL string `mapstructure:"reg_acl"`
	SubACL string `mapstructure:"sub_acl"`
	TG1ACL string `mapstructure:"tg1_acl"`
	TG2ACL string `mapstructure:"tg2_acl"`
	TGACL  string `mapstructure:"tg_acl"`
}

type yamlMMDVMConfig struct {
	Enabled bool `mapstructure:"enabled"`

	Port     string `mapstructure:"port"`
	BaudRate int    `mapstructure:"baud_rate"`

	RXFreqHz  uint32 `mapstructure:"rx_freq_hz"`
	TXFreqHz  uint32 `mapstructure:"tx_freq_hz"`
	ColorCode uint8  `mapstructure:"color_code"`

	RXLevel  uint8 `mapstructure:"rx_level"`
	TXLevel  uint8 `mapstructure:"tx_level"`
	TXDelay  uint8 `mapstructure:"tx_delay"`
	RXOffset int16 `mapstructure:"rx_offset"`
	TXOffset int16 `mapstructure:"tx_offset"`

	DuplexBypass bool `mapstructure:"duplex_bypass"`
}

type yamlBridgeRule struct {
	Transport string `mapstructure:"transport"`
	Timeslot  uint8  `mapstructure:"timeslot"`
	Action    string `mapstructure:"action"`

	TalkgroupID uint32 `mapstructure:"talkgroup_id"`

	ActivateTGs   []uint32 `mapstructure:"activate_tgs"`
	DeactivateTGs []uint32 `mapstructure:"deactivate_tgs"`
	TimeoutMin    int      `mapstructure:"timeout_min"`
}

type yamlLoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

type yamlMetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// loadConfig reads configFile (or the default search path, if empty)
// via viper and converts it into a config.RepeaterConfig, copying each
// transport's map key into its Name field -- the map key is the only
// place that name is spelled in the YAML document, but pkg/homebrew and
// pkg/mmdvm both need it on the struct itself to implement
// bridge.Transport's Name method.
func loadConfig(configFile string) (config.RepeaterConfig, error) {
	setConfigDefaults()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath("/etc/dmrbridged")
	}

	viper.SetEnvPrefix("DMRBRIDGE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// no config file is fine; defaults plus env vars apply
		} else if os.IsNotExist(err) {
			// explicitly named file missing is also fine
		} else {
			return config.RepeaterConfig{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var y yamlConfig
	if err := viper.Unmarshal(&y); err != nil {
		return config.RepeaterConfig{}, fmt.Errorf("unmarshal config: %w", err)
	}

	return toRepeaterConfig(y), nil
}

func setConfigDefaults() {
	viper.SetDefault("ping_interval", 5)
	viper.SetDefault("max_missed", 3)
	viper.SetDefault("use_acl", true)
	viper.SetDefault("reg_acl", "PERMIT:ALL")
	viper.SetDefault("sub_acl", "DENY:1")
	viper.SetDefault("tg1_acl", "PERMIT:ALL")
	viper.SetDefault("tg2_acl", "PERMIT:ALL")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("metrics.enabled", true)
}

func toRepeaterConfig(y yamlConfig) config.RepeaterConfig {
	cfg := config.RepeaterConfig{
		Name:                y.Name,
		Description:         y.Description,
		PingInterval:        y.PingInterval,
		MaxMissed:           y.MaxMissed,
		UseACL:              y.UseACL,
		RegACL:              y.RegACL,
		SubACL:              y.SubACL,
		TG1ACL:              y.TG1ACL,
		TG2ACL:              y.TG2ACL,
		PrivateCallsEnabled: y.PrivateCallsEnabled,
		Homebrews:           make(map[string]config.HomebrewConfig, len(y.Homebrews)),
		MMDVMs:              make(map[string]config.MMDVMConfig, len(y.MMDVMs)),
		Bridges:             make(map[string][]config.BridgeRule, len(y.Bridges)),
		Logging:             config.LoggingConfig{Level: y.Logging.Level, Format: y.Logging.Format, File: y.Logging.File},
		Metrics:             config.MetricsConfig{Enabled: y.Metrics.Enabled},
	}

	for name, h := range y.Homebrews {
		cfg.Homebrews[name] = config.HomebrewConfig{
			Name:                name,
			Mode:                config.HomebrewMode(h.Mode),
			Enabled:             h.Enabled,
			ListenAddr:          h.ListenAddr,
			ListenPort:          h.ListenPort,
			MasterAddr:          h.MasterAddr,
			MasterPort:          h.MasterPort,
			Passphrase:          h.Passphrase,
			Callsign:            h.Callsign,
			RadioID:             h.RadioID,
			RXFreqHz:            h.RXFreqHz,
			TXFreqHz:            h.TXFreqHz,
			TXPowerW:            h.TXPowerW,
			ColorCode:           h.ColorCode,
			Latitude:            h.Latitude,
			Longitude:           h.Longitude,
			HeightM:             h.HeightM,
			Location:            h.Location,
			Description:         h.Description,
			URL:                 h.URL,
			SoftwareID:          h.SoftwareID,
			PackageID:           h.PackageID,
			NetworkID:           h.NetworkID,
			BothSlots:           h.BothSlots,
			MaxPeers:            h.MaxPeers,
			PrivateCallsEnabled: h.PrivateCallsEnabled,
			GroupHangtimeSec:    h.GroupHangtimeSec,
			UseACL:              h.UseACL,
			RegACL:              h.RegACL,
			SubACL:              h.SubACL,
			TG1ACL:              h.TG1ACL,
			TG2ACL:              h.TG2ACL,
			TGACL:               h.TGACL,
		}
	}

	for name, m := range y.MMDVMs {
		cfg.MMDVMs[name] = config.MMDVMConfig{
			Name:         name,
			Enabled:      m.Enabled,
			Port:         m.Port,
			BaudRate:     m.BaudRate,
			RXFreqHz:     m.RXFreqHz,
			TXFreqHz:     m.TXFreqHz,
			ColorCode:    m.ColorCode,
			RXLevel:      m.RXLevel,
			TXLevel:      m.TXLevel,
			TXDelay:      m.TXDelay,
			RXOffset:     m.RXOffset,
			TXOffset:     m.TXOffset,
			DuplexBypass: m.DuplexBypass,
		}
	}

	for conference, rules := range y.Bridges {
		out := make([]config.BridgeRule, 0, len(rules))
		for _, r := range rules {
			out = append(out, config.BridgeRule{
				Transport:     r.Transport,
				Timeslot:      r.Timeslot,
				Action:        config.RouteAction(r.Action),
				TalkgroupID:   r.TalkgroupID,
				ActivateTGs:   r.ActivateTGs,
				DeactivateTGs: r.DeactivateTGs,
				TimeoutMin:    r.TimeoutMin,
			})
		}
		cfg.Bridges[conference] = out
	}

	return cfg
}
