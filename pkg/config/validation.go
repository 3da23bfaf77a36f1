package config

import (
	"fmt"
	"strings"
)

// Validate checks a RepeaterConfig for internal consistency: required
// fields per Homebrew mode, port ranges, ACL syntax, and that every
// bridge rule names a configured transport. It performs no I/O.
func Validate(cfg *RepeaterConfig) error {
	if cfg.PingInterval <= 0 {
		return fmt.Errorf("ping_interval must be positive")
	}
	if cfg.MaxMissed <= 0 {
		return fmt.Errorf("max_missed must be positive")
	}

	for name, hb := range cfg.Homebrews {
		if !hb.Enabled {
			continue
		}
		if err := validateHomebrew(name, hb); err != nil {
			return err
		}
	}

	for name, m := range cfg.MMDVMs {
		if !m.Enabled {
			continue
		}
		if m.Port == "" {
			return fmt.Errorf("mmdvm %s: port is required", name)
		}
		if m.BaudRate <= 0 {
			return fmt.Errorf("mmdvm %s: baud_rate must be positive", name)
		}
	}

	for bridgeName, rules := range cfg.Bridges {
		for i, rule := range rules {
			if rule.Transport == "" {
				return fmt.Errorf("bridge %s rule %d: transport is required", bridgeName, i)
			}
			if _, hb := cfg.Homebrews[rule.Transport]; !hb {
				if _, mm := cfg.MMDVMs[rule.Transport]; !mm {
					return fmt.Errorf("bridge %s rule %d: transport %s not found", bridgeName, i, rule.Transport)
				}
			}
			if rule.Timeslot != 1 && rule.Timeslot != 2 {
				return fmt.Errorf("bridge %s rule %d: timeslot must be 1 or 2", bridgeName, i)
			}
			switch rule.Action {
			case RouteActionAlways:
				if rule.TalkgroupID == 0 {
					return fmt.Errorf("bridge %s rule %d: talkgroup_id must be positive for an ALWAYS rule", bridgeName, i)
				}
			case RouteActionOnOff:
				if len(rule.ActivateTGs) == 0 {
					return fmt.Errorf("bridge %s rule %d: on must list at least one activating talkgroup", bridgeName, i)
				}
			default:
				return fmt.Errorf("bridge %s rule %d: action must be ALWAYS or ON_OFF", bridgeName, i)
			}
		}
	}

	return nil
}

func validateHomebrew(name string, hb HomebrewConfig) error {
	switch hb.Mode {
	case HomebrewModeMaster:
		if hb.Passphrase == "" {
			return fmt.Errorf("homebrew %s: passphrase is required for MASTER mode", name)
		}
		if hb.MaxPeers <= 0 {
			return fmt.Errorf("homebrew %s: max_peers must be positive", name)
		}
		if hb.ListenPort <= 0 || hb.ListenPort > 65535 {
			return fmt.Errorf("homebrew %s: listen_port must be between 1 and 65535", name)
		}

	case HomebrewModePeer:
		if hb.MasterAddr == "" {
			return fmt.Errorf("homebrew %s: master_addr is required for PEER mode", name)
		}
		if hb.MasterPort <= 0 || hb.MasterPort > 65535 {
			return fmt.Errorf("homebrew %s: master_port must be between 1 and 65535", name)
		}
		if hb.Passphrase == "" {
			return fmt.Errorf("homebrew %s: passphrase is required for PEER mode", name)
		}
		if hb.RadioID == 0 {
			return fmt.Errorf("homebrew %s: radio_id is required for PEER mode", name)
		}

	case HomebrewModeOpenBridge:
		if hb.MasterAddr == "" {
			return fmt.Errorf("homebrew %s: master_addr (target) is required for OPENBRIDGE mode", name)
		}
		if hb.MasterPort <= 0 || hb.MasterPort > 65535 {
			return fmt.Errorf("homebrew %s: master_port must be between 1 and 65535", name)
		}
		if hb.NetworkID == 0 {
			return fmt.Errorf("homebrew %s: network_id is required for OPENBRIDGE mode", name)
		}
		if hb.Passphrase == "" {
			return fmt.Errorf("homebrew %s: passphrase is required for OPENBRIDGE mode", name)
		}

	default:
		return fmt.Errorf("homebrew %s: invalid mode %q (must be MASTER, PEER, or OPENBRIDGE)", name, hb.Mode)
	}

	if hb.UseACL {
		acls := []string{hb.RegACL, hb.SubACL, hb.TG1ACL, hb.TG2ACL, hb.TGACL}
		for _, acl := range acls {
			if acl != "" && !strings.HasPrefix(acl, "PERMIT:") && !strings.HasPrefix(acl, "DENY:") {
				return fmt.Errorf("homebrew %s: ACL must start with PERMIT: or DENY:", name)
			}
		}
	}

	return nil
}
