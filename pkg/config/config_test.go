package config

import "testing"

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.PingInterval != 5 {
		t.Errorf("expected PingInterval default 5, got %d", cfg.PingInterval)
	}
	if !cfg.UseACL {
		t.Errorf("expected UseACL default true")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected Logging.Level default info, got %q", cfg.Logging.Level)
	}
	if !cfg.Metrics.Enabled {
		t.Errorf("expected Metrics.Enabled default true")
	}
	if err := Validate(&cfg); err != nil {
		t.Fatalf("expected defaults to validate cleanly, got: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	t.Run("invalid ping_interval", func(t *testing.T) {
		cfg := &RepeaterConfig{PingInterval: 0, MaxMissed: 1}
		if err := Validate(cfg); err == nil {
			t.Fatal("expected error for non-positive ping_interval")
		}
	})

	t.Run("peer homebrew missing master_addr", func(t *testing.T) {
		cfg := &RepeaterConfig{
			PingInterval: 1, MaxMissed: 1,
			Homebrews: map[string]HomebrewConfig{
				"peer1": {Enabled: true, Mode: HomebrewModePeer, MasterPort: 62031, Passphrase: "x", RadioID: 1},
			},
		}
		if err := Validate(cfg); err == nil {
			t.Fatal("expected error for PEER without master_addr")
		}
	})

	t.Run("invalid ACL prefix", func(t *testing.T) {
		cfg := &RepeaterConfig{
			PingInterval: 1, MaxMissed: 1,
			Homebrews: map[string]HomebrewConfig{
				"m1": {Enabled: true, Mode: HomebrewModeMaster, ListenPort: 62031, Passphrase: "x", MaxPeers: 1, UseACL: true, RegACL: "ALLOW:1"},
			},
		}
		if err := Validate(cfg); err == nil {
			t.Fatal("expected error for ACL not starting with PERMIT: or DENY:")
		}
	})

	t.Run("bridge references unknown transport", func(t *testing.T) {
		cfg := &RepeaterConfig{
			PingInterval: 1, MaxMissed: 1,
			Homebrews: map[string]HomebrewConfig{
				"m1": {Enabled: true, Mode: HomebrewModeMaster, ListenPort: 1234, Passphrase: "x", MaxPeers: 1},
			},
			Bridges: map[string][]BridgeRule{
				"b1": {{Transport: "nope", Action: RouteActionAlways, TalkgroupID: 3100, Timeslot: 1}},
			},
		}
		if err := Validate(cfg); err == nil {
			t.Fatal("expected error for bridge transport not found")
		}
	})

	t.Run("on_off rule missing activation list", func(t *testing.T) {
		cfg := &RepeaterConfig{
			PingInterval: 1, MaxMissed: 1,
			MMDVMs: map[string]MMDVMConfig{
				"radio1": {Enabled: true, Port: "/dev/ttyACM0", BaudRate: 115200},
			},
			Bridges: map[string][]BridgeRule{
				"b1": {{Transport: "radio1", Action: RouteActionOnOff, Timeslot: 2}},
			},
		}
		if err := Validate(cfg); err == nil {
			t.Fatal("expected error for ON_OFF rule without activation talkgroups")
		}
	})
}
