package extension

import (
	"testing"
	"time"
)

func TestManagerConfig(t *testing.T) {
	mc := DefaultConfig().managerConfig()
	if mc.ProtectLastOwner == nil || !*mc.ProtectLastOwner {
		t.Fatal("last-owner protection should be on by default")
	}
	if mc.AssignDefaultRole != "Member" || mc.CacheTTL != 5*time.Minute {
		t.Fatalf("unexpected defaults %+v", mc)
	}

	mc = Config{CacheTTL: time.Minute, DefaultMemberRole: "Guest"}.managerConfig()
	if *mc.ProtectLastOwner {
		t.Error("protection should follow the extension setting")
	}
	if mc.AssignDefaultRole != "Guest" || mc.CacheTTL != time.Minute {
		t.Errorf("unexpected config %+v", mc)
	}
}

func TestNewAppliesOptions(t *testing.T) {
	e := New(WithDisableRoutes(), WithDisableMigrate())
	if !e.config.DisableRoutes || !e.config.DisableMigrate {
		t.Fatal("options not applied")
	}
	if !e.config.SeedSystemRoles {
		t.Error("defaults lost")
	}
	if e.Name() != ExtensionName {
		t.Errorf("name = %q", e.Name())
	}
}
