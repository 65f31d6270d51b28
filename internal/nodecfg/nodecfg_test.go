package nodecfg

import "testing"

func TestValidate_RequiresDataDir(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing data_dir")
	}
	cfg.DataDir = "/tmp/chaind"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidate_RejectsBadListenPort(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "/tmp/chaind"
	cfg.ListenPort = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for listen_port 0")
	}
	cfg.ListenPort = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for listen_port > 65535")
	}
}

func TestValidate_RequiresMinerAddressWhenMining(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "/tmp/chaind"
	cfg.MineEnabled = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for enabled mining without a miner address")
	}
}
