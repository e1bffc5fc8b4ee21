package version

import "testing"

func TestGet_LinkTimeValuesWin(t *testing.T) {
	oldV, oldC := Version, Commit
	t.Cleanup(func() { Version, Commit = oldV, oldC })

	Version, Commit = "1.4.0", "0123456789abcdef0123"
	info := Get()
	if info.App != AppName {
		t.Fatalf("App = %q, want %q", info.App, AppName)
	}
	if info.Version != "1.4.0" || info.Commit != "0123456789abcdef0123" {
		t.Fatalf("Get() = %+v", info)
	}
	if got := info.Short(); got != "1.4.0 (0123456789ab)" {
		t.Fatalf("Short() = %q", got)
	}
}

func TestShort_ShortCommit(t *testing.T) {
	if got := (Info{Version: "dev", Commit: "none"}).Short(); got != "dev (none)" {
		t.Fatalf("Short() = %q", got)
	}
}
