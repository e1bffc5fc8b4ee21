package prof

import (
	"context"
	"strings"
	"testing"
)

func TestStart_Disabled(t *testing.T) {
	stop, err := Start(context.Background(), Options{Enabled: false, ServerAddress: "http://ignored"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	stop()
	stop()
}

func TestStart_EmptyServerAddress(t *testing.T) {
	stop, err := Start(context.Background(), Options{Enabled: true, AppName: "yummigo-web"})
	if err == nil || !strings.Contains(err.Error(), "server address") {
		t.Fatalf("err = %v, want server address error", err)
	}
	if stop == nil {
		t.Fatal("stop func must be non-nil on error")
	}
	stop()
}
