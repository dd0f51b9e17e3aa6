package util

import (
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 30)
	for _, line := range strings.Split(WrapString(text), "\n") {
		if len(line) > Wrap {
			t.Errorf("Line exceeds %d characters: %q", Wrap, line)
		}
	}
	if got := WrapString("short help"); got != "short help" {
		t.Errorf("Expected short text unchanged, got %q", got)
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" hits, ,errors,")
	if want := []string{"hits", "errors"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if got := SplitList(""); len(got) != 0 {
		t.Errorf("Expected no entries, got %v", got)
	}
}

func TestConnectors(t *testing.T) {
	defer viper.Reset()

	for _, name := range []string{"tcp", "unix"} {
		viper.Set("transport", name)
		server, err := GetServerConnector()
		if err != nil || server.GetName() != name {
			t.Errorf("Expected %s server connector, got %v (%v)", name, server, err)
		}
		client, err := GetClientConnector()
		if err != nil || client.GetName() != name {
			t.Errorf("Expected %s client connector, got %v (%v)", name, client, err)
		}
	}

	viper.Set("transport", "http")
	if _, err := GetClientConnector(); err == nil {
		t.Error("Expected an error for an unknown transport")
	}
}

func TestGetClientConfig(t *testing.T) {
	defer viper.Reset()

	viper.Set("endpoint", "localhost:9800")
	viper.Set("timeout", 3)
	viper.Set("transport-read-buffer", 64)
	viper.Set("log-level", "warn")

	conf := GetClientConfig()
	if err := conf.Validate(); err != nil {
		t.Fatalf("Expected a valid config, got %v", err)
	}
	if conf.RequestTimeoutMillis != 3000 || conf.DialTimeoutMillis != 3000 {
		t.Errorf("Expected 3000 ms timeouts, got %d/%d", conf.RequestTimeoutMillis, conf.DialTimeoutMillis)
	}
	if conf.Transport.ReadBufferSize != 64*1024 {
		t.Errorf("Expected 64 KB read buffer, got %d", conf.Transport.ReadBufferSize)
	}
}
