package main

import (
	"testing"

	"laserctl/internal/config"
)

func TestConnectionTarget(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.ConnectionConfig
		want string
	}{
		{name: "serial", cfg: config.ConnectionConfig{Connector: config.ConnectorSerial, SerialPort: "/dev/ttyUSB0", SerialBaud: 115200}, want: "/dev/ttyUSB0@115200"},
		{name: "mock", cfg: config.ConnectionConfig{Connector: config.ConnectorMock}, want: "mock"},
		{name: "unknown", cfg: config.ConnectionConfig{Connector: "usb"}, want: ""},
	}

	for _, tc := range tests {
		if got := connectionTarget(tc.cfg); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestNewTransportSelectsConnector(t *testing.T) {
	tr, err := newTransport(config.ConnectionConfig{Connector: config.ConnectorMock})
	if err != nil {
		t.Fatalf("mock connector: %v", err)
	}
	if tr.Name() != "mock" {
		t.Fatalf("expected mock transport, got %q", tr.Name())
	}

	tr, err = newTransport(config.ConnectionConfig{Connector: config.ConnectorSerial, SerialPort: "/dev/ttyUSB0", SerialBaud: 115200})
	if err != nil {
		t.Fatalf("serial connector: %v", err)
	}
	if tr.Name() != "serial" {
		t.Fatalf("expected serial transport, got %q", tr.Name())
	}

	if _, err := newTransport(config.ConnectionConfig{Connector: "usb"}); err == nil {
		t.Fatalf("expected error for unknown connector")
	}
}
