package config

import "testing"

func TestValidateAcceptsDefaults(t *testing.T) {
	c := Config{Port: 6379, LogLevel: "info", AOFFile: "appendonly.aof", AppendFsync: "everysec"}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidateRejectsBadPort(t *testing.T) {
	c := Config{Port: 0, LogLevel: "info", AOFFile: "a", AppendFsync: "no"}
	if err := c.Validate(); err == nil {
		t.Fatal("Validate() accepted port 0")
	}
	c.Port = 70000
	if err := c.Validate(); err == nil {
		t.Fatal("Validate() accepted port 70000")
	}
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	c := Config{Port: 6379, LogLevel: "verbose", AOFFile: "a", AppendFsync: "no"}
	if err := c.Validate(); err == nil {
		t.Fatal("Validate() accepted an unknown loglevel")
	}
}

func TestValidateRejectsBadFsyncPolicy(t *testing.T) {
	c := Config{Port: 6379, LogLevel: "info", AOFFile: "a", AppendFsync: "sometimes"}
	if err := c.Validate(); err == nil {
		t.Fatal("Validate() accepted an unknown appendfsync policy")
	}
}

func TestValidateRejectsEmptyAOFFile(t *testing.T) {
	c := Config{Port: 6379, LogLevel: "info", AOFFile: "", AppendFsync: "no"}
	if err := c.Validate(); err == nil {
		t.Fatal("Validate() accepted an empty aof-file")
	}
}
