package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "gateway", "spmgw":
		return gatewayTemplate, nil
	case "client", "spmctl":
		return clientTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const gatewayTemplate = `name = "spmgw"
listen = ":8650"
cors_origins = ["http://localhost:3000"]
rate_limit = 20
rate_burst = 40
shutdown_timeout = "5s"
# bearer token for PUT/POST routes; empty leaves them open
auth_token = ""

[instrument]
host = "127.0.0.1"
port = 6501
connect_timeout = "5s"
read_timeout = "10s"
write_timeout = "10s"
status_placement = "leading"
max_body_bytes = 268435456
always_await_response = false

[redial]
initial_delay = "250ms"
multiplier = 2.0
max_delay = "5s"
max_attempts = 5
jitter = true
`

const clientTemplate = `host = "127.0.0.1"
port = 6501
tcplog_port = 6590
connect_timeout = "5s"
read_timeout = "10s"
write_timeout = "10s"
status_placement = "leading"
always_await_response = false
log_level = "info"
`
