package cache

import (
	"fmt"
	"net"
	"os"
	"strings"
)

const valkeyPort = "6379"

// valkeyAddrs discovers the cluster from an explicit node list
// (VALKEY_NODES) or by resolving a DNS service name (VALKEY_SERVICE).
func valkeyAddrs() ([]string, error) {
	if nodes := os.Getenv("VALKEY_NODES"); nodes != "" {
		return strings.Split(nodes, ","), nil
	}

	svc := os.Getenv("VALKEY_SERVICE")
	if svc == "" {
		return nil, fmt.Errorf("no valkey discovery env provided (VALKEY_NODES or VALKEY_SERVICE)")
	}

	ips, err := net.LookupHost(svc)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", svc, err)
	}

	addrs := make([]string, 0, len(ips))
	for _, ip := range ips {
		addrs = append(addrs, net.JoinHostPort(ip, valkeyPort))
	}
	return addrs, nil
}
