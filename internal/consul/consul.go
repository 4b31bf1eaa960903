package consul

import (
	"fmt"
	"os"
	"strconv"

	consulapi "github.com/hashicorp/consul/api"
)

// NewClient connects to the consul agent named by CONSUL_HTTP_ADDR (or the
// library default when unset).
func NewClient() (*consulapi.Client, error) {
	client, err := consulapi.NewClient(consulapi.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}
	return client, nil
}

// RegisterService registers this instance with consul along with an HTTP
// health check on /ping.
func RegisterService(client *consulapi.Client, serviceName string) error {
	address := os.Getenv("SERVICE_ADDRESS")
	portStr := os.Getenv("SERVICE_PORT")
	if address == "" || portStr == "" {
		return fmt.Errorf("service address env vars are not set")
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid SERVICE_PORT: %w", err)
	}

	registration := &consulapi.AgentServiceRegistration{
		ID:      serviceName + "-" + address,
		Name:    serviceName,
		Address: address,
		Port:    port,
		Check: &consulapi.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/ping", address, port),
			Interval:                       "10s",
			Timeout:                        "5s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}

	if err := client.Agent().ServiceRegister(registration); err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}
	return nil
}
