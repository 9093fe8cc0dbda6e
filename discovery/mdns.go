// Package discovery advertises the game server on the local network so
// clients can find it without an address.
package discovery

import (
	"fmt"
	"net"
	"os"

	"github.com/hashicorp/mdns"
	"github.com/rs/zerolog/log"
)

const ServiceType = "_imagine._tcp"

// Advertise publishes the server over mDNS until the returned server is shut
// down. An empty instance falls back to the hostname.
func Advertise(instance string, port int) (*mdns.Server, error) {
	service, err := NewService(instance, port, nil)
	if err != nil {
		return nil, err
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}

	log.Info().Str("instance", service.Instance).Int("port", port).Msg("advertising over mDNS")
	return server, nil
}

// NewService describes the server. Nil ips are resolved from the hostname.
func NewService(instance string, port int, ips []net.IP) (*mdns.MDNSService, error) {
	if instance == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("could not get hostname: %w", err)
		}
		instance = host
	}

	service, err := mdns.NewMDNSService(instance, ServiceType, "", "", port, ips, []string{"imagine"})
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}
	return service, nil
}

// Browse reports every advertised server address to found until the lookup
// times out.
func Browse(found func(addr string)) error {
	entries := make(chan *mdns.ServiceEntry, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range entries {
			if e.AddrV4 == nil || e.Port == 0 {
				continue
			}
			found(fmt.Sprintf("%s:%d", e.AddrV4.String(), e.Port))
		}
	}()

	err := mdns.Lookup(ServiceType, entries)
	close(entries)
	<-done
	return err
}
