package pipeline

import "net"

// ConnectivityProbe tells an offline host apart from an unreachable server.
type ConnectivityProbe interface {
	Online() bool
}

// ProbeFunc adapts a function to ConnectivityProbe.
type ProbeFunc func() bool

// Online implements ConnectivityProbe.
func (f ProbeFunc) Online() bool { return f() }

// InterfaceProbe reports online when any non-loopback interface is up and has an address.
type InterfaceProbe struct{}

// Online implements ConnectivityProbe.
func (InterfaceProbe) Online() bool {
	ifaces, err := net.Interfaces()
	if err != nil {
		// cannot tell, so do not claim offline
		return true
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err == nil && len(addrs) > 0 {
			return true
		}
	}
	return false
}
