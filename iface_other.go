//go:build !windows

package socketshare

import "net"

// enumerateAdapters ports GetNetworkIPAddressesArray's adapter walk
// (original_source windows/source/SocketDataSharing.cpp
// GetNetworkIPAddressesArray/_SetNetworkIPAddressesFromIPAdapter) onto the
// standard library's portable net.Interfaces()/Addrs(), since
// GetAdaptersAddresses and its DAD-preferred state are Windows-specific.
// Every non-loopback unicast address is treated as preferred: the
// standard library exposes no portable duplicate-address-detection state
// to filter on.
func enumerateAdapters() ([]NetworkIPAddresses, *Error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, newSystemError(err)
	}

	var result []NetworkIPAddresses
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		var entry NetworkIPAddresses
		var hasAddr bool
		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			ones, _ := ipNet.Mask.Size()

			if v4 := ipNet.IP.To4(); v4 != nil {
				entry.V4 = IPv4Address{Octets: [4]byte{v4[0], v4[1], v4[2], v4[3]}}
				entry.V4PrefixLength = uint8(ones)
				hasAddr = true
				continue
			}

			v6 := ipNet.IP.To16()
			if v6 == nil {
				continue
			}
			var natural [8]uint16
			for i := range natural {
				natural[i] = uint16(v6[2*i])<<8 | uint16(v6[2*i+1])
			}
			entry.V6 = IPv6Address{Hextets: natural}.ToNetworkBO()
			entry.V6PrefixLength = uint8(ones)
			hasAddr = true
		}

		if hasAddr {
			result = append(result, entry)
		}
	}

	return result, nil
}
