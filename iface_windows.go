//go:build windows

package socketshare

import (
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/migenn/socketshare/internal/buffer"
)

// GAA_FLAG_SKIP_* values (winsock2 iptypes.h). The original combined them
// with bitwise AND, which collapses four distinct single-bit flags to
// zero; this reimplementation combines them with OR, which is what the
// original almost certainly meant (spec.md §4 supplemented-features note).
const (
	gaaFlagSkipAnycast      = 0x0002
	gaaFlagSkipMulticast    = 0x0004
	gaaFlagSkipDNSServer    = 0x0008
	gaaFlagSkipFriendlyName = 0x0020

	adapterEnumFlags = gaaFlagSkipAnycast | gaaFlagSkipMulticast | gaaFlagSkipDNSServer | gaaFlagSkipFriendlyName

	// ifTypeSoftwareLoopback is IANA ifType 24, the value the original
	// checked to skip loopback adapters.
	ifTypeSoftwareLoopback = 24

	// ipDadStatePreferred is IPDADSTATE's "Preferred" member.
	ipDadStatePreferred = 4
)

// adapterBuf is the process-static, reused scratch buffer
// GetNetworkIPAddressesArray's enumeration loop grows into (spec.md §5:
// enumeration is an infrequent, single-threaded operation, so one
// process-wide buffer amortizes the allocation across calls instead of
// discarding and reallocating every time).
var adapterBuf buffer.Buffer

// enumerateAdapters ports _GetIPAdapters / GetNetworkIPAddressesArray /
// _SetNetworkIPAddressesFromIPAdapter (original_source
// windows/source/SocketDataSharing.cpp) onto golang.org/x/sys/windows,
// growing adapterBuf via buffer.GrowFor until GetAdaptersAddresses accepts
// it (spec.md §4.2, §4.4).
func enumerateAdapters() ([]NetworkIPAddresses, *Error) {
	size := uint32(16384)
	var callErr error

	_ = buffer.GrowFor(&adapterBuf, int(size), func(err error) (int, bool) {
		if err != windows.ERROR_BUFFER_OVERFLOW {
			return 0, false
		}
		return int(size), true
	}, func() error {
		size = uint32(adapterBuf.Size())
		adapters := (*windows.IpAdapterAddresses)(unsafe.Pointer(&adapterBuf.Data()[0]))
		callErr = windows.GetAdaptersAddresses(windows.AF_UNSPEC, adapterEnumFlags, 0, adapters, &size)
		return callErr
	})

	if callErr != nil {
		if callErr == windows.ERROR_NO_DATA || callErr == windows.ERROR_ADDRESS_NOT_ASSOCIATED {
			return nil, nil
		}
		return nil, classifyAdaptersError(callErr)
	}

	var result []NetworkIPAddresses
	for adapter := (*windows.IpAdapterAddresses)(unsafe.Pointer(&adapterBuf.Data()[0])); adapter != nil; adapter = adapter.Next {
		if adapter.IfType == ifTypeSoftwareLoopback {
			continue
		}

		entry, hasAddr := collectAdapterAddresses(adapter)
		if hasAddr {
			result = append(result, entry)
		}
	}

	return result, nil
}

// collectAdapterAddresses walks one adapter's unicast address list, keeping
// only DAD-preferred addresses and at most one v4 and one v6 (a later
// preferred address overwrites an earlier one, matching the original).
func collectAdapterAddresses(adapter *windows.IpAdapterAddresses) (NetworkIPAddresses, bool) {
	var entry NetworkIPAddresses
	var hasAddr bool

	for ua := adapter.FirstUnicastAddress; ua != nil; ua = ua.Next {
		if ua.DadState != ipDadStatePreferred {
			continue
		}

		sa := ua.Address.Sockaddr
		switch family := (*windows.RawSockaddr)(unsafe.Pointer(sa)).Family; family {
		case windows.AF_INET:
			in4 := (*windows.RawSockaddrInet4)(unsafe.Pointer(sa))
			entry.V4 = IPv4Address{Octets: in4.Addr}
			entry.V4PrefixLength = ua.OnLinkPrefixLength
			hasAddr = true
		case windows.AF_INET6:
			in6 := (*windows.RawSockaddrInet6)(unsafe.Pointer(sa))
			var natural [8]uint16
			for i := range natural {
				natural[i] = uint16(in6.Addr[2*i])<<8 | uint16(in6.Addr[2*i+1])
			}
			entry.V6 = IPv6Address{Hextets: natural}.ToNetworkBO()
			entry.V6PrefixLength = ua.OnLinkPrefixLength
			hasAddr = true
		}
	}

	return entry, hasAddr
}

func classifyAdaptersError(err error) *Error {
	return newSystemError(err)
}
