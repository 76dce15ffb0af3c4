package socketshare

// NetworkIPAddresses is one network adapter's best IPv4 and/or IPv6 address
// (spec.md §3). At least one of V4/V6 is always non-zero for an entry
// returned by GetNetworkIPAddressesArray; V6 is stored in network byte
// order, matching every other IPv6Address crossing the library boundary.
type NetworkIPAddresses struct {
	V4PrefixLength uint8
	V6PrefixLength uint8
	V4             IPv4Address
	V6             IPv6Address
}

// GetNetworkIPAddressesArray enumerates the host's network adapters and
// returns each adapter's best IPv4 and/or IPv6 address (spec.md §4.4).
// Loopback adapters are skipped; only duplicate-address-detection
// "preferred" unicast addresses are considered (on hosts other than
// Windows, which expose no such state here, every unicast address counts
// as preferred), and at most one v4 and one
// v6 address is kept per adapter, with a later preferred address
// overwriting an earlier one. Adapters that end up with neither address
// preferred are dropped entirely.
func GetNetworkIPAddressesArray() ([]NetworkIPAddresses, error) {
	return Default.GetNetworkIPAddressesArray()
}

func (l *Library) GetNetworkIPAddressesArray() ([]NetworkIPAddresses, error) {
	if err := l.requireInitialized(); err != nil {
		return nil, err
	}

	addrs, rawErr := enumerateAdapters()
	if rawErr != nil {
		return nil, l.deliver(rawErr)
	}
	return addrs, nil
}

// IsIPv4AddressPreferred scores addrs.V4 and addrs.V6 on the same priority
// ladder the original used (zero=0 < global=1 < link-local=2 < private=3)
// and reports whether the v4 address scores at least as high as the v6
// address. addrs.V6 must be in network byte order, as returned by
// GetNetworkIPAddressesArray (spec.md §4.4).
func IsIPv4AddressPreferred(addrs NetworkIPAddresses) (bool, error) {
	return Default.IsIPv4AddressPreferred(addrs)
}

func (l *Library) IsIPv4AddressPreferred(addrs NetworkIPAddresses) (bool, error) {
	if err := l.requireInitialized(); err != nil {
		return false, err
	}
	return chooseV4Preferred(addrs.V4, addrs.V6), nil
}

// chooseV4Preferred ports _ChooseBestIPAddressInNetworkBO verbatim: a
// private v4 address short-circuits to preferred (fast path), otherwise
// both addresses are scored and v4 wins ties.
func chooseV4Preferred(v4 IPv4Address, v6NetBO IPv6Address) bool {
	if v4.IsPrivate() {
		return true
	}

	v4Score := uint8(1)
	switch {
	case v4.IsLinkLocal():
		v4Score = 2
	case v4.IsZero():
		v4Score = 0
	}

	v6Score := uint8(1)
	switch {
	case v6NetBO.IsLinkLocalInNetworkBO():
		v6Score = 2
	case v6NetBO.IsPrivateInNetworkBO():
		v6Score = 3
	case v6NetBO.IsZero():
		v6Score = 0
	}

	return v4Score >= v6Score
}
