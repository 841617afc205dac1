package util

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ParseIPWithMask parses an IP address with CIDR notation
// Returns the IP, mask length, and any error
func ParseIPWithMask(cidr string) (net.IP, int, error) {
	ip, ipNet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid CIDR notation: %s", cidr)
	}
	ones, _ := ipNet.Mask.Size()
	return ip, ones, nil
}

// ComputeNetworkAddr returns the network address for a given IP and mask
func ComputeNetworkAddr(ipStr string, maskLen int) string {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return ""
	}
	ip = ip.To4()
	if ip == nil {
		return ""
	}

	mask := net.CIDRMask(maskLen, 32)
	network := ip.Mask(mask)
	return network.String()
}

// NthHost returns the n-th address of the subnet containing ipStr, where
// n=1 is the first address after the network address. Returns "" when the
// result falls outside the subnet or the input is not IPv4.
func NthHost(ipStr string, maskLen, n int) string {
	ip := net.ParseIP(ipStr)
	if ip == nil || ip.To4() == nil || maskLen < 0 || maskLen > 32 || n < 0 {
		return ""
	}
	network := ip.To4().Mask(net.CIDRMask(maskLen, 32))
	base := uint64(network[0])<<24 | uint64(network[1])<<16 | uint64(network[2])<<8 | uint64(network[3])
	size := uint64(1) << uint(32-maskLen)
	if uint64(n) >= size {
		return ""
	}
	v := base + uint64(n)
	return net.IPv4(byte(v>>24), byte(v>>16), byte(v>>8), byte(v)).String()
}

// IsValidIPv4 checks if a string is a valid IPv4 address
func IsValidIPv4(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	return ip != nil && ip.To4() != nil
}

// IsDottedQuad reports whether s is an IPv4 address written as exactly four
// dot-separated decimal octets.
func IsDottedQuad(s string) bool {
	if strings.Count(s, ".") != 3 {
		return false
	}
	return IsValidIPv4(s) && !strings.Contains(s, ":")
}

// SplitIPMask splits a CIDR notation into IP and mask length
// Returns the IP (without mask) and mask length
func SplitIPMask(cidr string) (string, int) {
	parts := strings.Split(cidr, "/")
	if len(parts) != 2 {
		return cidr, 0 // Return as-is if no mask
	}
	maskLen, err := strconv.Atoi(parts[1])
	if err != nil {
		return parts[0], 0
	}
	return parts[0], maskLen
}
