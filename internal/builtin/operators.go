// Package builtin implements the scalar matcher predicates (keyMatch,
// keyMatch2, regexMatch, ipMatch) that a PERM matcher expression can call.
package builtin

import (
	"fmt"
	"net"
	"regexp"
	"strings"
)

// KeyMatch reports whether k1 matches the RESTful path pattern k2.
// k2 may contain a single "*"; everything before it is matched as a
// literal prefix, everything after it is ignored. Without a "*", k1 and
// k2 must be identical.
func KeyMatch(k1, k2 string) bool {
	i := strings.Index(k2, "*")
	if i == -1 {
		return k1 == k2
	}
	if len(k1) > i {
		return k1[:i] == k2[:i]
	}
	return k1 == k2[:i]
}

// KeyMatch2 is KeyMatch plus colon-named path segments: "/:id" in k2
// matches any single non-"/" segment in k1.
func KeyMatch2(k1, k2 string) bool {
	k2 = strings.ReplaceAll(k2, "/*", "/.*")

	re := regexp.MustCompile(`:[^/]+`)
	for {
		loc := re.FindStringIndex(k2)
		if loc == nil {
			break
		}
		k2 = k2[:loc[0]] + "[^/]+" + k2[loc[1]:]
	}

	return RegexMatch(k1, "^"+k2+"$")
}

// RegexMatch reports whether k1 matches the regular expression k2.
// The match is unanchored unless the caller anchors k2 itself.
func RegexMatch(k1, k2 string) bool {
	re, err := regexp.Compile(k2)
	if err != nil {
		panic(fmt.Sprintf("builtin: invalid regex %q: %v", k2, err))
	}
	return re.MatchString(k1)
}

// IPMatch reports whether the IPv4 address ip1 is contained in ip2,
// where ip2 may be a bare IPv4 address or an IPv4 CIDR. IPv6 is not
// supported.
func IPMatch(ip1, ip2 string) bool {
	addr1 := net.ParseIP(ip1)
	if addr1 == nil || addr1.To4() == nil {
		panic(fmt.Sprintf("builtin: invalid IPv4 address %q", ip1))
	}

	if _, network, err := net.ParseCIDR(ip2); err == nil {
		return network.Contains(addr1)
	}

	addr2 := net.ParseIP(ip2)
	if addr2 == nil || addr2.To4() == nil {
		panic(fmt.Sprintf("builtin: invalid IPv4 address or network %q", ip2))
	}
	return addr1.Equal(addr2)
}
