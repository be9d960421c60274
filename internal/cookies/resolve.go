// Package cookies resolves per-host cookie files and refreshes them from
// a CookieCloud server.
package cookies

import (
	"os"
	"path/filepath"
	"strings"
)

// RegistrableDomain reduces a host to its second-level domain plus TLD,
// so "www.bilibili.com" becomes "bilibili.com". Hosts with fewer than
// two labels are returned unchanged.
func RegistrableDomain(host string) string {
	host = strings.TrimSuffix(host, ".")
	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return host
	}
	return strings.Join(parts[len(parts)-2:], ".")
}

// Resolve finds a cookie file for a host under dir. The exact host is
// tried first, then the registrable domain. Returns "" when neither
// file exists so callers degrade to anonymous access.
func Resolve(dir, host string) string {
	if dir == "" || host == "" {
		return ""
	}
	candidates := []string{host}
	if registrable := RegistrableDomain(host); registrable != host {
		candidates = append(candidates, registrable)
	}
	for _, candidate := range candidates {
		path := filepath.Join(dir, candidate+".txt")
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}
